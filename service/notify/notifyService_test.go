package notifysvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propertyhub/model"
	notifysvc "propertyhub/service/notify"
)

type enqMock struct{ mock.Mock }

func (m *enqMock) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task.Type(), task.Payload())
	return nil, args.Error(0)
}

type deliverMock struct{ mock.Mock }

func (m *deliverMock) Deliver(ctx context.Context, to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

func TestRequestApprovedEnqueuesPayload(t *testing.T) {
	enq := &enqMock{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	enq.On("EnqueueContext", notifysvc.TypeRequestApproved, mock.MatchedBy(func(b []byte) bool {
		var p notifysvc.ApprovedPayload
		return json.Unmarshal(b, &p) == nil && p.RequestID == 4 && p.LeaseID == 9 && p.StartDate.Equal(start)
	})).Return(nil)

	n := notifysvc.NewQueue(enq, zap.NewNop())
	n.RequestApproved(context.Background(),
		model.RentalRequest{ID: 4, Email: "a@b.c", UnitID: 1},
		model.Lease{ID: 9, StartDate: start, EndDate: start.AddDate(1, 0, 0)})
	enq.AssertExpectations(t)
}

func TestEnqueueFailureIsSwallowed(t *testing.T) {
	enq := &enqMock{}
	enq.On("EnqueueContext", notifysvc.TypeRequestRejected, mock.Anything).Return(errors.New("redis down"))

	reason := "incomplete"
	n := notifysvc.NewQueue(enq, zap.NewNop())
	require.NotPanics(t, func() {
		n.RequestRejected(context.Background(), model.RentalRequest{ID: 1, RejectionReason: &reason})
	})
	enq.AssertExpectations(t)
}

func TestHandleRejectedDelivers(t *testing.T) {
	d := &deliverMock{}
	d.On("Deliver", "a@b.c", "Rental request rejected", mock.MatchedBy(func(body string) bool {
		return body == "Hi Ann, your rental request #2 was rejected: incomplete"
	})).Return(nil)

	b, _ := json.Marshal(notifysvc.RejectedPayload{RequestID: 2, Email: "a@b.c", FirstName: "Ann", Reason: "incomplete"})
	h := notifysvc.NewHandler(d)
	require.NoError(t, h.HandleRejected(context.Background(), asynq.NewTask(notifysvc.TypeRequestRejected, b)))
	d.AssertExpectations(t)
}

func TestHandleBadPayloadSkipsRetry(t *testing.T) {
	h := notifysvc.NewHandler(notifysvc.LogDeliverer{Log: zap.NewNop()})
	err := h.HandleApproved(context.Background(), asynq.NewTask(notifysvc.TypeRequestApproved, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
