package notifysvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"propertyhub/model"
)

const (
	TypeRequestApproved = "notify:request:approved"
	TypeRequestRejected = "notify:request:rejected"
)

type ApprovedPayload struct {
	RequestID int64     `json:"request_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	UnitID    int64     `json:"unit_id"`
	LeaseID   int64     `json:"lease_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type RejectedPayload struct {
	RequestID int64  `json:"request_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	UnitID    int64  `json:"unit_id"`
	Reason    string `json:"reason"`
}

// Notifier tells applicants about decisions. Calls never fail the caller.
type Notifier interface {
	RequestApproved(ctx context.Context, req model.RentalRequest, lease model.Lease)
	RequestRejected(ctx context.Context, req model.RentalRequest)
}

// Enqueuer is the part of *asynq.Client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type queue struct {
	enq Enqueuer
	log *zap.Logger
}

func NewQueue(enq Enqueuer, log *zap.Logger) Notifier {
	return &queue{enq: enq, log: log}
}

func (n *queue) RequestApproved(ctx context.Context, req model.RentalRequest, lease model.Lease) {
	n.enqueue(ctx, TypeRequestApproved, req.ID, ApprovedPayload{
		RequestID: req.ID,
		Email:     req.Email,
		FirstName: req.FirstName,
		UnitID:    req.UnitID,
		LeaseID:   lease.ID,
		StartDate: lease.StartDate,
		EndDate:   lease.EndDate,
	})
}

func (n *queue) RequestRejected(ctx context.Context, req model.RentalRequest) {
	reason := ""
	if req.RejectionReason != nil {
		reason = *req.RejectionReason
	}
	n.enqueue(ctx, TypeRequestRejected, req.ID, RejectedPayload{
		RequestID: req.ID,
		Email:     req.Email,
		FirstName: req.FirstName,
		UnitID:    req.UnitID,
		Reason:    reason,
	})
}

func (n *queue) enqueue(ctx context.Context, typ string, requestID int64, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		n.log.Error("notification payload", zap.String("type", typ), zap.Error(err))
		return
	}
	_, err = n.enq.EnqueueContext(ctx, asynq.NewTask(typ, b), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if err != nil {
		n.log.Warn("notification enqueue failed",
			zap.String("type", typ),
			zap.Int64("request_id", requestID),
			zap.Error(err))
	}
}

// Nop drops notifications; used when no queue is configured.
type Nop struct{}

func (Nop) RequestApproved(context.Context, model.RentalRequest, model.Lease) {}
func (Nop) RequestRejected(context.Context, model.RentalRequest)              {}

// Deliverer sends a message to an applicant.
type Deliverer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

type LogDeliverer struct{ Log *zap.Logger }

func (d LogDeliverer) Deliver(_ context.Context, to, subject, body string) error {
	d.Log.Info("notification delivered",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// Handler processes notification tasks on the worker side.
type Handler struct {
	d Deliverer
}

func NewHandler(d Deliverer) *Handler { return &Handler{d: d} }

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRequestApproved, h.HandleApproved)
	mux.HandleFunc(TypeRequestRejected, h.HandleRejected)
}

func (h *Handler) HandleApproved(ctx context.Context, t *asynq.Task) error {
	var p ApprovedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	body := fmt.Sprintf("Hi %s, your rental request #%d was approved. Lease #%d runs %s to %s.",
		p.FirstName, p.RequestID, p.LeaseID, p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
	return h.d.Deliver(ctx, p.Email, "Rental request approved", body)
}

func (h *Handler) HandleRejected(ctx context.Context, t *asynq.Task) error {
	var p RejectedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	body := fmt.Sprintf("Hi %s, your rental request #%d was rejected: %s", p.FirstName, p.RequestID, p.Reason)
	return h.d.Deliver(ctx, p.Email, "Rental request rejected", body)
}
