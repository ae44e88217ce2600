package rentalrequestsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"propertyhub/model"
	leaserepo "propertyhub/repository/lease"
	rentalrequestrepo "propertyhub/repository/rentalrequest"
	tenantrepo "propertyhub/repository/tenant"
	unitrepo "propertyhub/repository/unit"
	userrepo "propertyhub/repository/user"
	auditsvc "propertyhub/service/audit"
	leasesvc "propertyhub/service/lease"
	notifysvc "propertyhub/service/notify"
	tenantsvc "propertyhub/service/tenant"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
	"propertyhub/util/database"
	"propertyhub/util/hash"
)

// Approval is everything ApproveRequestWithLease touched.
type Approval struct {
	Request       *model.RentalRequest `json:"request"`
	Lease         *model.Lease         `json:"lease"`
	Tenant        *model.Tenant        `json:"tenant"`
	User          *model.User          `json:"user"`
	TenantCreated bool                 `json:"tenant_created"`
	UserCreated   bool                 `json:"user_created"`
}

type Service interface {
	CreateRentalRequest(ctx context.Context, p model.Principal, req model.RentalRequest) (*model.RentalRequest, error)
	ApproveRequest(ctx context.Context, id, approverID int64) (*model.RentalRequest, error)
	// ApproveRequestWithLease approves, resolves the tenant, opens the lease and
	// provisions the applicant's account in one transaction.
	ApproveRequestWithLease(ctx context.Context, id, approverID int64, start, end time.Time) (*Approval, error)
	RejectRequest(ctx context.Context, id int64, reason string, rejecterID int64) (*model.RentalRequest, error)
	AcknowledgeRejection(ctx context.Context, requestID, userID int64) (bool, error)
	GetMyLatestRequest(ctx context.Context, userID int64) (*model.MyRentalRequest, error)
	DeleteRentalRequest(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) (*model.RentalRequest, error)

	Get(ctx context.Context, id int64) (*model.RentalRequest, error)
	List(ctx context.Context, status *model.RentalRequestStatus) ([]model.RentalRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]model.RentalRequest, error)
}

type Deps struct {
	DB       database.Querier
	Tx       database.Transactor
	Requests rentalrequestrepo.Repo
	Units    unitrepo.Repo
	Leases   leaserepo.Repo
	Tenants  tenantrepo.Repo
	Users    userrepo.Repo
	TenantSv tenantsvc.Service
	LeaseSv  leasesvc.Service
	Audit    auditsvc.Recorder
	Notifier notifysvc.Notifier
	Clock    clock.Clock
	Log      *zap.Logger
}

type service struct {
	Deps
}

func New(d Deps) Service {
	if d.Audit == nil {
		d.Audit = auditsvc.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = notifysvc.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &service{Deps: d}
}

var v = validator.New()

func (s *service) recordStatus(r *model.RentalRequest, from model.RentalRequestStatus, actor *int64, reason string) {
	s.Audit.Record(auditsvc.StatusChange(model.EntityRentalRequest, r.ID, string(from), string(r.Status), actor, reason))
}

func (s *service) CreateRentalRequest(ctx context.Context, p model.Principal, req model.RentalRequest) (*model.RentalRequest, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		req.Email = p.Email
	}
	if p.UserID != 0 {
		uid := p.UserID
		req.UserID = &uid
	} else {
		req.UserID = nil
	}
	if req.FirstName == "" {
		return nil, apperr.BadInput("first name is required")
	}
	if err := v.Var(req.Email, "required,email"); err != nil {
		return nil, apperr.BadInput("a valid email is required")
	}
	if req.UnitID <= 0 {
		return nil, apperr.BadInput("unit_id is required")
	}

	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		u, err := s.Units.ByIDForUpdate(ctx, q, req.UnitID)
		if err != nil {
			return err
		}
		if u.Status != model.UnitAvailable {
			return apperr.Conflict("unit not available")
		}
		who := rentalrequestrepo.Applicant{UserID: req.UserID, Email: req.Email}
		blocked, err := s.Requests.HasUnacknowledgedRejection(ctx, q, req.UnitID, who)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.Conflict("acknowledge the previous rejection for this unit before applying again")
		}
		pending, err := s.Requests.HasPending(ctx, q, req.UnitID, who)
		if err != nil {
			return err
		}
		if pending {
			return apperr.Conflict("a request for this unit is already pending")
		}

		req.ID = 0
		req.Status = model.RequestPending
		req.RequestDate = s.Clock.Now()
		req.ApprovedBy, req.ApprovedAt = nil, nil
		req.RejectedBy, req.RejectedAt, req.RejectionReason, req.RejectionAcknowledgedAt = nil, nil, nil, nil
		req.LeaseID = nil
		return s.Requests.Insert(ctx, q, &req)
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityRentalRequest, EntityID: req.ID, Action: model.AuditCreate,
		NewValue: string(req.Status), ActorID: req.UserID})
	return &req, nil
}

func (s *service) ApproveRequest(ctx context.Context, id, approverID int64) (*model.RentalRequest, error) {
	var r *model.RentalRequest
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if r, err = s.Requests.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if !r.IsPending() {
			return apperr.InvalidState("rental request %d is %s; only pending requests can be approved", id, r.Status)
		}
		now := s.Clock.Now()
		r.Status, r.ApprovedBy, r.ApprovedAt = model.RequestApproved, &approverID, &now
		return s.Requests.Update(ctx, q, r)
	})
	if err != nil {
		return nil, err
	}
	s.recordStatus(r, model.RequestPending, &approverID, "")
	return r, nil
}

func (s *service) ApproveRequestWithLease(ctx context.Context, id, approverID int64, start, end time.Time) (*Approval, error) {
	out := &Approval{}
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		r, err := s.Requests.ByIDForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if !r.IsPending() {
			return apperr.InvalidState("rental request %d is %s; only pending requests can be approved", id, r.Status)
		}

		tenant, created, err := s.TenantSv.ResolveByEmail(ctx, q, model.Tenant{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Phone:      r.Phone,
			Email:      r.Email,
			Occupation: r.Occupation,
		})
		if err != nil {
			return fmt.Errorf("resolve tenant: %w", err)
		}
		out.Tenant, out.TenantCreated = tenant, created

		lease, err := s.LeaseSv.Open(ctx, q, model.Lease{
			UnitID:    r.UnitID,
			TenantID:  tenant.ID,
			StartDate: start,
			EndDate:   end,
		})
		if err != nil {
			return err
		}
		out.Lease = lease

		if out.User, out.UserCreated, err = s.provisionUser(ctx, q, r); err != nil {
			return fmt.Errorf("provision account: %w", err)
		}

		now := s.Clock.Now()
		r.Status, r.ApprovedBy, r.ApprovedAt = model.RequestApproved, &approverID, &now
		if r.UserID == nil {
			r.UserID = &out.User.ID
		}
		r.LeaseID = &lease.ID
		if err := s.Requests.Update(ctx, q, r); err != nil {
			return err
		}
		out.Request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordStatus(out.Request, model.RequestPending, &approverID, "approved with lease")
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityLease, EntityID: out.Lease.ID, Action: model.AuditCreate,
		NewValue: string(out.Lease.Status), ActorID: &approverID})
	s.Audit.Record(auditsvc.StatusChange(model.EntityUnit, out.Lease.UnitID, string(model.UnitAvailable),
		string(model.UnitOccupied), &approverID, "rental request approved"))
	s.Notifier.RequestApproved(ctx, *out.Request, *out.Lease)
	s.Log.Info("rental request approved",
		zap.Int64("request_id", id),
		zap.Int64("lease_id", out.Lease.ID),
		zap.Bool("user_created", out.UserCreated))
	return out, nil
}

// provisionUser returns the filer's account, or the account for the
// applicant's email, creating a VILLAGER account with an unusable random
// password when there is none.
func (s *service) provisionUser(ctx context.Context, q database.Querier, r *model.RentalRequest) (*model.User, bool, error) {
	if r.UserID != nil {
		u, err := s.Users.ByID(ctx, q, *r.UserID)
		return u, false, err
	}
	u, err := s.Users.ByEmail(ctx, q, r.Email)
	if err == nil {
		return u, false, nil
	}
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, false, err
	}
	hashed, err := hash.HashPassword(uuid.NewString())
	if err != nil {
		return nil, false, err
	}
	username := strings.ToLower(r.Email)
	taken, err := s.Users.UsernameTaken(ctx, q, username)
	if err != nil {
		return nil, false, err
	}
	if taken {
		username += "-" + uuid.NewString()[:8]
	}
	u = &model.User{
		Username:     username,
		Email:        r.Email,
		PasswordHash: hashed,
		Role:         model.RoleVillager,
	}
	if err := s.Users.Create(ctx, q, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *service) RejectRequest(ctx context.Context, id int64, reason string, rejecterID int64) (*model.RentalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.BadInput("rejection reason is required")
	}
	var r *model.RentalRequest
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if r, err = s.Requests.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if !r.IsPending() {
			return apperr.InvalidState("rental request %d is %s; only pending requests can be rejected", id, r.Status)
		}
		now := s.Clock.Now()
		r.Status, r.RejectedBy, r.RejectedAt, r.RejectionReason = model.RequestRejected, &rejecterID, &now, &reason
		return s.Requests.Update(ctx, q, r)
	})
	if err != nil {
		return nil, err
	}
	s.recordStatus(r, model.RequestPending, &rejecterID, reason)
	s.Notifier.RequestRejected(ctx, *r)
	return r, nil
}

func (s *service) AcknowledgeRejection(ctx context.Context, requestID, userID int64) (bool, error) {
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		r, err := s.Requests.ByIDForUpdate(ctx, q, requestID)
		if err != nil {
			return err
		}
		p := model.Principal{UserID: userID}
		if u, err := s.Users.ByID(ctx, q, userID); err == nil {
			p.Email = u.Email
		} else if apperr.CodeOf(err) != apperr.CodeNotFound {
			return err
		}
		if !r.OwnedBy(p) {
			return apperr.Forbidden("rental request %d does not belong to you", requestID)
		}
		if !r.IsRejected() {
			return apperr.InvalidState("rental request %d is %s, not rejected", requestID, r.Status)
		}
		if r.RejectionAcknowledgedAt != nil {
			return apperr.Conflict("rejection already acknowledged")
		}
		now := s.Clock.Now()
		r.RejectionAcknowledgedAt = &now
		return s.Requests.Update(ctx, q, r)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) GetMyLatestRequest(ctx context.Context, userID int64) (*model.MyRentalRequest, error) {
	r, err := s.Requests.LatestByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := &model.MyRentalRequest{
		Request:                 *r,
		IsPending:               r.IsPending(),
		IsApproved:              r.IsApproved(),
		IsRejected:              r.IsRejected(),
		RequiresAcknowledgement: r.AwaitingAcknowledgement(),
	}

	if u, err := s.Units.ByID(ctx, s.DB, r.UnitID); err == nil {
		out.Unit = u
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, err
	}

	lease, err := s.applicantLease(ctx, r)
	if err != nil {
		return nil, err
	}
	out.Lease = lease
	out.HasActiveLease = lease != nil && lease.Status == model.LeaseActive
	out.CanCreateNewRequest = !out.IsPending && !out.RequiresAcknowledgement && !out.HasActiveLease &&
		out.Unit != nil && out.Unit.Status == model.UnitAvailable
	out.StatusMessage = statusMessage(r, out.HasActiveLease)
	return out, nil
}

// applicantLease finds the lease tied to the request, falling back to the
// unit's active lease when it belongs to the applicant's tenant record.
func (s *service) applicantLease(ctx context.Context, r *model.RentalRequest) (*model.Lease, error) {
	if r.LeaseID != nil {
		l, err := s.Leases.ByID(ctx, s.DB, *r.LeaseID)
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, nil
		}
		return l, err
	}
	l, err := s.Leases.ActiveByUnit(ctx, s.DB, r.UnitID)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := s.Tenants.ByID(ctx, s.DB, l.TenantID)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(t.Email, r.Email) {
		return nil, nil
	}
	return l, nil
}

func statusMessage(r *model.RentalRequest, activeLease bool) string {
	switch r.Status {
	case model.RequestPending:
		return "Your rental request is being reviewed."
	case model.RequestApproved:
		if activeLease {
			return "Your rental request was approved and your lease is active."
		}
		return "Your rental request was approved."
	case model.RequestRejected:
		if r.RejectionAcknowledgedAt == nil {
			reason := ""
			if r.RejectionReason != nil {
				reason = ": " + *r.RejectionReason
			}
			return "Your rental request was rejected" + reason + ". Please acknowledge it before submitting a new request."
		}
		return "Your rental request was rejected. You can submit a new request."
	case model.RequestCompleted:
		return "Your tenancy has ended. You can submit a new request."
	}
	return ""
}

func (s *service) DeleteRentalRequest(ctx context.Context, id int64) error {
	if err := s.Tx.WithinTx(ctx, func(q database.Querier) error { return s.Requests.Delete(ctx, q, id) }); err != nil {
		return err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityRentalRequest, EntityID: id, Action: model.AuditDelete})
	return nil
}

func (s *service) Complete(ctx context.Context, id int64) (*model.RentalRequest, error) {
	var r *model.RentalRequest
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if r, err = s.Requests.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if !r.IsApproved() {
			return apperr.InvalidState("rental request %d is %s; only approved requests can be completed", id, r.Status)
		}
		if r.LeaseID != nil {
			l, err := s.Leases.ByID(ctx, q, *r.LeaseID)
			if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
				return err
			}
			if l != nil && l.Status == model.LeaseActive {
				return apperr.InvalidState("lease %d is still active", l.ID)
			}
		}
		r.Status = model.RequestCompleted
		return s.Requests.Update(ctx, q, r)
	})
	if err != nil {
		return nil, err
	}
	s.recordStatus(r, model.RequestApproved, nil, "")
	return r, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.RentalRequest, error) {
	return s.Requests.ByID(ctx, s.DB, id)
}

func (s *service) List(ctx context.Context, status *model.RentalRequestStatus) ([]model.RentalRequest, error) {
	return s.Requests.List(ctx, s.DB, status)
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]model.RentalRequest, error) {
	return s.Requests.ListByUser(ctx, s.DB, userID)
}
