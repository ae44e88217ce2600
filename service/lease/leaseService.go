package leasesvc

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"propertyhub/model"
	documentrepo "propertyhub/repository/document"
	leaserepo "propertyhub/repository/lease"
	tenantrepo "propertyhub/repository/tenant"
	unitrepo "propertyhub/repository/unit"
	auditsvc "propertyhub/service/audit"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
	"propertyhub/util/database"
)

const defaultTerminationReason = "Lease terminated"

type Service interface {
	// CreateLease opens an ACTIVE lease and marks the unit OCCUPIED.
	CreateLease(ctx context.Context, l model.Lease) (*model.Lease, error)
	// Open is CreateLease inside a caller-owned transaction. Audit entries are
	// the caller's job once it commits.
	Open(ctx context.Context, q database.Querier, l model.Lease) (*model.Lease, error)
	CreatePending(ctx context.Context, l model.Lease) (*model.Lease, error)
	ActivateLease(ctx context.Context, id int64) (*model.Lease, error)
	TerminateLease(ctx context.Context, id int64, reason string) (*model.Lease, error)
	ExpireLeases(ctx context.Context) (int, error)
	UpdateLease(ctx context.Context, id int64, upd model.LeaseUpdate) (*model.Lease, error)
	DeleteLease(ctx context.Context, id int64) error

	GetLease(ctx context.Context, id int64) (*model.Lease, error)
	GetAllLeases(ctx context.Context) ([]model.Lease, error)
	GetLeasesByStatus(ctx context.Context, status model.LeaseStatus) ([]model.Lease, error)
	GetLeasesByTenant(ctx context.Context, tenantID int64) ([]model.Lease, error)
	GetLeasesByUnit(ctx context.Context, unitID int64) ([]model.Lease, error)
	GetActiveLeaseByUnit(ctx context.Context, unitID int64) (*model.Lease, error)
	GetLeasesEndingSoon(ctx context.Context, days int) ([]model.Lease, error)
	GetExpiredLeases(ctx context.Context) ([]model.Lease, error)

	AttachDocument(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*model.Lease, error)
}

type Deps struct {
	DB      database.Querier
	Tx      database.Transactor
	Units   unitrepo.Repo
	Tenants tenantrepo.Repo
	Leases  leaserepo.Repo
	Docs    documentrepo.Store
	Audit   auditsvc.Recorder
	Clock   clock.Clock
	Log     *zap.Logger
}

type service struct {
	Deps
}

func New(d Deps) Service {
	if d.Audit == nil {
		d.Audit = auditsvc.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &service{Deps: d}
}

func (s *service) record(l *model.Lease, from model.LeaseStatus, reason string) {
	s.Audit.Record(auditsvc.StatusChange(model.EntityLease, l.ID, string(from), string(l.Status), nil, reason))
}

// normalize validates the requested range and money and truncates dates to days.
func normalize(l *model.Lease) error {
	if l.UnitID <= 0 {
		return apperr.BadInput("unit_id is required")
	}
	if l.TenantID <= 0 {
		return apperr.BadInput("tenant_id is required")
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return apperr.BadInput("start and end dates are required")
	}
	l.StartDate, l.EndDate = clock.DateOf(l.StartDate), clock.DateOf(l.EndDate)
	if l.EndDate.Before(l.StartDate) {
		return apperr.BadInput("end date must not precede start date")
	}
	if l.RentAmount.IsNegative() || l.SecurityDeposit.IsNegative() {
		return apperr.BadInput("amounts must not be negative")
	}
	return nil
}

func (s *service) checkOverlap(ctx context.Context, q database.Querier, l *model.Lease) error {
	clash, err := s.Leases.OverlappingActive(ctx, q, l.UnitID, l.StartDate, l.EndDate, l.ID)
	if err != nil {
		return err
	}
	if len(clash) > 0 {
		return apperr.Conflict("unit %d already has an active lease overlapping %s..%s (lease %d)",
			l.UnitID, l.StartDate.Format("2006-01-02"), l.EndDate.Format("2006-01-02"), clash[0].ID)
	}
	return nil
}

func (s *service) prepare(ctx context.Context, q database.Querier, l *model.Lease, lockUnit bool) (*model.Unit, error) {
	if err := normalize(l); err != nil {
		return nil, err
	}
	if _, err := s.Tenants.ByID(ctx, q, l.TenantID); err != nil {
		return nil, err
	}
	var (
		u   *model.Unit
		err error
	)
	if lockUnit {
		u, err = s.Units.ByIDForUpdate(ctx, q, l.UnitID)
	} else {
		u, err = s.Units.ByID(ctx, q, l.UnitID)
	}
	if err != nil {
		return nil, err
	}
	if l.RentAmount.IsZero() {
		l.RentAmount = u.RentAmount
	}
	return u, nil
}

func (s *service) Open(ctx context.Context, q database.Querier, l model.Lease) (*model.Lease, error) {
	l.ID = 0
	u, err := s.prepare(ctx, q, &l, true)
	if err != nil {
		return nil, err
	}
	if u.Status != model.UnitAvailable {
		return nil, apperr.Conflict("unit %s is not available (status %s)", u.RoomNumber, u.Status)
	}
	if err := s.checkOverlap(ctx, q, &l); err != nil {
		return nil, err
	}

	l.Status = model.LeaseActive
	l.TerminationReason = nil
	if err := s.Leases.Insert(ctx, q, &l); err != nil {
		return nil, err
	}
	if err := s.Units.SetStatus(ctx, q, u.ID, model.UnitOccupied); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *service) CreateLease(ctx context.Context, l model.Lease) (*model.Lease, error) {
	var out *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		out, err = s.Open(ctx, q, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityLease, EntityID: out.ID, Action: model.AuditCreate, NewValue: string(out.Status)})
	s.Audit.Record(auditsvc.StatusChange(model.EntityUnit, out.UnitID, string(model.UnitAvailable), string(model.UnitOccupied), nil, "lease opened"))
	return out, nil
}

func (s *service) CreatePending(ctx context.Context, l model.Lease) (*model.Lease, error) {
	l.ID = 0
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		if _, err := s.prepare(ctx, q, &l, true); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, q, &l); err != nil {
			return err
		}
		l.Status = model.LeasePending
		return s.Leases.Insert(ctx, q, &l)
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityLease, EntityID: l.ID, Action: model.AuditCreate, NewValue: string(l.Status)})
	return &l, nil
}

func (s *service) ActivateLease(ctx context.Context, id int64) (*model.Lease, error) {
	var l *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if l, err = s.Leases.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if l.Status != model.LeasePending {
			return apperr.InvalidState("lease %d is %s; only pending leases can be activated", id, l.Status)
		}
		u, err := s.Units.ByIDForUpdate(ctx, q, l.UnitID)
		if err != nil {
			return err
		}
		if u.Status != model.UnitAvailable {
			return apperr.Conflict("unit %s is not available (status %s)", u.RoomNumber, u.Status)
		}
		if err := s.checkOverlap(ctx, q, l); err != nil {
			return err
		}
		l.Status = model.LeaseActive
		if err := s.Leases.Update(ctx, q, l); err != nil {
			return err
		}
		return s.Units.SetStatus(ctx, q, u.ID, model.UnitOccupied)
	})
	if err != nil {
		return nil, err
	}
	s.record(l, model.LeasePending, "")
	return l, nil
}

func (s *service) TerminateLease(ctx context.Context, id int64, reason string) (*model.Lease, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultTerminationReason
	}
	var (
		l    *model.Lease
		from model.LeaseStatus
	)
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if l, err = s.Leases.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if l.Status == model.LeaseTerminated {
			return apperr.InvalidState("lease %d is already terminated", id)
		}
		from = l.Status
		l.Status = model.LeaseTerminated
		l.TerminationReason = &reason
		if err := s.Leases.Update(ctx, q, l); err != nil {
			return err
		}
		if from == model.LeaseActive {
			return s.Units.SetStatus(ctx, q, l.UnitID, model.UnitAvailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(l, from, reason)
	return l, nil
}

func (s *service) ExpireLeases(ctx context.Context) (int, error) {
	today := clock.Today(s.Clock)
	var expired []model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if expired, err = s.Leases.ExpireEndedBefore(ctx, q, today); err != nil {
			return err
		}
		ids := make([]int64, 0, len(expired))
		for _, l := range expired {
			ids = append(ids, l.UnitID)
		}
		return s.Units.SetStatusMany(ctx, q, ids, model.UnitAvailable)
	})
	if err != nil {
		return 0, err
	}
	for i := range expired {
		s.record(&expired[i], model.LeaseActive, "end date passed")
	}
	if len(expired) > 0 {
		s.Log.Info("leases expired", zap.Int("count", len(expired)), zap.Time("today", today))
	}
	return len(expired), nil
}

func (s *service) UpdateLease(ctx context.Context, id int64, upd model.LeaseUpdate) (*model.Lease, error) {
	var l *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if l, err = s.Leases.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if l.Status != model.LeasePending && l.Status != model.LeaseActive {
			return apperr.InvalidState("lease %d is %s and can no longer be edited", id, l.Status)
		}
		start, end := l.StartDate, l.EndDate
		if upd.StartDate != nil {
			l.StartDate = *upd.StartDate
		}
		if upd.EndDate != nil {
			l.EndDate = *upd.EndDate
		}
		if upd.RentAmount != nil {
			l.RentAmount = *upd.RentAmount
		}
		if upd.SecurityDeposit != nil {
			l.SecurityDeposit = *upd.SecurityDeposit
		}
		if err := normalize(l); err != nil {
			return err
		}
		if l.Status == model.LeaseActive && (!start.Equal(l.StartDate) || !end.Equal(l.EndDate)) {
			if _, err := s.Units.ByIDForUpdate(ctx, q, l.UnitID); err != nil {
				return err
			}
			if err := s.checkOverlap(ctx, q, l); err != nil {
				return err
			}
		}
		return s.Leases.Update(ctx, q, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) DeleteLease(ctx context.Context, id int64) error {
	var l *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if l, err = s.Leases.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if l.Status == model.LeaseActive {
			if err := s.Units.SetStatus(ctx, q, l.UnitID, model.UnitAvailable); err != nil {
				return err
			}
		}
		return s.Leases.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityLease, EntityID: id, Action: model.AuditDelete, OldValue: string(l.Status)})
	return nil
}

func (s *service) GetLease(ctx context.Context, id int64) (*model.Lease, error) {
	return s.Leases.ByID(ctx, s.DB, id)
}

func (s *service) GetAllLeases(ctx context.Context) ([]model.Lease, error) {
	return s.Leases.List(ctx, s.DB, leaserepo.Filter{})
}

func (s *service) GetLeasesByStatus(ctx context.Context, status model.LeaseStatus) ([]model.Lease, error) {
	switch status {
	case model.LeasePending, model.LeaseActive, model.LeaseExpired, model.LeaseTerminated:
	default:
		return nil, apperr.BadInput("unknown lease status %q", status)
	}
	return s.Leases.List(ctx, s.DB, leaserepo.Filter{Status: &status})
}

func (s *service) GetLeasesByTenant(ctx context.Context, tenantID int64) ([]model.Lease, error) {
	return s.Leases.List(ctx, s.DB, leaserepo.Filter{TenantID: &tenantID})
}

func (s *service) GetLeasesByUnit(ctx context.Context, unitID int64) ([]model.Lease, error) {
	return s.Leases.List(ctx, s.DB, leaserepo.Filter{UnitID: &unitID})
}

func (s *service) GetActiveLeaseByUnit(ctx context.Context, unitID int64) (*model.Lease, error) {
	return s.Leases.ActiveByUnit(ctx, s.DB, unitID)
}

func (s *service) GetLeasesEndingSoon(ctx context.Context, days int) ([]model.Lease, error) {
	if days < 0 {
		return nil, apperr.BadInput("days must not be negative")
	}
	today := clock.Today(s.Clock)
	return s.Leases.EndingBetween(ctx, s.DB, today, today.AddDate(0, 0, days))
}

func (s *service) GetExpiredLeases(ctx context.Context) ([]model.Lease, error) {
	return s.GetLeasesByStatus(ctx, model.LeaseExpired)
}

func (s *service) AttachDocument(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*model.Lease, error) {
	if s.Docs == nil {
		return nil, apperr.InvalidState("document storage is not configured")
	}
	if _, err := s.Leases.ByID(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := documentrepo.LeaseKey(id, filename)
	if err := s.Docs.Put(ctx, key, contentType, body); err != nil {
		return nil, err
	}

	var l *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if l, err = s.Leases.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		l.DocumentKey = &key
		return s.Leases.Update(ctx, q, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}
