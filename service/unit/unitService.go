package unitsvc

import (
	"context"
	"strings"

	"propertyhub/model"
	leaserepo "propertyhub/repository/lease"
	unitrepo "propertyhub/repository/unit"
	auditsvc "propertyhub/service/audit"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Service interface {
	Create(ctx context.Context, p model.Principal, u model.Unit) (*model.Unit, error)
	// Update edits room number, floor, rent and size. Status is owned by the
	// lease and rental-request workflows.
	Update(ctx context.Context, p model.Principal, id int64, details model.Unit) (*model.Unit, error)
	Get(ctx context.Context, id int64) (*model.Unit, error)
	List(ctx context.Context, status *model.UnitStatus) ([]model.Unit, error)
	ListAvailable(ctx context.Context) ([]model.Unit, error)
	Delete(ctx context.Context, p model.Principal, id int64) error
	StartMaintenance(ctx context.Context, p model.Principal, id int64) (*model.Unit, error)
	EndMaintenance(ctx context.Context, p model.Principal, id int64) (*model.Unit, error)
}

type service struct {
	db     database.Querier
	tx     database.Transactor
	units  unitrepo.Repo
	leases leaserepo.Repo
	audit  auditsvc.Recorder
}

func New(db database.Querier, tx database.Transactor, units unitrepo.Repo, leases leaserepo.Repo, audit auditsvc.Recorder) Service {
	if audit == nil {
		audit = auditsvc.Nop{}
	}
	return &service{db: db, tx: tx, units: units, leases: leases, audit: audit}
}

func actor(p model.Principal) *int64 {
	if p.UserID == 0 {
		return nil
	}
	id := p.UserID
	return &id
}

func validate(u *model.Unit) error {
	u.RoomNumber = strings.TrimSpace(u.RoomNumber)
	if u.RoomNumber == "" {
		return apperr.BadInput("room number is required")
	}
	if u.Floor < 0 {
		return apperr.BadInput("floor must not be negative")
	}
	if u.RentAmount.IsNegative() {
		return apperr.BadInput("rent amount must not be negative")
	}
	if u.Size < 0 {
		return apperr.BadInput("size must not be negative")
	}
	return nil
}

func (s *service) Create(ctx context.Context, p model.Principal, u model.Unit) (*model.Unit, error) {
	if err := validate(&u); err != nil {
		return nil, err
	}
	u.ID = 0
	u.Status = model.UnitAvailable
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		taken, err := s.units.ExistsByRoomNumber(ctx, q, u.RoomNumber, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("room number %s already exists", u.RoomNumber)
		}
		return s.units.Insert(ctx, q, &u)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(model.AuditEntry{EntityType: model.EntityUnit, EntityID: u.ID, Action: model.AuditCreate,
		NewValue: u.RoomNumber, ActorID: actor(p)})
	return &u, nil
}

func (s *service) Update(ctx context.Context, p model.Principal, id int64, details model.Unit) (*model.Unit, error) {
	if err := validate(&details); err != nil {
		return nil, err
	}
	var (
		u       *model.Unit
		oldRent string
	)
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if u, err = s.units.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		taken, err := s.units.ExistsByRoomNumber(ctx, q, details.RoomNumber, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("room number %s already exists", details.RoomNumber)
		}
		oldRent = u.RentAmount.StringFixed(2)
		u.RoomNumber, u.Floor, u.RentAmount, u.Size = details.RoomNumber, details.Floor, details.RentAmount, details.Size
		return s.units.Update(ctx, q, u)
	})
	if err != nil {
		return nil, err
	}
	if newRent := u.RentAmount.StringFixed(2); newRent != oldRent {
		s.audit.Record(model.AuditEntry{EntityType: model.EntityUnit, EntityID: u.ID, Action: model.AuditPriceChange,
			OldValue: oldRent, NewValue: newRent, ActorID: actor(p)})
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Unit, error) {
	return s.units.ByID(ctx, s.db, id)
}

func (s *service) List(ctx context.Context, status *model.UnitStatus) ([]model.Unit, error) {
	if status != nil {
		switch *status {
		case model.UnitAvailable, model.UnitOccupied, model.UnitMaintenance, model.UnitReserved:
		default:
			return nil, apperr.BadInput("unknown unit status %q", *status)
		}
	}
	return s.units.List(ctx, s.db, status)
}

func (s *service) ListAvailable(ctx context.Context) ([]model.Unit, error) {
	st := model.UnitAvailable
	return s.units.List(ctx, s.db, &st)
}

func (s *service) Delete(ctx context.Context, p model.Principal, id int64) error {
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		u, err := s.units.ByIDForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if u.Status == model.UnitOccupied {
			return apperr.Conflict("unit %s is occupied", u.RoomNumber)
		}
		n, err := s.leases.CountOpenByUnit(ctx, q, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("unit %s still has active or pending leases", u.RoomNumber)
		}
		return s.units.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}
	s.audit.Record(model.AuditEntry{EntityType: model.EntityUnit, EntityID: id, Action: model.AuditDelete, ActorID: actor(p)})
	return nil
}

func (s *service) transition(ctx context.Context, p model.Principal, id int64, from, to model.UnitStatus) (*model.Unit, error) {
	var u *model.Unit
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if u, err = s.units.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		if u.Status != from {
			return apperr.InvalidState("unit %s is %s, expected %s", u.RoomNumber, u.Status, from)
		}
		u.Status = to
		return s.units.SetStatus(ctx, q, id, to)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(auditsvc.StatusChange(model.EntityUnit, id, string(from), string(to), actor(p), ""))
	return u, nil
}

func (s *service) StartMaintenance(ctx context.Context, p model.Principal, id int64) (*model.Unit, error) {
	return s.transition(ctx, p, id, model.UnitAvailable, model.UnitMaintenance)
}

func (s *service) EndMaintenance(ctx context.Context, p model.Principal, id int64) (*model.Unit, error) {
	return s.transition(ctx, p, id, model.UnitMaintenance, model.UnitAvailable)
}
