package tenantsvc

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"propertyhub/model"
	leaserepo "propertyhub/repository/lease"
	tenantrepo "propertyhub/repository/tenant"
	auditsvc "propertyhub/service/audit"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Service interface {
	Create(ctx context.Context, t model.Tenant) (*model.Tenant, error)
	Get(ctx context.Context, id int64) (*model.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
	Update(ctx context.Context, id int64, details model.Tenant) (*model.Tenant, error)
	Delete(ctx context.Context, id int64) error
	// ResolveByEmail returns the tenant with seed.Email, creating it from seed
	// when missing. Runs inside the caller's transaction.
	ResolveByEmail(ctx context.Context, q database.Querier, seed model.Tenant) (*model.Tenant, bool, error)
}

type service struct {
	db      database.Querier
	tx      database.Transactor
	tenants tenantrepo.Repo
	leases  leaserepo.Repo
	audit   auditsvc.Recorder
}

func New(db database.Querier, tx database.Transactor, tenants tenantrepo.Repo, leases leaserepo.Repo, audit auditsvc.Recorder) Service {
	if audit == nil {
		audit = auditsvc.Nop{}
	}
	return &service{db: db, tx: tx, tenants: tenants, leases: leases, audit: audit}
}

var v = validator.New()

func validate(t *model.Tenant) error {
	t.Email = strings.TrimSpace(t.Email)
	t.FirstName = strings.TrimSpace(t.FirstName)
	if t.Email == "" {
		return apperr.BadInput("email is required")
	}
	if err := v.Var(t.Email, "email"); err != nil {
		return apperr.BadInput("invalid email %q", t.Email)
	}
	if t.FirstName == "" {
		return apperr.BadInput("first name is required")
	}
	return nil
}

func (s *service) insert(ctx context.Context, q database.Querier, t *model.Tenant) error {
	taken, err := s.tenants.EmailTaken(ctx, q, t.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("tenant with email %s already exists", t.Email)
	}
	return s.tenants.Insert(ctx, q, t)
}

func (s *service) Create(ctx context.Context, t model.Tenant) (*model.Tenant, error) {
	if err := validate(&t); err != nil {
		return nil, err
	}
	t.ID = 0
	if err := s.tx.WithinTx(ctx, func(q database.Querier) error { return s.insert(ctx, q, &t) }); err != nil {
		return nil, err
	}
	s.audit.Record(model.AuditEntry{EntityType: model.EntityTenant, EntityID: t.ID, Action: model.AuditCreate, NewValue: t.Email})
	return &t, nil
}

func (s *service) ResolveByEmail(ctx context.Context, q database.Querier, seed model.Tenant) (*model.Tenant, bool, error) {
	if err := validate(&seed); err != nil {
		return nil, false, err
	}
	t, err := s.tenants.ByEmail(ctx, q, seed.Email)
	if err == nil {
		return t, false, nil
	}
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, false, err
	}
	seed.ID = 0
	if err := s.tenants.Insert(ctx, q, &seed); err != nil {
		return nil, false, err
	}
	return &seed, true, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Tenant, error) {
	return s.tenants.ByID(ctx, s.db, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	return s.tenants.ByEmail(ctx, s.db, strings.TrimSpace(email))
}

func (s *service) List(ctx context.Context) ([]model.Tenant, error) {
	return s.tenants.List(ctx, s.db)
}

func (s *service) Update(ctx context.Context, id int64, details model.Tenant) (*model.Tenant, error) {
	if err := validate(&details); err != nil {
		return nil, err
	}
	details.ID = id
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		cur, err := s.tenants.ByID(ctx, q, id)
		if err != nil {
			return err
		}
		taken, err := s.tenants.EmailTaken(ctx, q, details.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("tenant with email %s already exists", details.Email)
		}
		details.CreatedAt = cur.CreatedAt
		return s.tenants.Update(ctx, q, &details)
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(q database.Querier) error {
		if _, err := s.tenants.ByID(ctx, q, id); err != nil {
			return err
		}
		n, err := s.leases.CountActiveByTenant(ctx, q, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("tenant %d has an active lease", id)
		}
		return s.tenants.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}
	s.audit.Record(model.AuditEntry{EntityType: model.EntityTenant, EntityID: id, Action: model.AuditDelete})
	return nil
}
