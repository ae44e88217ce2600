package memory

import (
	"context"
	"sort"

	"propertyhub/model"
	tenantrepo "propertyhub/repository/tenant"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type tenants struct{ s *Store }

func (s *Store) Tenants() tenantrepo.Repo { return tenants{s} }

func (r tenants) emailTaken(email string, excludeID int64) bool {
	for _, t := range r.s.t.tenants {
		if t.ID != excludeID && sameText(t.Email, email) {
			return true
		}
	}
	return false
}

func (r tenants) Insert(_ context.Context, _ database.Querier, t *model.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(t.Email, 0) {
		return apperr.Conflict("tenant email already exists")
	}
	t.ID = r.s.nextID()
	t.CreatedAt = now()
	r.s.t.tenants[t.ID] = *t
	return nil
}

func (r tenants) Update(_ context.Context, _ database.Querier, t *model.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.tenants[t.ID]; !ok {
		return apperr.NotFound("tenant %d not found", t.ID)
	}
	if r.emailTaken(t.Email, t.ID) {
		return apperr.Conflict("tenant email already exists")
	}
	r.s.t.tenants[t.ID] = *t
	return nil
}

func (r tenants) ByID(_ context.Context, _ database.Querier, id int64) (*model.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.t.tenants[id]
	if !ok {
		return nil, apperr.NotFound("tenant %d not found", id)
	}
	return &t, nil
}

func (r tenants) ByEmail(_ context.Context, _ database.Querier, email string) (*model.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.t.tenants {
		if sameText(t.Email, email) {
			return &t, nil
		}
	}
	return nil, apperr.NotFound("tenant %s not found", email)
}

func (r tenants) EmailTaken(_ context.Context, _ database.Querier, email string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.emailTaken(email, excludeID), nil
}

func (r tenants) List(_ context.Context, _ database.Querier) ([]model.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Tenant
	for _, t := range r.s.t.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r tenants) Delete(_ context.Context, _ database.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.tenants[id]; !ok {
		return apperr.NotFound("tenant %d not found", id)
	}
	for _, l := range r.s.t.leases {
		if l.TenantID == id {
			return apperr.Conflict("tenant has lease history")
		}
	}
	delete(r.s.t.tenants, id)
	return nil
}
