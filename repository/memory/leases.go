package memory

import (
	"context"
	"sort"
	"time"

	"propertyhub/model"
	leaserepo "propertyhub/repository/lease"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type leases struct{ s *Store }

func (s *Store) Leases() leaserepo.Repo { return leases{s} }

// activeClash mirrors the partial unique index on ACTIVE leases per unit.
func (r leases) activeClash(l *model.Lease) bool {
	if l.Status != model.LeaseActive {
		return false
	}
	for _, o := range r.s.t.leases {
		if o.ID != l.ID && o.UnitID == l.UnitID && o.Status == model.LeaseActive {
			return true
		}
	}
	return false
}

func (r leases) Insert(_ context.Context, _ database.Querier, l *model.Lease) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.activeClash(l) {
		return apperr.Conflict("unit already has an active lease for these dates")
	}
	l.ID = r.s.nextID()
	l.CreatedAt, l.UpdatedAt = now(), now()
	r.s.t.leases[l.ID] = *l
	return nil
}

func (r leases) Update(_ context.Context, _ database.Querier, l *model.Lease) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.leases[l.ID]; !ok {
		return apperr.NotFound("lease %d not found", l.ID)
	}
	if r.activeClash(l) {
		return apperr.Conflict("unit already has an active lease for these dates")
	}
	l.UpdatedAt = now()
	r.s.t.leases[l.ID] = *l
	return nil
}

func (r leases) ByID(_ context.Context, _ database.Querier, id int64) (*model.Lease, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.t.leases[id]
	if !ok {
		return nil, apperr.NotFound("lease %d not found", id)
	}
	return &l, nil
}

func (r leases) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Lease, error) {
	return r.ByID(ctx, q, id)
}

func (r leases) filter(keep func(model.Lease) bool) []model.Lease {
	var out []model.Lease
	for _, l := range r.s.t.leases {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (r leases) List(_ context.Context, _ database.Querier, f leaserepo.Filter) ([]model.Lease, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.filter(func(l model.Lease) bool {
		return (f.Status == nil || l.Status == *f.Status) &&
			(f.TenantID == nil || l.TenantID == *f.TenantID) &&
			(f.UnitID == nil || l.UnitID == *f.UnitID)
	})
	sortLeases(out)
	return out, nil
}

func (r leases) ActiveByUnit(_ context.Context, _ database.Querier, unitID int64) (*model.Lease, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.t.leases {
		if l.UnitID == unitID && l.Status == model.LeaseActive {
			return &l, nil
		}
	}
	return nil, apperr.NotFound("no active lease for unit %d", unitID)
}

func (r leases) OverlappingActive(_ context.Context, _ database.Querier, unitID int64, start, end time.Time, excludeID int64) ([]model.Lease, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(l model.Lease) bool {
		return l.UnitID == unitID && l.Status == model.LeaseActive && l.ID != excludeID && l.Overlaps(start, end)
	}), nil
}

func (r leases) EndingBetween(_ context.Context, _ database.Querier, from, to time.Time) ([]model.Lease, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.filter(func(l model.Lease) bool {
		return l.Status == model.LeaseActive && !l.EndDate.Before(from) && !l.EndDate.After(to)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].EndDate.Before(out[j].EndDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r leases) ExpireEndedBefore(_ context.Context, _ database.Querier, day time.Time) ([]model.Lease, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.filter(func(l model.Lease) bool {
		return l.Status == model.LeaseActive && l.EndDate.Before(day)
	})
	for i := range out {
		out[i].Status, out[i].UpdatedAt = model.LeaseExpired, now()
		r.s.t.leases[out[i].ID] = out[i]
	}
	return out, nil
}

func (r leases) CountOpenByUnit(_ context.Context, _ database.Querier, unitID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.filter(func(l model.Lease) bool {
		return l.UnitID == unitID && (l.Status == model.LeaseActive || l.Status == model.LeasePending)
	})), nil
}

func (r leases) CountActiveByTenant(_ context.Context, _ database.Querier, tenantID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.filter(func(l model.Lease) bool {
		return l.TenantID == tenantID && l.Status == model.LeaseActive
	})), nil
}

func (r leases) Delete(_ context.Context, _ database.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.leases[id]; !ok {
		return apperr.NotFound("lease %d not found", id)
	}
	delete(r.s.t.leases, id)
	for k, rq := range r.s.t.requests {
		if rq.LeaseID != nil && *rq.LeaseID == id {
			rq.LeaseID = nil
			r.s.t.requests[k] = rq
		}
	}
	return nil
}
