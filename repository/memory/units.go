package memory

import (
	"context"
	"sort"

	"propertyhub/model"
	unitrepo "propertyhub/repository/unit"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type units struct{ s *Store }

func (s *Store) Units() unitrepo.Repo { return units{s} }

func (r units) roomTaken(room string, excludeID int64) bool {
	for _, u := range r.s.t.units {
		if u.ID != excludeID && u.RoomNumber == room {
			return true
		}
	}
	return false
}

func (r units) Insert(_ context.Context, _ database.Querier, u *model.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.roomTaken(u.RoomNumber, 0) {
		return apperr.Conflict("room number already exists")
	}
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now(), now()
	r.s.t.units[u.ID] = *u
	return nil
}

func (r units) Update(_ context.Context, _ database.Querier, u *model.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.units[u.ID]; !ok {
		return apperr.NotFound("unit %d not found", u.ID)
	}
	if r.roomTaken(u.RoomNumber, u.ID) {
		return apperr.Conflict("room number already exists")
	}
	u.UpdatedAt = now()
	r.s.t.units[u.ID] = *u
	return nil
}

func (r units) ByID(_ context.Context, _ database.Querier, id int64) (*model.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.t.units[id]
	if !ok {
		return nil, apperr.NotFound("unit %d not found", id)
	}
	return &u, nil
}

func (r units) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Unit, error) {
	return r.ByID(ctx, q, id)
}

func (r units) ExistsByRoomNumber(_ context.Context, _ database.Querier, room string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.roomTaken(room, excludeID), nil
}

func (r units) List(_ context.Context, _ database.Querier, status *model.UnitStatus) ([]model.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Unit
	for _, u := range r.s.t.units {
		if status == nil || u.Status == *status {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (r units) SetStatus(_ context.Context, _ database.Querier, id int64, status model.UnitStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.t.units[id]
	if !ok {
		return apperr.NotFound("unit %d not found", id)
	}
	u.Status, u.UpdatedAt = status, now()
	r.s.t.units[id] = u
	return nil
}

func (r units) SetStatusMany(_ context.Context, _ database.Querier, ids []int64, status model.UnitStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if u, ok := r.s.t.units[id]; ok {
			u.Status, u.UpdatedAt = status, now()
			r.s.t.units[id] = u
		}
	}
	return nil
}

func (r units) Delete(_ context.Context, _ database.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.units[id]; !ok {
		return apperr.NotFound("unit %d not found", id)
	}
	for _, l := range r.s.t.leases {
		if l.UnitID == id {
			return apperr.Conflict("unit has lease or rental request history")
		}
	}
	for _, rr := range r.s.t.requests {
		if rr.UnitID == id {
			return apperr.Conflict("unit has lease or rental request history")
		}
	}
	delete(r.s.t.units, id)
	return nil
}
