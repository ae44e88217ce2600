package memory

import (
	"context"

	"propertyhub/model"
	userrepo "propertyhub/repository/user"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type users struct{ s *Store }

func (s *Store) Users() userrepo.Repo { return users{s} }

func (r users) Create(_ context.Context, _ database.Querier, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.t.users {
		if sameText(o.Email, u.Email) || o.Username == u.Username {
			return apperr.Conflict("email or username already registered")
		}
	}
	u.ID = r.s.nextID()
	u.CreatedAt = now()
	r.s.t.users[u.ID] = *u
	return nil
}

func (r users) ByEmail(_ context.Context, _ database.Querier, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.t.users {
		if sameText(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user %s not found", email)
}

func (r users) ByID(_ context.Context, _ database.Querier, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.t.users[id]
	if !ok {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return &u, nil
}

func (r users) UsernameTaken(_ context.Context, _ database.Querier, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.t.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}
