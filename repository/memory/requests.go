package memory

import (
	"context"

	"propertyhub/model"
	rentalrequestrepo "propertyhub/repository/rentalrequest"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type requests struct{ s *Store }

func (s *Store) RentalRequests() rentalrequestrepo.Repo { return requests{s} }

func matches(r model.RentalRequest, a rentalrequestrepo.Applicant) bool {
	if a.UserID != nil && r.UserID != nil && *a.UserID == *r.UserID {
		return true
	}
	return sameText(r.Email, a.Email)
}

func (r requests) Insert(_ context.Context, _ database.Querier, rq *model.RentalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rq.ID = r.s.nextID()
	rq.UpdatedAt = now()
	r.s.t.requests[rq.ID] = *rq
	return nil
}

func (r requests) Update(_ context.Context, _ database.Querier, rq *model.RentalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.requests[rq.ID]; !ok {
		return apperr.NotFound("rental request %d not found", rq.ID)
	}
	rq.UpdatedAt = now()
	r.s.t.requests[rq.ID] = *rq
	return nil
}

func (r requests) ByID(_ context.Context, _ database.Querier, id int64) (*model.RentalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rq, ok := r.s.t.requests[id]
	if !ok {
		return nil, apperr.NotFound("rental request %d not found", id)
	}
	return &rq, nil
}

func (r requests) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.RentalRequest, error) {
	return r.ByID(ctx, q, id)
}

func (r requests) collect(keep func(model.RentalRequest) bool) []model.RentalRequest {
	var out []model.RentalRequest
	for _, rq := range r.s.t.requests {
		if keep(rq) {
			out = append(out, rq)
		}
	}
	sortRequests(out)
	return out
}

func (r requests) List(_ context.Context, _ database.Querier, status *model.RentalRequestStatus) ([]model.RentalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(rq model.RentalRequest) bool { return status == nil || rq.Status == *status }), nil
}

func (r requests) ListByUser(_ context.Context, _ database.Querier, userID int64) ([]model.RentalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(rq model.RentalRequest) bool { return rq.UserID != nil && *rq.UserID == userID }), nil
}

func (r requests) LatestByUser(ctx context.Context, q database.Querier, userID int64) (*model.RentalRequest, error) {
	all, _ := r.ListByUser(ctx, q, userID)
	if len(all) == 0 {
		return nil, apperr.NotFound("no rental requests for user %d", userID)
	}
	return &all[0], nil
}

func (r requests) HasUnacknowledgedRejection(_ context.Context, _ database.Querier, unitID int64, a rentalrequestrepo.Applicant) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.collect(func(rq model.RentalRequest) bool {
		return rq.UnitID == unitID && matches(rq, a) && rq.AwaitingAcknowledgement()
	})) > 0, nil
}

func (r requests) HasPending(_ context.Context, _ database.Querier, unitID int64, a rentalrequestrepo.Applicant) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.collect(func(rq model.RentalRequest) bool {
		return rq.UnitID == unitID && matches(rq, a) && rq.IsPending()
	})) > 0, nil
}

func (r requests) Delete(_ context.Context, _ database.Querier, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.requests[id]; !ok {
		return apperr.NotFound("rental request %d not found", id)
	}
	delete(r.s.t.requests, id)
	return nil
}
