// Package memory is an in-process implementation of the repositories. Its
// transactor runs one transaction at a time and restores a snapshot on
// rollback, so services behave the same as on Postgres.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"propertyhub/model"
	"propertyhub/util/database"
)

var errNoSQL = errors.New("memory store does not execute SQL")

type tables struct {
	units    map[int64]model.Unit
	tenants  map[int64]model.Tenant
	leases   map[int64]model.Lease
	requests map[int64]model.RentalRequest
	users    map[int64]model.User
	invoices map[int64]model.Invoice
	seq      int64
}

func newTables() tables {
	return tables{
		units:    map[int64]model.Unit{},
		tenants:  map[int64]model.Tenant{},
		leases:   map[int64]model.Lease{},
		requests: map[int64]model.RentalRequest{},
		users:    map[int64]model.User{},
		invoices: map[int64]model.Invoice{},
	}
}

func (t tables) clone() tables {
	c := tables{
		units:    make(map[int64]model.Unit, len(t.units)),
		tenants:  make(map[int64]model.Tenant, len(t.tenants)),
		leases:   make(map[int64]model.Lease, len(t.leases)),
		requests: make(map[int64]model.RentalRequest, len(t.requests)),
		users:    make(map[int64]model.User, len(t.users)),
		invoices: make(map[int64]model.Invoice, len(t.invoices)),
		seq:      t.seq,
	}
	for k, v := range t.units {
		c.units[k] = v
	}
	for k, v := range t.tenants {
		c.tenants[k] = v
	}
	for k, v := range t.leases {
		c.leases[k] = v
	}
	for k, v := range t.requests {
		c.requests[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.invoices {
		c.invoices[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	t    tables
}

func New() *Store { return &Store{t: newTables()} }

// WithinTx serializes transactions and rolls back by restoring the snapshot.
func (s *Store) WithinTx(ctx context.Context, fn func(q database.Querier) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.t.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

func (s *Store) restore(snap tables) {
	s.mu.Lock()
	s.t = snap
	s.mu.Unlock()
}

func (s *Store) nextID() int64 {
	s.t.seq++
	return s.t.seq
}

// Querier methods exist only so the store can be handed to services in place of *sql.DB.

func (s *Store) ExecContext(context.Context, string, ...any) (sql.Result, error) { return nil, errNoSQL }
func (s *Store) QueryContext(context.Context, string, ...any) (*sql.Rows, error) { return nil, errNoSQL }
func (s *Store) QueryRowContext(context.Context, string, ...any) *sql.Row      { return nil }

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func now() time.Time { return time.Now().UTC() }

func sortLeases(ls []model.Lease) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].StartDate.Equal(ls[j].StartDate) {
			return ls[i].StartDate.After(ls[j].StartDate)
		}
		return ls[i].ID > ls[j].ID
	})
}

func sortRequests(rs []model.RentalRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].RequestDate.Equal(rs[j].RequestDate) {
			return rs[i].RequestDate.After(rs[j].RequestDate)
		}
		return rs[i].ID > rs[j].ID
	})
}
