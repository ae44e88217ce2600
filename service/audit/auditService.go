package auditsvc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"propertyhub/model"
	auditrepo "propertyhub/repository/audit"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
)

const writeTimeout = 5 * time.Second

// Recorder accepts history entries without making the caller wait or fail.
type Recorder interface {
	Record(e model.AuditEntry)
}

type Page struct {
	Items []model.AuditEntry `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

type Service interface {
	Recorder
	List(ctx context.Context, entityType string, entityID *int64, page, size int) (*Page, error)
	// Flush waits for in-flight writes.
	Flush()
}

type service struct {
	repo  auditrepo.Repo
	clock clock.Clock
	log   *zap.Logger
	wg    sync.WaitGroup
}

func New(repo auditrepo.Repo, c clock.Clock, log *zap.Logger) Service {
	if c == nil {
		c = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{repo: repo, clock: c, log: log}
}

func (s *service) Record(e model.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.repo.Insert(ctx, &e); err != nil {
			s.log.Warn("audit write failed",
				zap.String("entity_type", e.EntityType),
				zap.Int64("entity_id", e.EntityID),
				zap.String("action", string(e.Action)),
				zap.Error(err))
		}
	}()
}

func (s *service) Flush() { s.wg.Wait() }

func (s *service) List(ctx context.Context, entityType string, entityID *int64, page, size int) (*Page, error) {
	if entityType == "" {
		return nil, apperr.BadInput("entity_type is required")
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	items, total, err := s.repo.List(ctx, auditrepo.Query{
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      int64(size),
		Offset:     int64((page - 1) * size),
	})
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// StatusChange builds a STATUS_CHANGE entry.
func StatusChange(entity string, id int64, from, to string, actor *int64, reason string) model.AuditEntry {
	return model.AuditEntry{
		EntityType: entity,
		EntityID:   id,
		Action:     model.AuditStatusChange,
		OldValue:   from,
		NewValue:   to,
		ActorID:    actor,
		Reason:     reason,
	}
}

// Nop drops entries.
type Nop struct{}

func (Nop) Record(model.AuditEntry) {}
