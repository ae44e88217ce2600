package memory

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"propertyhub/model"
	auditrepo "propertyhub/repository/audit"
)

// AuditLog keeps audit entries in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (a *AuditLog) Insert(_ context.Context, e *model.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.ID = primitive.NewObjectID()
	a.entries = append(a.entries, *e)
	return nil
}

func (a *AuditLog) List(_ context.Context, q auditrepo.Query) ([]model.AuditEntry, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var hits []model.AuditEntry
	for _, e := range a.entries {
		if (q.EntityType == "" || e.EntityType == q.EntityType) && (q.EntityID == nil || e.EntityID == *q.EntityID) {
			hits = append(hits, e)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })

	total := int64(len(hits))
	if q.Offset >= total {
		return []model.AuditEntry{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < total {
		end = q.Offset + q.Limit
	}
	return hits[q.Offset:end], total, nil
}

// Entries returns a copy of everything recorded so far.
func (a *AuditLog) Entries() []model.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.AuditEntry(nil), a.entries...)
}
