package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditCreate       AuditAction = "CREATE"
	AuditDelete       AuditAction = "DELETE"
	AuditStatusChange AuditAction = "STATUS_CHANGE"
	AuditPriceChange  AuditAction = "PRICE_CHANGE"
)

// AuditEntry is an append-only history record.
type AuditEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntityType string             `bson:"entity_type" json:"entity_type"`
	EntityID   int64              `bson:"entity_id" json:"entity_id"`
	Action     AuditAction        `bson:"action" json:"action"`
	OldValue   string             `bson:"old_value,omitempty" json:"old_value,omitempty"`
	NewValue   string             `bson:"new_value,omitempty" json:"new_value,omitempty"`
	ActorID    *int64             `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

const (
	EntityUnit          = "unit"
	EntityTenant        = "tenant"
	EntityLease         = "lease"
	EntityRentalRequest = "rental_request"
	EntityInvoice       = "invoice"
)
