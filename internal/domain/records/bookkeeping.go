package records

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyRecord maps (org, namespace, key) to the receipt of the create it
// produced. The unique index is what decides a race between two creates.
type IdempotencyRecord struct {
	ID          string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	OrgID       string         `gorm:"column:org_id;not null;size:64;uniqueIndex:idx_idempotency_scope,priority:1" json:"orgId"`
	Namespace   string         `gorm:"column:namespace;not null;size:64;uniqueIndex:idx_idempotency_scope,priority:2" json:"namespace"`
	IdemKey     string         `gorm:"column:idem_key;not null;size:255;uniqueIndex:idx_idempotency_scope,priority:3" json:"idemKey"`
	EntityID    string         `gorm:"column:entity_id;not null;size:36" json:"entityId"`
	RequestHash string         `gorm:"column:request_hash;not null;size:64" json:"requestHash"`
	Receipt     datatypes.JSON `gorm:"column:receipt;not null" json:"receipt"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
}

func (IdempotencyRecord) TableName() string { return "idempotency_records" }

// AuditEntry is one row per applied mutation.
type AuditEntry struct {
	ID        string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	OrgID     string         `gorm:"column:org_id;not null;size:64;index:idx_audit_entity,priority:1" json:"orgId"`
	Namespace string         `gorm:"column:namespace;not null;size:64;index:idx_audit_entity,priority:2" json:"namespace"`
	EntityID  string         `gorm:"column:entity_id;not null;size:36;index:idx_audit_entity,priority:3" json:"entityId"`
	Verb      string         `gorm:"column:verb;not null;size:16" json:"verb"`
	Version   int64          `gorm:"column:version;not null" json:"version"`
	ActorID   string         `gorm:"column:actor_id;not null;size:128" json:"actorId"`
	Diff      datatypes.JSON `gorm:"column:diff" json:"diff"`
	CreatedAt time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
}

func (AuditEntry) TableName() string { return "mutation_audit_entries" }

// All returns every model in migration order.
func All() []any {
	return []any{
		&Company{},
		&Contact{},
		&Invoice{},
		&IdempotencyRecord{},
		&AuditEntry{},
	}
}
