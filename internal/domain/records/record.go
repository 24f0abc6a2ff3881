package records

import "time"

// Record is embedded by every entity model. The kernel owns every column here;
// none of them is writable through mutation input.
type Record struct {
	ID           string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	OrgID        string     `gorm:"column:org_id;not null;index;size:64" json:"orgId"`
	Version      int64      `gorm:"column:version;not null" json:"version"`
	IsDeleted    bool       `gorm:"column:is_deleted;not null;index" json:"isDeleted"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
	DeletedBy    *string    `gorm:"column:deleted_by;size:128" json:"deletedBy"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	CreatedBy    string     `gorm:"column:created_by;not null;size:128" json:"createdBy"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null" json:"updatedAt"`
	UpdatedBy    string     `gorm:"column:updated_by;not null;size:128" json:"updatedBy"`
	SearchVector *string    `gorm:"column:search_vector;type:tsvector;->" json:"searchVector,omitempty"`
}

// Base gives generic code access to the embedded record.
func (r *Record) Base() *Record { return r }

// Holder is satisfied by every model embedding Record.
type Holder interface {
	Base() *Record
}
