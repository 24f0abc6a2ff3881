package engine

// systemFields are kernel-owned columns, in both spellings callers use.
var systemFields = map[string]struct{}{
	"id":            {},
	"orgId":         {},
	"org_id":        {},
	"createdBy":     {},
	"created_by":    {},
	"updatedBy":     {},
	"updated_by":    {},
	"createdAt":     {},
	"created_at":    {},
	"updatedAt":     {},
	"updated_at":    {},
	"version":       {},
	"isDeleted":     {},
	"is_deleted":    {},
	"deletedAt":     {},
	"deleted_at":    {},
	"deletedBy":     {},
	"deleted_by":    {},
	"searchVector":  {},
	"search_vector": {},
}

// sanitize returns a copy of input without system fields. Dropped keys are
// silent; each handler's allowlist decides what happens to the rest.
func sanitize(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		if _, drop := systemFields[k]; drop {
			continue
		}
		out[k] = v
	}
	return out
}
