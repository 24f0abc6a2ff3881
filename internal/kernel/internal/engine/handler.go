package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
	"github.com/yungbote/erpkernel/internal/pkg/dbctx"
)

// handler executes the four verbs for one entity namespace.
type handler interface {
	namespace() mutation.Namespace
	// bind applies the positive allowlist to sanitized input.
	bind(input map[string]any, verb mutation.Verb) (map[string]any, error)
	// apply runs verb inside the caller's transaction and returns the row as it
	// was before and after the write. before is nil for create.
	apply(w writeScope, verb mutation.Verb, id string, expectedVersion *int64, values map[string]any) (before, after mutation.Snapshot, err error)
	read(db *gorm.DB, orgID, id string) (mutation.Snapshot, bool, error)
	list(db *gorm.DB, orgID string, filter mutation.ListFilter, page mutation.Pagination) (mutation.ListResult, error)
}

// writeScope is what a handler needs to write on behalf of one call.
type writeScope struct {
	dbc     dbctx.Context
	guard   casGuard
	orgID   string
	actorID string
	now     time.Time
}

func (w writeScope) db() (*gorm.DB, error) { return w.guard.baseDB(w.dbc) }

// model adapts one gorm model type to the generic table handler.
type model struct {
	newRow  func() records.Holder
	findAll func(db *gorm.DB) ([]records.Holder, error)
}

func modelOf[T any, PT interface {
	*T
	records.Holder
}]() model {
	return model{
		newRow: func() records.Holder { return PT(new(T)) },
		findAll: func(db *gorm.DB) ([]records.Holder, error) {
			var rows []T
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]records.Holder, len(rows))
			for i := range rows {
				out[i] = PT(&rows[i])
			}
			return out, nil
		},
	}
}

// tableHandler is a handler over a single table whose model embeds
// records.Record.
type tableHandler struct {
	ns     mutation.Namespace
	table  string
	model  model
	fields fieldSet
}

var _ handler = (*tableHandler)(nil)

func (h *tableHandler) namespace() mutation.Namespace { return h.ns }

func (h *tableHandler) bind(input map[string]any, verb mutation.Verb) (map[string]any, error) {
	return h.fields.bind(input, verb)
}

func (h *tableHandler) apply(w writeScope, verb mutation.Verb, id string, expectedVersion *int64, values map[string]any) (mutation.Snapshot, mutation.Snapshot, error) {
	if verb == mutation.VerbCreate {
		after, err := h.insert(w, values)
		return nil, after, err
	}
	if expectedVersion == nil {
		return nil, nil, validationError("kernel.apply", "expectedVersion is required for %s", verb)
	}
	switch verb {
	case mutation.VerbUpdate:
		return h.guarded(w, verb, id, *expectedVersion, false, values)
	case mutation.VerbDelete:
		return h.guarded(w, verb, id, *expectedVersion, false, map[string]any{
			"is_deleted": true,
			"deleted_at": w.now,
			"deleted_by": w.actorID,
		})
	case mutation.VerbRestore:
		return h.guarded(w, verb, id, *expectedVersion, true, map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		})
	default:
		return nil, nil, validationError("kernel.apply", "unsupported verb %q", verb)
	}
}

func (h *tableHandler) insert(w writeScope, values map[string]any) (mutation.Snapshot, error) {
	db, err := w.db()
	if err != nil {
		return nil, err
	}
	if err := h.checkRefs(db, w.orgID, values); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	row := make(map[string]any, len(values)+8)
	for k, v := range values {
		row[k] = v
	}
	row["id"] = id.String()
	row["org_id"] = w.orgID
	row["version"] = int64(1)
	row["is_deleted"] = false
	row["created_at"] = w.now
	row["created_by"] = w.actorID
	row["updated_at"] = w.now
	row["updated_by"] = w.actorID
	if err := db.Table(h.table).Create(row).Error; err != nil {
		return nil, err
	}
	return h.mustLoad(db, w.orgID, id.String())
}

// guarded runs a version-checked write. wantDeleted is the lifecycle state the
// row must be in for the verb to apply.
func (h *tableHandler) guarded(w writeScope, verb mutation.Verb, id string, expected int64, wantDeleted bool, updates map[string]any) (mutation.Snapshot, mutation.Snapshot, error) {
	op := "kernel." + string(verb)
	db, err := w.db()
	if err != nil {
		return nil, nil, err
	}
	row, found, err := h.load(db, w.orgID, id)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, notFoundError(op, h.ns, id)
	}
	current := row.Base()
	if current.IsDeleted != wantDeleted {
		if current.IsDeleted {
			return nil, nil, mutation.NewError(mutation.CodeNotFound, op, fmt.Sprintf("%s %s is deleted", h.ns, id), nil)
		}
		return nil, nil, validationError(op, "%s %s is not deleted", h.ns, id)
	}
	if current.Version != expected {
		return nil, nil, conflictError(op, int64Ptr(current.Version))
	}
	if verb == mutation.VerbUpdate {
		if err := h.checkRefs(db, w.orgID, updates); err != nil {
			return nil, nil, err
		}
	}
	before, err := snapshotOf(row)
	if err != nil {
		return nil, nil, err
	}

	set := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		set[k] = v
	}
	set["updated_at"] = w.now
	set["updated_by"] = w.actorID
	ok, err := w.guard.updateByVersion(w.dbc, h.table, w.orgID, id, expected, wantDeleted, set)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		// Lost the race between the read above and the write.
		latest, found, err := h.load(db, w.orgID, id)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			return nil, nil, notFoundError(op, h.ns, id)
		}
		return nil, nil, requireCASSuccess(false, int64Ptr(latest.Base().Version))
	}
	after, err := h.mustLoad(db, w.orgID, id)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// checkRefs verifies id-valued fields point at active rows of the same tenant.
func (h *tableHandler) checkRefs(db *gorm.DB, orgID string, values map[string]any) error {
	for _, f := range h.fields.refs(values) {
		var n int64
		if err := db.Table(f.ref).
			Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, values[f.column], false).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return validationError("kernel.bind", "%s does not reference an active %s record", f.name, f.ref)
		}
	}
	return nil
}

func (h *tableHandler) load(db *gorm.DB, orgID, id string) (records.Holder, bool, error) {
	row := h.model.newRow()
	err := db.Where("org_id = ? AND id = ?", orgID, id).Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (h *tableHandler) mustLoad(db *gorm.DB, orgID, id string) (mutation.Snapshot, error) {
	row, found, err := h.load(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s %s vanished inside its own transaction", h.ns, id)
	}
	return snapshotOf(row)
}

func (h *tableHandler) read(db *gorm.DB, orgID, id string) (mutation.Snapshot, bool, error) {
	row, found, err := h.load(db, orgID, id)
	if err != nil || !found {
		return nil, found, err
	}
	snap, err := snapshotOf(row)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

func (h *tableHandler) list(db *gorm.DB, orgID string, filter mutation.ListFilter, page mutation.Pagination) (mutation.ListResult, error) {
	page = page.Normalized()
	q := db.Model(h.model.newRow()).Where("org_id = ?", orgID)
	if !filter.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	names := make([]string, 0, len(filter.Equals))
	for name := range filter.Equals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		column, value, err := h.fields.filter(name, filter.Equals[name])
		if err != nil {
			return mutation.ListResult{}, err
		}
		if value == nil {
			q = q.Where(column + " IS NULL")
		} else {
			q = q.Where(column+" = ?", value)
		}
	}
	if page.After != "" {
		q = q.Where("id > ?", page.After)
	}
	rows, err := h.model.findAll(q.Order("id ASC").Limit(page.Limit + 1))
	if err != nil {
		return mutation.ListResult{}, err
	}

	res := mutation.ListResult{Items: make([]mutation.Snapshot, 0, len(rows))}
	if len(rows) > page.Limit {
		rows = rows[:page.Limit]
		res.NextAfter = rows[len(rows)-1].Base().ID
	}
	for _, row := range rows {
		snap, err := snapshotOf(row)
		if err != nil {
			return mutation.ListResult{}, err
		}
		res.Items = append(res.Items, snap)
	}
	return res, nil
}

// snapshotOf renders a model the way callers and the diff engine see it.
func snapshotOf(row any) (mutation.Snapshot, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var snap mutation.Snapshot
	if err := mutation.DecodeJSON(raw, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
