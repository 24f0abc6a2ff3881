package engine

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/pkg/dbctx"
)

// casGuard performs the compare-and-swap writes behind update, delete and
// restore.
type casGuard struct {
	db *gorm.DB
}

func newCASGuard(db *gorm.DB) casGuard {
	return casGuard{db: db}
}

func (g casGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if db := dbc.DB(g.db); db != nil {
		return db, nil
	}
	return nil, mutation.NewError(mutation.CodeInternal, "kernel.cas", "missing db transaction context", nil)
}

// updateByVersion applies updates to the tenant's row only while its version
// and lifecycle state still match, and lets storage compute version+1. It
// reports whether a row matched.
func (g casGuard) updateByVersion(dbc dbctx.Context, table, orgID, id string, expectedVersion int64, deleted bool, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || orgID == "" || id == "" {
		return false, mutation.NewError(mutation.CodeInternal, "kernel.cas", "table, org and id are required for updateByVersion", nil)
	}
	if expectedVersion < 1 {
		return false, validationError("kernel.cas", "expectedVersion must be >= 1")
	}
	set := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set["version"] = gorm.Expr("version + 1")

	res := db.Table(table).
		Where("org_id = ? AND id = ? AND version = ? AND is_deleted = ?", orgID, id, expectedVersion, deleted).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// requireCASSuccess turns a lost compare-and-swap into a version conflict.
func requireCASSuccess(ok bool, current *int64) error {
	if ok {
		return nil
	}
	return conflictError("kernel.cas", current)
}
