package engine

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/data/store/storetest"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
	"github.com/yungbote/erpkernel/internal/pkg/dbctx"
	"github.com/yungbote/erpkernel/internal/policy"
)

const testOrg = "org-a"

var testActor = mutation.Actor{ID: "user-1", Roles: []string{"admin"}}

// spyTxRunner wraps a real gorm transaction. It can inject writes before the
// transaction opens or after it finishes, and fail the commit after fn
// succeeds.
type spyTxRunner struct {
	db         *gorm.DB
	beforeTx   func(db *gorm.DB) error
	afterTx    func(db *gorm.DB) error
	failCommit error
	calls      int
}

func (r *spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.calls++
	if r.beforeTx != nil {
		if err := r.beforeTx(r.db.WithContext(ctx)); err != nil {
			return err
		}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return r.failCommit
	})
	if r.afterTx != nil {
		if aerr := r.afterTx(r.db.WithContext(ctx)); aerr != nil {
			return aerr
		}
	}
	return err
}

func newTestEngine(t *testing.T, mutate func(*Deps)) (*Engine, *spyTxRunner) {
	t.Helper()
	db := storetest.DB(t)
	runner := &spyTxRunner{db: db}
	deps := Deps{
		DB:     db,
		Log:    storetest.Logger(t),
		Runner: runner,
		Policy: policy.AllowAll{},
		Now:    func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&deps)
	}
	eng, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, runner
}

func testScope() Scope { return Scope{OrgID: testOrg, Actor: testActor} }

func createContact(t *testing.T, eng *Engine, name string) mutation.Snapshot {
	t.Helper()
	r := eng.Mutate(context.Background(), testScope(), mutation.Spec{
		ActionType: "contacts.create",
		EntityRef:  mutation.EntityRef{Type: mutation.NamespaceContacts},
		Input:      map[string]any{"name": name},
	})
	if !r.Applied() {
		t.Fatalf("create contact: %s %s", r.ErrorCode, r.ErrorMessage)
	}
	return r.Entity
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func countContacts(t *testing.T, db *gorm.DB) int64 {
	return countRows(t, db, &records.Contact{})
}

func countAudit(t *testing.T, db *gorm.DB) int64 {
	return countRows(t, db, &records.AuditEntry{})
}
