package kernel_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/data/store/storetest"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
	"github.com/yungbote/erpkernel/internal/kernel"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/policy"
)

// Under READ COMMITTED every racer can pass the key pre-check; losers hit
// either the key claim or the invoice number index and must all replay.
func TestPostgresConcurrentIdempotentInvoiceCreates(t *testing.T) {
	gdb := storetest.PostgresDB(t)
	mc := kernel.MutationContext{
		OrgID: "org-" + uuid.NewString(),
		Actor: mutation.Actor{ID: "user-1", Roles: []string{"admin"}},
		Store: &store.Handle{
			DB:     gdb,
			Log:    storetest.Logger(t),
			Hooks:  observability.NoopHooks{},
			Policy: policy.AllowAll{},
		},
	}
	spec := createSpec(mutation.NamespaceInvoices, map[string]any{"number": "INV-RACE", "amountCents": 100})
	spec.IdempotencyKey = "race-1"

	const racers = 8
	receipts := make([]mutation.Receipt, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			receipts[i] = kernel.Mutate(context.Background(), mc, spec)
		}(i)
	}
	close(start)
	wg.Wait()

	var id string
	applied := 0
	for i, r := range receipts {
		if r.Status != mutation.StatusApplied {
			t.Fatalf("racer %d: %s %s", i, r.ErrorCode, r.ErrorMessage)
		}
		if !r.Replay {
			applied++
		}
		if id == "" {
			id = r.Entity.ID()
		}
		if r.Entity.ID() != id {
			t.Fatalf("racer %d saw entity %s, want %s", i, r.Entity.ID(), id)
		}
	}
	if applied != 1 {
		t.Fatalf("want exactly one original receipt, got %d", applied)
	}
	var n int64
	if err := gdb.Model(&records.Invoice{}).Where("org_id = ?", mc.OrgID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("invoices: want=1 got=%d", n)
	}
}
