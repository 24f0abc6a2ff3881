// Package kernel is the only write path to tenant-owned entities.
//
// Callers build a MutationContext from their authenticated request and call
// Mutate; ReadEntity and ListEntities are the read-only counterparts. Nothing
// else is exported, and the implementation lives in an internal package so no
// other code can reach the tables directly.
package kernel

import (
	"context"

	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/kernel/internal/engine"
)

// MutationContext carries the authenticated tenant, the acting principal and
// the storage handle. It is passed explicitly on every call.
type MutationContext struct {
	OrgID string
	Actor mutation.Actor
	Store *store.Handle
}

func (mc MutationContext) open() (*engine.Engine, engine.Scope, error) {
	eng, err := engine.FromHandle(mc.Store)
	if err != nil {
		return nil, engine.Scope{}, err
	}
	return eng, engine.Scope{OrgID: mc.OrgID, Actor: mc.Actor}, nil
}

// Mutate applies a single create, update, delete or restore. The returned
// receipt is either applied, with the new entity snapshot and audit diff, or
// rejected with an error code and no entity.
func Mutate(ctx context.Context, mc MutationContext, spec mutation.Spec) mutation.Receipt {
	eng, scope, err := mc.open()
	if err != nil {
		return mutation.Rejected(mutation.CodeInternal, "internal error")
	}
	return eng.Mutate(ctx, scope, spec)
}

// ReadEntity returns the entity's snapshot, including soft-deleted entities,
// and false when it does not exist in the caller's tenant.
func ReadEntity(ctx context.Context, mc MutationContext, ref mutation.EntityRef) (mutation.Snapshot, bool, error) {
	eng, scope, err := mc.open()
	if err != nil {
		return nil, false, mutation.Wrap(mutation.CodeInternal, "kernel.read", err)
	}
	return eng.Read(ctx, scope, ref)
}

// ListEntities returns one page of a namespace in creation order.
func ListEntities(ctx context.Context, mc MutationContext, ns mutation.Namespace, filter mutation.ListFilter, page mutation.Pagination) (mutation.ListResult, error) {
	eng, scope, err := mc.open()
	if err != nil {
		return mutation.ListResult{}, mutation.Wrap(mutation.CodeInternal, "kernel.list", err)
	}
	return eng.List(ctx, scope, ns, filter, page)
}
