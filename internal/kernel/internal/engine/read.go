package engine

import (
	"context"
	"strings"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

func (e *Engine) resolve(op string, scope Scope, ns mutation.Namespace) (string, handler, error) {
	orgID := strings.TrimSpace(scope.OrgID)
	if orgID == "" {
		return "", nil, mutation.NewError(mutation.CodeMissingOrgID, op, "context has no org id", nil)
	}
	h, ok := e.handlers.lookup(ns)
	if !ok {
		return "", nil, mutation.NewError(mutation.CodeUnknownEntity, op, "no handler for "+string(ns), nil)
	}
	return orgID, h, nil
}

// Read returns one entity of the caller's tenant, soft-deleted rows included.
func (e *Engine) Read(ctx context.Context, scope Scope, ref mutation.EntityRef) (mutation.Snapshot, bool, error) {
	const op = "kernel.read"
	orgID, h, err := e.resolve(op, scope, ref.Type)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(ref.ID) == "" {
		return nil, false, validationError(op, "entityRef.id is required")
	}
	snap, found, err := h.read(e.deps.DB.WithContext(ctx), orgID, ref.ID)
	if err != nil {
		e.log.Error("read failed", "namespace", ref.Type, "entity_id", ref.ID, "error", err)
		return nil, false, mapError(op, err)
	}
	return snap, found, nil
}

// List pages through one namespace of the caller's tenant in id order.
func (e *Engine) List(ctx context.Context, scope Scope, ns mutation.Namespace, filter mutation.ListFilter, page mutation.Pagination) (mutation.ListResult, error) {
	const op = "kernel.list"
	orgID, h, err := e.resolve(op, scope, ns)
	if err != nil {
		return mutation.ListResult{}, err
	}
	res, err := h.list(e.deps.DB.WithContext(ctx), orgID, filter, page)
	if err != nil {
		if mutation.CodeOf(err) == "" {
			e.log.Error("list failed", "namespace", ns, "error", err)
		}
		return mutation.ListResult{}, mapError(op, err)
	}
	return res, nil
}
