package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/data/store"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/pkg/dbctx"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
)

const maxIdempotencyKeyLen = 255

var tracer = otel.Tracer("github.com/yungbote/erpkernel/internal/kernel")

// Scope is the tenant and principal a call acts for.
type Scope struct {
	OrgID string
	Actor mutation.Actor
}

type Deps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  observability.Hooks
	Cache  store.ReceiptCache
	Policy mutation.PolicyGate
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Hooks = observability.OrNoop(d.Hooks)
	if d.Policy == nil {
		d.Policy = mutation.PolicyFunc(func(context.Context, mutation.PolicyRequest) (mutation.Decision, error) {
			return mutation.Deny("no policy configured"), nil
		})
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Engine is cheap to build; the registry behind it is shared.
type Engine struct {
	deps     Deps
	log      *logger.Logger
	guard    casGuard
	idem     idempotencyStore
	handlers *registry
}

func New(deps Deps) (*Engine, error) {
	if deps.DB == nil {
		return nil, store.ErrNoDB
	}
	reg, err := defaultRegistry()
	if err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	log := deps.Log.With("component", "kernel")
	return &Engine{
		deps:     deps,
		log:      log,
		guard:    newCASGuard(deps.DB),
		idem:     idempotencyStore{db: deps.DB, cache: deps.Cache, log: log},
		handlers: reg,
	}, nil
}

// FromHandle returns the engine bound to h, building it on first use.
func FromHandle(h *store.Handle) (*Engine, error) {
	rt, err := h.Runtime(func(h *store.Handle) (any, error) {
		return New(Deps{
			DB:     h.DB,
			Log:    h.Logger(),
			Hooks:  h.Hooks,
			Cache:  h.Cache,
			Policy: h.Policy,
			Now:    h.Clock(),
		})
	})
	if err != nil {
		return nil, err
	}
	return rt.(*Engine), nil
}

// Mutate runs one mutation end to end and never returns a partial result.
func (e *Engine) Mutate(ctx context.Context, scope Scope, spec mutation.Spec) (receipt mutation.Receipt) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "kernel.mutate", trace.WithAttributes(
		attribute.String("mutation.action", spec.ActionType),
	))
	var act action
	defer func() {
		status := statusLabel(receipt)
		e.deps.Hooks.ObserveMutation(string(act.namespace), string(act.verb), status, time.Since(start))
		if receipt.ErrorCode == mutation.CodeConflictVersion {
			e.deps.Hooks.IncConflict(string(act.namespace))
		}
		span.SetAttributes(attribute.String("mutation.status", status))
		if receipt.ErrorCode == mutation.CodeInternal {
			span.SetStatus(codes.Error, receipt.ErrorMessage)
		}
		span.End()
	}()

	// 1-3: shape checks, before anything touches storage.
	var err error
	act, err = parseAction(spec.ActionType)
	if err != nil {
		return reject(err)
	}
	if spec.EntityRef.Type != act.namespace {
		return mutation.Rejected(mutation.CodeNamespaceMismatch, fmt.Sprintf(
			"action namespace %q does not match entityRef.type %q", act.namespace, spec.EntityRef.Type))
	}
	if err := checkShape(act, spec); err != nil {
		return reject(err)
	}

	// 4
	orgID := strings.TrimSpace(scope.OrgID)
	if orgID == "" {
		return mutation.Rejected(mutation.CodeMissingOrgID, "mutation context has no org id")
	}
	log := e.log.With("action", act.String(), "org_id", orgID, "actor_id", scope.Actor.ID)
	span.SetAttributes(
		attribute.String("mutation.namespace", string(act.namespace)),
		attribute.String("mutation.verb", string(act.verb)),
	)

	// 5
	idemKey := spec.IdempotencyKey
	idempotent := act.verb == mutation.VerbCreate && idemKey != ""
	if idempotent {
		prior, err := e.idem.lookup(ctx, orgID, act.namespace, idemKey)
		if err != nil {
			return e.fail(log, err)
		}
		if prior != nil {
			return e.replay(log, act, spec, *prior)
		}
	}

	// 6
	input := sanitize(spec.Input)

	// 7
	decision, err := e.deps.Policy.Evaluate(ctx, mutation.PolicyRequest{
		OrgID:      orgID,
		ActionType: act.String(),
		Namespace:  act.namespace,
		Verb:       act.verb,
		Family:     act.family(),
		EntityRef:  spec.EntityRef,
		Actor:      scope.Actor,
		Input:      input,
	})
	if err != nil {
		return e.fail(log, fmt.Errorf("policy gate: %w", err))
	}
	if !decision.Allow {
		reason := strings.TrimSpace(decision.Reason)
		if reason == "" {
			reason = "denied by policy"
		}
		log.Info("mutation denied by policy", "reason", reason)
		return mutation.Rejected(mutation.CodePolicyDenied, reason)
	}

	// 8
	h, ok := e.handlers.lookup(act.namespace)
	if !ok {
		log.Error("no handler registered for namespace")
		return mutation.Rejected(mutation.CodeUnknownEntity, fmt.Sprintf("no handler for %q", act.namespace))
	}
	var values map[string]any
	if act.verb == mutation.VerbCreate || act.verb == mutation.VerbUpdate {
		values, err = h.bind(input, act.verb)
		if err != nil {
			return reject(err)
		}
	}

	// 9-12
	fingerprint := requestHash(act, input)
	now := e.deps.Now().UTC()
	var applied mutation.Receipt
	err = e.deps.Runner.InTx(ctx, func(dbc dbctx.Context) error {
		w := writeScope{dbc: dbc, guard: e.guard, orgID: orgID, actorID: scope.Actor.ID, now: now}
		if idempotent {
			db, err := w.db()
			if err != nil {
				return err
			}
			if prior, err := e.idem.find(db, orgID, act.namespace, idemKey); err != nil {
				return err
			} else if prior != nil {
				return errIdempotencyRace
			}
		}
		before, after, err := h.apply(w, act.verb, spec.EntityRef.ID, spec.ExpectedVersion, values)
		if err != nil {
			return err
		}
		patch, err := diff(before, after)
		if err != nil {
			return err
		}
		if err := e.audit(w, act, after, patch); err != nil {
			return err
		}
		applied = mutation.Receipt{Status: mutation.StatusApplied, Entity: after, Diff: patch}
		if idempotent {
			return e.idem.record(dbc, orgID, act.namespace, idemKey, priorOutcome{Receipt: applied, RequestHash: fingerprint}, now)
		}
		return nil
	})
	if err != nil && idempotent {
		// A concurrent create may have claimed the key after the pre-check and
		// tripped a domain unique index first. Its receipt wins either way.
		prior, lerr := e.idem.find(e.deps.DB.WithContext(ctx), orgID, act.namespace, idemKey)
		switch {
		case lerr == nil && prior != nil:
			return e.replay(log, act, spec, *prior)
		case errors.Is(err, errIdempotencyRace) && lerr != nil:
			return e.fail(log, lerr)
		case errors.Is(err, errIdempotencyRace):
			return e.fail(log, errors.New("idempotency race lost but no winning record found"))
		}
	}
	if err != nil {
		return e.fail(log, err)
	}

	if idempotent {
		e.idem.remember(ctx, orgID, act.namespace, idemKey, priorOutcome{Receipt: applied, RequestHash: fingerprint})
	}
	log.Debug("mutation applied", "entity_id", applied.Entity.ID(), "version", applied.Entity.Version())
	return applied
}

// checkShape enforces which of id, expectedVersion and idempotencyKey each verb
// takes.
func checkShape(a action, spec mutation.Spec) error {
	const op = "kernel.shape"
	if a.verb == mutation.VerbCreate {
		if spec.EntityRef.ID != "" {
			return validationError(op, "entityRef.id must be empty for create")
		}
		if spec.ExpectedVersion != nil {
			return validationError(op, "expectedVersion is not accepted for create")
		}
		if len(spec.IdempotencyKey) > maxIdempotencyKeyLen {
			return validationError(op, "idempotencyKey exceeds %d characters", maxIdempotencyKeyLen)
		}
		return nil
	}
	if strings.TrimSpace(spec.EntityRef.ID) == "" {
		return validationError(op, "entityRef.id is required for %s", a.verb)
	}
	if spec.ExpectedVersion == nil {
		return validationError(op, "expectedVersion is required for %s", a.verb)
	}
	if *spec.ExpectedVersion < 1 {
		return validationError(op, "expectedVersion must be >= 1")
	}
	if spec.IdempotencyKey != "" {
		return validationError(op, "idempotencyKey is only accepted for create")
	}
	return nil
}

func (e *Engine) audit(w writeScope, a action, after mutation.Snapshot, patch mutation.Patch) error {
	db, err := w.db()
	if err != nil {
		return err
	}
	var rawDiff datatypes.JSON
	if patch != nil {
		raw, err := json.Marshal(patch)
		if err != nil {
			return err
		}
		rawDiff = datatypes.JSON(raw)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	return db.Create(&records.AuditEntry{
		ID:        id.String(),
		OrgID:     w.orgID,
		Namespace: string(a.namespace),
		EntityID:  after.ID(),
		Verb:      string(a.verb),
		Version:   after.Version(),
		ActorID:   w.actorID,
		Diff:      rawDiff,
		CreatedAt: w.now,
	}).Error
}

func (e *Engine) replay(log *logger.Logger, a action, spec mutation.Spec, prior priorOutcome) mutation.Receipt {
	if h := requestHash(a, sanitize(spec.Input)); prior.RequestHash != "" && h != prior.RequestHash {
		log.Warn("idempotency key reused with a different payload; replaying original receipt",
			"idempotency_key", spec.IdempotencyKey)
	}
	e.deps.Hooks.IncReplay(string(a.namespace))
	out := prior.Receipt
	out.Replay = true
	out.ErrorCode = mutation.CodeIdempotencyReplay
	out.ErrorMessage = ""
	return out
}

// fail converts an error raised at or after the transaction into a receipt.
// Caller-fixable codes pass through; everything else becomes INTERNAL_ERROR.
func (e *Engine) fail(log *logger.Logger, err error) mutation.Receipt {
	mapped := mapError("kernel.mutate", err)
	switch mutation.CodeOf(mapped) {
	case mutation.CodeValidation, mutation.CodeNotFound, mutation.CodeConflictVersion:
		log.Debug("mutation rejected", "error", mapped)
		return reject(mapped)
	}
	log.Error("mutation failed", "error", err)
	var kerr *mutation.Error
	if errors.As(mapped, &kerr) && kerr.Message != "" {
		return mutation.Rejected(mutation.CodeInternal, kerr.Message)
	}
	return mutation.Rejected(mutation.CodeInternal, internalMessage)
}

func reject(err error) mutation.Receipt {
	var kerr *mutation.Error
	if !errors.As(err, &kerr) {
		return mutation.Rejected(mutation.CodeInternal, internalMessage)
	}
	r := mutation.Rejected(kerr.Code, kerr.Message)
	r.CurrentVersion = kerr.CurrentVersion
	return r
}

func statusLabel(r mutation.Receipt) string {
	switch {
	case r.Replay:
		return "replay"
	case r.Applied():
		return string(mutation.StatusApplied)
	case r.ErrorCode != "":
		return string(r.ErrorCode)
	default:
		return string(mutation.StatusRejected)
	}
}
