package mutation

import "context"

// PolicyRequest is what the policy gate sees for one mutation. Input is already
// stripped of system fields.
type PolicyRequest struct {
	OrgID      string
	ActionType string
	Namespace  Namespace
	Verb       Verb
	Family     Family
	EntityRef  EntityRef
	Actor      Actor
	Input      map[string]any
}

// Decision is a policy verdict. Reason is surfaced to the caller on deny.
type Decision struct {
	Allow  bool
	Reason string
}

func Allow() Decision { return Decision{Allow: true} }

func Deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }

// PolicyGate authorizes a mutation before any storage work happens.
type PolicyGate interface {
	Evaluate(ctx context.Context, req PolicyRequest) (Decision, error)
}

// PolicyFunc adapts a function to PolicyGate.
type PolicyFunc func(ctx context.Context, req PolicyRequest) (Decision, error)

func (f PolicyFunc) Evaluate(ctx context.Context, req PolicyRequest) (Decision, error) {
	return f(ctx, req)
}
