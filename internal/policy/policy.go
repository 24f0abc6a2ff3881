// Package policy provides PolicyGate implementations for the mutation kernel.
package policy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

// AllowAll permits every mutation. Intended for single-user tools and tests.
type AllowAll struct{}

func (AllowAll) Evaluate(context.Context, mutation.PolicyRequest) (mutation.Decision, error) {
	return mutation.Allow(), nil
}

// DenyAll refuses every mutation with a fixed reason.
type DenyAll struct{ Reason string }

func (d DenyAll) Evaluate(context.Context, mutation.PolicyRequest) (mutation.Decision, error) {
	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		reason = "mutations are disabled"
	}
	return mutation.Deny(reason), nil
}

// RoleTable grants actions to actor roles. Rules are checked in file order; the
// first rule whose action pattern matches and whose roles intersect the actor's
// roles allows the call.
//
//	default: deny
//	rules:
//	  - actions: ["contacts.*", "companies.*"]
//	    roles: [sales]
//	  - actions: ["*.restore"]
//	    roles: [admin]
type RoleTable struct {
	defaultAllow bool
	rules        []roleRule
}

type roleRule struct {
	actions []string
	roles   []string
}

type roleFile struct {
	Default string `yaml:"default"`
	Rules   []struct {
		Actions []string `yaml:"actions"`
		Roles   []string `yaml:"roles"`
	} `yaml:"rules"`
}

var _ mutation.PolicyGate = (*RoleTable)(nil)

func LoadRoleTable(path string) (*RoleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParseRoleTable(raw)
}

func ParseRoleTable(raw []byte) (*RoleTable, error) {
	var f roleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	t := &RoleTable{}
	switch strings.ToLower(strings.TrimSpace(f.Default)) {
	case "", "deny":
	case "allow":
		t.defaultAllow = true
	default:
		return nil, fmt.Errorf("policy default must be allow or deny, got %q", f.Default)
	}
	for i, r := range f.Rules {
		if len(r.Actions) == 0 || len(r.Roles) == 0 {
			return nil, fmt.Errorf("policy rule %d needs actions and roles", i)
		}
		for _, a := range r.Actions {
			if err := validatePattern(a); err != nil {
				return nil, fmt.Errorf("policy rule %d: %w", i, err)
			}
		}
		t.rules = append(t.rules, roleRule{actions: trimAll(r.Actions), roles: trimAll(r.Roles)})
	}
	return t, nil
}

func (t *RoleTable) Evaluate(_ context.Context, req mutation.PolicyRequest) (mutation.Decision, error) {
	matched := false
	for _, r := range t.rules {
		if !r.matchesAction(req.ActionType) {
			continue
		}
		matched = true
		if r.matchesActor(req.Actor) {
			return mutation.Allow(), nil
		}
	}
	if matched {
		return mutation.Deny(fmt.Sprintf("actor lacks a role permitted for %s", req.ActionType)), nil
	}
	if t.defaultAllow {
		return mutation.Allow(), nil
	}
	return mutation.Deny(fmt.Sprintf("no policy rule grants %s", req.ActionType)), nil
}

func (r roleRule) matchesAction(action string) bool {
	for _, p := range r.actions {
		if matchAction(p, action) {
			return true
		}
	}
	return false
}

func (r roleRule) matchesActor(actor mutation.Actor) bool {
	for _, role := range r.roles {
		if role == "*" || actor.HasRole(role) {
			return true
		}
	}
	return false
}

// matchAction supports "*", "ns.*", "*.verb" and exact identifiers.
func matchAction(pattern, action string) bool {
	if pattern == "*" || pattern == action {
		return true
	}
	pns, pverb, ok := strings.Cut(pattern, ".")
	if !ok {
		return false
	}
	ans, averb, ok := strings.Cut(action, ".")
	if !ok {
		return false
	}
	return (pns == "*" || pns == ans) && (pverb == "*" || pverb == averb)
}

func validatePattern(p string) error {
	p = strings.TrimSpace(p)
	if p == "*" {
		return nil
	}
	ns, verb, ok := strings.Cut(p, ".")
	if !ok || ns == "" || verb == "" {
		return fmt.Errorf("action pattern %q must look like ns.verb", p)
	}
	if verb != "*" && !mutation.Verb(verb).Valid() {
		return fmt.Errorf("action pattern %q has unknown verb", p)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
