package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

// newHandler is the closed set of entity handlers. Adding a namespace to
// mutation.Namespaces without a case here fails checkRegistry.
func newHandler(ns mutation.Namespace) (handler, bool) {
	switch ns {
	case mutation.NamespaceContacts:
		return contactsHandler(), true
	case mutation.NamespaceCompanies:
		return companiesHandler(), true
	case mutation.NamespaceInvoices:
		return invoicesHandler(), true
	default:
		return nil, false
	}
}

type registry struct {
	handlers map[mutation.Namespace]handler
}

var defaultRegistry = sync.OnceValues(func() (*registry, error) {
	return buildRegistry(mutation.Namespaces())
})

func buildRegistry(namespaces []mutation.Namespace) (*registry, error) {
	r := &registry{handlers: make(map[mutation.Namespace]handler, len(namespaces))}
	for _, ns := range namespaces {
		h, ok := newHandler(ns)
		if !ok {
			return nil, fmt.Errorf("no handler for namespace %q", ns)
		}
		if _, dup := r.handlers[ns]; dup {
			return nil, fmt.Errorf("namespace %q registered twice", ns)
		}
		r.handlers[ns] = h
	}
	if err := checkRegistry(r); err != nil {
		return nil, err
	}
	return r, nil
}

// checkRegistry verifies every exposed action identifier parses and resolves
// back to its own handler.
func checkRegistry(r *registry) error {
	for ns, h := range r.handlers {
		if h.namespace() != ns {
			return fmt.Errorf("handler for %q reports namespace %q", ns, h.namespace())
		}
	}
	for _, id := range r.actions() {
		a, err := parseAction(id)
		if err != nil {
			return fmt.Errorf("registered action %q: %w", id, err)
		}
		if _, ok := r.handlers[a.namespace]; !ok {
			return fmt.Errorf("registered action %q has no handler", id)
		}
	}
	return nil
}

func (r *registry) lookup(ns mutation.Namespace) (handler, bool) {
	h, ok := r.handlers[ns]
	return h, ok
}

// actions lists every "{namespace}.{verb}" the registry serves, sorted.
func (r *registry) actions() []string {
	out := make([]string, 0, len(r.handlers)*len(mutation.Verbs()))
	for ns := range r.handlers {
		for _, v := range mutation.Verbs() {
			out = append(out, mutation.ActionType(ns, v))
		}
	}
	sort.Strings(out)
	return out
}
