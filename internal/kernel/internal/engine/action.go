package engine

import (
	"fmt"
	"regexp"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

var actionPattern = regexp.MustCompile(`^([a-z][a-z0-9_]*)\.(create|update|delete|restore)$`)

type action struct {
	namespace mutation.Namespace
	verb      mutation.Verb
}

// parseAction splits "{namespace}.{verb}". No trimming or case folding is done:
// the identifier must match exactly.
func parseAction(raw string) (action, error) {
	m := actionPattern.FindStringSubmatch(raw)
	if m == nil {
		return action{}, mutation.NewError(
			mutation.CodeMalformedAction,
			"kernel.parse_action",
			fmt.Sprintf("action %q must look like {namespace}.{create|update|delete|restore}", raw),
			nil,
		)
	}
	return action{namespace: mutation.Namespace(m[1]), verb: mutation.Verb(m[2])}, nil
}

func (a action) String() string { return mutation.ActionType(a.namespace, a.verb) }

func (a action) family() mutation.Family { return familyOf(a.verb) }

func familyOf(v mutation.Verb) mutation.Family {
	if v == mutation.VerbUpdate {
		return mutation.FamilyFieldMutation
	}
	return mutation.FamilyLifecycle
}
