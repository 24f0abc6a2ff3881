package mutation

// Spec is a single-entity mutation request. It is treated as immutable once
// submitted; the kernel never writes back into Input.
type Spec struct {
	ActionType      string         `json:"actionType"`
	EntityRef       EntityRef      `json:"entityRef"`
	Input           map[string]any `json:"input,omitempty"`
	ExpectedVersion *int64         `json:"expectedVersion,omitempty"`
	IdempotencyKey  string         `json:"idempotencyKey,omitempty"`
}

// EntityRef points at an entity. ID is empty for create.
type EntityRef struct {
	Type Namespace `json:"type"`
	ID   string    `json:"id,omitempty"`
}

// Actor identifies the principal performing a call.
type Actor struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles,omitempty"`
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Version is a convenience for building ExpectedVersion.
func Version(v int64) *int64 { return &v }
