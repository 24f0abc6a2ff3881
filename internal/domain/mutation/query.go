package mutation

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListFilter narrows a listing. Equals keys are domain field names as they
// appear in snapshots; only fields a handler allows for writing can be filtered.
type ListFilter struct {
	Equals         map[string]any
	IncludeDeleted bool
}

// Pagination is keyset pagination over entity ids, which are time-ordered.
type Pagination struct {
	After string
	Limit int
}

// Normalized clamps Limit into [1, MaxListLimit], defaulting to DefaultListLimit.
func (p Pagination) Normalized() Pagination {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultListLimit
	case p.Limit > MaxListLimit:
		p.Limit = MaxListLimit
	}
	return p
}

type ListResult struct {
	Items []Snapshot `json:"items"`
	// NextAfter is the cursor for the following page; empty on the last page.
	NextAfter string `json:"nextAfter,omitempty"`
}
