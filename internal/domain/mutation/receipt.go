package mutation

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Status is the terminal state of a mutate call.
type Status string

const (
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Snapshot is the JSON-shaped view of one entity row.
type Snapshot map[string]any

// Version returns the snapshot's version field, or 0 when absent.
func (s Snapshot) Version() int64 {
	switch v := s["version"].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// ID returns the snapshot's id field.
func (s Snapshot) ID() string {
	id, _ := s["id"].(string)
	return id
}

// PatchOp is one field-level change. Path is a JSON pointer.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// MarshalJSON writes value for add and replace even when it is null; remove
// carries no value.
func (p PatchOp) MarshalJSON() ([]byte, error) {
	if p.Op == OpRemove {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{p.Op, p.Path})
	}
	type plain PatchOp
	return json.Marshal(plain(p))
}

const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// Patch is an ordered change list. A nil Patch means "no diff".
type Patch []PatchOp

// Receipt is the outcome of a mutate call. Entity and Diff are always nil on a
// rejected receipt.
type Receipt struct {
	Status       Status    `json:"status"`
	Entity       Snapshot  `json:"entity"`
	Diff         Patch     `json:"diff"`
	ErrorCode    ErrorCode `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	// Replay is set when the receipt was served from the idempotency store.
	Replay bool `json:"replay,omitempty"`
	// CurrentVersion is filled on CONFLICT_VERSION when the stored version is known.
	CurrentVersion *int64 `json:"currentVersion,omitempty"`
}

func (r Receipt) Applied() bool { return r.Status == StatusApplied }

// DecodeJSON unmarshals raw into v, keeping numbers as json.Number so int64
// columns survive beyond 2^53.
func DecodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// Rejected builds a rejected receipt.
func Rejected(code ErrorCode, message string) Receipt {
	return Receipt{Status: StatusRejected, ErrorCode: code, ErrorMessage: message}
}
