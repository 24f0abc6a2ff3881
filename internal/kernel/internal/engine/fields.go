package engine

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindDate
)

const dateLayout = "2006-01-02"

// field is one writable domain column. name is the key used in input and in
// snapshots.
type field struct {
	name     string
	column   string
	kind     fieldKind
	required bool
	maxLen   int
	upper    bool
	pattern  *regexp.Regexp
	enum     []string
	min      *int64
	dflt     any
	// ref names the table an id-valued field must point into (same tenant, active).
	ref string
}

func (f field) nullable() bool { return !f.required && f.dflt == nil }

// fieldSet is a handler's positive allowlist.
type fieldSet struct {
	fields        []field
	byName        map[string]field
	rejectUnknown bool
}

func newFieldSet(rejectUnknown bool, fields ...field) fieldSet {
	fs := fieldSet{fields: fields, byName: make(map[string]field, len(fields)), rejectUnknown: rejectUnknown}
	for _, f := range fields {
		fs.byName[f.name] = f
	}
	return fs
}

// bind turns sanitized input into column values. Keys outside the allowlist are
// dropped, or rejected when the handler is strict. Create also applies defaults
// and required-field checks.
func (fs fieldSet) bind(input map[string]any, verb mutation.Verb) (map[string]any, error) {
	const op = "kernel.bind"
	values := make(map[string]any, len(input))
	var unknown []string
	for k, v := range input {
		f, ok := fs.byName[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		cv, err := f.coerce(v)
		if err != nil {
			return nil, err
		}
		values[f.column] = cv
	}
	if len(unknown) > 0 && fs.rejectUnknown {
		sort.Strings(unknown)
		return nil, validationError(op, "unknown fields: %s", strings.Join(unknown, ", "))
	}

	if verb != mutation.VerbCreate {
		if len(values) == 0 {
			return nil, validationError(op, "input has no writable fields")
		}
		return values, nil
	}
	for _, f := range fs.fields {
		if _, ok := values[f.column]; !ok && f.dflt != nil {
			values[f.column] = f.dflt
		}
		if v, ok := values[f.column]; f.required && (!ok || v == nil) {
			return nil, validationError(op, "%s is required", f.name)
		}
	}
	return values, nil
}

// refs returns the populated reference columns of values, keyed by column.
func (fs fieldSet) refs(values map[string]any) []field {
	var out []field
	for _, f := range fs.fields {
		if f.ref == "" {
			continue
		}
		if v, ok := values[f.column]; ok && v != nil {
			out = append(out, f)
		}
	}
	return out
}

// filter resolves a list filter key to its column and coerced value.
func (fs fieldSet) filter(name string, v any) (string, any, error) {
	f, ok := fs.byName[name]
	if !ok {
		return "", nil, validationError("kernel.list", "cannot filter on %q", name)
	}
	if v == nil {
		return f.column, nil, nil
	}
	cv, err := f.coerce(v)
	if err != nil {
		return "", nil, err
	}
	return f.column, cv, nil
}

func (f field) coerce(v any) (any, error) {
	const op = "kernel.bind"
	if v == nil {
		if !f.nullable() {
			return nil, validationError(op, "%s cannot be null", f.name)
		}
		return nil, nil
	}
	switch f.kind {
	case kindInt:
		n, ok := toInt64(v)
		if !ok {
			return nil, validationError(op, "%s must be an integer", f.name)
		}
		if f.min != nil && n < *f.min {
			return nil, validationError(op, "%s must be >= %d", f.name, *f.min)
		}
		return n, nil
	case kindDate:
		s, ok := v.(string)
		if !ok {
			return nil, validationError(op, "%s must be a YYYY-MM-DD string", f.name)
		}
		d, err := time.Parse(dateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, validationError(op, "%s must be a YYYY-MM-DD date", f.name)
		}
		return d.Format(dateLayout), nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, validationError(op, "%s must be a string", f.name)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if f.nullable() {
				return nil, nil
			}
			return nil, validationError(op, "%s must not be empty", f.name)
		}
		if f.upper {
			s = strings.ToUpper(s)
		}
		if f.maxLen > 0 && utf8.RuneCountInString(s) > f.maxLen {
			return nil, validationError(op, "%s exceeds %d characters", f.name, f.maxLen)
		}
		if f.pattern != nil && !f.pattern.MatchString(s) {
			return nil, validationError(op, "%s has an invalid format", f.name)
		}
		if len(f.enum) > 0 && !contains(f.enum, s) {
			return nil, validationError(op, "%s must be one of %s", f.name, strings.Join(f.enum, ", "))
		}
		return s, nil
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func int64Ptr(v int64) *int64 { return &v }
