package engine

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func systemFieldNames() []string {
	out := make([]string, 0, len(systemFields))
	for k := range systemFields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestSanitizeDropsExactlySystemFields(t *testing.T) {
	names := systemFieldNames()
	domain := map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"nested":   map[string]any{"version": 9},
		"ID":       "kept: only the lowercase id is a system field",
		"versions": []any{1, 2},
	}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		input := make(map[string]any, len(domain)+len(names))
		for k, v := range domain {
			input[k] = v
		}
		var injected []string
		for _, n := range names {
			if rng.Intn(2) == 0 {
				input[n] = "attacker"
				injected = append(injected, n)
			}
		}
		snapshot := make(map[string]any, len(input))
		for k, v := range input {
			snapshot[k] = v
		}

		out := sanitize(input)

		if !reflect.DeepEqual(out, domain) {
			t.Fatalf("iteration %d (injected %v): got %v want %v", i, injected, out, domain)
		}
		if !reflect.DeepEqual(input, snapshot) {
			t.Fatalf("iteration %d: sanitize mutated its argument", i)
		}
	}
}

func TestSanitizeCoversBothSpellings(t *testing.T) {
	pairs := [][2]string{
		{"orgId", "org_id"},
		{"createdBy", "created_by"},
		{"updatedBy", "updated_by"},
		{"createdAt", "created_at"},
		{"updatedAt", "updated_at"},
		{"isDeleted", "is_deleted"},
		{"deletedAt", "deleted_at"},
		{"deletedBy", "deleted_by"},
		{"searchVector", "search_vector"},
	}
	for _, p := range pairs {
		out := sanitize(map[string]any{p[0]: 1, p[1]: 2, "keep": 3})
		if len(out) != 1 || out["keep"] != 3 {
			t.Fatalf("%v: got %v", p, out)
		}
	}
	if out := sanitize(map[string]any{"id": "x", "version": 3}); len(out) != 0 {
		t.Fatalf("id/version should be dropped, got %v", out)
	}
}

func TestSanitizeNilInput(t *testing.T) {
	out := sanitize(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil map, got %#v", out)
	}
}
