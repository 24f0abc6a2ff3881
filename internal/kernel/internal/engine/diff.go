package engine

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

// volatileFields change as a side effect of storage, not caller intent, and
// never show up in audit diffs.
var volatileFields = []string{
	"updatedAt", "updated_at",
	"updatedBy", "updated_by",
	"searchVector", "search_vector",
	"version",
}

// diff returns the patch turning before into after, or nil when before is nil
// or nothing but volatile fields changed. Output order depends only on keys.
func diff(before, after mutation.Snapshot) (mutation.Patch, error) {
	if before == nil {
		return nil, nil
	}
	b, err := normalize(before)
	if err != nil {
		return nil, err
	}
	a, err := normalize(after)
	if err != nil {
		return nil, err
	}
	var patch mutation.Patch
	diffObjects("", b, a, &patch)
	if len(patch) == 0 {
		return nil, nil
	}
	return patch, nil
}

// normalize round-trips through JSON so typed values (times, int64, pointers)
// compare the same way they are rendered.
func normalize(s mutation.Snapshot) (map[string]any, error) {
	out := map[string]any{}
	if s == nil {
		return out, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := mutation.DecodeJSON(raw, &out); err != nil {
		return nil, err
	}
	for _, k := range volatileFields {
		delete(out, k)
	}
	return out, nil
}

func diffObjects(prefix string, before, after map[string]any, patch *mutation.Patch) {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := prefix + "/" + escapePointer(k)
		bv, inBefore := before[k]
		av, inAfter := after[k]
		switch {
		case !inAfter:
			*patch = append(*patch, mutation.PatchOp{Op: mutation.OpRemove, Path: path})
		case !inBefore:
			*patch = append(*patch, mutation.PatchOp{Op: mutation.OpAdd, Path: path, Value: av})
		default:
			bm, bIsObj := bv.(map[string]any)
			am, aIsObj := av.(map[string]any)
			if bIsObj && aIsObj {
				diffObjects(path, bm, am, patch)
				continue
			}
			if !reflect.DeepEqual(bv, av) {
				*patch = append(*patch, mutation.PatchOp{Op: mutation.OpReplace, Path: path, Value: av})
			}
		}
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(k string) string { return pointerEscaper.Replace(k) }
