// Package docpath addresses fields of a JSON document with dot-separated
// paths ("state.board.4", "seat2.counter") and computes the minimal set of
// such paths that turns one document into another.
package docpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

var ErrBadPath = errors.New("bad field path")

// Fields maps dot paths to their new JSON-compatible values. A nil value
// writes JSON null.
type Fields map[string]any

// Paths returns the keys of f in sorted order.
func (f Fields) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Split breaks a path into its segments.
func Split(path string) []string { return strings.Split(path, ".") }

// ToDoc converts any JSON-serialisable value into a generic document.
func ToDoc(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDoc decodes a generic document into out.
func FromDoc(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Diff returns the paths whose values differ between before and after.
// Arrays of equal length are compared element by element; anything else
// that changed is replaced whole.
func Diff(before, after any) (Fields, error) {
	a, err := ToDoc(before)
	if err != nil {
		return nil, err
	}
	b, err := ToDoc(after)
	if err != nil {
		return nil, err
	}
	out := Fields{}
	diff("", a, b, out)
	return out, nil
}

func diff(prefix string, a, b any, out Fields) {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		for k, av := range am {
			diff(join(prefix, k), av, bm[k], out)
		}
		for k, bv := range bm {
			if _, seen := am[k]; !seen {
				out[join(prefix, k)] = bv
			}
		}
		return
	}

	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok && bok && len(as) == len(bs) && prefix != "" {
		for i := range as {
			diff(join(prefix, strconv.Itoa(i)), as[i], bs[i], out)
		}
		return
	}

	if !reflect.DeepEqual(a, b) {
		out[prefix] = b
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Set writes value at path inside doc, creating intermediate objects as
// needed. Array segments must index an existing element.
func Set(doc map[string]any, path string, value any) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrBadPath)
	}
	segs := Split(path)
	var cur any = doc
	for i, seg := range segs {
		last := i == len(segs)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[seg] = value
				return nil
			}
			next, ok := node[seg]
			if !ok || next == nil {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("%w: %q index %q out of range", ErrBadPath, path, seg)
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("%w: %q descends into a scalar at %q", ErrBadPath, path, seg)
		}
	}
	return nil
}

// Apply writes every field of f into doc in path order.
func Apply(doc map[string]any, f Fields) error {
	for _, p := range f.Paths() {
		if err := Set(doc, p, f[p]); err != nil {
			return err
		}
	}
	return nil
}
