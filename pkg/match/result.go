package match

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// fieldRegexp describes keys that are addressable as attributes inside
// expressions. Other keys stay reachable through subscripting only.
var fieldRegexp = regexp.MustCompile(`^[a-zA-Z_]\w*$`)

// Result is the outcome of one selector invocation: an ordered mapping from
// string keys to scalars, nested Results, or lists of either. It is built
// once by the selector and never mutated after being returned.
type Result struct {
	entries *orderedmap.OrderedMap[string, any]

	// refKey is an optional dotted path used to pull a representative
	// scalar out of the result for cross-referencing.
	refKey string
}

// Opt configures a [Result] during construction.
type Opt func(*Result)

// WithReferenceKey sets the dotted path returned by [Result.ReferenceValue].
func WithReferenceKey(key string) Opt {
	return func(r *Result) {
		r.refKey = key
	}
}

// New creates an empty [Result].
func New(opts ...Opt) *Result {
	r := &Result{entries: orderedmap.New[string, any]()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FromMap creates a [Result] from a plain map. Nested maps become nested
// Results. Since Go map iteration order is unspecified, keys are sorted to
// keep construction deterministic; use [Result.Set] directly when the caller
// controls ordering.
func FromMap(m map[string]any, opts ...Opt) *Result {
	r := New(opts...)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		r.Set(k, m[k])
	}

	return r
}

// Set stores a value under key, converting nested maps to Results. Keys that
// are not attribute-addressable are accepted but logged, matching the
// behavior configuration authors rely on for subscript-only fields.
func (r *Result) Set(key string, value any) {
	if !fieldRegexp.MatchString(key) {
		slog.Warn("match result key is not attribute-addressable",
			slog.String("key", key),
		)
	}

	if m, ok := value.(map[string]any); ok {
		value = FromMap(m)
	}

	r.entries.Set(key, value)
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (any, bool) {
	return r.entries.Get(key)
}

// Len returns the number of top-level entries.
func (r *Result) Len() int {
	return r.entries.Len()
}

// Keys returns the keys in insertion order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	return keys
}

// GetPath resolves a dotted path ("a.b.c") through nested Results and
// returns the leaf value.
func (r *Result) GetPath(path string) (any, error) {
	curr := any(r)

	for part := range strings.SplitSeq(path, ".") {
		res, ok := curr.(*Result)
		if !ok {
			return nil, fmt.Errorf("path %q: %q is not a nested result", path, part)
		}

		v, ok := res.Get(part)
		if !ok {
			return nil, fmt.Errorf("path %q: key %q not found", path, part)
		}

		curr = v
	}

	return curr, nil
}

// ReferenceValue returns the value at the configured reference key, used to
// cross-reference this match from another selector's grouping key. Returns
// nil when no reference key was set.
func (r *Result) ReferenceValue() (any, error) {
	if r.refKey == "" {
		return nil, nil
	}

	return r.GetPath(r.refKey)
}

// ToMap renders the result to a plain map, recursively, for use as an
// expression evaluation scope.
func (r *Result) ToMap() map[string]any {
	m := make(map[string]any, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = flatten(pair.Value)
	}

	return m
}

func flatten(v any) any {
	switch val := v.(type) {
	case *Result:
		return val.ToMap()

	case []*Result:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item.ToMap()
		}

		return out

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = flatten(item)
		}

		return out

	default:
		return v
	}
}

func (r *Result) String() string {
	sb := &strings.Builder{}
	sb.WriteByte('{')

	for i, key := range r.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}

		v, _ := r.Get(key)
		fmt.Fprintf(sb, "%s: %v", key, v)
	}

	sb.WriteByte('}')

	return sb.String()
}
