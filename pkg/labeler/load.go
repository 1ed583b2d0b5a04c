package labeler

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/macropower/autolabeler/pkg/action"
	"github.com/macropower/autolabeler/pkg/expr"
	"github.com/macropower/autolabeler/pkg/selector"
)

// Magic scoping keys. Both are split off a node before it is interpreted as
// a label definition or prefix group.
const (
	optionsKey     = "options"
	definitionsKey = "definitions"
)

// Reserved keys of a label definition node.
const (
	colorKey       = "color"
	descriptionKey = "description"
	selectorsKey   = "selectors"
	conditionKey   = "if"
	actionKey      = "action"
)

// Node is one mapping node of the parsed configuration tree. Ordered
// decoding ([yaml.MapSlice]) preserves declaration order; plain maps are
// accepted for programmatic construction.
type Node = any

// SplitScopes separates a node's magic scoping entries from the rest.
// Returns the raw options value, the raw definitions source, and the
// remaining entries in declaration order. Pure: the input is not mutated.
func SplitScopes(node Node) (opts any, defs string, rest []Entry, err error) {
	entries, ok := nodeEntries(node)
	if !ok {
		return nil, "", nil, fmt.Errorf("%w: expected a mapping node, got %T", ErrConfig, node)
	}

	for _, e := range entries {
		switch e.Key {
		case optionsKey:
			opts = e.Value

		case definitionsKey:
			s, ok := e.Value.(string)
			if !ok {
				return nil, "", nil, fmt.Errorf("%w: %q must be a string of definitions, got %T",
					ErrConfig, definitionsKey, e.Value)
			}

			defs = s

		default:
			rest = append(rest, e)
		}
	}

	return opts, defs, rest, nil
}

// Entry is one key/value pair of a configuration mapping node.
type Entry struct {
	Value any
	Key   string
}

func nodeEntries(node Node) ([]Entry, bool) {
	switch v := node.(type) {
	case yaml.MapSlice:
		entries := make([]Entry, 0, len(v))
		for _, item := range v {
			entries = append(entries, Entry{
				Key:   fmt.Sprintf("%v", item.Key),
				Value: item.Value,
			})
		}

		return entries, true

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		entries := make([]Entry, 0, len(v))
		for _, k := range keys {
			entries = append(entries, Entry{Key: k, Value: v[k]})
		}

		return entries, true

	default:
		return nil, false
	}
}

// normalize converts ordered yaml values into plain Go values so they can
// live in expression scopes.
func normalize(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		out := make(map[string]any, len(t))
		for _, item := range t {
			out[fmt.Sprintf("%v", item.Key)] = normalize(item.Value)
		}

		return out

	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}

		return out

	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalize(item))
		}

		return out

	case int:
		return int64(t)
	case uint64:
		return int64(t)

	default:
		return v
	}
}

// deepMerge layers override onto base: nested maps merge recursively,
// scalars and lists are overwritten by the more specific scope. Neither
// input is mutated.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))

	for k, v := range base {
		out[k] = v
	}

	for k, v := range override {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)

		if bok && ook {
			out[k] = deepMerge(bm, om)

			continue
		}

		out[k] = v
	}

	return out
}

// Load compiles a configuration tree into top-level labelers. Each
// top-level key becomes one labeler; nesting below a non-label key becomes
// a prefix group.
func Load(tree Node, sandbox *expr.Sandbox) ([]Labeler, error) {
	if sandbox == nil {
		sandbox = expr.NewSandbox()
	}

	loader := &treeLoader{sandbox: sandbox}

	return loader.load(tree, map[string]any{}, map[string]any{})
}

type treeLoader struct {
	sandbox *expr.Sandbox
}

func (tl *treeLoader) load(node Node, opts, defs map[string]any) ([]Labeler, error) {
	opts, defs, rest, err := tl.scopes(node, opts, defs)
	if err != nil {
		return nil, err
	}

	labelers := []Labeler{}

	for _, e := range rest {
		l, err := tl.loadNode(e.Key, e.Value, opts, defs)
		if err != nil {
			return nil, err
		}

		labelers = append(labelers, l)
	}

	return labelers, nil
}

// scopes applies a node's magic keys on top of the inherited scopes.
func (tl *treeLoader) scopes(node Node, opts, defs map[string]any) (map[string]any, map[string]any, []Entry, error) {
	rawOpts, defsSource, rest, err := SplitScopes(node)
	if err != nil {
		return nil, nil, nil, err
	}

	if rawOpts != nil {
		m, ok := normalize(rawOpts).(map[string]any)
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: %q must be a mapping, got %T", ErrConfig, optionsKey, rawOpts)
		}

		opts = deepMerge(opts, m)
	}

	if defsSource != "" {
		scope := map[string]any{optsKey: opts}
		allowed := []string{optsKey}

		for k, v := range defs {
			scope[k] = v

			allowed = append(allowed, k)
		}

		defined, err := tl.sandbox.Define(defsSource, scope, allowed)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %q: %s", ErrConfig, definitionsKey, err)
		}

		if _, ok := defined[optsKey]; ok {
			return nil, nil, nil, fmt.Errorf("%w: definition %q shadows the options scope", ErrConfig, optsKey)
		}

		defs = deepMerge(defs, defined)
	}

	return opts, defs, rest, nil
}

func (tl *treeLoader) loadNode(name string, def any, opts, defs map[string]any) (Labeler, error) {
	entries, ok := nodeEntries(def)
	if !ok {
		return nil, fmt.Errorf("%w: node %q must be a mapping, got %T", ErrConfig, name, def)
	}

	if isLabelDefinition(entries) {
		return tl.loadLabel(name, def, opts, defs)
	}

	children, err := tl.load(def, opts, defs)
	if err != nil {
		return nil, fmt.Errorf("prefix group %q: %w", name, err)
	}

	return NewPrefixLabeler(name, "/", children)
}

// isLabelDefinition reports whether a node is a label definition: it must
// carry both a color and a description.
func isLabelDefinition(entries []Entry) bool {
	hasColor, hasDescription := false, false

	for _, e := range entries {
		switch e.Key {
		case colorKey:
			hasColor = true
		case descriptionKey:
			hasDescription = true
		}
	}

	return hasColor && hasDescription
}

func (tl *treeLoader) loadLabel(name string, def any, opts, defs map[string]any) (*SelectorLabeler, error) {
	// Magic keys may also appear directly on a label definition.
	opts, defs, rest, err := tl.scopes(def, opts, defs)
	if err != nil {
		return nil, fmt.Errorf("label %q: %w", name, err)
	}

	cfg := SelectorLabelerConfig{
		Sandbox:     tl.sandbox,
		Options:     opts,
		Definitions: defs,
		Name:        name,
	}

	for _, e := range rest {
		switch e.Key {
		case colorKey:
			s, ok := e.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: label %q: %q must be a string", ErrConfig, name, colorKey)
			}

			cfg.Color = s

		case descriptionKey:
			s, ok := e.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: label %q: %q must be a string", ErrConfig, name, descriptionKey)
			}

			cfg.Description = s

		case conditionKey:
			s, ok := e.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: label %q: %q must be a string", ErrConfig, name, conditionKey)
			}

			cfg.Condition = s

		case selectorsKey:
			sels, err := tl.loadSelectors(e.Value, opts)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", name, err)
			}

			cfg.Selectors = sels

		case actionKey:
			raw, ok := normalize(e.Value).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: label %q: %q must be a mapping", ErrConfig, name, actionKey)
			}

			spec, err := action.ParseSpec(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: label %q: %s", ErrConfig, name, err)
			}

			cfg.Action = spec

		default:
			return nil, fmt.Errorf("%w: label %q: unsupported key %q, supported keys are: "+
				"color, description, selectors, if, action, options, definitions",
				ErrConfig, name, e.Key)
		}
	}

	return NewSelectorLabeler(cfg)
}

func (tl *treeLoader) loadSelectors(def any, opts map[string]any) ([]selector.Selector, error) {
	entries, ok := nodeEntries(def)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a mapping of selector definitions, got %T",
			ErrConfig, selectorsKey, def)
	}

	sels := make([]selector.Selector, 0, len(entries))

	for _, e := range entries {
		sel, err := selector.Compile(e.Key, e.Value, selector.Options(opts))
		if err != nil {
			return nil, err
		}

		sels = append(sels, sel)
	}

	return sels, nil
}
