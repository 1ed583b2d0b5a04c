// Package labeler turns selector matches into fully-resolved labels. A
// configuration tree compiles into Labeler nodes: SelectorLabeler leaves
// that render name/color/description templates per match tuple, and
// PrefixLabeler groups that aggregate children under a common name prefix.
package labeler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/macropower/autolabeler/pkg/action"
	"github.com/macropower/autolabeler/pkg/expr"
	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/selector"
)

// ErrConfig indicates an invalid label definition. Always fatal at
// configuration load time.
var ErrConfig = errors.New("invalid labeler configuration")

// optsKey is the name the inherited options scope is exposed under inside
// label expressions. Definitions may not shadow it.
const optsKey = "opts"

// Labeler is a compiled rule node producing labels for one target.
type Labeler interface {
	// Labels resolves the node against the target, returning zero or more
	// fully-rendered labels.
	Labels(t gh.Target) ([]*LabelParams, error)
}

// SelectorLabeler resolves one label definition. With zero selectors it is
// static: exactly one label per call, rendered against the inherited
// definitions scope only. With selectors, it cross-products their match
// lists and renders one label candidate per tuple.
type SelectorLabeler struct {
	sandbox     *expr.Sandbox
	opts        map[string]any
	defs        map[string]any
	action      *action.Spec
	name        string
	color       string
	description string
	condition   string
	selectors   []selector.Selector
}

// SelectorLabelerConfig carries everything a SelectorLabeler needs at
// construction.
type SelectorLabelerConfig struct {
	Sandbox     *expr.Sandbox
	Options     map[string]any
	Definitions map[string]any
	Action      *action.Spec
	Name        string
	Color       string
	Description string
	Condition   string
	Selectors   []selector.Selector
}

// NewSelectorLabeler builds a labeler from its compiled parts. Template-free
// colors are validated immediately; templated ones only after rendering.
func NewSelectorLabeler(cfg SelectorLabelerConfig) (*SelectorLabeler, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: label name must not be empty", ErrConfig)
	}

	// A static label always produces exactly one label. A condition could
	// only break that guarantee, so it requires at least one selector.
	if cfg.Condition != "" && len(cfg.Selectors) == 0 {
		return nil, fmt.Errorf("%w: label %q: condition requires at least one selector", ErrConfig, cfg.Name)
	}

	if cfg.Sandbox == nil {
		cfg.Sandbox = expr.NewSandbox()
	}

	color := cfg.Color
	if !isTemplated(color) {
		resolved, err := ResolveColor(color)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", cfg.Name, err)
		}

		color = resolved
	}

	return &SelectorLabeler{
		sandbox:     cfg.Sandbox,
		opts:        cfg.Options,
		defs:        cfg.Definitions,
		action:      cfg.Action,
		name:        cfg.Name,
		color:       color,
		description: cfg.Description,
		condition:   cfg.Condition,
		selectors:   cfg.Selectors,
	}, nil
}

func isTemplated(s string) bool {
	for _, c := range s {
		if c == '{' || c == '}' {
			return true
		}
	}

	return false
}

// Labels implements [Labeler].
func (l *SelectorLabeler) Labels(t gh.Target) ([]*LabelParams, error) {
	if len(l.selectors) == 0 {
		return l.static()
	}

	matched := false
	lists := make([][]map[string]any, 0, len(l.selectors))
	names := make([]string, 0, len(l.selectors))

	for _, sel := range l.selectors {
		results, err := sel.Match(t)
		if err != nil {
			return nil, fmt.Errorf("label %q: selector %q: %w", l.name, sel.Name(), err)
		}

		scopes := make([]map[string]any, 0, len(results))
		for _, r := range results {
			scopes = append(scopes, r.ToMap())
		}

		if len(scopes) > 0 {
			matched = true
		} else {
			// Placeholder keeps the selector's namespace addressable in
			// expressions for tuples driven by its siblings.
			scopes = []map[string]any{{}}
		}

		names = append(names, sel.Name())
		lists = append(lists, scopes)
	}

	if !matched {
		return []*LabelParams{}, nil
	}

	ordered := []*LabelParams{}
	byName := map[string]*LabelParams{}

	for _, tuple := range scopeProduct(lists) {
		scope, err := l.combinedScope(names, tuple)
		if err != nil {
			slog.Warn("skipping match tuple",
				slog.String("label", l.name),
				slog.Any("error", err),
			)

			continue
		}

		params, err := l.resolveTuple(scope)
		if err != nil {
			if errors.Is(err, expr.ErrScope) || errors.Is(err, expr.ErrImportPolicy) {
				slog.Warn("skipping match tuple",
					slog.String("label", l.name),
					slog.Any("error", err),
				)

				continue
			}

			return nil, fmt.Errorf("label %q: %w", l.name, err)
		}

		if params == nil { // condition discarded the tuple
			continue
		}

		if prev, ok := byName[params.Name]; ok {
			if !prev.Equal(params) {
				slog.Warn("conflicting label candidates for name, keeping first",
					slog.String("label", params.Name),
				)
			}

			continue
		}

		byName[params.Name] = params
		ordered = append(ordered, params)
	}

	return ordered, nil
}

// static renders the label against the inherited scopes only. The
// constructor rejects conditions on selector-free labels, so this always
// yields exactly one label.
func (l *SelectorLabeler) static() ([]*LabelParams, error) {
	scope, err := l.combinedScope(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("label %q: %w", l.name, err)
	}

	params, err := l.resolveTuple(scope)
	if err != nil {
		return nil, fmt.Errorf("label %q: %w", l.name, err)
	}

	return []*LabelParams{params}, nil
}

// combinedScope builds the expression scope for one tuple: selector matches
// over definitions, with the options scope exposed under "opts".
func (l *SelectorLabeler) combinedScope(names []string, tuple []map[string]any) (map[string]any, error) {
	scope := make(map[string]any, len(l.defs)+len(names)+1)

	for k, v := range l.defs {
		if k == optsKey {
			return nil, fmt.Errorf("%w: definition %q shadows the options scope", ErrConfig, optsKey)
		}

		scope[k] = v
	}

	for i, name := range names {
		if name == optsKey {
			return nil, fmt.Errorf("%w: selector %q shadows the options scope", ErrConfig, optsKey)
		}

		scope[name] = tuple[i]
	}

	scope[optsKey] = l.opts
	if l.opts == nil {
		scope[optsKey] = map[string]any{}
	}

	return scope, nil
}

// resolveTuple renders the templates against one combined scope. A nil
// result with nil error means the condition discarded the tuple.
func (l *SelectorLabeler) resolveTuple(scope map[string]any) (*LabelParams, error) {
	if l.condition != "" {
		v, err := l.sandbox.Evaluate(l.condition, scope)
		if err != nil {
			return nil, fmt.Errorf("evaluate condition: %w", err)
		}

		if !expr.IsTruthy(v) {
			return nil, nil
		}
	}

	name, err := l.sandbox.Render(l.name, scope)
	if err != nil {
		return nil, fmt.Errorf("render name: %w", err)
	}

	description, err := l.sandbox.Render(l.description, scope)
	if err != nil {
		return nil, fmt.Errorf("render description: %w", err)
	}

	color := l.color
	if isTemplated(color) {
		rendered, err := l.sandbox.Render(color, scope)
		if err != nil {
			return nil, fmt.Errorf("render color: %w", err)
		}

		color, err = ResolveColor(rendered)
		if err != nil {
			return nil, err
		}
	}

	params := &LabelParams{
		Name:        name,
		Color:       color,
		Description: description,
	}

	if l.action != nil {
		resolved, err := l.action.Resolve(l.sandbox, scope)
		if err != nil {
			return nil, err
		}

		params.Action = resolved
	}

	return params, nil
}

// scopeProduct expands per-selector scope lists into every combination.
func scopeProduct(lists [][]map[string]any) [][]map[string]any {
	tuples := [][]map[string]any{{}}

	for _, list := range lists {
		next := make([][]map[string]any, 0, len(tuples)*len(list))

		for _, tuple := range tuples {
			for _, item := range list {
				combined := make([]map[string]any, len(tuple), len(tuple)+1)
				copy(combined, tuple)
				next = append(next, append(combined, item))
			}
		}

		tuples = next
	}

	return tuples
}

// PrefixLabeler groups child labelers under a shared name prefix. It never
// produces labels itself.
type PrefixLabeler struct {
	prefix    string
	separator string
	children  []Labeler
}

// NewPrefixLabeler requires at least one child.
func NewPrefixLabeler(prefix, separator string, children []Labeler) (*PrefixLabeler, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: prefix group %q has no children", ErrConfig, prefix)
	}

	if separator == "" {
		separator = "/"
	}

	return &PrefixLabeler{prefix: prefix, separator: separator, children: children}, nil
}

// Labels implements [Labeler]: delegate, concatenate, rename.
func (l *PrefixLabeler) Labels(t gh.Target) ([]*LabelParams, error) {
	out := []*LabelParams{}

	for _, child := range l.children {
		labels, err := child.Labels(t)
		if err != nil {
			return nil, err
		}

		for _, label := range labels {
			out = append(out, &LabelParams{
				Name:        l.prefix + l.separator + label.Name,
				Color:       label.Color,
				Description: label.Description,
				Action:      label.Action,
			})
		}
	}

	return out, nil
}
