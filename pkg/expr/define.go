package expr

import (
	"fmt"
	"slices"

	"github.com/goccy/go-yaml"
)

// Define executes a restricted block of named-value definitions and returns
// the resulting names. The source is a YAML mapping evaluated top to bottom:
// string values are expressions, everything else is taken as a literal.
// Each expression may reference previously defined names plus the names on
// the allowed list; referencing any other scope name fails with
// [ErrImportPolicy]. Allowed-but-unused names are not carried into the
// returned definitions.
func (s *Sandbox) Define(definitions string, scope map[string]any, allowed []string) (map[string]any, error) {
	var entries yaml.MapSlice

	err := yaml.Unmarshal([]byte(definitions), &entries)
	if err != nil {
		return nil, fmt.Errorf("%w: parse definitions: %s", ErrSyntax, err)
	}

	defined := map[string]any{}

	for _, entry := range entries {
		name, ok := entry.Key.(string)
		if !ok || !identRegexp.MatchString(name) {
			return nil, fmt.Errorf("%w: definition name %v is not an identifier", ErrSyntax, entry.Key)
		}

		value, err := s.evaluateDefinition(entry.Value, scope, allowed, defined)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}

		defined[name] = value
	}

	return defined, nil
}

func (s *Sandbox) evaluateDefinition(
	value any,
	scope map[string]any,
	allowed []string,
	defined map[string]any,
) (any, error) {
	expression, ok := value.(string)
	if !ok {
		// Non-string values are literals (numbers, booleans, maps, lists).
		return normalizeLiteral(value), nil
	}

	// The definition environment holds earlier definitions plus the
	// allow-listed imports, and nothing else from the caller's scope.
	defScope := make(map[string]any, len(defined)+len(allowed))
	for name, v := range defined {
		defScope[name] = v
	}

	for _, name := range allowed {
		if v, inScope := scope[name]; inScope {
			defScope[name] = v
		}
	}

	result, err := s.Evaluate(expression, defScope)
	if err != nil {
		if name := undeclaredName(err); name != "" {
			if _, inScope := scope[name]; inScope && !slices.Contains(allowed, name) {
				return nil, fmt.Errorf("%w: %q", ErrImportPolicy, name)
			}
		}

		return nil, err
	}

	return result, nil
}

// normalizeLiteral converts YAML container types to the map[string]any and
// []any shapes the evaluator expects.
func normalizeLiteral(value any) any {
	switch v := value.(type) {
	case yaml.MapSlice:
		out := make(map[string]any, len(v))
		for _, item := range v {
			out[fmt.Sprintf("%v", item.Key)] = normalizeLiteral(item.Value)
		}

		return out

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeLiteral(item)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeLiteral(item)
		}

		return out

	case int:
		return int64(v)

	case uint64:
		// goccy/go-yaml decodes non-negative integers as uint64.
		return int64(v)

	default:
		return v
	}
}
