package expr

import (
	"fmt"
	"strings"
)

// Render scans template for balanced-brace spans, evaluates each span's
// content as an expression against scope, and splices the stringified
// result back in. Doubled braces ("{{", "}}") escape to literal braces.
// An unterminated "{" or a stray "}" fails with [ErrSyntax]; unbalanced
// templates are never silently truncated.
func (s *Sandbox) Render(template string, scope map[string]any) (string, error) {
	sb := &strings.Builder{}

	i := 0
	for i < len(template) {
		c := template[i]

		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				sb.WriteByte('{')
				i += 2

				continue
			}

			span, next, err := scanSpan(template, i)
			if err != nil {
				return "", err
			}

			value, err := s.Evaluate(span, scope)
			if err != nil {
				return "", err
			}

			sb.WriteString(formatValue(value))

			i = next

		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				sb.WriteByte('}')
				i += 2

				continue
			}

			return "", fmt.Errorf("%w: unmatched %q at offset %d in %q", ErrSyntax, "}", i, template)

		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), nil
}

// scanSpan returns the expression between the opening brace at start and
// its matching close brace, tracking nesting so map and comprehension
// literals inside the span stay intact.
func scanSpan(template string, start int) (span string, next int, err error) {
	depth := 0

	for i := start; i < len(template); i++ {
		switch template[i] {
		case '{':
			depth++

		case '}':
			depth--
			if depth == 0 {
				return template[start+1 : i], i + 1, nil
			}
		}
	}

	return "", 0, fmt.Errorf("%w: unterminated %q at offset %d in %q", ErrSyntax, "{", start, template)
}

// formatValue stringifies an evaluation result for template splicing.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""

	case string:
		return val

	case float64:
		// Render integral floats without the trailing ".0" noise.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}

		return fmt.Sprintf("%v", val)

	default:
		return fmt.Sprintf("%v", val)
	}
}
