package expr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// DefaultCostLimit is the evaluation cost budget per expression. It is
// generous for the small expressions labeler configs contain while still
// bounding pathological comprehensions.
const DefaultCostLimit = 100000

var (
	// ErrSyntax indicates an expression or template outside the supported
	// grammar subset.
	ErrSyntax = errors.New("expression syntax error")

	// ErrScope indicates a reference to a name that is not defined in the
	// evaluation scope, or a call to a function that does not exist in the
	// sandbox.
	ErrScope = errors.New("undefined name in expression scope")

	// ErrImportPolicy indicates that a definitions block referenced a name
	// outside its import allow-list.
	ErrImportPolicy = errors.New("reference not on import allow-list")

	undeclaredRefRegexp = regexp.MustCompile(`undeclared reference to '([^']+)'`)

	// Protect CEL environment creation and compilation from concurrent access.
	celMutex sync.Mutex
)

// Sandbox compiles and evaluates configuration expressions. The zero cost
// limit means [DefaultCostLimit].
type Sandbox struct {
	costLimit uint64
}

// Opt configures a [Sandbox].
type Opt func(*Sandbox)

// WithCostLimit overrides the per-expression evaluation cost budget.
func WithCostLimit(limit uint64) Opt {
	return func(s *Sandbox) {
		s.costLimit = limit
	}
}

// NewSandbox creates a [Sandbox].
func NewSandbox(opts ...Opt) *Sandbox {
	s := &Sandbox{costLimit: DefaultCostLimit}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate compiles expression against the names present in scope and
// evaluates it. A reference to a name absent from scope fails with
// [ErrScope] at compile time, before any evaluation happens. Constructs
// outside the supported grammar fail with [ErrSyntax].
func (s *Sandbox) Evaluate(expression string, scope map[string]any) (any, error) {
	prg, err := s.compile(expression, scopeNames(scope))
	if err != nil {
		return nil, err
	}

	out, _, err := prg.Eval(scope)
	if err != nil {
		return nil, classifyEvalError(expression, err)
	}

	return nativeValue(out), nil
}

// compile builds a CEL program for expression with the given names declared
// as dynamically-typed variables. Nothing else is reachable: the function
// surface is fixed by the sandbox library, and undeclared names are compile
// errors.
func (s *Sandbox) compile(expression string, names []string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts := make([]cel.EnvOption, 0, len(names)+1)
	opts = append(opts, cel.Lib(&lib{}))

	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, classifyCompileError(expression, issues.Err())
	}

	prg, err := env.Program(ast, cel.CostLimit(s.costLimit))
	if err != nil {
		return nil, fmt.Errorf("create program for %q: %w", expression, err)
	}

	return prg, nil
}

// scopeError is an [ErrScope] that carries the undeclared name reported by
// the compiler, so callers can inspect which name was out of scope.
type scopeError struct {
	name string
	msg  string
}

func (e *scopeError) Error() string { return e.msg }

func (e *scopeError) Unwrap() error { return ErrScope }

// classifyCompileError distinguishes scoping errors (undeclared names,
// unknown functions) from grammar errors.
func classifyCompileError(expression string, err error) error {
	msg := err.Error()
	if m := undeclaredRefRegexp.FindStringSubmatch(msg); m != nil {
		return &scopeError{
			name: m[1],
			msg:  fmt.Sprintf("%s: %q in %q", ErrScope, m[1], expression),
		}
	}

	if strings.Contains(msg, "undeclared reference") ||
		strings.Contains(msg, "found no matching overload") {
		return fmt.Errorf("%w: %q: %s", ErrScope, expression, msg)
	}

	return fmt.Errorf("%w: %q: %s", ErrSyntax, expression, msg)
}

// classifyEvalError maps runtime lookup failures (missing keys or
// attributes on dynamic values) to [ErrScope].
func classifyEvalError(expression string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "no such key") ||
		strings.Contains(msg, "no such attribute") ||
		strings.Contains(msg, "no such overload") {
		return fmt.Errorf("%w: %q: %s", ErrScope, expression, msg)
	}

	return fmt.Errorf("evaluate %q: %w", expression, err)
}

// undeclaredName extracts the offending name from a wrapped [ErrScope], if
// the compiler reported one.
func undeclaredName(err error) string {
	var se *scopeError
	if errors.As(err, &se) {
		return se.name
	}

	return ""
}

var identRegexp = regexp.MustCompile(`^[a-zA-Z_]\w*$`)

// scopeNames lists the declarable names in scope. Keys that are not valid
// identifiers cannot be referenced from expressions and are skipped.
func scopeNames(scope map[string]any) []string {
	names := make([]string, 0, len(scope))
	for name := range scope {
		if identRegexp.MatchString(name) {
			names = append(names, name)
		}
	}

	return names
}

// nativeValue converts a CEL result to a plain Go value.
func nativeValue(v ref.Val) any {
	switch val := v.(type) {
	case types.Bool:
		return bool(val)

	case types.Int:
		return int64(val)

	case types.Uint:
		return uint64(val)

	case types.Double:
		return float64(val)

	case types.String:
		return string(val)

	case types.Null:
		return nil

	default:
		return v.Value()
	}
}

// IsTruthy reports whether an evaluation result should count as true for
// condition expressions: false, null, zero, empty string, and empty
// collections are falsy, everything else is truthy.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false

	case bool:
		return val

	case int64:
		return val != 0

	case uint64:
		return val != 0

	case float64:
		return val != 0

	case string:
		return val != ""

	case []any:
		return len(val) > 0

	case map[string]any:
		return len(val) > 0

	case map[ref.Val]ref.Val:
		return len(val) > 0

	default:
		return true
	}
}
