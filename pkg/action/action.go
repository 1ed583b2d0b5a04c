// Package action resolves the optional follow-up a label can request
// once it triggers: a state transition on the target and/or a comment.
// Specs are parsed at configuration-load time; resolution renders the
// templated fields against the same scope as the label itself.
package action

import (
	"errors"
	"fmt"
	"slices"

	"github.com/macropower/autolabeler/pkg/expr"
)

// ErrConflict indicates that labels co-triggered on one target resolved to
// more than one distinct action verb. Fatal for that target.
var ErrConflict = errors.New("conflicting post-label actions")

// Verb is a state transition a resolved action requests.
type Verb string

const (
	VerbOpen    Verb = "open"
	VerbClose   Verb = "close"
	VerbApprove Verb = "approve"
)

// ParseVerb validates an action token against the closed verb set.
func ParseVerb(s string) (Verb, error) {
	switch Verb(s) {
	case VerbOpen, VerbClose, VerbApprove:
		return Verb(s), nil
	}

	return "", fmt.Errorf("unsupported action %q, must be one of: open, close, approve", s)
}

// Spec is a parsed post-label action definition. Perform and Comment are
// templates rendered per match tuple; either may be empty but not both.
type Spec struct {
	Perform string
	Comment string
}

// ParseSpec builds a Spec from the raw "action" mapping of a label
// definition.
func ParseSpec(def map[string]any) (*Spec, error) {
	spec := &Spec{}

	for key, value := range def {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("action key %q must be a string, got %v (%T)", key, value, value)
		}

		switch key {
		case "perform":
			spec.Perform = s
		case "comment":
			spec.Comment = s
		default:
			return nil, fmt.Errorf("unsupported action key %q, supported keys are: perform, comment", key)
		}
	}

	if spec.Perform == "" && spec.Comment == "" {
		return nil, errors.New("action requires at least one of: perform, comment")
	}

	if spec.Perform != "" {
		// Templated verbs can only be vetted after rendering, but a
		// template-free token must fail at load time.
		if !isTemplated(spec.Perform) {
			if _, err := ParseVerb(spec.Perform); err != nil {
				return nil, err
			}
		}
	}

	return spec, nil
}

func isTemplated(s string) bool {
	for _, c := range s {
		if c == '{' || c == '}' {
			return true
		}
	}

	return false
}

// Resolved is one rendered action for one target.
type Resolved struct {
	Verb    Verb
	Comment string
}

// Resolve renders the spec's templates against scope. The rendered perform
// token must be a member of the closed verb set.
func (s *Spec) Resolve(sandbox *expr.Sandbox, scope map[string]any) (*Resolved, error) {
	out := &Resolved{}

	if s.Perform != "" {
		token, err := sandbox.Render(s.Perform, scope)
		if err != nil {
			return nil, fmt.Errorf("render action: %w", err)
		}

		verb, err := ParseVerb(token)
		if err != nil {
			return nil, err
		}

		out.Verb = verb
	}

	if s.Comment != "" {
		comment, err := sandbox.Render(s.Comment, scope)
		if err != nil {
			return nil, fmt.Errorf("render action comment: %w", err)
		}

		out.Comment = comment
	}

	return out, nil
}

// Aggregate combines the resolved actions of every triggered label on one
// target. All verb-carrying actions must agree on a single verb; comments
// are deduplicated preserving order.
func Aggregate(resolved []*Resolved) (Verb, []string, error) {
	verb := Verb("")
	verbs := map[Verb]bool{}
	comments := []string{}
	seen := map[string]bool{}

	for _, r := range resolved {
		if r == nil {
			continue
		}

		if r.Verb != "" {
			verbs[r.Verb] = true
			verb = r.Verb
		}

		if r.Comment != "" && !seen[r.Comment] {
			seen[r.Comment] = true
			comments = append(comments, r.Comment)
		}
	}

	if len(verbs) > 1 {
		names := make([]Verb, 0, len(verbs))
		for v := range verbs {
			names = append(names, v)
		}

		slices.Sort(names)

		return "", nil, fmt.Errorf("%w: %v", ErrConflict, names)
	}

	return verb, comments, nil
}
