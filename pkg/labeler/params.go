package labeler

import (
	"fmt"

	"github.com/macropower/autolabeler/pkg/action"
)

// LabelParams is one fully-resolved label: the rendered name, a validated
// 6-hex-digit color, the rendered description, and an optional post-label
// action. Immutable once returned from resolution.
type LabelParams struct {
	Action      *action.Resolved
	Name        string
	Color       string
	Description string
}

// Equal reports structural equality over name, color, and description.
// Actions are excluded.
func (p *LabelParams) Equal(other *LabelParams) bool {
	if p == nil || other == nil {
		return p == other
	}

	return p.Name == other.Name &&
		p.Color == other.Color &&
		p.Description == other.Description
}

func (p *LabelParams) String() string {
	return fmt.Sprintf("%s (#%s)", p.Name, p.Color)
}
