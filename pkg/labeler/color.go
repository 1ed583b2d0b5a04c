package labeler

import (
	"fmt"
	"regexp"
	"strings"
)

// palette maps friendly color names to GitHub-style label hex codes.
var palette = map[string]string{
	"red":    "d73a4a",
	"orange": "d93f0b",
	"yellow": "fbca04",
	"green":  "0e8a16",
	"teal":   "006b75",
	"blue":   "0075ca",
	"navy":   "1d76db",
	"purple": "6f42c1",
	"pink":   "d876e3",
	"gray":   "bfdadc",
	"grey":   "bfdadc",
	"white":  "ffffff",
	"black":  "000000",
}

var hexColorRegexp = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// ResolveColor resolves a palette name or validates a 6-hex-digit color,
// returning the normalized lowercase hex code. A leading '#' is accepted.
func ResolveColor(s string) (string, error) {
	name := strings.ToLower(strings.TrimPrefix(s, "#"))

	if hex, ok := palette[name]; ok {
		return hex, nil
	}

	if hexColorRegexp.MatchString(name) {
		return name, nil
	}

	return "", fmt.Errorf("%w: invalid color %q, must be a 6-hex-digit code or one of the named colors",
		ErrConfig, s)
}
