package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Guardian identifiers arrive in three shapes: international
// (+923001234567), local with trunk zero (03001234567), and bare
// mobile (3001234567). Anything else is treated as an email.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\+?\d{10,15}$`),
	regexp.MustCompile(`^0\d{10}$`),
	regexp.MustCompile(`^3\d{9}$`),
}

var (
	trunkZeroPattern  = regexp.MustCompile(`^0\d{10}$`)
	bareMobilePattern = regexp.MustCompile(`^3\d{9}$`)
)

// countryPrefix is prepended when canonicalizing local phone shapes.
const countryPrefix = "+92"

var identifierFolder = cases.Fold()

// FoldIdentifier trims and case-folds a login identifier so owner and
// email comparisons are case/whitespace-insensitive.
func FoldIdentifier(s string) string {
	return identifierFolder.String(strings.TrimSpace(s))
}

func stripPhoneFiller(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsPhoneShaped reports whether the identifier looks like a phone
// number rather than an email.
func IsPhoneShaped(identifier string) bool {
	s := stripPhoneFiller(identifier)
	for _, p := range phonePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// NormalizePhone canonicalizes a phone-shaped identifier to its
// international form. Guardian records store phones in this form, so
// every lookup must pass through here first.
func NormalizePhone(identifier string) string {
	s := stripPhoneFiller(identifier)
	switch {
	case strings.HasPrefix(s, "+"):
		return s
	case trunkZeroPattern.MatchString(s):
		return countryPrefix + s[1:]
	case bareMobilePattern.MatchString(s):
		return countryPrefix + s
	default:
		return "+" + s
	}
}
