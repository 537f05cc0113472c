package filter

import "strings"

// Collation names required by spec.md §4.9. i;ascii-casemap is the
// default when a text-match omits the collation attribute.
const (
	CollationOctet          = "i;octet"
	CollationASCIICasemap   = "i;ascii-casemap"
	CollationUnicodeCasemap = "i;unicode-casemap"
)

// Match-type names (RFC 4791 §9.7.5 / RFC 6352 §8.7.2).
const (
	MatchEquals     = "equals"
	MatchContains   = "contains"
	MatchStartsWith = "starts-with"
	MatchEndsWith   = "ends-with"
)

// TextMatch mirrors CALDAV:text-match / CARDDAV:text-match.
type TextMatch struct {
	Text            string
	Collation       string
	MatchType       string
	NegateCondition bool
}

// MatchText evaluates a text-match against value, honoring collation
// and match-type. An unsupported collation is the caller's
// responsibility to reject via ValidateCollation before reaching here;
// MatchText itself folds an unrecognized collation to i;ascii-casemap
// rather than erroring, so mid-tree evaluation never aborts a REPORT
// that already passed validation.
func MatchText(tm TextMatch, value string) (bool, error) {
	needle, haystack := tm.Text, value
	switch tm.Collation {
	case CollationOctet:
		// byte-exact, no folding.
	case CollationUnicodeCasemap:
		needle, haystack = strings.ToLower(needle), strings.ToLower(haystack)
	default:
		needle, haystack = asciiLower(needle), asciiLower(haystack)
	}

	var ok bool
	switch tm.MatchType {
	case MatchEquals:
		ok = haystack == needle
	case MatchStartsWith:
		ok = strings.HasPrefix(haystack, needle)
	case MatchEndsWith:
		ok = strings.HasSuffix(haystack, needle)
	case MatchContains, "":
		ok = strings.Contains(haystack, needle)
	default:
		ok = strings.Contains(haystack, needle)
	}

	if tm.NegateCondition {
		ok = !ok
	}
	return ok, nil
}

// asciiLower lowercases only ASCII letters, the "i;ascii-casemap"
// collation's exact semantics (RFC 4790), distinct from Unicode
// case-folding.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
