// Package engine implements structural pattern compilation, matching, and
// rewriting over tree-sitter syntax trees.
//
// Patterns are ordinary source fragments containing metavariables:
//
//	$VAR      matches any single node and captures it as VAR
//	$_        matches any single node without capturing
//	$...ARGS  matches zero or more consecutive sibling nodes
//
// Metavariable names start with an ASCII uppercase letter or underscore and
// continue with uppercase letters, digits, or underscores. The stricter
// start rule keeps metavariables distinguishable from host-language
// identifiers.
package engine

// Placeholder identifiers substituted for metavariables before the pattern
// is handed to the grammar parser. The prefix/suffix pair is reserved:
// no ordinary program should contain an identifier of this shape.
const (
	metavarPlaceholderPrefix = "__TGP_METAVAR_"
	metavarPlaceholderSuffix = "__"
)

// isMetavarStartChar reports whether c may begin a metavariable name.
func isMetavarStartChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '_'
}

// isMetavarContinuationChar reports whether c may continue a metavariable name.
func isMetavarContinuationChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// extractMetavarName reads the longest valid metavariable name starting at
// s[pos] (the character right after the `$` or `$...` sigil). Returns the
// name and the index just past it; the name is empty when s[pos] is not a
// valid start character.
func extractMetavarName(s string, pos int) (string, int) {
	if pos >= len(s) || !isMetavarStartChar(s[pos]) {
		return "", pos
	}
	end := pos + 1
	for end < len(s) && isMetavarContinuationChar(s[end]) {
		end++
	}
	return s[pos:end], end
}

// placeholderForMetavar builds the legal identifier that stands in for a
// metavariable in the normalised pattern source.
func placeholderForMetavar(name string) string {
	return metavarPlaceholderPrefix + name + metavarPlaceholderSuffix
}

// metavarNameFromPlaceholder recovers the metavariable name from a
// placeholder identifier, or returns false when the text is not one.
func metavarNameFromPlaceholder(text string) (string, bool) {
	if len(text) <= len(metavarPlaceholderPrefix)+len(metavarPlaceholderSuffix) {
		return "", false
	}
	if text[:len(metavarPlaceholderPrefix)] != metavarPlaceholderPrefix {
		return "", false
	}
	if text[len(text)-len(metavarPlaceholderSuffix):] != metavarPlaceholderSuffix {
		return "", false
	}
	return text[len(metavarPlaceholderPrefix) : len(text)-len(metavarPlaceholderSuffix)], true
}
