package sphinxql

import (
	"regexp"
	"strings"
)

var functionCall = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(`)

// QuoteIdentifier quotes a bare field or column token with backticks.
//
// Tokens that cannot be quoted as a single identifier pass through
// unchanged: already-backtick-quoted names, JSON path expressions
// (dotted or bracket-indexed), computed engine variables (@weight),
// and function calls (weight()). A trailing modifier keyword such as
// ASC or DESC is kept outside the quotes.
func QuoteIdentifier(token string) string {
	head, modifier, hasModifier := strings.Cut(token, " ")
	if passThroughIdentifier(head) {
		return token
	}
	quoted := "`" + head + "`"
	if hasModifier {
		return quoted + " " + modifier
	}
	return quoted
}

func passThroughIdentifier(head string) bool {
	if len(head) > 1 && strings.HasPrefix(head, "`") && strings.HasSuffix(head, "`") {
		return true
	}
	// JSON paths address sub-fields and are not quotable as one identifier.
	if strings.Contains(head, ".") || strings.Contains(head, "[") {
		return true
	}
	if strings.HasPrefix(head, "@") {
		return true
	}
	return functionCall.MatchString(head)
}

// quoteIdentifiers renders each token independently and comma-joins them.
func quoteIdentifiers(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = QuoteIdentifier(token)
	}
	return strings.Join(parts, ", ")
}
