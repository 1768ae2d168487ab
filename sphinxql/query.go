package sphinxql

import (
	"fmt"
	"strings"
)

// Statements with no arguments.
const (
	ShowMeta      = "SHOW META"
	ShowTables    = "SHOW TABLES"
	ShowStatus    = "SHOW STATUS"
	ShowVariables = "SHOW VARIABLES"
)

var matchEscaper = strings.NewReplacer(
	`\`, `\\`,
	"(", `\(`,
	")", `\)`,
	"|", `\|`,
	"-", `\-`,
	"!", `\!`,
	"@", `\@`,
	"~", `\~`,
	`"`, `\"`,
	"&", `\&`,
	"/", `\/`,
	"^", `\^`,
	"$", `\$`,
	"=", `\=`,
)

// Escape backslash-escapes the extended match syntax metacharacters in a
// full-text term, so user input is searched literally rather than parsed
// as operators.
func Escape(term string) string {
	return matchEscaper.Replace(term)
}

// Snippets renders a CALL SNIPPETS statement which asks the server to build
// result excerpts for data against a match term. Option values follow the
// filter literal rules (strings quoted, integers bare).
func Snippets(data, index, match string, opts ...Param) (string, error) {
	sql := fmt.Sprintf("CALL SNIPPETS(%s, '%s', %s",
		QuoteString(data), index, QuoteString(match))
	for _, opt := range opts {
		literal, err := renderScalar(opt.Value)
		if err != nil {
			return "", fmt.Errorf("snippets option %s: %w", opt.Name, err)
		}
		sql += fmt.Sprintf(", %s AS %s", literal, opt.Name)
	}
	return sql + ")", nil
}
