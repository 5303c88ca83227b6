package formatter

import "strings"

// quoteReplacer escapes what the parser's string lexer unescapes.
var quoteReplacer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// quote renders s as a Beancount string literal.
func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
