package filter

import "strings"

// ToLexicalQuery renders the filter as a RediSearch clause string: one tag clause
// per field, whitespace-separated, which the engine intersects (AND). The result
// is appended to the free-text part of a lexical query. Empty filter -> "".
func ToLexicalQuery(f Filter) string {
	if f.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, f.Len())
	for _, c := range f.clauses {
		parts = append(parts, TagClause(c.field, c.value))
	}
	return strings.Join(parts, " ")
}

// LexicalFields extracts the field names referenced by a clause string produced
// by ToLexicalQuery, in order of appearance.
func LexicalFields(clause string) []string {
	var (
		fields  []string
		escaped bool
		depth   int
	)
	for i := 0; i < len(clause); i++ {
		ch := clause[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '{':
			depth++
		case ch == '}':
			if depth > 0 {
				depth--
			}
		case ch == '@' && depth == 0:
			end := strings.IndexByte(clause[i+1:], ':')
			if end <= 0 {
				continue
			}
			fields = append(fields, clause[i+1:i+1+end])
			i += end
		}
	}
	return fields
}

// TagClause renders a single exact-match tag clause.
func TagClause(field, value string) string {
	return "@" + field + ":{" + EscapeTag(value) + "}"
}

// EscapeTag escapes a value for use inside a TAG clause.
func EscapeTag(s string) string {
	return tagEscaper.Replace(s)
}

// EscapeText escapes RediSearch query syntax in free text so that user input is
// matched as plain terms.
func EscapeText(s string) string {
	return queryEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)
