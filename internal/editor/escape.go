package editor

import "strings"

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttr makes s safe to place inside a double-quoted markup attribute.
// Only &, ", < and > are rewritten.
func EscapeAttr(s string) string {
	return attrReplacer.Replace(s)
}
