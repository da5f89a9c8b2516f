package querybuilder

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so value matches literally. The
// resulting pattern must be used with ESCAPE '\'.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}
