/* champions.go
 * Contains the parsing of the free-form most played champions field for display
 */

package logic

import (
	"strings"

	"github.com/go-andiamo/splitter"
)

// championSplitter splits on commas outside of quotes, so "Jackie, \"Li Dailin\"" keeps Li Dailin as one name
var championSplitter, _ = splitter.NewSplitter(',', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)

// ParseChampions splits the most played champions field into names.
// Preconditions: Receives the field exactly as the user entered it
// Postconditions: Returns the trimmed, unquoted, non-empty names. If the field cannot be split (e.g. an unclosed
// quote) the whole trimmed field is returned as a single name
func ParseChampions(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	parts, err := championSplitter.Split(field)
	if err != nil {
		return []string{field}
	}

	var champions []string
	for _, part := range parts {
		name := strings.Trim(strings.TrimSpace(part), "\"“”")
		name = strings.TrimSpace(name)
		if name != "" {
			champions = append(champions, name)
		}
	}
	return champions
}

// FormatChampions renders the champions as a single comma separated line
func FormatChampions(field string) string {
	champions := ParseChampions(field)
	if len(champions) == 0 {
		return "-"
	}
	return strings.Join(champions, ", ")
}
