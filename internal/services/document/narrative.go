package document

import (
	"strings"
)

// bulletMarkers are list markers language models emit that markdown does not recognise.
var bulletMarkers = []string{"•", "◦", "▪", "‣", "–", "—"}

// NormalizeNarrative prepares generated text for the markdown parser: line endings are
// unified, trailing spaces dropped and foreign bullet markers rewritten as "- " list items.
func NormalizeNarrative(narrative string) string {
	narrative = strings.ReplaceAll(narrative, "\r\n", "\n")
	narrative = strings.ReplaceAll(narrative, "\r", "\n")

	lines := strings.Split(strings.TrimSpace(narrative), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		for _, marker := range bulletMarkers {
			if strings.HasPrefix(trimmed, marker) {
				trimmed = "- " + strings.TrimLeft(strings.TrimPrefix(trimmed, marker), " \t")
				break
			}
		}
		lines[i] = indent + trimmed
	}
	return strings.Join(lines, "\n") + "\n"
}
