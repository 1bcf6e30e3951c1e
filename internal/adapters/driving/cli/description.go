package cli

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/custodia-labs/didakt/internal/logger"
)

const descriptionPreviewRunes = 160

// descriptionPreview renders a repository description, which editors often
// write as HTML, as a single line of Markdown cut to maxRunes.
func descriptionPreview(desc string, maxRunes int) string {
	text := desc
	if strings.ContainsAny(desc, "<&") {
		md, err := htmltomarkdown.ConvertString(desc)
		if err != nil {
			logger.Debug("search: description kept as HTML: %v", err)
		} else {
			text = md
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxRunes {
		text = strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return text
}
