package extract

import (
	"regexp"
	"strings"

	"github.com/metcalfc/folio/internal/format"
)

func init() {
	register(format.Markdown, extractMarkdown)
}

// titleRegex matches a level-1 heading line.
var titleRegex = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// extractMarkdown passes the text through unchanged. The first level-1
// heading, if any, becomes the title.
func extractMarkdown(f File) (Result, *Diagnostic) {
	text, err := f.Text()
	if err != nil {
		return Result{}, diagnose(f, format.Markdown, UnreadableFile, err)
	}
	res := Result{Content: text}
	if m := titleRegex.FindStringSubmatch(text); m != nil {
		res.Title = strings.TrimSpace(m[1])
	}
	return res, nil
}
