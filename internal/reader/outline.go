package reader

import (
	"regexp"
	"strings"
)

// headerRegex matches the heading levels the renderer knows (# and ##).
var headerRegex = regexp.MustCompile(`^(#{1,2})[ \t]+(.+)$`)

// Heading is an entry of a book's outline.
type Heading struct {
	Title string
	// Level is 0 for "#" headings and 1 for "##" headings.
	Level int
	Page  int
}

// Outline lists the headings of content with the page each falls on when
// paginated with pageSize words per page.
func Outline(content string, pageSize int) []Heading {
	return Paginate(content, pageSize).Outline()
}

// Outline lists the headings of the paginated content with their pages.
func (p *Pages) Outline() []Heading {
	var (
		headings []Heading
		line     strings.Builder
		lineWord int
	)
	flush := func() {
		if m := headerRegex.FindStringSubmatch(strings.TrimRight(line.String(), "\r")); m != nil {
			headings = append(headings, Heading{
				Title: strings.TrimSpace(m[2]),
				Level: len(m[1]) - 1,
				Page:  lineWord/p.size + 1,
			})
		}
		line.Reset()
	}

	for i, w := range p.words {
		if i > 0 {
			line.WriteByte(' ')
		}
		for {
			j := strings.IndexByte(w, '\n')
			if j < 0 {
				break
			}
			line.WriteString(w[:j])
			flush()
			// The next line starts inside the current word.
			lineWord = i
			w = w[j+1:]
		}
		line.WriteString(w)
	}
	flush()
	return headings
}
