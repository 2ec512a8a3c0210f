// Package reader turns book content into fixed-size word pages and keeps the
// state of a reading session: current page, progress and display settings.
package reader

import (
	"math"
	"strings"
)

// progressEpsilon absorbs the rounding error of ProgressForPage so that a
// stored page-start progress maps back to the same page.
const progressEpsilon = 1e-9

// DefaultPageSize is the number of words on a page.
const DefaultPageSize = 200

// Pages is a book's content split into pages of a fixed number of words.
type Pages struct {
	words []string
	size  int
}

// Paginate splits content into pages of pageSize words. Words are separated
// by single spaces only, so line breaks stay attached to the words around
// them and a page keeps its line structure. A pageSize below 1 selects
// DefaultPageSize.
func Paginate(content string, pageSize int) *Pages {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	p := &Pages{size: pageSize}
	if content != "" {
		p.words = strings.Split(content, " ")
	}
	return p
}

// WordCount returns the number of words in the content.
func (p *Pages) WordCount() int { return len(p.words) }

// Size returns the number of words per page.
func (p *Pages) Size() int { return p.size }

// Total returns the number of pages. Content with no words still has one,
// empty, page.
func (p *Pages) Total() int {
	return max(1, (len(p.words)+p.size-1)/p.size)
}

// Page returns the text of page n (1-based). Pages outside [1, Total] are
// empty.
func (p *Pages) Page(n int) string {
	if n < 1 || n > p.Total() {
		return ""
	}
	start := (n - 1) * p.size
	if start >= len(p.words) {
		return ""
	}
	end := min(start+p.size, len(p.words))
	return strings.Join(p.words[start:end], " ")
}

// PageForProgress maps a progress percentage to the page that shows it.
// Progress within 1e-9 below a page start counts as that page, so
// 49.99999999995 of a two-page book is page 2.
func (p *Pages) PageForProgress(progress float64) int {
	total := p.Total()
	progress = ClampProgress(progress)
	return clampPage(int(math.Floor(progress/100*float64(total)+progressEpsilon))+1, total)
}

// ProgressForPage maps a page to the progress percentage recorded when the
// reader turns to it. It is the start of the page, so it is not the inverse
// of PageForProgress at page boundaries.
func (p *Pages) ProgressForPage(page int) float64 {
	return float64(page-1) / float64(p.Total()) * 100
}

func clampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// ClampProgress limits progress to [0, 100].
func ClampProgress(progress float64) float64 {
	if math.IsNaN(progress) || progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
