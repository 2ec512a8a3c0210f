// Package extract converts ePub, PDF and Markdown files into the plain,
// Markdown flavoured text the reader paginates.
//
// Extraction never fails: structural problems are reported as a Diagnostic
// whose fallback text is substituted for the content.
package extract

import (
	"fmt"

	"github.com/metcalfc/folio/internal/format"
)

// Result is the outcome of an extraction.
type Result struct {
	Format  format.Format
	Content string
	Title   string
	Author  string
	// Skipped counts chapters or pages left out because they failed to load.
	Skipped int
	// Diagnostic is set when Content is a fallback blob.
	Diagnostic *Diagnostic
}

// Fallback reports whether Content holds diagnostic text instead of the book.
func (r Result) Fallback() bool { return r.Diagnostic != nil }

type extractFunc func(f File) (Result, *Diagnostic)

var registry = map[format.Format]extractFunc{}

func register(ft format.Format, fn extractFunc) {
	registry[ft] = fn
}

// Supported returns the formats that have an extractor.
func Supported() []format.Format {
	var out []format.Format
	for _, ft := range format.All() {
		if _, ok := registry[ft]; ok {
			out = append(out, ft)
		}
	}
	return out
}

// Extract runs the extractor registered for ft. The returned Result always
// has content: either the book text or the fallback of its Diagnostic.
func Extract(ft format.Format, f File) Result {
	fn, ok := registry[ft]
	if !ok {
		d := diagnose(f, ft, UnreadableFile, fmt.Errorf("no extractor for format %q", ft))
		return Result{Format: ft, Content: d.Fallback(), Diagnostic: d}
	}

	res, d := fn(f)
	res.Format = ft
	if d != nil {
		res.Content = d.Fallback()
		res.Diagnostic = d
	}
	return res
}
