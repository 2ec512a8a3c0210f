package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/metcalfc/folio/internal/format"
)

const noTextPlaceholder = "(No extractable text on this page, it may be a scanned image.)"

func init() {
	register(format.PDF, extractPDF)
}

// pageSource is the view of a PDF document the extractor needs.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type pdfDocument struct {
	r *pdf.Reader
}

// openPDF parses data. The parser panics on some malformed input, those
// panics are returned as errors.
func openPDF(data []byte) (doc *pdfDocument, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfDocument{r: r}, nil
}

func (d *pdfDocument) NumPage() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return d.r.NumPage()
}

// PageText returns the text runs of page n (1-based) joined by single spaces.
func (d *pdfDocument) PageText(n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, p)
		}
	}()
	page := d.r.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: no page object", n)
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	var runs []string
	for _, row := range rows {
		for _, t := range row.Content {
			if t.S != "" {
				runs = append(runs, t.S)
			}
		}
	}
	return strings.Join(strings.Fields(strings.Join(runs, " ")), " "), nil
}

func extractPDF(f File) (Result, *Diagnostic) {
	data, err := f.Bytes()
	if err != nil {
		return Result{}, diagnose(f, format.PDF, UnreadableFile, err)
	}
	doc, err := openPDF(data)
	if err != nil {
		return Result{}, diagnose(f, format.PDF, CorruptDocument, err)
	}
	return pdfPages(f, doc)
}

func pdfPages(f File, src pageSource) (Result, *Diagnostic) {
	var res Result
	total := src.NumPage()
	if total <= 0 {
		return res, diagnose(f, format.PDF, NoReadableContent, errors.New("document has no pages"))
	}

	var pages []string
	for n := 1; n <= total; n++ {
		text, err := src.PageText(n)
		if err != nil {
			res.Skipped++
			continue
		}
		if text == "" {
			text = noTextPlaceholder
		}
		pages = append(pages, fmt.Sprintf("## Page %d\n\n%s", n, text))
	}

	if len(pages) == 0 {
		return res, diagnose(f, format.PDF, NoReadableContent,
			fmt.Errorf("none of the %d pages could be read", total))
	}
	res.Content = strings.Join(pages, "\n\n")
	return res, nil
}
