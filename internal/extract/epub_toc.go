package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

const ncxMediaType = "application/x-dtbncx+xml"

// ErrNoTOC is returned by TOC for an ePub without an NCX document.
var ErrNoTOC = errors.New("no NCX table of contents")

type ncxDocument struct {
	Points []ncxPoint `xml:"navMap>navPoint"`
}

type ncxPoint struct {
	Label    string     `xml:"navLabel>text"`
	Src      ncxSrc     `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

type ncxSrc struct {
	Src string `xml:"src,attr"`
}

// TOCEntry is one entry of an ePub's table of contents.
type TOCEntry struct {
	Title string
	Level int
	// Chapter is the 1-based spine position of the entry's target, matching
	// the "Chapter N" headings of the extracted text. Zero if the target is
	// not part of the spine.
	Chapter int
}

// TOC reads the NCX table of contents of the ePub at filename.
func TOC(filename string) ([]TOCEntry, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, errors.New("epub has no package document")
	}
	book := rc.Rootfiles[0]

	doc, err := readNCX(book)
	if err != nil {
		return nil, err
	}

	chapters := spineChapters(book)
	var entries []TOCEntry
	var walk func(points []ncxPoint, level int)
	walk = func(points []ncxPoint, level int) {
		for _, p := range points {
			entries = append(entries, TOCEntry{
				Title:   strings.TrimSpace(p.Label),
				Level:   level,
				Chapter: chapters.lookup(p.Src.Src),
			})
			walk(p.Children, level+1)
		}
	}
	walk(doc.Points, 0)
	return entries, nil
}

func readNCX(book *epub.Rootfile) (*ncxDocument, error) {
	for i := range book.Manifest.Items {
		item := &book.Manifest.Items[i]
		if item.MediaType != ncxMediaType {
			continue
		}
		r, err := item.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", item.HREF, err)
		}
		defer r.Close()

		var doc ncxDocument
		if err := xml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", item.HREF, err)
		}
		return &doc, nil
	}
	return nil, ErrNoTOC
}

// chapterIndex maps spine hrefs, and their base names, to spine positions.
type chapterIndex map[string]int

func spineChapters(book *epub.Rootfile) chapterIndex {
	idx := make(chapterIndex)
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil || ref.Item.HREF == "" {
			continue
		}
		for _, key := range []string{ref.Item.HREF, path.Base(ref.Item.HREF)} {
			if _, ok := idx[key]; !ok {
				idx[key] = i + 1
			}
		}
	}
	return idx
}

// lookup resolves an NCX content source, ignoring any fragment.
func (idx chapterIndex) lookup(src string) int {
	src, _, _ = strings.Cut(src, "#")
	if n, ok := idx[src]; ok {
		return n
	}
	return idx[path.Base(src)]
}
