// Package importer adds files to the library: it detects the format, extracts
// the text and records the book.
package importer

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/metcalfc/folio/internal/extract"
	"github.com/metcalfc/folio/internal/format"
	"github.com/metcalfc/folio/internal/library"
	"github.com/metcalfc/folio/internal/state"
)

// Metadata is what the user typed in alongside the file. Empty fields are
// filled from the extracted document.
type Metadata struct {
	Title  string
	Author string
}

// Importer adds books to a Store.
type Importer struct {
	store *library.Store
	log   *zap.Logger
}

func New(store *library.Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, log: log.Named("import")}
}

// Outcome is the result of a successful import.
type Outcome struct {
	Book library.Book
	// Result is the raw extraction result.
	Result extract.Result
	// Duplicate is set when a book with the same checksum was already in the
	// library.
	Duplicate *library.Book
}

// Import detects the format of f, extracts its text and adds it to the
// library. Files of an unsupported format are rejected with
// format.ErrUnsupportedFormat and nothing is stored. Extraction problems do
// not fail the import: the book is stored with a diagnostic text instead.
func (im *Importer) Import(f extract.File, meta Metadata) (Outcome, error) {
	log := im.log.With(zap.String("file", f.Name()))

	ft, err := format.Detect(f.Type(), f.Name())
	if err != nil {
		log.Warn("Rejected file", zap.String("type", f.Type()), zap.Error(err))
		return Outcome{}, err
	}

	var out Outcome
	sum, err := checksum(f)
	if err != nil {
		log.Debug("Unable to compute checksum", zap.Error(err))
	}
	if dup, ok := im.store.FindByChecksum(sum); ok {
		log.Warn("File was imported before", zap.String("id", dup.ID), zap.String("title", dup.Title))
		out.Duplicate = &dup
	}

	res := extract.Extract(ft, f)
	out.Result = res
	if res.Skipped > 0 {
		log.Debug("Skipped unreadable parts", zap.Int("skipped", res.Skipped))
	}

	d := library.Draft{
		Title:      chooseTitle(meta.Title, res.Title, f.Name()),
		Author:     firstNonEmpty(meta.Author, res.Author),
		Format:     ft,
		Content:    res.Content,
		SourceSize: f.Size(),
		Checksum:   sum,
	}
	if p, ok := f.(interface{ Path() string }); ok {
		d.SourcePath = p.Path()
	}
	if res.Diagnostic != nil {
		d.Extraction = res.Diagnostic.Kind.String()
		log.Warn("Stored a diagnostic instead of the book text", zap.Error(res.Diagnostic))
	}

	out.Book = im.store.Add(d)
	log.Info("Added book",
		zap.String("id", out.Book.ID),
		zap.String("title", out.Book.Title),
		zap.String("format", string(out.Book.Format)),
	)
	return out, nil
}

// checksum hashes the head of f. Files on disk are read only as far as the
// hash needs.
func checksum(f extract.File) (string, error) {
	if p, ok := f.(interface{ Path() string }); ok {
		return state.ComputeHash(p.Path())
	}
	data, err := f.Bytes()
	if err != nil {
		return "", err
	}
	return state.Checksum(bytes.NewReader(data))
}

// chooseTitle prefers the title the user typed, then the one found in the
// document, then the file name without its extension.
func chooseTitle(user, extracted, fileName string) string {
	if t := strings.TrimSpace(user); t != "" {
		return t
	}
	if t := strings.TrimSpace(extracted); t != "" {
		return t
	}
	return format.TrimExtension(fileName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// String describes an outcome in one line.
func (o Outcome) String() string {
	s := fmt.Sprintf("%s  %s (%s)", shortID(o.Book.ID), o.Book.Title, o.Book.Format.Label())
	if o.Result.Diagnostic != nil {
		s += ", no readable text: " + o.Result.Diagnostic.Kind.String()
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
