// Package format classifies book files into the formats the library can read.
package format

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format is the tag of a supported book format.
type Format string

const (
	EPUB     Format = "epub"
	PDF      Format = "pdf"
	Markdown Format = "markdown"
)

// ErrUnsupportedFormat is returned when neither the MIME type nor the file
// name identify a supported format.
var ErrUnsupportedFormat = errors.New("unsupported format")

var byMIME = map[string]Format{
	"application/epub+zip": EPUB,
	"application/pdf":      PDF,
	"text/markdown":        Markdown,
	"text/plain":           Markdown,
}

var byExtension = map[string]Format{
	".epub":     EPUB,
	".pdf":      PDF,
	".md":       Markdown,
	".markdown": Markdown,
	".txt":      Markdown,
}

// All returns the supported formats in display order.
func All() []Format {
	return []Format{EPUB, PDF, Markdown}
}

// Detect resolves the format of a file from its declared MIME type, falling
// back to the extension of name when the MIME type is absent or unknown.
func Detect(mimeType, name string) (Format, error) {
	if f, ok := fromMIME(mimeType); ok {
		return f, nil
	}
	if f, ok := byExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

func fromMIME(mimeType string) (Format, bool) {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "", false
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	f, ok := byMIME[strings.ToLower(mimeType)]
	return f, ok
}

// Parse converts a user supplied name ("epub", "md", "PDF", ...) to a Format.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "epub":
		return EPUB, nil
	case "pdf":
		return PDF, nil
	case "markdown", "md", "txt", "text":
		return Markdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Label returns the human readable name of the format.
func (f Format) Label() string {
	switch f {
	case EPUB:
		return "ePub"
	case PDF:
		return "PDF"
	case Markdown:
		return "Markdown"
	}
	return string(f)
}

// Extensions returns the file extensions recognised for the format.
func (f Format) Extensions() []string {
	var out []string
	for _, ext := range []string{".epub", ".pdf", ".md", ".markdown", ".txt"} {
		if byExtension[ext] == f {
			out = append(out, ext)
		}
	}
	return out
}

// TrimExtension removes a recognised book extension from name.
func TrimExtension(name string) string {
	ext := filepath.Ext(name)
	if _, ok := byExtension[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// MIMEType returns the canonical MIME type of the format.
func (f Format) MIMEType() string {
	switch f {
	case EPUB:
		return "application/epub+zip"
	case PDF:
		return "application/pdf"
	case Markdown:
		return "text/markdown"
	}
	return ""
}
