package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/metcalfc/folio/internal/format"
)

// Kind classifies a structural extraction failure.
type Kind int

const (
	InvalidContainer Kind = iota + 1
	MissingPackageDocument
	UnreadableFile
	CorruptDocument
	NoReadableContent
)

var (
	ErrInvalidContainer       = errors.New("invalid container")
	ErrMissingPackageDocument = errors.New("missing package document")
	ErrUnreadableFile         = errors.New("unreadable file")
	ErrCorruptDocument        = errors.New("corrupt document")
	ErrNoReadableContent      = errors.New("no readable content")
)

func (k Kind) String() string {
	switch k {
	case InvalidContainer:
		return "InvalidContainer"
	case MissingPackageDocument:
		return "MissingPackageDocument"
	case UnreadableFile:
		return "UnreadableFile"
	case CorruptDocument:
		return "CorruptDocument"
	case NoReadableContent:
		return "NoReadableContent"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case InvalidContainer:
		return ErrInvalidContainer
	case MissingPackageDocument:
		return ErrMissingPackageDocument
	case UnreadableFile:
		return ErrUnreadableFile
	case CorruptDocument:
		return ErrCorruptDocument
	}
	return ErrNoReadableContent
}

func (k Kind) describe() string {
	switch k {
	case InvalidContainer:
		return "The file is not a valid ePub archive (META-INF/container.xml is missing or damaged)."
	case MissingPackageDocument:
		return "The ePub archive does not point to a usable package document."
	case UnreadableFile:
		return "The file could not be read."
	case CorruptDocument:
		return "The document is damaged, encrypted or not in the expected format."
	}
	return "The document was opened but no text could be extracted from it."
}

// Diagnostic describes why an extractor could not produce genuine content.
// It unwraps to the sentinel error of its Kind and to the underlying cause.
type Diagnostic struct {
	Kind     Kind
	Format   format.Format
	FileName string
	Size     int64
	Err      error
}

func diagnose(f File, ft format.Format, kind Kind, err error) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Format:   ft,
		FileName: f.Name(),
		Size:     f.Size(),
		Err:      err,
	}
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s", d.Format, d.Kind.sentinel())
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

func (d *Diagnostic) Unwrap() []error {
	if d.Err == nil {
		return []error{d.Kind.sentinel()}
	}
	return []error{d.Kind.sentinel(), d.Err}
}

// Fallback renders the diagnostic as the text stored in place of the book
// content. Every format shares this shape.
func (d *Diagnostic) Fallback() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.FileName)
	b.WriteString("**Could not extract the text of this book.**\n\n")
	fmt.Fprintf(&b, "Format: %s\n", d.Format.Label())
	fmt.Fprintf(&b, "File: %s\n", d.FileName)
	fmt.Fprintf(&b, "Size: %s (%s bytes)\n", humanize.Bytes(uint64(max(d.Size, 0))), humanize.Comma(d.Size))
	fmt.Fprintf(&b, "Problem: %s\n", d.Kind.describe())
	if d.Err != nil {
		fmt.Fprintf(&b, "Details: %s\n", d.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}
