package reader

import (
	"fmt"
	"strings"
)

// Theme is the colour scheme of the reader.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark", case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Font size bounds, in points.
const (
	MinFontSize     = 12
	MaxFontSize     = 24
	FontSizeStep    = 2
	DefaultFontSize = 16
)

// Book is what a Session needs to know about the book being read.
type Book struct {
	ID       string
	Title    string
	Author   string
	Content  string
	Progress float64
}

// Settings are the display settings of a Session.
type Settings struct {
	PageSize int
	FontSize int
	Theme    Theme
}

// Session holds the state for reading one book.
type Session struct {
	Book     Book
	Pages    *Pages
	Current  int
	Progress float64
	FontSize int
	Theme    Theme

	// OnProgress is called with the book ID and new progress whenever the
	// progress changes.
	OnProgress func(id string, progress float64)

	placeholder bool
}

// NewSession opens book at its stored progress.
func NewSession(book Book, settings Settings) *Session {
	content := book.Content
	placeholder := content == ""
	if placeholder {
		content = placeholderDocument(book)
	}

	s := &Session{
		Book:        book,
		Pages:       Paginate(content, settings.PageSize),
		FontSize:    clampFontSize(settings.FontSize),
		Theme:       settings.Theme,
		placeholder: placeholder,
	}
	if s.Theme != Dark {
		s.Theme = Light
	}
	s.Progress = ClampProgress(book.Progress)
	s.Current = s.Pages.PageForProgress(s.Progress)
	return s
}

func placeholderDocument(book Book) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", book.Title)
	if book.Author != "" {
		fmt.Fprintf(&b, "**Author:** %s\n\n", book.Author)
	}
	b.WriteString("## Content unavailable\n\n")
	b.WriteString("The content of this book could not be loaded. Try importing the file again.")
	return b.String()
}

func clampFontSize(size int) int {
	if size == 0 {
		return DefaultFontSize
	}
	return min(max(size, MinFontSize), MaxFontSize)
}

// Placeholder reports whether the session shows the stand-in document of a
// book without content.
func (s *Session) Placeholder() bool { return s.placeholder }

// Total returns the number of pages.
func (s *Session) Total() int { return s.Pages.Total() }

// Text returns the text of the current page.
func (s *Session) Text() string { return s.Pages.Page(s.Current) }

// Blocks returns the current page rendered into blocks.
func (s *Session) Blocks() []Block { return Render(s.Text()) }

// SetProgress moves to the page holding progress.
func (s *Session) SetProgress(progress float64) {
	s.Progress = ClampProgress(progress)
	s.Current = s.Pages.PageForProgress(s.Progress)
	s.notify()
}

// GoTo turns to page. Pages outside [1, Total] are ignored.
func (s *Session) GoTo(page int) bool {
	if page < 1 || page > s.Total() {
		return false
	}
	s.Current = page
	s.Progress = s.Pages.ProgressForPage(page)
	s.notify()
	return true
}

// Next turns to the following page.
func (s *Session) Next() bool { return s.GoTo(s.Current + 1) }

// Prev turns to the preceding page.
func (s *Session) Prev() bool { return s.GoTo(s.Current - 1) }

// First turns to page 1.
func (s *Session) First() bool { return s.GoTo(1) }

// Last turns to the final page.
func (s *Session) Last() bool { return s.GoTo(s.Total()) }

// AtStart reports whether the current page is the first one.
func (s *Session) AtStart() bool { return s.Current <= 1 }

// AtEnd reports whether the current page is the last one.
func (s *Session) AtEnd() bool { return s.Current >= s.Total() }

func (s *Session) IncreaseFont() {
	s.FontSize = min(s.FontSize+FontSizeStep, MaxFontSize)
}

func (s *Session) DecreaseFont() {
	s.FontSize = max(s.FontSize-FontSizeStep, MinFontSize)
}

func (s *Session) ToggleTheme() {
	if s.Theme == Dark {
		s.Theme = Light
	} else {
		s.Theme = Dark
	}
}

// Outline lists the headings of the book with their pages.
func (s *Session) Outline() []Heading {
	return s.Pages.Outline()
}

func (s *Session) notify() {
	if s.OnProgress != nil {
		s.OnProgress(s.Book.ID, s.Progress)
	}
}
