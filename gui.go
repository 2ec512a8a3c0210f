//go:build gui

package main

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/folio/internal/reader"
)

// readerTheme is the default theme with the session's font size and
// light/dark variant.
type readerTheme struct {
	fontSize float32
	variant  fyne.ThemeVariant
}

func newReaderTheme(s *reader.Session) *readerTheme {
	t := &readerTheme{fontSize: float32(s.FontSize), variant: theme.VariantLight}
	if s.Theme == reader.Dark {
		t.variant = theme.VariantDark
	}
	return t
}

func (t *readerTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, t.variant)
}

func (t *readerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *readerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *readerTheme) Size(name fyne.ThemeSizeName) float32 {
	scale := t.fontSize / reader.DefaultFontSize
	switch name {
	case theme.SizeNameText:
		return t.fontSize
	case theme.SizeNameHeadingText, theme.SizeNameSubHeadingText:
		return theme.DefaultTheme().Size(name) * scale
	}
	return theme.DefaultTheme().Size(name)
}

func pageSegments(blocks []reader.Block) []widget.RichTextSegment {
	segs := make([]widget.RichTextSegment, 0, len(blocks))
	for _, b := range blocks {
		var style widget.RichTextStyle
		switch b.Kind {
		case reader.Heading1:
			style = widget.RichTextStyleHeading
		case reader.Heading2:
			style = widget.RichTextStyleSubHeading
		case reader.Bold:
			style = widget.RichTextStyleStrong
			style.Inline = false
		case reader.Break:
			continue
		default:
			style = widget.RichTextStyleParagraph
		}
		segs = append(segs, &widget.TextSegment{Style: style, Text: b.Text})
	}
	return segs
}

// readBook opens the desktop reader and blocks until its window is closed.
func readBook(a *app, s *reader.Session) error {
	fa := fyneapp.New()
	fa.Settings().SetTheme(newReaderTheme(s))
	w := fa.NewWindow(fmt.Sprintf("%s - folio", s.Book.Title))

	page := widget.NewRichText()
	page.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(page)

	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter

	slider := widget.NewSlider(0, 100)
	slider.Step = 1

	prevBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), nil)
	nextBtn := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), nil)

	updateDisplay := func() {
		page.Segments = pageSegments(s.Blocks())
		page.Refresh()
		scroll.ScrollToTop()

		statusLabel.SetText(fmt.Sprintf("Page %d/%d | %.0f%% | Font %d", s.Current, s.Total(), s.Progress, s.FontSize))
		slider.Value = s.Progress
		slider.Refresh()

		if s.AtStart() {
			prevBtn.Disable()
		} else {
			prevBtn.Enable()
		}
		if s.AtEnd() {
			nextBtn.Disable()
		} else {
			nextBtn.Enable()
		}
	}
	applyTheme := func() {
		fa.Settings().SetTheme(newReaderTheme(s))
		updateDisplay()
	}

	prevBtn.OnTapped = func() {
		s.Prev()
		updateDisplay()
	}
	nextBtn.OnTapped = func() {
		s.Next()
		updateDisplay()
	}
	slider.OnChangeEnded = func(v float64) {
		s.SetProgress(v)
		updateDisplay()
	}

	smaller := widget.NewButton("A-", func() {
		s.DecreaseFont()
		applyTheme()
	})
	bigger := widget.NewButton("A+", func() {
		s.IncreaseFont()
		applyTheme()
	})
	dark := widget.NewCheck("Dark", func(on bool) {
		if on != (s.Theme == reader.Dark) {
			s.ToggleTheme()
			applyTheme()
		}
	})
	dark.Checked = s.Theme == reader.Dark

	var toolbar []fyne.CanvasObject
	if outline := s.Outline(); len(outline) > 0 {
		labels := make([]string, len(outline))
		pages := make(map[string]int, len(outline))
		for i, h := range outline {
			labels[i] = fmt.Sprintf("%d. %s (p. %d)", i+1, h.Title, h.Page)
			pages[labels[i]] = h.Page
		}
		contents := widget.NewSelect(labels, func(sel string) {
			if p, ok := pages[sel]; ok {
				s.GoTo(p)
				updateDisplay()
			}
		})
		contents.PlaceHolder = "Contents"
		toolbar = append(toolbar, contents)
	}
	toolbar = append(toolbar, smaller, bigger, dark)

	header := container.NewBorder(nil, nil, widget.NewLabelWithStyle(s.Book.Title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), container.NewHBox(toolbar...))
	footer := container.NewVBox(
		slider,
		container.NewBorder(nil, nil, prevBtn, nextBtn, statusLabel),
	)
	w.SetContent(container.NewBorder(header, footer, nil, nil, scroll))

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft, fyne.KeyPageUp:
			prevBtn.OnTapped()
		case fyne.KeyRight, fyne.KeyPageDown:
			nextBtn.OnTapped()
		case fyne.KeyHome:
			s.First()
			updateDisplay()
		case fyne.KeyEnd:
			s.Last()
			updateDisplay()
		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())
		case fyne.KeyQ:
			fa.Quit()
		}
	})
	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+', '=':
			bigger.OnTapped()
		case '-':
			smaller.OnTapped()
		case 'd', 'D':
			dark.SetChecked(s.Theme != reader.Dark)
		}
	})

	w.Resize(fyne.NewSize(720, 860))
	updateDisplay()
	w.ShowAndRun()
	return nil
}
