package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metcalfc/folio/internal/extract"
	"github.com/metcalfc/folio/internal/format"
	"github.com/metcalfc/folio/internal/importer"
	"github.com/metcalfc/folio/internal/library"
	"github.com/metcalfc/folio/internal/reader"
	"github.com/metcalfc/folio/internal/state"
)

// openBookFile opens path for extraction. The MIME type comes from typeFlag
// when set, otherwise from the file's content.
func openBookFile(path, typeFlag string, log *zap.Logger) (*extract.DiskFile, error) {
	mimeType := ""
	if typeFlag != "" {
		ft, err := format.Parse(typeFlag)
		if err != nil {
			return nil, err
		}
		mimeType = ft.MIMEType()
	} else if kind, err := filetype.MatchFile(path); err == nil && kind != filetype.Unknown {
		mimeType = kind.MIME.Value
		log.Debug("Sniffed file type", zap.String("file", path), zap.String("mime", mimeType))
	}
	return extract.OpenFile(path, mimeType)
}

func newAddCmd(a *app) *cobra.Command {
	var (
		meta     importer.Metadata
		typeFlag string
	)
	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Import a book into the library",
		Long: `Import an ePub, PDF or Markdown file into the library.

The title and author default to the ones found in the file; when the file
has no title its name is used. Files whose text cannot be extracted are still
added, with a description of the problem in place of the text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openBookFile(args[0], typeFlag, a.log)
			if err != nil {
				return err
			}
			out, err := importer.New(a.store, a.log).Import(f, meta)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.Title, "title", "", "book title")
	cmd.Flags().StringVar(&meta.Author, "author", "", "book author")
	cmd.Flags().StringVar(&typeFlag, "type", "", "file format (epub, pdf, markdown), detected when empty")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		query      string
		formatFlag string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the books in the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := library.Query{Text: query}
			if formatFlag != "" {
				ft, err := format.Parse(formatFlag)
				if err != nil {
					return err
				}
				q.Format = ft
			}
			printBooks(cmd.OutOrStdout(), a.store.Filter(q), a.store.Counts())
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only books whose title or author contains this text")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "only books of this format")
	return cmd
}

func printBooks(w io.Writer, books []library.Book, counts library.Counts) {
	var parts []string
	for _, ft := range format.All() {
		parts = append(parts, fmt.Sprintf("%d %s", counts.ByFormat[ft], ft.Label()))
	}
	fmt.Fprintf(w, "%s in the library: %s\n", pluralBooks(counts.Total), strings.Join(parts, ", "))
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TITLE", "AUTHOR", "FORMAT", "PROGRESS", "LAST READ")
	for _, b := range books {
		last := "never"
		if b.LastRead != nil {
			last = humanize.Time(*b.LastRead)
		}
		title := b.Title
		if b.Extraction != "" {
			title += " (!)"
		}
		t.Row(shortID(b.ID), title, b.Author, b.Format.Label(), fmt.Sprintf("%.0f%%", b.Progress), last)
	}
	fmt.Fprintln(w, t.Render())
}

func pluralBooks(n int) string {
	if n == 1 {
		return "1 book"
	}
	return fmt.Sprintf("%d books", n)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newReadCmd(a *app) *cobra.Command {
	var (
		page      int
		pageSize  int
		fontSize  int
		themeFlag string
		printOnly bool
	)
	cmd := &cobra.Command{
		Use:   "read REF",
		Short: "Read a book",
		Long: `Open a book at its saved progress. REF is a book ID or a unique prefix of one.

With --print the page is written to standard output instead of opening the
reader.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}

			settings := reader.Settings{
				PageSize: a.cfg.Reader.PageSize,
				FontSize: a.cfg.Reader.FontSize,
				Theme:    reader.Theme(a.cfg.Reader.Theme),
			}
			if cmd.Flags().Changed("page-size") {
				settings.PageSize = pageSize
			}
			if cmd.Flags().Changed("font-size") {
				settings.FontSize = fontSize
			}
			if themeFlag != "" {
				if settings.Theme, err = reader.ParseTheme(themeFlag); err != nil {
					return err
				}
			}

			s := reader.NewSession(reader.Book{
				ID:       b.ID,
				Title:    b.Title,
				Author:   b.Author,
				Content:  b.Content,
				Progress: b.Progress,
			}, settings)
			s.OnProgress = func(id string, progress float64) {
				a.store.UpdateProgress(id, progress)
			}
			if page != 0 && !s.GoTo(page) {
				return fmt.Errorf("page %d is out of range, the book has %d pages", page, s.Total())
			}

			if printOnly {
				printPage(cmd.OutOrStdout(), s)
			} else if err := readBook(a, s); err != nil {
				return err
			}
			return a.save()
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "open at this page")
	cmd.Flags().IntVar(&pageSize, "page-size", reader.DefaultPageSize, "words per page")
	cmd.Flags().IntVar(&fontSize, "font-size", reader.DefaultFontSize, "font size, 12 to 24")
	cmd.Flags().StringVar(&themeFlag, "theme", "", "light or dark")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the page instead of opening the reader")
	return cmd
}

func printPage(w io.Writer, s *reader.Session) {
	fmt.Fprintf(w, "%s (page %d of %d, %.0f%%)\n\n", s.Book.Title, s.Current, s.Total(), s.Progress)
	for _, b := range s.Blocks() {
		switch b.Kind {
		case reader.Heading1:
			fmt.Fprintf(w, "%s\n%s\n", b.Text, strings.Repeat("=", lipgloss.Width(b.Text)))
		case reader.Heading2:
			fmt.Fprintf(w, "%s\n%s\n", b.Text, strings.Repeat("-", lipgloss.Width(b.Text)))
		case reader.Break:
			fmt.Fprintln(w)
		default:
			fmt.Fprintln(w, b.Text)
		}
	}
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress REF PERCENT",
		Short: "Set the reading progress of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			p, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
			if err != nil {
				return fmt.Errorf("invalid progress %q: %w", args[1], err)
			}
			b, _ = a.store.UpdateProgress(b.ID, p)
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.0f%%\n", b.Title, b.Progress)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm REF",
		Aliases: []string{"remove"},
		Short:   "Remove a book from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			a.store.Delete(b.ID)
			if err := a.save(); err != nil {
				return err
			}
			a.log.Info("Removed book", zap.String("id", b.ID), zap.String("title", b.Title))
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", b.Title)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export REF",
		Short: "Write the text of a book to a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			name := slug.Make(b.Title)
			if name == "" {
				name = shortID(b.ID)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			path := filepath.Join(dir, name+".md")
			if err := os.WriteFile(path, []byte(b.Content), 0644); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write to")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var typeFlag string
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show what folio extracts from a file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openBookFile(args[0], typeFlag, a.log)
			if err != nil {
				return err
			}
			ft, err := format.Detect(f.Type(), f.Name())
			if err != nil {
				return err
			}
			res := extract.Extract(ft, f)
			pages := reader.Paginate(res.Content, a.cfg.Reader.PageSize)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:    %s (%s)\n", f.Name(), humanize.Bytes(uint64(f.Size())))
			fmt.Fprintf(w, "Format:  %s\n", ft.Label())
			fmt.Fprintf(w, "Title:   %s\n", res.Title)
			fmt.Fprintf(w, "Author:  %s\n", res.Author)
			if sum, err := state.ComputeHash(f.Path()); err == nil {
				if b, ok := a.store.FindByChecksum(sum); ok {
					fmt.Fprintf(w, "Library: imported as %s (%s)\n", b.Title, shortID(b.ID))
				}
			}
			if res.Diagnostic != nil {
				fmt.Fprintf(w, "Problem: %s\n", res.Diagnostic)
				return nil
			}
			fmt.Fprintf(w, "Words:   %s\n", humanize.Comma(int64(pages.WordCount())))
			fmt.Fprintf(w, "Pages:   %d of %d words\n", pages.Total(), pages.Size())
			if res.Skipped > 0 {
				fmt.Fprintf(w, "Skipped: %d unreadable parts\n", res.Skipped)
			}

			if ft == format.EPUB {
				toc, err := extract.TOC(f.Path())
				if err != nil {
					a.log.Debug("No table of contents", zap.Error(err))
				} else if len(toc) > 0 {
					fmt.Fprintln(w, "\nContents:")
					for _, e := range toc {
						fmt.Fprintf(w, "  %s%s (chapter %d)\n", strings.Repeat("  ", e.Level), e.Title, e.Chapter)
					}
					return nil
				}
			}
			if outline := pages.Outline(); len(outline) > 0 {
				fmt.Fprintln(w, "\nOutline:")
				for _, h := range outline {
					fmt.Fprintf(w, "  %s%s (page %d)\n", strings.Repeat("  ", h.Level), h.Title, h.Page)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", "", "file format (epub, pdf, markdown), detected when empty")
	return cmd
}
