package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metcalfc/folio/internal/format"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// The manifest lists the chapters in the opposite order of the spine.
const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>  The Test Book </dc:title>
    <dc:creator>Jane Doe</dc:creator>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="c3" href="text/ch3.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="c1"/>
    <itemref idref="c2"/>
    <itemref idref="c3"/>
  </spine>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>Opening</text></navLabel>
      <content src="text/ch1.xhtml"/>
      <navPoint id="n1a" playOrder="2">
        <navLabel><text>A Detour</text></navLabel>
        <content src="text/ch2.xhtml#part"/>
      </navPoint>
    </navPoint>
    <navPoint id="n3" playOrder="3">
      <navLabel><text>Ending</text></navLabel>
      <content src="text/ch3.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

func chapterXHTML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>ignored</title>
<style>p { color: red; }</style></head>
<body>` + body + `</body></html>`
}

func testEPUBFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/toc.ncx":          testNCX,
		"OEBPS/text/ch1.xhtml":   chapterXHTML(`<h1>One</h1><p>First   chapter.</p><script>alert("x")</script>`),
		"OEBPS/text/ch2.xhtml":   chapterXHTML(`<p>Second chapter.</p>`),
		"OEBPS/text/ch3.xhtml":   chapterXHTML(`<p>Third <b>chapter</b>.</p>`),
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	// mimetype goes first, as in a real ePub.
	names := []string{"mimetype"}
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	for _, name := range names {
		content, ok := files[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractEPUB(t *testing.T) {
	data := buildZip(t, testEPUBFiles())
	res := Extract(format.EPUB, NewMemFile("book.epub", "application/epub+zip", data))

	if res.Fallback() {
		t.Fatalf("unexpected diagnostic: %v", res.Diagnostic)
	}
	if res.Title != "The Test Book" {
		t.Errorf("Title = %q, want %q", res.Title, "The Test Book")
	}
	if res.Author != "Jane Doe" {
		t.Errorf("Author = %q, want %q", res.Author, "Jane Doe")
	}

	want := "## Chapter 1\n\nOne\nFirst chapter.\n\n" +
		"## Chapter 2\n\nSecond chapter.\n\n" +
		"## Chapter 3\n\nThird chapter."
	if res.Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", res.Content, want)
	}
	if res.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", res.Skipped)
	}
}

func TestExtractEPUBSkipsMissingChapter(t *testing.T) {
	files := testEPUBFiles()
	delete(files, "OEBPS/text/ch2.xhtml")
	res := Extract(format.EPUB, NewMemFile("book.epub", "", buildZip(t, files)))

	if res.Fallback() {
		t.Fatalf("unexpected diagnostic: %v", res.Diagnostic)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if strings.Contains(res.Content, "## Chapter 2") {
		t.Errorf("missing chapter rendered:\n%s", res.Content)
	}
	i1 := strings.Index(res.Content, "## Chapter 1")
	i3 := strings.Index(res.Content, "## Chapter 3")
	if i1 < 0 || i3 < 0 || i1 > i3 {
		t.Errorf("chapters out of order:\n%s", res.Content)
	}
}

func TestExtractEPUBEmptyChapterKeepsHeading(t *testing.T) {
	files := testEPUBFiles()
	files["OEBPS/text/ch2.xhtml"] = chapterXHTML(`<img src="x.png"/>`)
	res := Extract(format.EPUB, NewMemFile("book.epub", "", buildZip(t, files)))

	if !strings.Contains(res.Content, "## Chapter 2\n\n## Chapter 3") {
		t.Errorf("empty chapter heading missing:\n%s", res.Content)
	}
}

func TestExtractEPUBDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		files func() map[string]string
		raw   []byte
		kind  Kind
		want  error
	}{
		{
			name: "corrupted container",
			files: func() map[string]string {
				f := testEPUBFiles()
				f["META-INF/container.xml"] = "<container><rootfiles><rootfile"
				return f
			},
			kind: InvalidContainer,
			want: ErrInvalidContainer,
		},
		{
			name: "missing container",
			files: func() map[string]string {
				f := testEPUBFiles()
				delete(f, "META-INF/container.xml")
				return f
			},
			kind: InvalidContainer,
			want: ErrInvalidContainer,
		},
		{
			name: "missing package document",
			files: func() map[string]string {
				f := testEPUBFiles()
				delete(f, "OEBPS/content.opf")
				return f
			},
			kind: MissingPackageDocument,
			want: ErrMissingPackageDocument,
		},
		{
			name: "container without rootfile",
			files: func() map[string]string {
				f := testEPUBFiles()
				f["META-INF/container.xml"] = `<container><rootfiles></rootfiles></container>`
				return f
			},
			kind: MissingPackageDocument,
			want: ErrMissingPackageDocument,
		},
		{
			name: "no readable chapters",
			files: func() map[string]string {
				f := testEPUBFiles()
				delete(f, "OEBPS/text/ch1.xhtml")
				delete(f, "OEBPS/text/ch2.xhtml")
				delete(f, "OEBPS/text/ch3.xhtml")
				return f
			},
			kind: NoReadableContent,
			want: ErrNoReadableContent,
		},
		{
			name: "not a zip",
			raw:  []byte("this is not an archive"),
			kind: InvalidContainer,
			want: ErrInvalidContainer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.raw
			if tt.files != nil {
				data = buildZip(t, tt.files())
			}
			res := Extract(format.EPUB, NewMemFile("broken.epub", "", data))

			if !res.Fallback() {
				t.Fatalf("expected a diagnostic, got content:\n%s", res.Content)
			}
			if res.Diagnostic.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", res.Diagnostic.Kind, tt.kind)
			}
			if !errors.Is(res.Diagnostic, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", res.Diagnostic, tt.want)
			}
			if !strings.HasPrefix(res.Content, "# broken.epub\n") {
				t.Errorf("fallback does not start with the file name:\n%s", res.Content)
			}
			if !strings.Contains(res.Content, "bytes)") {
				t.Errorf("fallback does not mention the size:\n%s", res.Content)
			}
		})
	}
}

func TestExtractEPUBKeepsMetadataOnFallback(t *testing.T) {
	files := testEPUBFiles()
	delete(files, "OEBPS/text/ch1.xhtml")
	delete(files, "OEBPS/text/ch2.xhtml")
	delete(files, "OEBPS/text/ch3.xhtml")
	res := Extract(format.EPUB, NewMemFile("book.epub", "", buildZip(t, files)))

	if res.Title != "The Test Book" {
		t.Errorf("Title = %q, want %q", res.Title, "The Test Book")
	}
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		pkg, href, want string
	}{
		{"OEBPS/content.opf", "text/ch1.xhtml", "OEBPS/text/ch1.xhtml"},
		{"OEBPS/content.opf", "ch1.xhtml#top", "OEBPS/ch1.xhtml"},
		{"content.opf", "ch%201.xhtml", "ch 1.xhtml"},
		{"OEBPS/content.opf", "../ch1.xhtml", "ch1.xhtml"},
	}
	for _, tt := range tests {
		if got := resolveHref(tt.pkg, tt.href); got != tt.want {
			t.Errorf("resolveHref(%q, %q) = %q, want %q", tt.pkg, tt.href, got, tt.want)
		}
	}
}

func TestChapterText(t *testing.T) {
	markup := `
	<html>
		<head><title>Test</title></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
		</body>
	</html>
	`
	got, err := chapterText([]byte(markup))
	if err != nil {
		t.Fatalf("chapterText: %v", err)
	}
	want := "Chapter 1\n" +
		"This is the first paragraph.\n" +
		"This is the second paragraph\n" +
		"with a newline.\n" +
		"Some nested text."
	if got != want {
		t.Errorf("chapterText =\n%q\nwant\n%q", got, want)
	}
}

func TestChapterTextSelfClosingTags(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "empty title",
			markup: `<html><head><title/></head><body><p>Hello there.</p></body></html>`,
			want:   "Hello there.",
		},
		{
			name: "external script",
			markup: `<html><head><title>T</title>` +
				`<script type="text/javascript" src="a.js"/></head>` +
				`<body><p>Hello there.</p></body></html>`,
			want: "Hello there.",
		},
		{
			name:   "empty anchor in body",
			markup: `<html><body><p><a id="p1"/>First.</p><p>Second<br/>line.</p></body></html>`,
			want:   "First.\nSecond\nline.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chapterText([]byte(tt.markup))
			if err != nil {
				t.Fatalf("chapterText: %v", err)
			}
			if got != tt.want {
				t.Errorf("chapterText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandSelfClosing(t *testing.T) {
	tests := map[string]string{
		`<title/>`:                 `<title></title>`,
		`<script src="a.js" />`:    `<script src="a.js"></script>`,
		`<br/>`:                    `<br/>`,
		`<img src="x.png"/>`:       `<img src="x.png"/>`,
		`<p>no tags to change</p>`: `<p>no tags to change</p>`,
		`<svg:rect width="1"/>`:    `<svg:rect width="1"></svg:rect>`,
	}
	for in, want := range tests {
		if got := string(expandSelfClosing([]byte(in))); got != want {
			t.Errorf("expandSelfClosing(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTOC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, buildZip(t, testEPUBFiles()), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	toc, err := TOC(path)
	if err != nil {
		t.Fatalf("TOC: %v", err)
	}

	want := []TOCEntry{
		{Title: "Opening", Level: 0, Chapter: 1},
		{Title: "A Detour", Level: 1, Chapter: 2},
		{Title: "Ending", Level: 0, Chapter: 3},
	}
	if len(toc) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(toc), len(want), toc)
	}
	for i := range want {
		if toc[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, toc[i], want[i])
		}
	}
}

func TestTOCNotAnEPUB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, []byte("nope"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := TOC(path); err == nil {
		t.Error("expected an error")
	}
}

func TestTOCWithoutNCX(t *testing.T) {
	files := testEPUBFiles()
	delete(files, "OEBPS/toc.ncx")
	files["OEBPS/content.opf"] = strings.Replace(testOPF,
		`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`, "", 1)

	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, buildZip(t, files), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := TOC(path); !errors.Is(err, ErrNoTOC) {
		t.Errorf("err = %v, want ErrNoTOC", err)
	}
}
