package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/metcalfc/folio/internal/format"
)

const containerPath = "META-INF/container.xml"

func init() {
	register(format.EPUB, extractEPUB)
}

type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title   []string `xml:"http://purl.org/dc/elements/1.1/ title"`
		Creator []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// epubArchive indexes the entries of an ePub zip by normalized path.
type epubArchive struct {
	files map[string]*zip.File
}

func openArchive(data []byte) (*epubArchive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	a := &epubArchive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[strings.TrimPrefix(f.Name, "./")] = f
	}
	return a, nil
}

func (a *epubArchive) readFile(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// packagePath returns the location of the package document named by
// META-INF/container.xml.
func (a *epubArchive) packagePath() (string, Kind, error) {
	data, err := a.readFile(containerPath)
	if err != nil {
		return "", InvalidContainer, err
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", InvalidContainer, fmt.Errorf("failed to parse %s: %w", containerPath, err)
	}
	var fallback string
	for _, rf := range c.Rootfiles.Rootfile {
		full := strings.TrimPrefix(strings.TrimSpace(rf.FullPath), "./")
		if full == "" {
			continue
		}
		if rf.MediaType == "application/oebps-package+xml" {
			return full, 0, nil
		}
		if fallback == "" {
			fallback = full
		}
	}
	if fallback == "" {
		return "", MissingPackageDocument, errors.New("container.xml names no package document")
	}
	return fallback, 0, nil
}

func (a *epubArchive) readPackage(name string) (*opfPackage, error) {
	data, err := a.readFile(name)
	if err != nil {
		return nil, err
	}
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &pkg, nil
}

// resolveHref turns a manifest href into an archive path relative to the
// directory of the package document.
func resolveHref(pkgPath, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if u, err := url.PathUnescape(href); err == nil {
		href = u
	}
	return strings.TrimPrefix(path.Join(path.Dir(pkgPath), href), "/")
}

func extractEPUB(f File) (Result, *Diagnostic) {
	data, err := f.Bytes()
	if err != nil {
		return Result{}, diagnose(f, format.EPUB, UnreadableFile, err)
	}
	arc, err := openArchive(data)
	if err != nil {
		return Result{}, diagnose(f, format.EPUB, InvalidContainer, fmt.Errorf("failed to open archive: %w", err))
	}

	pkgPath, kind, err := arc.packagePath()
	if err != nil {
		return Result{}, diagnose(f, format.EPUB, kind, err)
	}
	pkg, err := arc.readPackage(pkgPath)
	if err != nil {
		return Result{}, diagnose(f, format.EPUB, MissingPackageDocument, err)
	}

	res := Result{
		Title:  firstNonEmpty(pkg.Metadata.Title),
		Author: firstNonEmpty(pkg.Metadata.Creator),
	}

	hrefs := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefs[item.ID] = item.Href
	}

	var chapters []string
	for i, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			res.Skipped++
			continue
		}
		markup, err := arc.readFile(resolveHref(pkgPath, href))
		if err != nil {
			res.Skipped++
			continue
		}
		text, err := chapterText(markup)
		if err != nil {
			res.Skipped++
			continue
		}
		chapters = append(chapters, strings.TrimSpace(fmt.Sprintf("## Chapter %d\n\n%s", i+1, text)))
	}

	if len(chapters) == 0 {
		return res, diagnose(f, format.EPUB, NoReadableContent,
			fmt.Errorf("none of the %d spine entries could be read", len(pkg.Spine.ItemRefs)))
	}
	res.Content = strings.Join(chapters, "\n\n")
	return res, nil
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
