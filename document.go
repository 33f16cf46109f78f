package pdfstamp

import (
	"bytes"
	"errors"
	"fmt"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfstamp/internal/incremental"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
)

// document is the working copy of one compositor call.
type document struct {
	rdr *pdflib.Reader
	w   *incremental.Writer
}

// openReader parses data. The PDF library panics on some damaged files;
// those panics are reported as ErrMalformedDocument.
func openReader(data []byte) (rdr *pdflib.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			rdr, err = nil, fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}

	rdr, err = pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !rdr.Trailer().Key("Encrypt").IsNull() {
		return nil, fmt.Errorf("%w: encrypted documents are not supported", ErrMalformedDocument)
	}
	if rdr.Trailer().Key("Root").Kind() != pdflib.Dict {
		return nil, fmt.Errorf("%w: missing document catalog", ErrMalformedDocument)
	}
	return rdr, nil
}

func (s *Stamper) open(data []byte) (*document, error) {
	rdr, err := openReader(data)
	if err != nil {
		return nil, err
	}

	w, err := incremental.New(data, rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	w.SetCompression(s.compressLevel)

	return &document{rdr: rdr, w: w}, nil
}

// page locates page n, translating the range error.
func (d *document) page(n int) (page *pdf.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, fmt.Errorf("%w: page %d: %v", ErrMalformedDocument, n, r)
		}
	}()

	page, err = pdf.LocatePage(d.rdr, n)
	var rangeErr *pdf.PageOutOfRangeError
	if errors.As(err, &rangeErr) {
		return nil, &PageOutOfBoundsError{Page: rangeErr.Page, PageCount: rangeErr.Count}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return page, nil
}

// stamp binds ref under a fresh name starting with prefix in one resource
// category of the page and appends the operators returned by build for
// that name to the page content.
func (d *document) stamp(page *pdf.Page, category, prefix string, ref uint32, build func(name string) []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: page %d: %v", ErrMalformedDocument, page.Number, r)
		}
	}()

	name := pdf.UniqueName(prefix, pdf.ResourceNames(page.Resources, category))

	existing, err := pdf.ContentRefs(page)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var contents []pdf.Ref
	if len(existing) > 0 {
		open, err := d.w.AddStream("", []byte("q\n"), false)
		if err != nil {
			return err
		}
		contents = append(contents, pdf.Ref{ID: open})
		contents = append(contents, existing...)
	}

	ops := build(name)
	if len(existing) > 0 {
		ops = append([]byte("Q\n"), ops...)
	}
	stampID, err := d.w.AddStream("", ops, true)
	if err != nil {
		return err
	}
	contents = append(contents, pdf.Ref{ID: stampID})

	dict, err := pageDict(page, contents, category, name, pdf.Ref{ID: ref})
	if err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrMalformedDocument, page.Number, err)
	}
	return d.w.UpdateObject(page.Ref.ID, page.Ref.Gen, dict)
}

// pageDict rewrites the page dictionary with new contents and a direct,
// merged resource dictionary.
func pageDict(page *pdf.Page, contents []pdf.Ref, category, name string, ref pdf.Ref) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<<")
	if err := pdf.WriteDictEntries(&buf, page.Value, page.Ref, "Contents", "Resources"); err != nil {
		return nil, err
	}

	buf.WriteString(" /Resources ")
	if err := pdf.WriteMergedResources(&buf, page.Resources, category, name, ref); err != nil {
		return nil, err
	}

	buf.WriteString(" /Contents [")
	for i, c := range contents {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(c.String())
	}
	buf.WriteString("]")

	// Inherited MediaBox is made explicit so the page keeps its size
	// regardless of the page tree.
	if page.Value.Key("MediaBox").IsNull() {
		fmt.Fprintf(&buf, " /MediaBox [%s %s %s %s]",
			pdf.FormatNumber(page.MediaBox[0]), pdf.FormatNumber(page.MediaBox[1]),
			pdf.FormatNumber(page.MediaBox[2]), pdf.FormatNumber(page.MediaBox[3]))
	}

	buf.WriteString(" >>")
	return buf.Bytes(), nil
}

func (d *document) bytes() ([]byte, error) {
	return d.w.Bytes()
}

var _ render.ObjectWriter = (*incremental.Writer)(nil)
