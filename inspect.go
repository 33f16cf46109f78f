package pdfstamp

import (
	"fmt"

	"github.com/digitorus/pdfstamp/internal/incremental"
	"github.com/digitorus/pdfstamp/internal/pdf"
)

// PageInfo describes one page.
type PageInfo struct {
	Number int        `json:"number"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Box    [4]float64 `json:"mediaBox"`
	Fonts  []string   `json:"fonts,omitempty"`
}

// Info describes a document.
type Info struct {
	Pages []PageInfo `json:"pages"`
	// Xref is the cross-reference kind of the last section, "table" or
	// "stream".
	Xref string `json:"xref"`
	// Revisions counts the %%EOF markers, one per incremental update plus
	// the original file.
	Revisions int `json:"revisions"`
}

// Inspect describes the pages and revisions of a document.
func Inspect(input []byte) (info *Info, err error) {
	rdr, err := openReader(input)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	kind, err := incremental.DetectKind(rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	info = &Info{Xref: kind.String(), Revisions: incremental.Revisions(input)}
	for n := 1; n <= pdf.PageCount(rdr); n++ {
		page, err := pdf.LocatePage(rdr, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		pi := PageInfo{
			Number: n,
			Width:  page.Width(),
			Height: page.Height(),
			Box:    page.MediaBox,
		}
		for _, f := range pdf.PageFonts(page) {
			pi.Fonts = append(pi.Fonts, f.Name)
		}
		info.Pages = append(info.Pages, pi)
	}
	return info, nil
}

// PageContent returns the decoded content streams of a page, concatenated
// in drawing order.
func PageContent(input []byte, page int) (content []byte, err error) {
	rdr, err := openReader(input)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			content, err = nil, fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	doc := &document{rdr: rdr}
	p, err := doc.page(page)
	if err != nil {
		return nil, err
	}
	content, err = pdf.ReadContent(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return content, nil
}
