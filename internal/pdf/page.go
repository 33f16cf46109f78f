package pdf

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// LetterMediaBox is used when neither a page nor its ancestors define one.
var LetterMediaBox = [4]float64{0, 0, 612, 792}

// maxInheritDepth bounds the walk up the page tree, protecting against
// /Parent cycles in damaged files.
const maxInheritDepth = 64

// PageOutOfRangeError is returned by LocatePage for a page number outside
// of the document.
type PageOutOfRangeError struct {
	Page  int
	Count int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (document has %d pages)", e.Page, e.Count)
}

// Page is a located page with its effective (inherited) attributes.
type Page struct {
	Number    int
	Value     pdflib.Value
	Ref       Ref
	MediaBox  [4]float64
	Resources pdflib.Value
}

// Width of the MediaBox.
func (p *Page) Width() float64 {
	return p.MediaBox[2] - p.MediaBox[0]
}

// Height of the MediaBox.
func (p *Page) Height() float64 {
	return p.MediaBox[3] - p.MediaBox[1]
}

// Contains reports whether the point lies within the MediaBox.
func (p *Page) Contains(x, y float64) bool {
	return x >= p.MediaBox[0] && x <= p.MediaBox[2] &&
		y >= p.MediaBox[1] && y <= p.MediaBox[3]
}

// PageCount returns the number of pages announced by the page tree root.
func PageCount(r *pdflib.Reader) int {
	return r.NumPage()
}

// LocatePage resolves the 1-indexed page n.
func LocatePage(r *pdflib.Reader, n int) (*Page, error) {
	count := PageCount(r)
	if n < 1 || n > count {
		return nil, &PageOutOfRangeError{Page: n, Count: count}
	}

	v := r.Page(n).V
	if v.IsNull() || v.Kind() != pdflib.Dict {
		return nil, fmt.Errorf("page %d not found in page tree", n)
	}

	ref := RefOf(v)
	if ref.IsZero() {
		return nil, fmt.Errorf("page %d is not an indirect object", n)
	}

	return &Page{
		Number:    n,
		Value:     v,
		Ref:       ref,
		MediaBox:  mediaBox(v),
		Resources: Inherited(v, "Resources"),
	}, nil
}

// Inherited looks key up on the page and, when absent, on its ancestors
// in the page tree.
func Inherited(page pdflib.Value, key string) pdflib.Value {
	node := page
	for i := 0; i < maxInheritDepth && !node.IsNull(); i++ {
		if v := node.Key(key); !v.IsNull() {
			return v
		}
		node = node.Key("Parent")
	}
	return pdflib.Value{}
}

func mediaBox(page pdflib.Value) [4]float64 {
	box := Inherited(page, "MediaBox")
	if box.Kind() != pdflib.Array || box.Len() < 4 {
		return LetterMediaBox
	}

	var mb [4]float64
	for i := 0; i < 4; i++ {
		mb[i] = box.Index(i).Float64()
	}

	// Normalize so that [0],[1] is the lower-left corner.
	if mb[0] > mb[2] {
		mb[0], mb[2] = mb[2], mb[0]
	}
	if mb[1] > mb[3] {
		mb[1], mb[3] = mb[3], mb[1]
	}
	if mb[2]-mb[0] <= 0 || mb[3]-mb[1] <= 0 {
		return LetterMediaBox
	}
	return mb
}
