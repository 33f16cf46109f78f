package pdf

import (
	"bytes"
	"fmt"
	"io"

	pdflib "github.com/digitorus/pdf"
)

// ContentRefs returns the content stream objects of a page in drawing
// order. A page without /Contents has none.
func ContentRefs(page *Page) ([]Ref, error) {
	contents := page.Value.Key("Contents")
	switch contents.Kind() {
	case pdflib.Null:
		return nil, nil
	case pdflib.Stream:
		ref := RefOf(contents)
		if ref.IsZero() || ref == page.Ref {
			return nil, fmt.Errorf("page %d: content stream is not an indirect object", page.Number)
		}
		return []Ref{ref}, nil
	case pdflib.Array:
		refs := make([]Ref, 0, contents.Len())
		for i := 0; i < contents.Len(); i++ {
			stream := contents.Index(i)
			if stream.IsNull() {
				continue
			}
			ref := RefOf(stream)
			if stream.Kind() != pdflib.Stream || ref.IsZero() || ref == RefOf(contents) {
				return nil, fmt.Errorf("page %d: content entry %d is not a stream reference", page.Number, i)
			}
			refs = append(refs, ref)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("page %d: unexpected /Contents of kind %v", page.Number, contents.Kind())
	}
}

// ReadContent returns the decoded content of a page, streams separated by
// a newline.
func ReadContent(page *Page) ([]byte, error) {
	contents := page.Value.Key("Contents")
	if contents.IsNull() {
		return nil, nil
	}

	var buf bytes.Buffer
	if contents.Kind() == pdflib.Array {
		// Multiple content streams
		for i := 0; i < contents.Len(); i++ {
			if err := copyStream(&buf, contents.Index(i)); err != nil {
				return nil, fmt.Errorf("failed to copy content stream %d: %w", i, err)
			}
			buf.WriteString("\n")
		}
		return buf.Bytes(), nil
	}

	if err := copyStream(&buf, contents); err != nil {
		return nil, fmt.Errorf("failed to copy content stream: %w", err)
	}
	return buf.Bytes(), nil
}

func copyStream(w io.Writer, stream pdflib.Value) error {
	if stream.Kind() != pdflib.Stream {
		return nil
	}
	_, err := io.Copy(w, stream.Reader())
	return err
}
