package render

import (
	"bytes"

	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/internal/pdf"
)

// ObjectWriter receives the objects a stamp needs. It is implemented by
// the incremental writer.
type ObjectWriter interface {
	AddObject(body []byte) (uint32, error)
	AddStream(dict string, data []byte, compress bool) (uint32, error)
}

// ImageElement draws an image XObject with its lower-left corner at X, Y.
type ImageElement struct {
	Name                string // resource name of the XObject
	X, Y, Width, Height float64
}

// Ops returns the content stream operators drawing the image.
func (e ImageElement) Ops() []byte {
	var b bytes.Buffer
	b.WriteString("q ")
	writeNumbers(&b, e.Width, 0, 0, e.Height, e.X, e.Y)
	b.WriteString(" cm ")
	pdf.WriteName(&b, e.Name)
	b.WriteString(" Do Q\n")
	return b.Bytes()
}

// TextElement draws a single line of text with its baseline origin at X, Y.
type TextElement struct {
	Font  string // resource name of the font
	Size  float64
	Color colors.RGB
	X, Y  float64
	Text  []byte // encoded string
}

// Ops returns the content stream operators drawing the text.
func (e TextElement) Ops() []byte {
	var b bytes.Buffer
	b.WriteString("q BT ")
	pdf.WriteName(&b, e.Font)
	b.WriteString(" ")
	writeNumbers(&b, e.Size)
	b.WriteString(" Tf ")
	writeNumbers(&b, e.Color.R, e.Color.G, e.Color.B)
	b.WriteString(" rg ")
	writeNumbers(&b, e.X, e.Y)
	b.WriteString(" Td ")
	pdf.WriteString(&b, string(e.Text))
	b.WriteString(" Tj ET Q\n")
	return b.Bytes()
}

func writeNumbers(b *bytes.Buffer, values ...float64) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(pdf.FormatNumber(v))
	}
}
