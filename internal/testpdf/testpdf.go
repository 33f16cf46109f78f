// Package testpdf builds small, well-formed PDF documents and image data
// URLs for tests.
package testpdf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
)

// Options controls the generated document.
type Options struct {
	// Pages is the number of pages, at least one.
	Pages int
	// MediaBox defaults to US Letter.
	MediaBox [4]float64
	// XrefStream writes a PDF 1.5 cross-reference stream instead of a
	// classic table.
	XrefStream bool
	// Inherited puts MediaBox and Resources on the page tree root instead
	// of on every page.
	Inherited bool
	// NoContent omits /Contents from every page.
	NoContent bool
	// ContentArray stores /Contents as a one element array.
	ContentArray bool
	// FontNames are additional font resource names bound on every page.
	FontNames []string
	// XObjectNames are form XObject resource names bound on every page.
	XObjectNames []string
	// Encrypt adds a (bogus) standard security handler to the trailer.
	Encrypt bool
	// SelfReference makes every page refer back to itself from direct
	// values: a /Me entry in its resources and the /P entry of a direct
	// annotation.
	SelfReference bool
}

// Fixed object numbers.
const (
	catalogObj = 1
	pagesObj   = 2
	fontObj    = 3
	infoObj    = 4
	formObj    = 5
	firstPage  = 6
)

// FileID is the first /ID element of every generated document.
var FileID = []byte("pdfstamp-testpdf")

// Blank returns a single Letter sized page document with a classic
// cross-reference table.
func Blank() []byte {
	return Build(Options{Pages: 1})
}

// Build returns a document described by opts.
func Build(opts Options) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.MediaBox == [4]float64{} {
		opts.MediaBox = [4]float64{0, 0, 612, 792}
	}

	var buf bytes.Buffer
	offsets := map[int]int{}
	object := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	mediaBox := fmt.Sprintf("[%g %g %g %g]", opts.MediaBox[0], opts.MediaBox[1], opts.MediaBox[2], opts.MediaBox[3])

	object(catalogObj, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))

	kids := make([]string, opts.Pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}
	pages := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), opts.Pages)
	if opts.Inherited {
		pages += " /MediaBox " + mediaBox + " /Resources " + resourcesDict(opts, 0)
	}
	object(pagesObj, pages+" >>")

	object(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	object(infoObj, "<< /Producer (testpdf) /Title (Test document) >>")
	object(formObj, "<< /Type /XObject /Subtype /Form /BBox [0 0 1 1] /Length 0 >>\nstream\n\nendstream")

	for i := 0; i < opts.Pages; i++ {
		pageID := firstPage + 2*i
		contentID := pageID + 1

		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R", pagesObj)
		if !opts.Inherited {
			page += " /MediaBox " + mediaBox + " /Resources " + resourcesDict(opts, pageID)
		}
		if opts.SelfReference {
			page += fmt.Sprintf(" /Annots [<< /Type /Annot /Subtype /Text /Rect [0 0 10 10] /P %d 0 R >>]", pageID)
		}
		if !opts.NoContent {
			if opts.ContentArray {
				page += fmt.Sprintf(" /Contents [%d 0 R]", contentID)
			} else {
				page += fmt.Sprintf(" /Contents %d 0 R", contentID)
			}
		}
		object(pageID, page+" >>")

		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1)
		object(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	size := firstPage + 2*opts.Pages
	trailer := fmt.Sprintf("/Size %d /Root %d 0 R /Info %d 0 R /ID [<%x> <%x>]", size, catalogObj, infoObj, FileID, FileID)
	if opts.Encrypt {
		trailer += fmt.Sprintf(" /Encrypt << /Filter /Standard /V 1 /R 2 /O <%s> /U <%s> /P -4 >>",
			strings.Repeat("00", 32), strings.Repeat("00", 32))
	}

	if opts.XrefStream {
		writeXrefStream(&buf, offsets, size, trailer)
	} else {
		writeXrefTable(&buf, offsets, size, trailer)
	}
	return buf.Bytes()
}

func resourcesDict(opts Options, pageID int) string {
	var b strings.Builder
	b.WriteString("<< /ProcSet [/PDF /Text]")
	if opts.SelfReference && pageID != 0 {
		fmt.Fprintf(&b, " /Me %d 0 R", pageID)
	}
	fmt.Fprintf(&b, " /Font << /F1 %d 0 R", fontObj)
	for _, name := range opts.FontNames {
		fmt.Fprintf(&b, " /%s %d 0 R", name, fontObj)
	}
	b.WriteString(" >>")
	if len(opts.XObjectNames) > 0 {
		b.WriteString(" /XObject <<")
		for _, name := range opts.XObjectNames {
			fmt.Fprintf(&b, " /%s %d 0 R", name, formObj)
		}
		b.WriteString(" >>")
	}
	b.WriteString(" >>")
	return b.String()
}

func writeXrefTable(buf *bytes.Buffer, offsets map[int]int, size int, trailer string) {
	start := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f\r\n")
	for id := 1; id < size; id++ {
		fmt.Fprintf(buf, "%010d 00000 n\r\n", offsets[id])
	}
	fmt.Fprintf(buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, start)
}

func writeXrefStream(buf *bytes.Buffer, offsets map[int]int, size int, trailer string) {
	selfID := size
	start := buf.Len()
	offsets[selfID] = start

	var rows bytes.Buffer
	row := func(typ byte, offset uint32, gen uint16) {
		rows.WriteByte(typ)
		_ = binary.Write(&rows, binary.BigEndian, offset)
		_ = binary.Write(&rows, binary.BigEndian, gen)
	}
	row(0, 0, 65535)
	for id := 1; id <= selfID; id++ {
		row(1, uint32(offsets[id]), 0)
	}

	// The stream's own /Size covers itself.
	trailer = strings.Replace(trailer, fmt.Sprintf("/Size %d", size), fmt.Sprintf("/Size %d", size+1), 1)
	fmt.Fprintf(buf, "%d 0 obj\n<< /Type /XRef %s /W [1 4 2] /Index [0 %d] /Length %d >>\nstream\n",
		selfID, trailer, size+1, rows.Len())
	buf.Write(rows.Bytes())
	fmt.Fprintf(buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
}

// PNG returns an encoded w x h PNG. With alpha set the image is half
// transparent.
func PNG(w, h int, alpha bool) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	a := uint8(255)
	if alpha {
		a = 128
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w, 1)), G: 64, B: uint8(y * 255 / max(h, 1)), A: a})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG returns an encoded w x h JPEG.
func JPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DataURL wraps data in a base64 data URL of the given media type.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// PNGDataURL returns a data URL holding a w x h PNG.
func PNGDataURL(w, h int) string {
	return DataURL("image/png", PNG(w, h, false))
}

// JPEGDataURL returns a data URL holding a w x h JPEG.
func JPEGDataURL(w, h int) string {
	return DataURL("image/jpeg", JPEG(w, h))
}
