// Package render registers image and font objects in a document and
// produces the content stream operators that draw them.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/text/encoding/charmap"

	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/images"
)

// RegisterImage adds img as an image XObject and returns its object number.
//
// JPEG data is embedded as is with /DCTDecode. Everything else is converted
// to 8-bit DeviceRGB samples, with a DeviceGray soft mask when any pixel is
// not fully opaque.
func RegisterImage(w ObjectWriter, img *images.Image) (uint32, error) {
	if img == nil || img.Pixels == nil {
		return 0, fmt.Errorf("invalid image data")
	}

	if img.Format == images.JPEG {
		return registerJPEG(w, img)
	}

	bounds := img.Pixels.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, width*height*3)
	alpha := make([]byte, 0, width*height)
	hasAlpha := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.Pixels.At(x, y)).(color.NRGBA)
			if c.A < 255 {
				hasAlpha = true
			}
			rgb = append(rgb, c.R, c.G, c.B)
			alpha = append(alpha, c.A)
		}
	}

	var smaskID uint32
	if hasAlpha {
		smaskDict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8", width, height)
		id, err := w.AddStream(smaskDict, alpha, true)
		if err != nil {
			return 0, fmt.Errorf("failed to add soft mask: %w", err)
		}
		smaskID = id
	}

	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8", width, height)
	if smaskID != 0 {
		dict += fmt.Sprintf(" /SMask %d 0 R", smaskID)
	}
	return w.AddStream(dict, rgb, true)
}

func registerJPEG(w ObjectWriter, img *images.Image) (uint32, error) {
	colorSpace := "/DeviceRGB"
	switch img.Pixels.(type) {
	case *image.Gray:
		colorSpace = "/DeviceGray"
	case *image.CMYK:
		// Adobe CMYK JPEGs store inverted samples.
		colorSpace = "/DeviceCMYK /Decode [1 0 1 0 1 0 1 0]"
	}

	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter /DCTDecode",
		img.Width, img.Height, colorSpace)
	return w.AddStream(dict, img.Data, false)
}

// RegisterFont adds a font dictionary for f and returns its object number.
// Standard fonts are referenced by name; TrueType fonts are embedded with
// a descriptor and WinAnsi widths.
func RegisterFont(w ObjectWriter, f *fonts.Font) (uint32, error) {
	if f == nil || len(f.Data) == 0 {
		baseFont := fonts.Helvetica.String()
		if f != nil && f.Name != "" {
			baseFont = f.Name
		}
		return w.AddObject(fmt.Appendf(nil, "<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", baseFont))
	}

	fontStreamID, err := w.AddStream(fmt.Sprintf("/Length1 %d", len(f.Data)), f.Data, true)
	if err != nil {
		return 0, fmt.Errorf("failed to embed font %s: %w", f.Name, err)
	}

	m := f.Metrics
	bbox := [4]int{-500, -200, 1000, 900}
	ascent, descent := 800, -200
	if m != nil {
		if m.BBox != [4]int{} {
			bbox = [4]int{m.Scale(m.BBox[0]), m.Scale(m.BBox[1]), m.Scale(m.BBox[2]), m.Scale(m.BBox[3])}
		}
		if m.Ascent != 0 {
			ascent, descent = m.Scale(m.Ascent), m.Scale(m.Descent)
		}
	}

	fd := fmt.Sprintf("<< /Type /FontDescriptor /FontName /%s /Flags 32 /FontBBox [%d %d %d %d] /ItalicAngle 0 /Ascent %d /Descent %d /CapHeight %d /StemV 80 /FontFile2 %d 0 R >>",
		f.Name, bbox[0], bbox[1], bbox[2], bbox[3], ascent, descent, ascent, fontStreamID)
	descriptorID, err := w.AddObject([]byte(fd))
	if err != nil {
		return 0, fmt.Errorf("failed to add font descriptor: %w", err)
	}

	var fontBuf bytes.Buffer
	fmt.Fprintf(&fontBuf, "<< /Type /Font /Subtype /TrueType /BaseFont /%s /FontDescriptor %d 0 R /FirstChar 32 /LastChar 255 /Encoding /WinAnsiEncoding /Widths [", f.Name, descriptorID)
	for _, width := range m.GetWidthsArray() {
		fmt.Fprintf(&fontBuf, " %d", width)
	}
	fontBuf.WriteString(" ] >>")
	return w.AddObject(fontBuf.Bytes())
}

// EncodeText converts s to WinAnsiEncoding. Runes without a WinAnsi code
// are replaced by '?'; replaced reports how many.
func EncodeText(s string) (encoded []byte, replaced int) {
	encoded = make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
			replaced++
		}
		encoded = append(encoded, b)
	}
	return encoded, replaced
}
