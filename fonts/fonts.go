// Package fonts provides font resources and metrics for text signatures.
//
// This package contains the twelve Latin standard PDF fonts (no embedding
// required) and TrueType fonts that are embedded together with their parsed
// metrics.
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// StandardType represents standard PDF fonts that are available in all PDF readers
// without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// HelveticaOblique is italic/oblique Helvetica.
	HelveticaOblique
	HelveticaBoldOblique
	// TimesRoman is the standard serif font.
	TimesRoman
	// TimesBold is bold Times Roman.
	TimesBold
	TimesItalic
	TimesBoldItalic
	// Courier is the standard monospace font.
	Courier
	// CourierBold is bold Courier.
	CourierBold
	CourierOblique
	CourierBoldOblique
)

var standardNames = map[StandardType]string{
	Helvetica:            "Helvetica",
	HelveticaBold:        "Helvetica-Bold",
	HelveticaOblique:     "Helvetica-Oblique",
	HelveticaBoldOblique: "Helvetica-BoldOblique",
	TimesRoman:           "Times-Roman",
	TimesBold:            "Times-Bold",
	TimesItalic:          "Times-Italic",
	TimesBoldItalic:      "Times-BoldItalic",
	Courier:              "Courier",
	CourierBold:          "Courier-Bold",
	CourierOblique:       "Courier-Oblique",
	CourierBoldOblique:   "Courier-BoldOblique",
}

// String returns the PostScript name of the font.
func (t StandardType) String() string {
	return standardNames[t]
}

// Font represents a font resource that can be used in text signatures.
type Font struct {
	Name     string   // PostScript name of the font
	Data     []byte   // TrueType font data (nil for standard fonts)
	Hash     string   // SHA256 hash of font data
	Embedded bool     // Whether the font is embedded in the PDF
	Metrics  *Metrics // Parsed metrics, nil for standard fonts
}

// Standard returns a Font for a standard PDF font (no embedding required).
// These fonts are guaranteed to be available in all PDF readers.
func Standard(ft StandardType) *Font {
	return &Font{Name: ft.String(), Embedded: false}
}

// TrueType returns an embeddable font for TrueType data.
func TrueType(name string, data []byte) (*Font, error) {
	m, err := ParseTTFMetrics(data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return &Font{
		Name:     name,
		Data:     data,
		Hash:     hex.EncodeToString(sum[:]),
		Embedded: true,
		Metrics:  m,
	}, nil
}

// Metrics contains parsed font metrics for text measurement and the
// /Widths array of embedded fonts.
type Metrics struct {
	UnitsPerEm  int
	Ascent      int
	Descent     int
	BBox        [4]int
	GlyphWidths map[rune]int // Advance widths in font units
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics
// for every character of the WinAnsi encoding.
func ParseTTFMetrics(data []byte) (*Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}

	unitsPerEm := f.UnitsPerEm()

	glyphWidths := make(map[rune]int)
	var buf sfnt.Buffer

	// Use unitsPerEm as the ppem so advances come back in font units.
	ppem := fixed.Int26_6(unitsPerEm) << 6

	for b := 32; b <= 255; b++ {
		r := charmap.Windows1252.DecodeByte(byte(b))
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}

		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}

		glyphWidths[r] = advance.Round()
	}

	m := &Metrics{
		UnitsPerEm:  int(unitsPerEm),
		GlyphWidths: glyphWidths,
	}

	if fm, err := f.Metrics(&buf, ppem, font.HintingNone); err == nil {
		m.Ascent = fm.Ascent.Round()
		m.Descent = -fm.Descent.Round()
	}
	if bounds, err := f.Bounds(&buf, ppem, font.HintingNone); err == nil {
		// sfnt bounds grow downwards; PDF's grow upwards.
		m.BBox = [4]int{bounds.Min.X.Floor(), -bounds.Max.Y.Ceil(), bounds.Max.X.Ceil(), -bounds.Min.Y.Floor()}
	}

	return m, nil
}

// GetStringWidth calculates the width of a string in points at the given font size.
func (m *Metrics) GetStringWidth(text string, fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 {
		// Fallback to approximation
		return float64(utf8.RuneCountInString(text)) * fontSize * 0.5
	}

	var totalWidth int
	for _, r := range text {
		totalWidth += m.GetGlyphWidth(r)
	}

	return (float64(totalWidth) / float64(m.UnitsPerEm)) * fontSize
}

// GetGlyphWidth returns the width of a single rune in font units.
func (m *Metrics) GetGlyphWidth(r rune) int {
	if m == nil {
		return 0
	}
	if width, ok := m.GlyphWidths[r]; ok {
		return width
	}
	return m.UnitsPerEm / 2
}

// Scale converts a value in font units to the 1000 units per em PDF uses
// in font dictionaries.
func (m *Metrics) Scale(v int) int {
	if m == nil || m.UnitsPerEm == 0 {
		return v
	}
	return int(float64(v) * 1000.0 / float64(m.UnitsPerEm))
}

// GetWidthsArray returns the /Widths array for a WinAnsi encoded font
// dictionary (FirstChar=32, LastChar=255), in 1000 units per em.
func (m *Metrics) GetWidthsArray() []int {
	widths := make([]int, 256-32)
	defaultWidth := 500

	if m == nil || m.UnitsPerEm == 0 {
		for i := range widths {
			widths[i] = defaultWidth
		}
		return widths
	}

	defaultWidth = m.Scale(m.UnitsPerEm / 2)
	for i := 32; i < 256; i++ {
		r := charmap.Windows1252.DecodeByte(byte(i))
		if w, ok := m.GlyphWidths[r]; ok {
			widths[i-32] = m.Scale(w)
		} else {
			widths[i-32] = defaultWidth
		}
	}
	return widths
}
