package pdfstamp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
)

// Resource name stems for stamped objects.
const (
	imagePrefix = "StampIm"
	fontPrefix  = "StampF"
)

// ApplyImageSignature draws the PNG or JPEG image in dataURL on page of
// input with its lower-left corner at (x, y), scaled by the stamper's image
// scale. The returned document is input followed by an incremental update.
func (s *Stamper) ApplyImageSignature(ctx context.Context, input []byte, dataURL string, x, y float64, page int) ([]byte, error) {
	return s.applyImage(ctx, input, dataURL, x, y, page, 0)
}

func (s *Stamper) applyImage(ctx context.Context, data []byte, dataURL string, x, y float64, pageNum int, scale float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkCoordinates(x, y); err != nil {
		return nil, err
	}
	if scale == 0 {
		scale = s.imageScale
	} else if !positive(scale) {
		return nil, &NumericFieldError{Field: "scale", Value: fmt.Sprint(scale)}
	}

	doc, err := s.open(data)
	if err != nil {
		return nil, err
	}
	page, err := doc.page(pageNum)
	if err != nil {
		return nil, err
	}

	img, err := s.decoder.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}

	w, h := img.Scale(scale)
	s.checkBounds(page, x, y, w, h)

	id, err := render.RegisterImage(doc.w, img)
	if err != nil {
		return nil, fmt.Errorf("failed to embed image: %w", err)
	}

	err = doc.stamp(page, pdf.CategoryXObject, imagePrefix, id, func(name string) []byte {
		return render.ImageElement{Name: name, X: x, Y: y, Width: w, Height: h}.Ops()
	})
	if err != nil {
		return nil, err
	}
	return doc.bytes()
}

// ApplyTextSignature draws text on page of input with its baseline origin at
// (x, y). Empty style fields select the stamper defaults. Unknown fonts
// fall back to Helvetica; characters outside WinAnsi are drawn as '?'.
func (s *Stamper) ApplyTextSignature(ctx context.Context, input []byte, text string, x, y float64, page int, style TextStyle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkCoordinates(x, y); err != nil {
		return nil, err
	}

	size := style.Size
	if size == 0 {
		size = s.fontSize
	} else if !positive(size) {
		return nil, &NumericFieldError{Field: "fontSize", Value: fmt.Sprint(size)}
	}

	doc, err := s.open(input)
	if err != nil {
		return nil, err
	}
	p, err := doc.page(page)
	if err != nil {
		return nil, err
	}

	color := s.color
	if style.Color != "" {
		if color, err = colors.ParseHex(style.Color); err != nil {
			return nil, err
		}
	}

	fontName := style.Font
	if fontName == "" {
		fontName = s.font
	}

	res := fonts.Resolve(fontName)
	if res.Fallback {
		s.log.Warn("font not available, using fallback",
			zap.String("font", fontName), zap.String("fallback", res.Font.Name), zap.Int("page", page))
	}

	encoded, replaced := render.EncodeText(text)
	if replaced > 0 {
		s.log.Warn("characters not representable in font encoding",
			zap.Int("replaced", replaced), zap.String("font", res.Font.Name), zap.Int("page", page))
	}

	w := res.Font.Metrics.GetStringWidth(text, size)
	s.checkBounds(p, x, y, w, size)

	s.log.Debug("stamping text",
		zap.Int("page", page), zap.String("font", res.Font.Name), zap.Float64("size", size), zap.Stringer("color", color))

	id, err := render.RegisterFont(doc.w, res.Font)
	if err != nil {
		return nil, fmt.Errorf("failed to embed font: %w", err)
	}

	err = doc.stamp(p, pdf.CategoryFont, fontPrefix, id, func(name string) []byte {
		return render.TextElement{Font: name, Size: size, Color: color, X: x, Y: y, Text: encoded}.Ops()
	})
	if err != nil {
		return nil, err
	}
	return doc.bytes()
}

// checkBounds logs a warning when the stamp does not fit the page. The
// stamp is drawn regardless.
func (s *Stamper) checkBounds(page *pdf.Page, x, y, w, h float64) {
	if page.Contains(x, y) && page.Contains(x+w, y+h) {
		return
	}
	s.log.Warn("signature extends beyond page bounds",
		zap.Int("page", page.Number),
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.Float64("width", w),
		zap.Float64("height", h),
		zap.Float64("page_width", page.Width()),
		zap.Float64("page_height", page.Height()))
}

func checkCoordinates(x, y float64) error {
	if !finite(x) {
		return &NumericFieldError{Field: "x", Value: fmt.Sprint(x)}
	}
	if !finite(y) {
		return &NumericFieldError{Field: "y", Value: fmt.Sprint(y)}
	}
	return nil
}
