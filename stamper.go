// Package pdfstamp places visual signatures on PDF documents.
//
// A signature is an image (PNG or JPEG data URL) or a line of text drawn
// at page coordinates. Every operation takes the document as a byte slice
// and returns a new byte slice holding the original file followed by an
// incremental update, so the input is never modified.
//
// Basic usage:
//
//	out, err := pdfstamp.ApplySignatures(ctx, input, []pdfstamp.SignatureRequest{
//	    {Type: pdfstamp.TypeText, Data: "Jane Doe", X: 100, Y: 100, Page: 1},
//	    {Type: pdfstamp.TypeImage, Data: dataURL, X: 100, Y: 140, Page: 1},
//	})
//
// A Stamper carries the defaults used for fields left at their zero value.
package pdfstamp

import (
	"compress/zlib"
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/images"
)

// Defaults used by New for zero Options fields.
const (
	DefaultImageScale = 0.2
	DefaultFont       = "Helvetica"
	DefaultFontSize   = 12.0
	DefaultColor      = "#000000"
)

// Options configures a Stamper.
type Options struct {
	// ImageScale is the factor applied to the intrinsic pixel size of
	// images. Zero selects DefaultImageScale.
	ImageScale float64
	// DefaultFont, DefaultFontSize and DefaultColor apply to text
	// signatures that leave the field empty.
	DefaultFont     string
	DefaultFontSize float64
	DefaultColor    string
	// CompressLevel is the zlib level for new streams. Nil selects
	// zlib.DefaultCompression.
	CompressLevel *int
	// MaxImagePixels rejects images whose width times height exceeds it
	// before their pixels are decoded. Zero selects
	// images.DefaultMaxPixels.
	MaxImagePixels int
	// RejectUnknownTypes aborts a batch on a request of unknown type
	// instead of skipping it.
	RejectUnknownTypes bool
	// Logger receives warnings. Nil disables logging.
	Logger *zap.Logger
}

// Stamper applies signatures. It is immutable and safe for concurrent use.
type Stamper struct {
	imageScale         float64
	font               string
	fontSize           float64
	color              colors.RGB
	compressLevel      int
	decoder            images.Decoder
	rejectUnknownTypes bool
	log                *zap.Logger
}

// New returns a Stamper configured by opts.
func New(opts Options) (*Stamper, error) {
	s := &Stamper{
		imageScale:         DefaultImageScale,
		font:               DefaultFont,
		fontSize:           DefaultFontSize,
		compressLevel:      zlib.DefaultCompression,
		rejectUnknownTypes: opts.RejectUnknownTypes,
		log:                opts.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	if opts.ImageScale != 0 {
		if !positive(opts.ImageScale) {
			return nil, &NumericFieldError{Field: "ImageScale", Value: fmt.Sprint(opts.ImageScale)}
		}
		s.imageScale = opts.ImageScale
	}
	if opts.DefaultFontSize != 0 {
		if !positive(opts.DefaultFontSize) {
			return nil, &NumericFieldError{Field: "DefaultFontSize", Value: fmt.Sprint(opts.DefaultFontSize)}
		}
		s.fontSize = opts.DefaultFontSize
	}
	if opts.DefaultFont != "" {
		s.font = opts.DefaultFont
	}

	colorHex := DefaultColor
	if opts.DefaultColor != "" {
		colorHex = opts.DefaultColor
	}
	c, err := colors.ParseHex(colorHex)
	if err != nil {
		return nil, fmt.Errorf("default color: %w", err)
	}
	s.color = c

	if opts.CompressLevel != nil {
		level := *opts.CompressLevel
		if level < zlib.HuffmanOnly || level > zlib.BestCompression {
			return nil, fmt.Errorf("invalid compression level %d", level)
		}
		s.compressLevel = level
	}

	if opts.MaxImagePixels < 0 {
		return nil, &NumericFieldError{Field: "MaxImagePixels", Value: fmt.Sprint(opts.MaxImagePixels)}
	}
	s.decoder.MaxPixels = opts.MaxImagePixels

	if res := fonts.Resolve(s.font); res.Fallback {
		s.log.Warn("default font not available, using fallback",
			zap.String("font", s.font), zap.String("fallback", res.Font.Name))
	}

	return s, nil
}

var defaultStamper, _ = New(Options{})

// Default returns the Stamper used by the package-level functions.
func Default() *Stamper {
	return defaultStamper
}

// ApplyImageSignature draws the image in dataURL on page of pdf using the
// default Stamper.
func ApplyImageSignature(ctx context.Context, pdf []byte, dataURL string, x, y float64, page int) ([]byte, error) {
	return defaultStamper.ApplyImageSignature(ctx, pdf, dataURL, x, y, page)
}

// ApplyTextSignature draws text on page of pdf using the default Stamper.
func ApplyTextSignature(ctx context.Context, pdf []byte, text string, x, y float64, page int, style TextStyle) ([]byte, error) {
	return defaultStamper.ApplyTextSignature(ctx, pdf, text, x, y, page, style)
}

// ApplySignatures applies reqs in order using the default Stamper.
func ApplySignatures(ctx context.Context, pdf []byte, reqs []SignatureRequest) ([]byte, error) {
	return defaultStamper.ApplySignatures(ctx, pdf, reqs)
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
