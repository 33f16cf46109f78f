// Package images provides image resources for PDF documents.
//
// This package decodes the PNG and JPEG data URLs used for image signatures
// and exposes the intrinsic size needed to place them on a page.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"unicode"
)

// Format is the encoding of an image.
type Format int

const (
	PNG Format = iota + 1
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	}
	return "unknown"
}

// MediaType returns the MIME type of the format.
func (f Format) MediaType() string {
	return "image/" + f.String()
}

var (
	// ErrUnsupportedFormat is returned for data URLs that do not declare a
	// PNG or JPEG image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecode is returned when the payload cannot be decoded as the
	// declared format.
	ErrDecode = errors.New("image decode error")
)

// Image represents an image resource that can be used in PDF appearances.
type Image struct {
	Format Format
	Data   []byte      // Raw image data (JPEG or PNG)
	Hash   string      // SHA256 hash of image data
	Width  int         // Intrinsic width in pixels
	Height int         // Intrinsic height in pixels
	Pixels image.Image // Decoded image
}

// Scale returns the size of the image in user space units at factor f.
func (img *Image) Scale(f float64) (w, h float64) {
	return float64(img.Width) * f, float64(img.Height) * f
}

// DefaultMaxPixels bounds the pixel count of images decoded by the package
// level functions.
const DefaultMaxPixels = 40_000_000

// Decoder decodes images whose width times height does not exceed
// MaxPixels. A zero MaxPixels selects DefaultMaxPixels.
type Decoder struct {
	MaxPixels int
}

// DecodeDataURL decodes a base64 data URL holding a PNG or JPEG image.
func DecodeDataURL(s string) (*Image, error) {
	return Decoder{}.DecodeDataURL(s)
}

// Decode validates data as an image of the given format.
func Decode(format Format, data []byte) (*Image, error) {
	return Decoder{}.Decode(format, data)
}

// DecodeDataURL decodes a base64 data URL holding a PNG or JPEG image.
func (d Decoder) DecodeDataURL(s string) (*Image, error) {
	header, payload, found := strings.Cut(s, ",")
	lower := strings.ToLower(strings.TrimSpace(header))

	var format Format
	switch {
	case strings.HasPrefix(lower, "data:image/png"):
		format = PNG
	case strings.HasPrefix(lower, "data:image/jpeg"), strings.HasPrefix(lower, "data:image/jpg"):
		format = JPEG
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, truncate(header, 32))
	}

	if !found {
		return nil, fmt.Errorf("%w: missing data after header", ErrDecode)
	}
	if !strings.Contains(lower, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrDecode)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return d.Decode(format, data)
}

// Decode validates data as an image of the given format. The dimensions are
// checked against the pixel limit before the pixels are decoded.
func (d Decoder) Decode(format Format, data []byte) (*Image, error) {
	var (
		decodeConfig func(io.Reader) (image.Config, error)
		decode       func(io.Reader) (image.Image, error)
	)
	switch format {
	case PNG:
		decodeConfig, decode = png.DecodeConfig, png.Decode
	case JPEG:
		decodeConfig, decode = jpeg.DecodeConfig, jpeg.Decode
	default:
		return nil, ErrUnsupportedFormat
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width > 0 && cfg.Height > limit/cfg.Width {
		return nil, fmt.Errorf("%w: %dx%d image exceeds the limit of %d pixels", ErrDecode, cfg.Width, cfg.Height, limit)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	sum := sha256.Sum256(data)
	return &Image{
		Format: format,
		Data:   data,
		Hash:   hex.EncodeToString(sum[:]),
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: img,
	}, nil
}

// Sniff detects the format of raw image bytes.
func Sniff(data []byte) (Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch name {
	case "png":
		return PNG, nil
	case "jpeg":
		return JPEG, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// DataURL encodes raw image bytes as a data URL, detecting the format
// from the content.
func DataURL(data []byte) (string, error) {
	format, err := Sniff(data)
	if err != nil {
		return "", err
	}
	return "data:" + format.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// decodeBase64 accepts standard base64 with embedded whitespace and with
// or without padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
