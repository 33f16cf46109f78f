package pdfstamp

import (
	"errors"
	"fmt"

	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/images"
)

var (
	// ErrMalformedDocument is returned when the input cannot be parsed as
	// a PDF, or is encrypted.
	ErrMalformedDocument = errors.New("malformed PDF document")
	// ErrPageOutOfBounds matches every *PageOutOfBoundsError.
	ErrPageOutOfBounds = errors.New("page out of bounds")
	// ErrUnsupportedImageFormat is returned for data URLs that are not PNG
	// or JPEG.
	ErrUnsupportedImageFormat = images.ErrUnsupportedFormat
	// ErrImageDecode is returned when an image payload cannot be decoded.
	ErrImageDecode = images.ErrDecode
	// ErrInvalidColorFormat is returned for colors that are not #RRGGBB.
	ErrInvalidColorFormat = colors.ErrInvalidFormat
	// ErrInvalidNumericField is returned for non-finite coordinates and
	// non-positive sizes or scale factors.
	ErrInvalidNumericField = errors.New("invalid numeric field")
	// ErrNoSignaturesProvided is returned by ApplySignatures when there is
	// nothing to apply.
	ErrNoSignaturesProvided = errors.New("no signatures provided")
	// ErrUnknownSignatureType is returned for requests whose type is
	// neither image nor text, when such requests are rejected.
	ErrUnknownSignatureType = errors.New("unknown signature type")
)

// PageOutOfBoundsError reports a page number outside of the document.
type PageOutOfBoundsError struct {
	Page      int
	PageCount int
}

func (e *PageOutOfBoundsError) Error() string {
	return fmt.Sprintf("page %d is out of bounds, document has %d pages", e.Page, e.PageCount)
}

// Is makes errors.Is(err, ErrPageOutOfBounds) match.
func (e *PageOutOfBoundsError) Is(target error) bool {
	return target == ErrPageOutOfBounds
}

// SignatureError reports the failure of one request of a batch.
type SignatureError struct {
	Index int // 1-based position in the request list
	Type  SignatureType
	Err   error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

// NumericFieldError names the field holding an invalid number.
type NumericFieldError struct {
	Field string
	Value string
}

func (e *NumericFieldError) Error() string {
	return fmt.Sprintf("invalid numeric field %s: %s", e.Field, e.Value)
}

func (e *NumericFieldError) Is(target error) bool {
	return target == ErrInvalidNumericField
}

// Error kinds returned by Kind.
const (
	KindMalformedDocument      = "MalformedDocument"
	KindPageOutOfBounds        = "PageOutOfBounds"
	KindUnsupportedImageFormat = "UnsupportedImageFormat"
	KindImageDecodeError       = "ImageDecodeError"
	KindInvalidColorFormat     = "InvalidColorFormat"
	KindInvalidNumericField    = "InvalidNumericField"
	KindNoSignaturesProvided   = "NoSignaturesProvided"
	KindUnknownSignatureType   = "UnknownSignatureType"
	KindInternal               = "Internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrMalformedDocument, KindMalformedDocument},
	{ErrPageOutOfBounds, KindPageOutOfBounds},
	{ErrUnsupportedImageFormat, KindUnsupportedImageFormat},
	{ErrImageDecode, KindImageDecodeError},
	{ErrInvalidColorFormat, KindInvalidColorFormat},
	{ErrInvalidNumericField, KindInvalidNumericField},
	{ErrNoSignaturesProvided, KindNoSignaturesProvided},
	{ErrUnknownSignatureType, KindUnknownSignatureType},
}

// Kind returns the taxonomy name of err, or an empty string for nil.
// Errors outside of the taxonomy, including context cancellation, are
// Internal.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Position returns the 1-based request index carried by err, or 0.
func Position(err error) int {
	var se *SignatureError
	if errors.As(err, &se) {
		return se.Index
	}
	return 0
}
