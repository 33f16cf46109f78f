package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/storage"
)

// Kinds of errors raised by the transport itself.
const (
	kindInvalidRequest  = "InvalidRequest"
	kindRequestTooLarge = "RequestTooLarge"
	kindNotFound        = "NotFound"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Position int    `json:"position,omitempty"`
}

// status maps an error kind of the engine to an HTTP status. Everything
// the caller can fix by changing the request is a 400.
func status(kind string) int {
	switch kind {
	case pdfstamp.KindPageOutOfBounds,
		pdfstamp.KindUnsupportedImageFormat,
		pdfstamp.KindImageDecodeError,
		pdfstamp.KindInvalidColorFormat,
		pdfstamp.KindInvalidNumericField,
		pdfstamp.KindNoSignaturesProvided,
		pdfstamp.KindUnknownSignatureType,
		kindInvalidRequest:
		return http.StatusBadRequest
	case kindRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case kindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the JSON error for an engine or storage error.
func fail(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		abort(c, http.StatusRequestEntityTooLarge, kindRequestTooLarge, err)
	case errors.Is(err, storage.ErrNotFound):
		abort(c, http.StatusNotFound, kindNotFound, err)
	default:
		kind := pdfstamp.Kind(err)
		abort(c, status(kind), kind, err)
	}
}

// invalid writes a 400 for a request that does not have the expected shape.
func invalid(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abort(c, http.StatusRequestEntityTooLarge, kindRequestTooLarge, err)
		return
	}
	if errors.Is(err, pdfstamp.ErrInvalidNumericField) {
		abort(c, http.StatusBadRequest, pdfstamp.KindInvalidNumericField, err)
		return
	}
	abort(c, http.StatusBadRequest, kindInvalidRequest, err)
}

func abort(c *gin.Context, code int, kind string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:    err.Error(),
		Kind:     kind,
		Position: pdfstamp.Position(err),
	})
}
