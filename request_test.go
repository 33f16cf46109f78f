package pdfstamp_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfstamp"
)

func TestParseRequests(t *testing.T) {
	data := []byte(`[
		{"type": "image", "data": "data:image/png;base64,AAAA", "x": 100, "y": 200.5, "pageNumber": 1, "scale": 0.5},
		{"type": "text", "data": "Jane Doe", "x": "72", "y": " 700 ", "pageNumber": "2", "font": "Times-Roman", "fontSize": "14", "color": "#336699"},
		{"type": "text", "data": "defaults", "x": 1, "y": 2, "pageNumber": 1, "fontSize": null}
	]`)

	got, err := pdfstamp.ParseRequests(data)
	require.NoError(t, err)

	want := []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeImage, Data: "data:image/png;base64,AAAA", X: 100, Y: 200.5, Page: 1, Scale: 0.5},
		{Type: pdfstamp.TypeText, Data: "Jane Doe", X: 72, Y: 700, Page: 2, Font: "Times-Roman", FontSize: 14, Color: "#336699"},
		{Type: pdfstamp.TypeText, Data: "defaults", X: 1, Y: 2, Page: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRequests mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRequestsInvalidNumbers(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{name: "x", data: `[{"type":"text","x":"left","y":1,"pageNumber":1}]`, field: "x"},
		{name: "y bool", data: `[{"type":"text","x":1,"y":true,"pageNumber":1}]`, field: "y"},
		{name: "fractional page", data: `[{"type":"text","x":1,"y":1,"pageNumber":1.5}]`, field: "pageNumber"},
		{name: "font size", data: `[{"type":"text","x":1,"y":1,"pageNumber":1,"fontSize":"NaN"}]`, field: "fontSize"},
		{name: "scale", data: `[{"type":"image","x":1,"y":1,"pageNumber":1,"scale":"Inf"}]`, field: "scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pdfstamp.ParseRequests([]byte(tt.data))
			require.ErrorIs(t, err, pdfstamp.ErrInvalidNumericField)

			var numErr *pdfstamp.NumericFieldError
			require.True(t, errors.As(err, &numErr))
			assert.Equal(t, tt.field, numErr.Field)
		})
	}
}

func TestParseRequestsMalformedJSON(t *testing.T) {
	_, err := pdfstamp.ParseRequests([]byte(`{"type":"text"}`))
	assert.Error(t, err)

	_, err = pdfstamp.ParseRequests([]byte(`[`))
	assert.Error(t, err)
}

func TestSignatureType(t *testing.T) {
	assert.True(t, pdfstamp.SignatureType("Image").Known())
	assert.True(t, pdfstamp.SignatureType(" TEXT ").Known())
	assert.False(t, pdfstamp.SignatureType("stamp").Known())
	assert.False(t, pdfstamp.SignatureType("").Known())
	assert.Equal(t, pdfstamp.TypeImage, pdfstamp.SignatureType("IMAGE").Normalize())
}

func TestParseNumber(t *testing.T) {
	f, err := pdfstamp.ParseNumber("x", " 12.5 ")
	require.NoError(t, err)
	assert.Equal(t, 12.5, f)

	for _, in := range []string{"", "abc", "NaN", "+Inf", "1e400"} {
		_, err := pdfstamp.ParseNumber("x", in)
		assert.ErrorIs(t, err, pdfstamp.ErrInvalidNumericField, in)
	}

	n, err := pdfstamp.ParsePage("pageNumber", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = pdfstamp.ParsePage("pageNumber", "1.0")
	assert.ErrorIs(t, err, pdfstamp.ErrInvalidNumericField)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", pdfstamp.Kind(nil))
	assert.Equal(t, pdfstamp.KindInternal, pdfstamp.Kind(errors.New("boom")))
	assert.Equal(t, pdfstamp.KindMalformedDocument, pdfstamp.Kind(pdfstamp.ErrMalformedDocument))
	assert.Equal(t, pdfstamp.KindPageOutOfBounds, pdfstamp.Kind(&pdfstamp.PageOutOfBoundsError{Page: 2, PageCount: 1}))

	wrapped := &pdfstamp.SignatureError{Index: 3, Type: pdfstamp.TypeImage, Err: pdfstamp.ErrImageDecode}
	assert.Equal(t, pdfstamp.KindImageDecodeError, pdfstamp.Kind(wrapped))
	assert.Equal(t, 3, pdfstamp.Position(wrapped))
	assert.Equal(t, 0, pdfstamp.Position(pdfstamp.ErrImageDecode))
	assert.Equal(t, "signature 3 (image): image decode error", wrapped.Error())
}
