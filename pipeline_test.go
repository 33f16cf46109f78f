package pdfstamp_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/internal/testpdf"
)

func TestApplySignatures(t *testing.T) {
	input := testpdf.Build(testpdf.Options{Pages: 2})
	s, logs := newStamper(t, pdfstamp.Options{})

	out, err := s.ApplySignatures(context.Background(), input, []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeText, Data: "Jane Doe", X: 100, Y: 700, Page: 1},
		{Type: pdfstamp.TypeImage, Data: testpdf.PNGDataURL(200, 100), X: 100, Y: 600, Page: 1},
		{Type: "TEXT", Data: "Page two", X: 50, Y: 50, Page: 2, Font: "Courier", FontSize: 10, Color: "0000FF"},
	})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	first := content(t, out, 1)
	assert.Contains(t, first, "<4a616e6520446f65> Tj")
	assert.Contains(t, first, "q 40 0 0 20 100 600 cm /StampIm1 Do Q")
	assert.Less(t, strings.Index(first, "Tj ET Q"), strings.Index(first, "/StampIm1 Do"), "requests are applied in order")

	second := content(t, out, 2)
	assert.Contains(t, second, "/StampF1 10 Tf 0 0 1 rg 50 50 Td")

	info, err := pdfstamp.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Revisions, "one update per request")
}

func TestApplySignaturesEqualsSequentialCalls(t *testing.T) {
	input := testpdf.Blank()
	url := testpdf.JPEGDataURL(40, 40)
	ctx := context.Background()

	batch, err := pdfstamp.ApplySignatures(ctx, input, []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeImage, Data: url, X: 10, Y: 10, Page: 1},
		{Type: pdfstamp.TypeText, Data: "Jane Doe", X: 10, Y: 100, Page: 1},
	})
	require.NoError(t, err)

	step, err := pdfstamp.ApplyImageSignature(ctx, input, url, 10, 10, 1)
	require.NoError(t, err)
	step, err = pdfstamp.ApplyTextSignature(ctx, step, "Jane Doe", 10, 100, 1, pdfstamp.TextStyle{})
	require.NoError(t, err)

	assert.Equal(t, step, batch)
}

func TestApplySignaturesEmpty(t *testing.T) {
	for _, reqs := range [][]pdfstamp.SignatureRequest{nil, {}} {
		out, err := pdfstamp.ApplySignatures(context.Background(), testpdf.Blank(), reqs)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, pdfstamp.ErrNoSignaturesProvided)
		assert.Equal(t, pdfstamp.KindNoSignaturesProvided, pdfstamp.Kind(err))
	}
}

func TestApplySignaturesAbortsOnFailure(t *testing.T) {
	out, err := pdfstamp.ApplySignatures(context.Background(), testpdf.Blank(), []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeText, Data: "ok", X: 10, Y: 10, Page: 1},
		{Type: pdfstamp.TypeText, Data: "bad page", X: 10, Y: 10, Page: 5},
		{Type: pdfstamp.TypeText, Data: "never", X: 10, Y: 10, Page: 1},
	})
	assert.Nil(t, out, "partial output is discarded")

	var sigErr *pdfstamp.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, 2, sigErr.Index)
	assert.Equal(t, pdfstamp.TypeText, sigErr.Type)
	assert.ErrorIs(t, err, pdfstamp.ErrPageOutOfBounds)
	assert.Equal(t, pdfstamp.KindPageOutOfBounds, pdfstamp.Kind(err))
	assert.Equal(t, 2, pdfstamp.Position(err))

	var pageErr *pdfstamp.PageOutOfBoundsError
	require.True(t, errors.As(err, &pageErr))
	assert.Equal(t, 1, pageErr.PageCount)
}

func TestApplySignaturesImageDecodeFailure(t *testing.T) {
	_, err := pdfstamp.ApplySignatures(context.Background(), testpdf.Blank(), []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeImage, Data: "data:image/bmp;base64,Qk0=", Page: 1},
	})
	assert.ErrorIs(t, err, pdfstamp.ErrUnsupportedImageFormat)
	assert.Equal(t, 1, pdfstamp.Position(err))
}

func TestApplySignaturesSkipsUnknownTypes(t *testing.T) {
	s, logs := newStamper(t, pdfstamp.Options{})

	out, err := s.ApplySignatures(context.Background(), testpdf.Blank(), []pdfstamp.SignatureRequest{
		{Type: "stamp", Data: "x", Page: 1},
		{Type: pdfstamp.TypeText, Data: "Jane Doe", X: 10, Y: 10, Page: 1},
	})
	require.NoError(t, err)
	assert.Contains(t, content(t, out, 1), "<4a616e6520446f65> Tj")

	entries := logs.FilterMessage("skipping signature of unknown type").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["index"])
	assert.Equal(t, "stamp", entries[0].ContextMap()["type"])
}

func TestApplySignaturesAllSkipped(t *testing.T) {
	s, logs := newStamper(t, pdfstamp.Options{})

	out, err := s.ApplySignatures(context.Background(), testpdf.Blank(), []pdfstamp.SignatureRequest{
		{Type: "", Data: "x", Page: 1},
		{Type: "signature", Data: "y", Page: 1},
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, pdfstamp.ErrNoSignaturesProvided)
	assert.Equal(t, 2, logs.Len())
}

func TestApplySignaturesRejectUnknownTypes(t *testing.T) {
	s, _ := newStamper(t, pdfstamp.Options{RejectUnknownTypes: true})

	_, err := s.ApplySignatures(context.Background(), testpdf.Blank(), []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeText, Data: "ok", Page: 1},
		{Type: "stamp", Data: "x", Page: 1},
	})
	assert.ErrorIs(t, err, pdfstamp.ErrUnknownSignatureType)
	assert.Equal(t, pdfstamp.KindUnknownSignatureType, pdfstamp.Kind(err))
	assert.Equal(t, 2, pdfstamp.Position(err))
}

func TestApplySignaturesCancelledBetweenRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The skip warning of the second request cancels the context, so the
	// batch stops before the third.
	core, _ := observer.New(zapcore.WarnLevel)
	logger := zap.New(core, zap.Hooks(func(zapcore.Entry) error {
		cancel()
		return nil
	}))
	s, err := pdfstamp.New(pdfstamp.Options{Logger: logger})
	require.NoError(t, err)

	input := testpdf.Blank()
	out, err := s.ApplySignatures(ctx, input, []pdfstamp.SignatureRequest{
		{Type: pdfstamp.TypeText, Data: "first", X: 10, Y: 10, Page: 1},
		{Type: "unknown", Page: 1},
		{Type: pdfstamp.TypeText, Data: "third", X: 10, Y: 30, Page: 1},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out, "output of the last completed request is returned")

	want, err := pdfstamp.ApplyTextSignature(context.Background(), input, "first", 10, 10, 1, pdfstamp.TextStyle{})
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestApplySignaturesDoesNotMutateRequests(t *testing.T) {
	reqs := []pdfstamp.SignatureRequest{
		{Type: "Text", Data: "Jane Doe", X: 10, Y: 10, Page: 1},
	}
	before := append([]pdfstamp.SignatureRequest(nil), reqs...)

	_, err := pdfstamp.ApplySignatures(context.Background(), testpdf.Blank(), reqs)
	require.NoError(t, err)
	assert.Equal(t, before, reqs)
}
