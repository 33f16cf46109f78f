package pdf_test

import (
	"bytes"
	"testing"

	pdflib "github.com/digitorus/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/testpdf"
)

func open(t *testing.T, data []byte) *pdflib.Reader {
	t.Helper()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func TestLocatePage(t *testing.T) {
	tests := []struct {
		name string
		opts testpdf.Options
		page int
		box  [4]float64
	}{
		{name: "letter", opts: testpdf.Options{Pages: 2}, page: 2, box: [4]float64{0, 0, 612, 792}},
		{name: "a4 inherited", opts: testpdf.Options{Pages: 3, Inherited: true, MediaBox: [4]float64{0, 0, 595, 842}}, page: 3, box: [4]float64{0, 0, 595, 842}},
		{name: "xref stream", opts: testpdf.Options{XrefStream: true}, page: 1, box: [4]float64{0, 0, 612, 792}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := open(t, testpdf.Build(tt.opts))
			p, err := pdf.LocatePage(r, tt.page)
			require.NoError(t, err)

			assert.Equal(t, tt.page, p.Number)
			assert.Equal(t, tt.box, p.MediaBox)
			assert.False(t, p.Ref.IsZero())
			assert.Equal(t, pdflib.Dict, p.Resources.Kind())
			assert.True(t, pdf.ResourceNames(p.Resources, pdf.CategoryFont)["F1"])
		})
	}
}

func TestLocatePageOutOfRange(t *testing.T) {
	r := open(t, testpdf.Build(testpdf.Options{Pages: 2}))

	for _, n := range []int{0, -1, 3} {
		_, err := pdf.LocatePage(r, n)
		var rangeErr *pdf.PageOutOfRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, n, rangeErr.Page)
		assert.Equal(t, 2, rangeErr.Count)
	}
}

func TestPageContains(t *testing.T) {
	p := &pdf.Page{MediaBox: [4]float64{0, 0, 612, 792}}
	assert.True(t, p.Contains(0, 0))
	assert.True(t, p.Contains(612, 792))
	assert.False(t, p.Contains(-1, 10))
	assert.False(t, p.Contains(100, 800))
	assert.Equal(t, 612.0, p.Width())
	assert.Equal(t, 792.0, p.Height())
}

func TestUniqueName(t *testing.T) {
	assert.Equal(t, "StampIm1", pdf.UniqueName("StampIm", nil))
	assert.Equal(t, "StampIm3", pdf.UniqueName("StampIm", map[string]bool{"StampIm1": true, "StampIm2": true}))
}

func TestWriteMergedResources(t *testing.T) {
	r := open(t, testpdf.Build(testpdf.Options{FontNames: []string{"StampF1"}}))
	p, err := pdf.LocatePage(r, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pdf.WriteMergedResources(&buf, p.Resources, pdf.CategoryFont, "StampF2", pdf.Ref{ID: 42}))
	out := buf.String()

	assert.Contains(t, out, "/ProcSet [/PDF /Text]")
	assert.Contains(t, out, "/F1 3 0 R")
	assert.Contains(t, out, "/StampF1 3 0 R")
	assert.Contains(t, out, "/StampF2 42 0 R")
}

func TestWriteMergedResourcesNewCategory(t *testing.T) {
	r := open(t, testpdf.Blank())
	p, err := pdf.LocatePage(r, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pdf.WriteMergedResources(&buf, p.Resources, pdf.CategoryXObject, "StampIm1", pdf.Ref{ID: 9}))
	out := buf.String()

	assert.Contains(t, out, "/XObject << /StampIm1 9 0 R >>")
	assert.Contains(t, out, "/Font <<")
}

func TestWriteSelfReference(t *testing.T) {
	r := open(t, testpdf.Build(testpdf.Options{SelfReference: true}))
	p, err := pdf.LocatePage(r, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = pdf.WriteMergedResources(&buf, p.Resources, pdf.CategoryFont, "StampF1", pdf.Ref{ID: 42})
	assert.ErrorIs(t, err, pdf.ErrNestingTooDeep)

	buf.Reset()
	err = pdf.WriteDictEntries(&buf, p.Value, p.Ref, "Resources")
	assert.ErrorIs(t, err, pdf.ErrNestingTooDeep)

	// The direct annotation itself is fine once the cycle is cut.
	buf.Reset()
	require.NoError(t, pdf.WriteValue(&buf, p.Value.Key("Annots").Index(0).Key("Rect"), p.Ref))
	assert.Equal(t, "[0 0 10 10]", buf.String())
}

func TestWriteValue(t *testing.T) {
	r := open(t, testpdf.Blank())
	p, err := pdf.LocatePage(r, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pdf.WriteDictEntries(&buf, p.Value, p.Ref, "Contents"))
	out := buf.String()
	assert.Contains(t, out, "/Parent 2 0 R")
	assert.Contains(t, out, "/MediaBox [0 0 612 792]")
	assert.Contains(t, out, "/Font << /F1 3 0 R >>")
	assert.NotContains(t, out, "/Contents")
}

func TestPageFonts(t *testing.T) {
	r := open(t, testpdf.Blank())
	p, err := pdf.LocatePage(r, 1)
	require.NoError(t, err)

	fonts := pdf.PageFonts(p)
	require.Len(t, fonts, 1)
	assert.Equal(t, "F1", fonts[0].Name)
	assert.Equal(t, "Helvetica", fonts[0].BaseFont)
	assert.Equal(t, uint32(3), fonts[0].Ref.ID)
}

func TestContentRefs(t *testing.T) {
	tests := []struct {
		name string
		opts testpdf.Options
		want int
	}{
		{name: "single", opts: testpdf.Options{}, want: 1},
		{name: "array", opts: testpdf.Options{ContentArray: true}, want: 1},
		{name: "none", opts: testpdf.Options{NoContent: true}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := open(t, testpdf.Build(tt.opts))
			p, err := pdf.LocatePage(r, 1)
			require.NoError(t, err)

			refs, err := pdf.ContentRefs(p)
			require.NoError(t, err)
			assert.Len(t, refs, tt.want)
			for _, ref := range refs {
				assert.NotEqual(t, p.Ref, ref)
			}
		})
	}
}

func TestReadContent(t *testing.T) {
	r := open(t, testpdf.Build(testpdf.Options{Pages: 2}))
	p, err := pdf.LocatePage(r, 2)
	require.NoError(t, err)

	content, err := pdf.ReadContent(p)
	require.NoError(t, err)
	assert.Contains(t, string(content), "(Page 2) Tj")
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		12:        "12",
		-3:        "-3",
		0.5:       "0.5",
		100.25:    "100.25",
		1.0 / 3.0: "0.3333",
		-0.00001:  "0",
	}
	for in, want := range tests {
		assert.Equal(t, want, pdf.FormatNumber(in), "FormatNumber(%v)", in)
	}
}

func TestWriteName(t *testing.T) {
	var buf bytes.Buffer
	pdf.WriteName(&buf, "A B#(c)")
	assert.Equal(t, "/A#20B#23#28c#29", buf.String())
}
