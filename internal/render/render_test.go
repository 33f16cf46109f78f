package render_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/internal/testpdf"
)

type object struct {
	dict string
	body []byte
}

// recorder is an in-memory ObjectWriter.
type recorder struct {
	objects []object
}

func (r *recorder) AddObject(body []byte) (uint32, error) {
	r.objects = append(r.objects, object{body: body})
	return uint32(len(r.objects)), nil
}

func (r *recorder) AddStream(dict string, data []byte, compress bool) (uint32, error) {
	r.objects = append(r.objects, object{dict: dict, body: data})
	return uint32(len(r.objects)), nil
}

func TestRegisterImageJPEG(t *testing.T) {
	img, err := images.DecodeDataURL(testpdf.JPEGDataURL(30, 20))
	require.NoError(t, err)

	var w recorder
	id, err := render.RegisterImage(&w, img)
	require.NoError(t, err)
	require.Len(t, w.objects, 1)
	assert.Equal(t, uint32(1), id)

	obj := w.objects[0]
	assert.Contains(t, obj.dict, "/Filter /DCTDecode")
	assert.Contains(t, obj.dict, "/Width 30 /Height 20")
	assert.Contains(t, obj.dict, "/ColorSpace /DeviceRGB")
	assert.Equal(t, img.Data, obj.body)
}

func TestRegisterImagePNG(t *testing.T) {
	tests := []struct {
		name    string
		alpha   bool
		objects int
	}{
		{name: "opaque", alpha: false, objects: 1},
		{name: "transparent", alpha: true, objects: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := images.DecodeDataURL(testpdf.DataURL("image/png", testpdf.PNG(8, 4, tt.alpha)))
			require.NoError(t, err)

			var w recorder
			id, err := render.RegisterImage(&w, img)
			require.NoError(t, err)
			require.Len(t, w.objects, tt.objects)
			assert.Equal(t, uint32(tt.objects), id)

			main := w.objects[len(w.objects)-1]
			assert.Contains(t, main.dict, "/ColorSpace /DeviceRGB")
			assert.Len(t, main.body, 8*4*3)

			if tt.alpha {
				assert.Contains(t, main.dict, "/SMask 1 0 R")
				assert.Contains(t, w.objects[0].dict, "/ColorSpace /DeviceGray")
				assert.Len(t, w.objects[0].body, 8*4)
			} else {
				assert.NotContains(t, main.dict, "/SMask")
			}
		})
	}
}

func TestRegisterImageInvalid(t *testing.T) {
	var w recorder
	_, err := render.RegisterImage(&w, nil)
	assert.Error(t, err)
	assert.Empty(t, w.objects)
}

func TestRegisterFont(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		var w recorder
		_, err := render.RegisterFont(&w, fonts.Standard(fonts.TimesBold))
		require.NoError(t, err)
		require.Len(t, w.objects, 1)
		assert.Equal(t, "<< /Type /Font /Subtype /Type1 /BaseFont /Times-Bold /Encoding /WinAnsiEncoding >>", string(w.objects[0].body))
	})

	t.Run("truetype", func(t *testing.T) {
		res := fonts.Resolve("Go-Regular")
		require.False(t, res.Fallback)

		var w recorder
		id, err := render.RegisterFont(&w, res.Font)
		require.NoError(t, err)
		require.Len(t, w.objects, 3)
		assert.Equal(t, uint32(3), id)

		assert.Equal(t, res.Font.Data, w.objects[0].body)
		assert.Contains(t, w.objects[0].dict, fmt.Sprintf("/Length1 %d", len(res.Font.Data)))
		assert.Contains(t, string(w.objects[1].body), "/FontFile2 1 0 R")

		dict := string(w.objects[2].body)
		assert.Contains(t, dict, "/Subtype /TrueType /BaseFont /Go-Regular")
		assert.Contains(t, dict, "/FontDescriptor 2 0 R")
		widths := dict[strings.Index(dict, "/Widths [")+len("/Widths [") : strings.LastIndex(dict, "]")]
		assert.Len(t, strings.Fields(widths), 224)
	})
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		in       string
		want     []byte
		replaced int
	}{
		{in: "Jane Doe", want: []byte("Jane Doe")},
		{in: "Café €5", want: []byte{'C', 'a', 'f', 0xE9, ' ', 0x80, '5'}},
		{in: "日本", want: []byte("??"), replaced: 2},
		{in: "", want: []byte{}},
	}

	for _, tt := range tests {
		got, replaced := render.EncodeText(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.replaced, replaced, tt.in)
	}
}

func TestImageElementOps(t *testing.T) {
	e := render.ImageElement{Name: "StampIm1", X: 100, Y: 50.5, Width: 40, Height: 20}
	assert.Equal(t, "q 40 0 0 20 100 50.5 cm /StampIm1 Do Q\n", string(e.Ops()))
}

func TestTextElementOps(t *testing.T) {
	e := render.TextElement{
		Font:  "StampF1",
		Size:  12,
		Color: colors.RGB{R: 1},
		X:     100,
		Y:     700,
		Text:  []byte("Hi"),
	}
	assert.Equal(t, "q BT /StampF1 12 Tf 1 0 0 rg 100 700 Td <4869> Tj ET Q\n", string(e.Ops()))
}
