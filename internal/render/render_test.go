package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfsuite/internal/models"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		total   int
		want    []int
		wantErr bool
	}{
		{name: "empty selects all", spec: "", total: 3, want: []int{1, 2, 3}},
		{name: "all keyword", spec: "ALL", total: 2, want: []int{1, 2}},
		{name: "range", spec: "2-4", total: 5, want: []int{2, 3, 4}},
		{name: "range with spaces", spec: " 2 - 3 ", total: 5, want: []int{2, 3}},
		{name: "single page", spec: "5", total: 5, want: []int{5}},
		{name: "start below one", spec: "0-2", total: 5, wantErr: true},
		{name: "end beyond total", spec: "3-6", total: 5, wantErr: true},
		{name: "reversed", spec: "4-2", total: 5, wantErr: true},
		{name: "garbage", spec: "1,2", total: 5, wantErr: true},
		{name: "no pages", spec: "", total: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.spec, tt.total)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.IsKind(err, models.ErrorKindInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeScale(t *testing.T) {
	s, err := NormalizeScale(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultScale, s)

	s, err = NormalizeScale(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s)

	_, err = NormalizeScale(-1)
	assert.Error(t, err)
	_, err = NormalizeScale(MaxScale + 1)
	assert.Error(t, err)
}

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 100, Ht: 50},
	})
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(10, 20, "page")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestFitzRendererRendersPages(t *testing.T) {
	doc, err := NewFitzRenderer().Open(samplePDF(t, 2))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.PageCount())

	data, err := doc.RenderPNG(2, 2)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 200, img.Bounds().Dx(), 1)
	assert.InDelta(t, 100, img.Bounds().Dy(), 1)

	_, err = doc.RenderPNG(3, 1)
	assert.True(t, models.IsKind(err, models.ErrorKindInvalidInput))
}

func TestFitzRendererRejectsGarbage(t *testing.T) {
	_, err := NewFitzRenderer().Open(nil)
	assert.True(t, models.IsKind(err, models.ErrorKindInvalidInput))

	_, err = NewFitzRenderer().Open([]byte("not a pdf"))
	assert.Error(t, err)
}
