package debug

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 2, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	return img
}

func TestParseImageFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ImageFormat
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"BMP", FormatBMP, false},
		{"shots/frame.PNG", FormatPNG, false},
		{"frame.bmp", FormatBMP, false},
		{"frame.jpg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImageFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownImageFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeFormats(t *testing.T) {
	img := testImage()

	var pngBuf bytes.Buffer
	require.NoError(t, Encode(&pngBuf, img, FormatPNG))
	decoded, err := png.Decode(&pngBuf)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(1, 2).RGBA()
	assert.Equal(t, []uint32{200, 10, 30}, []uint32{r >> 8, g >> 8, b >> 8})

	var bmpBuf bytes.Buffer
	require.NoError(t, Encode(&bmpBuf, img, FormatBMP))
	decoded, err = bmp.Decode(&bmpBuf)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	assert.ErrorIs(t, Encode(&bytes.Buffer{}, img, "gif"), ErrUnknownImageFormat)
}

func TestScreenshotCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "meshview", FormatBMP)
	sc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	assert.Equal(t, filepath.Join(dir, "meshview_2024-05-06_07-08-09.bmp"), sc.GenerateFilename())

	path, err := sc.CaptureFromImage(testImage())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BM", string(data[:2]))
}

func TestScreenshotDefaultsToPNG(t *testing.T) {
	sc := NewScreenshotCapture("", "shot", "")
	assert.Equal(t, FormatPNG, sc.Format())
	assert.Equal(t, ".png", filepath.Ext(sc.GenerateFilename()))
}

func TestBoxEdges(t *testing.T) {
	box := scene.Box3{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 2, 3}}
	edges := BoxEdges(box, 0.5)
	require.Len(t, edges, 12)
	for _, e := range edges {
		d := e[1].Sub(e[0])
		nonZero := 0
		for i := 0; i < 3; i++ {
			if d[i] != 0 {
				nonZero++
				assert.Greater(t, d[i], float32(0))
			}
		}
		assert.Equal(t, 1, nonZero, "edges are axis aligned")
		assert.GreaterOrEqual(t, e[0].X(), float32(-0.5))
		assert.LessOrEqual(t, e[1].Z(), float32(3.5))
	}

	assert.Nil(t, BoxEdges(scene.EmptyBox(), 0))
}

func TestGroundGrid(t *testing.T) {
	lines := GroundGrid(10, 4)
	require.Len(t, lines, 10)
	for _, l := range lines {
		assert.Zero(t, l[0].Y())
		assert.InDelta(t, 10, l[1].Sub(l[0]).Len(), 1e-5)
	}
	assert.Nil(t, GroundGrid(10, 0))
}
