package views

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func testPlane() *Plane {
	p := newPlane(3, 2)
	for i := range p.Data {
		v := float64(i) / 5
		p.Data[i] = Sample{v, 1 - v, 0.25, 0.5}
	}
	return p
}

func TestParseFileFormat(t *testing.T) {
	for name, expected := range map[string]FileFormat{
		"PNG":  FormatPNG,
		"tiff": FormatTIFF,
		"TIF":  FormatTIFF,
		"pfm":  FormatPFM,
		"HDR":  FormatPFM,
	} {
		actual, err := ParseFileFormat(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, actual, name)
	}
	_, err := ParseFileFormat("JPEG")
	require.Error(t, err)
	require.True(t, FormatPFM.HDR())
	require.False(t, FormatPNG.HDR())
}

func TestEncodePNGDepth(t *testing.T) {
	p := testPlane()

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, OutputFormat{File: FormatPNG, Depth: 16, Mode: ModeRGBA}, p))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	_, ok := img.(*image.NRGBA64)
	require.True(t, ok, "expected 16-bit image but got %T", img)
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	buf.Reset()
	require.NoError(t, EncodeImage(&buf, OutputFormat{File: FormatPNG, Depth: 8, Mode: ModeBW}, p))
	img, err = png.Decode(&buf)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "expected gray image but got %T", img)
	require.Equal(t, uint8(51), gray.GrayAt(1, 0).Y)
}

func TestEncodeTIFF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, OutputFormat{File: FormatTIFF, Depth: 8, Mode: ModeRGBA},
		testPlane()))
	img, err := tiff.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestPFMRoundTrip(t *testing.T) {
	p := testPlane()
	p.Data[0] = Sample{BackgroundDepth, 2.5, -1, 1}

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, OutputFormat{File: FormatPFM, Mode: ModeRGB}, p))
	decoded, err := DecodePFM(&buf)
	require.NoError(t, err)
	require.Equal(t, p.Width, decoded.Width)
	require.Equal(t, p.Height, decoded.Height)
	for i, s := range p.Data {
		for c := 0; c < 3; c++ {
			require.InDelta(t, s[c], decoded.Data[i][c], 1e-6*math.Max(1, math.Abs(s[c])),
				"sample %d channel %d", i, c)
		}
	}

	buf.Reset()
	require.NoError(t, EncodeImage(&buf, OutputFormat{File: FormatPFM, Mode: ModeBW}, p))
	decoded, err = DecodePFM(&buf)
	require.NoError(t, err)
	require.Equal(t, float64(float32(p.At(2, 1)[0])), decoded.At(2, 1)[0])
	require.Zero(t, decoded.At(2, 1)[1])
}
