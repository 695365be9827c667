package views

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

type FileFormat int

const (
	FormatPNG FileFormat = iota
	FormatTIFF

	// FormatPFM is the high-dynamic-range format: 32-bit float samples with
	// no clamping, so raw depth and object indices survive unchanged.
	FormatPFM
)

// ParseFileFormat parses a case-insensitive format name.
func ParseFileFormat(name string) (FileFormat, error) {
	switch strings.ToUpper(name) {
	case "PNG":
		return FormatPNG, nil
	case "TIFF", "TIF":
		return FormatTIFF, nil
	case "PFM", "HDR":
		return FormatPFM, nil
	}
	return 0, fmt.Errorf("unknown file format: %s", name)
}

func (f FileFormat) String() string {
	switch f {
	case FormatPNG:
		return "PNG"
	case FormatTIFF:
		return "TIFF"
	case FormatPFM:
		return "PFM"
	}
	return fmt.Sprintf("FileFormat(%d)", int(f))
}

// Ext is the file extension, including the leading dot.
func (f FileFormat) Ext() string {
	switch f {
	case FormatTIFF:
		return ".tiff"
	case FormatPFM:
		return ".pfm"
	default:
		return ".png"
	}
}

// HDR reports whether samples are stored without clamping.
func (f FileFormat) HDR() bool {
	return f == FormatPFM
}

type ColorMode int

const (
	ModeBW ColorMode = iota
	ModeRGB
	ModeRGBA
)

// An OutputFormat is the encoding of one output node.
type OutputFormat struct {
	File  FileFormat
	Depth int
	Mode  ColorMode
}

// A Sample is a straight (non-premultiplied) RGBA value.
type Sample [4]float64

// Luminance computes the Rec. 709 luma of the sample's color.
func (s Sample) Luminance() float64 {
	return 0.2126*s[0] + 0.7152*s[1] + 0.0722*s[2]
}

// A Plane is a width x height grid of samples in row-major order, with
// row zero at the top of the image.
type Plane struct {
	Width  int
	Height int
	Data   []Sample
}

func newPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Data: make([]Sample, width*height)}
}

func (p *Plane) At(x, y int) Sample {
	return p.Data[x+y*p.Width]
}

func (p *Plane) Set(x, y int, s Sample) {
	p.Data[x+y*p.Width] = s
}

// WriteImage encodes the plane to a path. The path should already carry the
// extension for f.File.
func WriteImage(path string, f OutputFormat, p *Plane) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write image")
	}
	defer w.Close()
	if err := EncodeImage(w, f, p); err != nil {
		return errors.Wrap(err, "write image "+path)
	}
	return w.Close()
}

// EncodeImage encodes the plane in the given output format.
func EncodeImage(w io.Writer, f OutputFormat, p *Plane) error {
	switch f.File {
	case FormatPFM:
		return encodePFM(w, f.Mode, p)
	case FormatTIFF:
		return tiff.Encode(w, planeImage(f, p), &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, planeImage(f, p))
	}
}

func planeImage(f OutputFormat, p *Plane) image.Image {
	bounds := image.Rect(0, 0, p.Width, p.Height)
	if f.Depth == 16 {
		if f.Mode == ModeBW {
			img := image.NewGray16(bounds)
			for i, s := range p.Data {
				img.SetGray16(i%p.Width, i/p.Width, color.Gray16{Y: quantize16(s[0])})
			}
			return img
		}
		img := image.NewNRGBA64(bounds)
		for i, s := range p.Data {
			a := uint16(0xffff)
			if f.Mode == ModeRGBA {
				a = quantize16(s[3])
			}
			img.SetNRGBA64(i%p.Width, i/p.Width, color.NRGBA64{
				R: quantize16(s[0]),
				G: quantize16(s[1]),
				B: quantize16(s[2]),
				A: a,
			})
		}
		return img
	}
	if f.Mode == ModeBW {
		img := image.NewGray(bounds)
		for i, s := range p.Data {
			img.SetGray(i%p.Width, i/p.Width, color.Gray{Y: quantize8(s[0])})
		}
		return img
	}
	img := image.NewNRGBA(bounds)
	for i, s := range p.Data {
		a := uint8(0xff)
		if f.Mode == ModeRGBA {
			a = quantize8(s[3])
		}
		img.SetNRGBA(i%p.Width, i/p.Width, color.NRGBA{
			R: quantize8(s[0]),
			G: quantize8(s[1]),
			B: quantize8(s[2]),
			A: a,
		})
	}
	return img
}

func quantize8(x float64) uint8 {
	return uint8(math.Round(clamp(x, 0, 1) * 0xff))
}

func quantize16(x float64) uint16 {
	return uint16(math.Round(clamp(x, 0, 1) * 0xffff))
}

// encodePFM writes a portable float map. Rows are stored bottom to top and
// the negative scale marks little-endian samples. Alpha is not stored.
func encodePFM(w io.Writer, mode ColorMode, p *Plane) error {
	bw := bufio.NewWriter(w)
	magic := "PF"
	if mode == ModeBW {
		magic = "Pf"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n-1.0\n", magic, p.Width, p.Height); err != nil {
		return err
	}
	channels := 3
	if mode == ModeBW {
		channels = 1
	}
	row := make([]float32, p.Width*channels)
	for y := p.Height - 1; y >= 0; y-- {
		for x := 0; x < p.Width; x++ {
			s := p.At(x, y)
			for c := 0; c < channels; c++ {
				row[x*channels+c] = float32(s[c])
			}
		}
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodePFM reads the output of a PFM encode. Grayscale maps are expanded
// into the first channel of each sample, and alpha is set to 1.
func DecodePFM(r io.Reader) (*Plane, error) {
	br := bufio.NewReader(r)
	var magic string
	var width, height int
	var scale float64
	if _, err := fmt.Fscan(br, &magic, &width, &height, &scale); err != nil {
		return nil, errors.Wrap(err, "decode pfm")
	}
	// Exactly one whitespace byte separates the header from the samples.
	if _, err := br.ReadByte(); err != nil {
		return nil, errors.Wrap(err, "decode pfm")
	}
	var channels int
	switch magic {
	case "PF":
		channels = 3
	case "Pf":
		channels = 1
	default:
		return nil, fmt.Errorf("decode pfm: unknown magic %q", magic)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if scale > 0 {
		order = binary.BigEndian
	}
	p := newPlane(width, height)
	row := make([]float32, width*channels)
	for y := height - 1; y >= 0; y-- {
		if err := binary.Read(br, order, row); err != nil {
			return nil, errors.Wrap(err, "decode pfm")
		}
		for x := 0; x < width; x++ {
			var s Sample
			for c := 0; c < channels; c++ {
				s[c] = float64(row[x*channels+c])
			}
			s[3] = 1
			p.Set(x, y, s)
		}
	}
	return p, nil
}
