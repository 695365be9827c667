// Package figures composes dataset inspection images.
package figures

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/anthonynsimon/bild/transform"
	"github.com/pkg/errors"
)

// GridFileName is the file written by SaveGrid in an output folder.
const GridFileName = "output_renderings.png"

// A GridLayout arranges a caption panel followed by n images in a
// row-major grid. Cell 0 holds the captions and image i goes in cell i+1.
type GridLayout struct {
	Rows   int
	Cols   int
	Images int
}

// NewGridLayout uses floor(sqrt(n)) rows and ceil(n/rows) columns, adding
// rows when the caption panel would push the last image out of the grid.
func NewGridLayout(n int) GridLayout {
	if n <= 0 {
		return GridLayout{Rows: 1, Cols: 1}
	}
	rows := int(math.Sqrt(float64(n)))
	cols := (n + rows - 1) / rows
	for rows*cols < n+1 {
		rows++
	}
	return GridLayout{Rows: rows, Cols: cols, Images: n}
}

// Cells is the total number of grid cells.
func (g GridLayout) Cells() int {
	return g.Rows * g.Cols
}

// Unused is the number of trailing cells left blank.
func (g GridLayout) Unused() int {
	return g.Cells() - g.Images - 1
}

// Cell returns the row and column of cell i.
func (g GridLayout) Cell(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// ImageCell returns the row and column of image i.
func (g GridLayout) ImageCell(i int) (row, col int) {
	return g.Cell(i + 1)
}

var viewImageExpr = regexp.MustCompile(`_r_\d{3}\.png$`)

// ModelIDFromPath finds the model identifier of a mesh path: the directory
// above "models" in the dataset layout, and the file name without its
// extension otherwise.
func ModelIDFromPath(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == "models" {
		return filepath.Base(filepath.Dir(dir))
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ModelRenders lists the color views of a model, which live in a
// directory named after the model inside rendersFolder.
func ModelRenders(rendersFolder, modelID string) ([]string, error) {
	return ListViewImages(filepath.Join(rendersFolder, modelID))
}

// ListViewImages returns the color views (<id>_r_<degrees>.png) directly
// inside dir, sorted by name. Channel images such as depth or normal maps
// are skipped. A missing directory yields no images.
func ListViewImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "list view images")
	}
	var res []string
	for _, e := range entries {
		if !e.IsDir() && viewImageExpr.MatchString(e.Name()) {
			res = append(res, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(res)
	return res, nil
}

// A GridFigure is a caption panel followed by images.
type GridFigure struct {
	Layout   GridLayout
	Captions []string
	Images   []image.Image

	// CellSize is the side length of a square cell in pixels.
	CellSize int

	Background color.Color
	TextColor  color.Color
	FontSize   float64
}

// NewGridFigure creates a figure with a dark background.
func NewGridFigure(captions []string, images []image.Image, cellSize int) *GridFigure {
	return &GridFigure{
		Layout:     NewGridLayout(len(images)),
		Captions:   captions,
		Images:     images,
		CellSize:   cellSize,
		Background: color.Black,
		TextColor:  color.White,
		FontSize:   math.Max(10, float64(cellSize)/20),
	}
}

// LoadGridFigure reads every image path to build a figure.
func LoadGridFigure(captions, imagePaths []string, cellSize int) (*GridFigure, error) {
	images := make([]image.Image, len(imagePaths))
	for i, path := range imagePaths {
		img, err := gg.LoadImage(path)
		if err != nil {
			return nil, errors.Wrap(err, "load grid image "+path)
		}
		images[i] = img
	}
	return NewGridFigure(captions, images, cellSize), nil
}

// CaptionText quotes every caption on its own line.
func (g *GridFigure) CaptionText() string {
	quoted := make([]string, len(g.Captions))
	for i, c := range g.Captions {
		quoted[i] = "\"" + c + "\""
	}
	return strings.Join(quoted, "\n")
}

// Render draws the figure.
func (g *GridFigure) Render() (image.Image, error) {
	size := g.CellSize
	dc := gg.NewContext(g.Layout.Cols*size, g.Layout.Rows*size)
	dc.SetColor(g.Background)
	dc.Clear()

	face, err := newFace(g.FontSize)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.SetColor(g.TextColor)
	margin := float64(size) * 0.1
	textWidth := float64(size) - 2*margin
	dc.DrawStringWrapped(g.CaptionText(), margin, float64(size)/2, 0, 0.5, textWidth, 1.3,
		gg.AlignLeft)

	for i, img := range g.Images {
		row, col := g.Layout.ImageCell(i)
		thumb := fitImage(img, size)
		cx := col*size + size/2
		cy := row*size + size/2
		dc.DrawImageAnchored(thumb, cx, cy, 0.5, 0.5)
	}
	return dc.Image(), nil
}

// Save renders the figure as a PNG.
func (g *GridFigure) Save(path string) error {
	img, err := g.Render()
	if err != nil {
		return errors.Wrap(err, "save grid")
	}
	if err := gg.SavePNG(path, img); err != nil {
		return errors.Wrap(err, "save grid")
	}
	return nil
}

// fitImage scales img to fit in a size x size square, keeping its aspect
// ratio.
func fitImage(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}
	scale := float64(size) / float64(w)
	if hs := float64(size) / float64(h); hs < scale {
		scale = hs
	}
	nw := int(math.Max(1, math.Round(float64(w)*scale)))
	nh := int(math.Max(1, math.Round(float64(h)*scale)))
	if nw == w && nh == h {
		return img
	}
	return transform.Resize(img, nw, nh, transform.Linear)
}
