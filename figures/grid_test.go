package figures

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"git.sr.ht/~sbinet/gg"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/shape-views/views"
)

func TestNewGridLayout(t *testing.T) {
	cases := []struct {
		n, rows, cols, unused int
	}{
		{0, 1, 1, 0},
		{1, 2, 1, 0},
		{2, 2, 2, 1},
		{3, 2, 3, 2},
		{4, 3, 2, 1},
		{5, 2, 3, 0},
		{8, 3, 4, 3},
		{9, 4, 3, 2},
	}
	for _, c := range cases {
		layout := NewGridLayout(c.n)
		require.Equal(t, c.rows, layout.Rows, "n=%d", c.n)
		require.Equal(t, c.cols, layout.Cols, "n=%d", c.n)
		if c.n > 0 {
			require.Equal(t, c.unused, layout.Unused(), "n=%d", c.n)
		}
		require.GreaterOrEqual(t, layout.Cells(), c.n+1)
	}

	layout := NewGridLayout(5)
	row, col := layout.ImageCell(0)
	require.Equal(t, [2]int{0, 1}, [2]int{row, col})
	row, col = layout.ImageCell(4)
	require.Equal(t, [2]int{1, 2}, [2]int{row, col})
}

func TestListViewImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"m_r_090.png", "m_r_000.png", "m_r_000_depth.png",
		"m_r_000_normal.png", "m_r_000_albedo.png", "m_r_000_id.png", "transforms.json",
		"m_r_000.pfm", "notes.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x_r_000.png"), 0755))

	paths, err := ListViewImages(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "m_r_000.png"),
		filepath.Join(dir, "m_r_090.png"),
	}, paths)

	paths, err = ListViewImages(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestModelIDFromPath(t *testing.T) {
	datasetPath := filepath.Join("data", "03001627", "abc123", "models", "model_normalized.obj")
	require.Equal(t, "abc123", ModelIDFromPath(datasetPath))
	require.Equal(t, "bunny", ModelIDFromPath(filepath.Join("meshes", "bunny.obj")))
	require.Equal(t, "chair", ModelIDFromPath("chair.obj"))
}

func TestModelRendersAfterRender(t *testing.T) {
	s := views.DefaultSettings()
	s.Views = 4
	s.Resolution = 6
	s.Samples = 1
	o, err := views.NewOrchestrator(s, log.New(io.Discard))
	require.NoError(t, err)

	root := t.TempDir()
	meshPath := filepath.Join("meshes", "cube.obj")
	job, err := views.NewSingleJob(meshPath, root, s.Views)
	require.NoError(t, err)
	cube := views.NewObject("cube", model3d.NewMeshRect(model3d.XYZ(-0.2, -0.2, -0.2),
		model3d.XYZ(0.2, 0.2, 0.2)))
	_, err = o.RenderObject(job, cube)
	require.NoError(t, err)

	entries, err := os.ReadDir(job.OutputDir)
	require.NoError(t, err)
	require.Greater(t, len(entries), 4, "channel images are written next to the views")

	modelID := ModelIDFromPath(meshPath)
	require.Equal(t, job.ModelID, modelID)
	paths, err := ModelRenders(root, modelID)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(job.OutputDir, "cube_r_000.png"),
		filepath.Join(job.OutputDir, "cube_r_090.png"),
		filepath.Join(job.OutputDir, "cube_r_180.png"),
		filepath.Join(job.OutputDir, "cube_r_270.png"),
	}, paths)

	fig, err := LoadGridFigure([]string{"a cube"}, paths, 16)
	require.NoError(t, err)
	require.Equal(t, 4, fig.Layout.Images)
}

func TestGridFigureRender(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 10, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			red.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	fig := NewGridFigure([]string{"a red chair", "four legs"}, []image.Image{red, red, red}, 40)
	require.Equal(t, "\"a red chair\"\n\"four legs\"", fig.CaptionText())

	img, err := fig.Render()
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())

	// Image 0 sits in row 0, column 1.
	r, g, b, _ := img.At(60, 20).RGBA()
	require.Greater(t, r, uint32(0xf000))
	require.Less(t, g, uint32(0x1000))
	require.Less(t, b, uint32(0x1000))

	// The last cell is unused.
	r, g, b, _ = img.At(100, 60).RGBA()
	require.Zero(t, r+g+b)

	var textPixels int
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0x8000 {
				textPixels++
			}
		}
	}
	require.Greater(t, textPixels, 0)
}

func TestGridFigureSave(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 2; i++ {
		img := image.NewGray(image.Rect(0, 0, 16, 16))
		path := filepath.Join(dir, []string{"a.png", "b.png"}[i])
		require.NoError(t, gg.SavePNG(path, img))
		paths = append(paths, path)
	}
	fig, err := LoadGridFigure([]string{"caption"}, paths, 32)
	require.NoError(t, err)
	out := filepath.Join(dir, GridFileName)
	require.NoError(t, fig.Save(out))

	img, err := gg.LoadImage(out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	_, err = LoadGridFigure(nil, []string{filepath.Join(dir, "missing.png")}, 32)
	require.Error(t, err)
}
