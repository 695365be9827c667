package views

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// MaxViews is the largest supported view count. Beyond this, the truncated
// three-digit degree labels of consecutive views would collide.
const MaxViews = 360

// A RenderJob describes the orbit renders of a single mesh.
type RenderJob struct {
	MeshPath  string
	OutputDir string

	// ModelID names the output files.
	ModelID string

	// ClassID is the dataset category directory, or "" for single meshes.
	ClassID string

	Views int
}

// NewSingleJob creates a job for a mesh outside of a dataset tree.
// Outputs go to <outputRoot>/<model>/, where the model identifier is the
// file name without its extension.
func NewSingleJob(meshPath, outputRoot string, views int) (*RenderJob, error) {
	if err := checkViews(views); err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, errors.Wrap(err, "new single job")
	}
	base := filepath.Base(meshPath)
	modelID := strings.TrimSuffix(base, filepath.Ext(base))
	return &RenderJob{
		MeshPath:  meshPath,
		OutputDir: filepath.Join(absRoot, modelID),
		ModelID:   modelID,
		Views:     views,
	}, nil
}

// NewDatasetJob creates a job for a mesh laid out as
// <class>/<model>/<dir>/<file>.obj, which is the ShapeNetCore layout.
// Outputs go to <outputRoot>/<class>/<model>/.
func NewDatasetJob(meshPath, outputRoot string, views int) (*RenderJob, error) {
	if err := checkViews(views); err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, errors.Wrap(err, "new dataset job")
	}
	parts := strings.Split(filepath.Clean(meshPath), string(filepath.Separator))
	if len(parts) < 4 {
		return nil, fmt.Errorf("new dataset job: path %q is too shallow for a dataset layout",
			meshPath)
	}
	modelID := parts[len(parts)-3]
	classID := parts[len(parts)-4]
	return &RenderJob{
		MeshPath:  meshPath,
		OutputDir: filepath.Join(absRoot, classID, modelID),
		ModelID:   modelID,
		ClassID:   classID,
		Views:     views,
	}, nil
}

func checkViews(views int) error {
	if views < 1 || views > MaxViews {
		return fmt.Errorf("view count must be in [1, %d] but got %d", MaxViews, views)
	}
	return nil
}

// Step is the rotation between consecutive views, in degrees.
func (r *RenderJob) Step() float64 {
	return 360.0 / float64(r.Views)
}

// AngleLabel is the integer degree label of view i, i.e. floor(i*step).
func (r *RenderJob) AngleLabel(i int) int {
	return i * 360 / r.Views
}

// Angles returns the rotation of every view in degrees, in render order.
func (r *RenderJob) Angles() []float64 {
	res := make([]float64, r.Views)
	for i := range res {
		res[i] = float64(i) * r.Step()
	}
	return res
}

// ViewBase is the output path of view i, without channel suffix or
// extension.
func (r *RenderJob) ViewBase(i int) string {
	name := fmt.Sprintf("%s_r_%03d", r.ModelID, r.AngleLabel(i))
	return filepath.Join(r.OutputDir, name)
}

// DatasetMeshes lists every .obj file under the category directory of a
// dataset root, in lexical order.
func DatasetMeshes(dataRoot, category string) ([]string, error) {
	synset, ok := CategorySynset(category)
	if !ok {
		return nil, fmt.Errorf("dataset meshes: unknown category %q", category)
	}
	return FindMeshes(filepath.Join(dataRoot, synset))
}

// FindMeshes recursively lists .obj files under root, in lexical order.
func FindMeshes(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".obj") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "find meshes")
	}
	return paths, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return nil
}
