package views

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDatasetJob(t *testing.T) {
	meshPath := filepath.Join("data", "03001627", "abc123", "models", "model_normalized.obj")
	job, err := NewDatasetJob(meshPath, "/out", 30)
	require.NoError(t, err)
	require.Equal(t, "abc123", job.ModelID)
	require.Equal(t, "03001627", job.ClassID)
	require.Equal(t, filepath.Join("/out", "03001627", "abc123"), job.OutputDir)
	require.Equal(t, filepath.Join("/out", "03001627", "abc123", "abc123_r_012"), job.ViewBase(1))

	_, err = NewDatasetJob(filepath.Join("models", "x.obj"), "/out", 30)
	require.Error(t, err)
}

func TestNewSingleJob(t *testing.T) {
	job, err := NewSingleJob(filepath.Join("meshes", "bunny.obj"), "/renders", 4)
	require.NoError(t, err)
	require.Equal(t, "bunny", job.ModelID)
	require.Empty(t, job.ClassID)
	require.Equal(t, filepath.Join("/renders", "bunny"), job.OutputDir)
}

func TestJobViewsRange(t *testing.T) {
	for _, n := range []int{0, -1, MaxViews + 1} {
		_, err := NewSingleJob("x.obj", "/out", n)
		require.Error(t, err, "views=%d", n)
	}
	_, err := NewSingleJob("x.obj", "/out", MaxViews)
	require.NoError(t, err)
}

func TestJobAngleLabels(t *testing.T) {
	job := &RenderJob{ModelID: "m", Views: 4}
	var labels []int
	for i := 0; i < job.Views; i++ {
		labels = append(labels, job.AngleLabel(i))
	}
	require.Equal(t, []int{0, 90, 180, 270}, labels)
	require.Equal(t, []float64{0, 90, 180, 270}, job.Angles())

	// Every view count must produce distinct, increasing labels.
	for n := 1; n <= MaxViews; n++ {
		job := &RenderJob{ModelID: "m", Views: n}
		prev := -1
		for i := 0; i < n; i++ {
			label := job.AngleLabel(i)
			if label <= prev || label >= 360 {
				t.Fatalf("views=%d: label %d after %d", n, label, prev)
			}
			prev = label
		}
	}

	job = &RenderJob{ModelID: "m", Views: 7}
	require.Equal(t, 51, job.AngleLabel(1))
	require.Equal(t, 102, job.AngleLabel(2))
}

func TestFindMeshes(t *testing.T) {
	root := t.TempDir()
	paths := []string{
		filepath.Join(root, "b", "models", "model.obj"),
		filepath.Join(root, "a", "models", "model.obj"),
		filepath.Join(root, "a", "models", "model.mtl"),
	}
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte{}, 0644))
	}
	found, err := FindMeshes(root)
	require.NoError(t, err)
	require.Equal(t, []string{paths[1], paths[0]}, found)

	_, err = FindMeshes(filepath.Join(root, "missing"))
	require.Error(t, err)
}

func TestDatasetMeshes(t *testing.T) {
	root := t.TempDir()
	mesh := filepath.Join(root, "03001627", "m1", "models", "model_normalized.obj")
	require.NoError(t, os.MkdirAll(filepath.Dir(mesh), 0755))
	require.NoError(t, os.WriteFile(mesh, []byte{}, 0644))

	found, err := DatasetMeshes(root, "Chair")
	require.NoError(t, err)
	require.Equal(t, []string{mesh}, found)

	_, err = DatasetMeshes(root, "NotACategory")
	require.Error(t, err)
}
