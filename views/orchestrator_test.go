package views

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"gopkg.in/yaml.v3"
)

func testSettings() *Settings {
	s := DefaultSettings()
	s.Views = 4
	s.Resolution = 6
	s.Samples = 1
	return s
}

func testOrchestrator(t *testing.T, s *Settings) *Orchestrator {
	o, err := NewOrchestrator(s, log.New(io.Discard))
	require.NoError(t, err)
	return o
}

func listFiles(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestNewOrchestratorSetup(t *testing.T) {
	o := testOrchestrator(t, testSettings())
	require.Len(t, o.Scene.Lights, 2)
	require.Empty(t, o.Scene.Objects)
	require.Equal(t, o.Rig.Camera, o.Scene.Camera)
	require.Equal(t, 35.0, o.Rig.Camera.Lens)

	s := testSettings()
	s.Samples = 0
	_, err := NewOrchestrator(s, nil)
	require.Error(t, err)
}

func TestRenderObjectViews(t *testing.T) {
	s := testSettings()
	s.Channels = nil
	o := testOrchestrator(t, s)

	dir := t.TempDir()
	job, err := NewSingleJob("cube.obj", dir, 4)
	require.NoError(t, err)
	cube := NewObject("cube", model3d.NewMeshRect(model3d.XYZ(-0.2, -0.2, -0.2),
		model3d.XYZ(0.2, 0.2, 0.2)))

	result, err := o.RenderObject(job, cube)
	require.NoError(t, err)
	require.Len(t, result.Views, 4)
	require.Equal(t, []string{
		"cube_r_000.png",
		"cube_r_090.png",
		"cube_r_180.png",
		"cube_r_270.png",
		TransformsFile,
	}, listFiles(t, job.OutputDir))
	require.Empty(t, o.Scene.Objects, "the object is removed after its views")

	// The pivot completes a full turn, so each view sees the camera on a
	// different side.
	require.InDelta(t, 0, result.Views[0].Origin.Dist(model3d.XYZ(0, 1, 0.6)), 1e-8)
	require.InDelta(t, 0, result.Views[2].Origin.Dist(model3d.XYZ(0, -1, 0.6)), 1e-8)

	data, err := os.ReadFile(filepath.Join(job.OutputDir, TransformsFile))
	require.NoError(t, err)
	var views []ViewTransform
	require.NoError(t, json.Unmarshal(data, &views))
	require.Len(t, views, 4)
	require.Equal(t, 270.0, views[3].Angle)

	// Rendering again starts from the initial angle.
	second, err := o.RenderObject(job, cube)
	require.NoError(t, err)
	require.Equal(t, result.Views[0].Origin, second.Views[0].Origin)
}

func TestRunDataset(t *testing.T) {
	dataRoot := t.TempDir()
	var paths []string
	for _, model := range []string{"m1", "m2"} {
		dir := filepath.Join(dataRoot, "03001627", model, "models")
		require.NoError(t, os.MkdirAll(dir, 0755))
		paths = append(paths, writeTestMesh(t, dir))
	}

	s := testSettings()
	s.Views = 2
	s.MaxMeshes = 1
	o := testOrchestrator(t, s)

	outRoot := filepath.Join(t.TempDir(), "renders")
	manifest, err := o.Run(paths, outRoot, true)
	require.NoError(t, err)
	require.Len(t, manifest.Models, 1)
	require.NotEmpty(t, manifest.RunID)

	modelDir := filepath.Join(outRoot, "03001627", "m1")
	files := listFiles(t, modelDir)
	require.Contains(t, files, "m1_r_000.png")
	require.Contains(t, files, "m1_r_180_depth.png")
	require.Contains(t, files, "m1_r_180_normal.png")
	require.Contains(t, files, "m1_r_000_albedo.png")
	require.Contains(t, files, "m1_r_000_id.png")
	_, err = os.Stat(filepath.Join(outRoot, "03001627", "m2"))
	require.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(outRoot, ManifestFile))
	require.NoError(t, err)
	var decoded struct {
		RunID  string `yaml:"run_id"`
		Models []struct {
			ModelID string `yaml:"model_id"`
		} `yaml:"models"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Equal(t, manifest.RunID, decoded.RunID)
	require.Equal(t, "m1", decoded.Models[0].ModelID)
}

func TestRunStopsOnFailure(t *testing.T) {
	o := testOrchestrator(t, testSettings())
	outRoot := t.TempDir()
	_, err := o.Run([]string{filepath.Join(outRoot, "missing.obj")}, outRoot, false)
	require.Error(t, err)
	_, err = os.Stat(filepath.Join(outRoot, ManifestFile))
	require.True(t, os.IsNotExist(err))
}

func TestWriteTransforms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TransformsFile)
	views := []ViewTransform{{File: "m_r_000.png", Angle: 0, FOV: 0.8}}
	require.NoError(t, writeTransforms(path, views))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []ViewTransform
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, views, decoded)

	err = writeTransforms(filepath.Join(dir, "missing", TransformsFile), views)
	require.Error(t, err)
}
