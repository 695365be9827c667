package views

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"gopkg.in/yaml.v3"
)

const (
	TransformsFile = "transforms.json"
	ManifestFile   = "manifest.yaml"
)

// Location of the camera relative to the pivot, and its optics.
var (
	rigLocation       = model3d.XYZ(0, 1, 0.6)
	rigLens           = 35.0
	rigSensorWidth    = 32.0
	importedPassIndex = 1
)

// ViewTransform records the camera of one rendered view.
type ViewTransform struct {
	File     string          `json:"file"`
	Angle    float64         `json:"angle"`
	Origin   model3d.Coord3D `json:"origin"`
	X        model3d.Coord3D `json:"x"`
	Y        model3d.Coord3D `json:"y"`
	Z        model3d.Coord3D `json:"z"`
	FOV      float64         `json:"fov"`
	Channels []string        `json:"channels"`
}

// A MeshResult summarizes the outputs of one job.
type MeshResult struct {
	ModelID   string          `yaml:"model_id"`
	ClassID   string          `yaml:"class_id,omitempty"`
	MeshPath  string          `yaml:"mesh_path"`
	OutputDir string          `yaml:"output_dir"`
	Views     []ViewTransform `yaml:"-"`
}

// A Manifest describes a whole orchestrator run.
type Manifest struct {
	RunID    string        `yaml:"run_id"`
	Started  time.Time     `yaml:"started"`
	Finished time.Time     `yaml:"finished"`
	Settings *Settings     `yaml:"settings"`
	Models   []*MeshResult `yaml:"models"`
}

// An Orchestrator owns the scene and the one-time render configuration,
// and renders orbits of one object at a time.
type Orchestrator struct {
	Settings *Settings
	Scene    *Scene
	Rig      *CameraRig

	logger     *log.Logger
	compositor *Compositor
	renderer   *Renderer
	importOpts ImportOptions
}

// NewOrchestrator validates the settings and performs every piece of setup
// shared by all jobs: the routing graph, the renderer, the camera rig and
// the lights.
func NewOrchestrator(s *Settings, logger *log.Logger) (*Orchestrator, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "new orchestrator")
	}
	if logger == nil {
		logger = log.Default()
	}
	compositor, err := NewCompositor(s)
	if err != nil {
		return nil, errors.Wrap(err, "new orchestrator")
	}
	renderer, err := NewRenderer(RenderOptionsFromSettings(s))
	if err != nil {
		return nil, errors.Wrap(err, "new orchestrator")
	}
	scene := NewScene()
	rig := NewCameraRig(scene, rigLocation, rigLens, rigSensorWidth)
	AddStudioLights(scene)
	for _, r := range compositor.Routes() {
		logger.Debug("configured output route", "channel", r.Channel, "format", r.Format.File,
			"depth", r.Format.Depth)
	}
	return &Orchestrator{
		Settings:   s,
		Scene:      scene,
		Rig:        rig,
		logger:     logger,
		compositor: compositor,
		renderer:   renderer,
		importOpts: ImportOptionsFromSettings(s),
	}, nil
}

// RenderMesh imports the job's mesh and renders its orbit.
func (o *Orchestrator) RenderMesh(job *RenderJob) (*MeshResult, error) {
	o.logger.Info("importing mesh", "path", job.MeshPath)
	obj, err := ImportMesh(job.MeshPath, o.importOpts)
	if err != nil {
		return nil, err
	}
	obj.PassIndex = importedPassIndex
	return o.RenderObject(job, obj)
}

// RenderObject adds obj to the scene, renders every view of the job in
// increasing angle, and removes obj again. Objects added by the caller
// keep their pass index.
func (o *Orchestrator) RenderObject(job *RenderJob, obj *Object) (*MeshResult, error) {
	if err := checkViews(job.Views); err != nil {
		return nil, errors.Wrap(err, "render object")
	}
	if err := ensureDir(job.OutputDir); err != nil {
		return nil, err
	}

	o.Rig.Reset()
	o.Scene.AddObject(obj)
	defer o.Scene.RemoveObject(obj)

	result := &MeshResult{
		ModelID:   job.ModelID,
		ClassID:   job.ClassID,
		MeshPath:  job.MeshPath,
		OutputDir: job.OutputDir,
	}
	step := job.Step()
	for i := 0; i < job.Views; i++ {
		base := job.ViewBase(i)
		o.logger.Debug("rendering view", "model", job.ModelID, "view", i+1, "of", job.Views,
			"angle", job.AngleLabel(i))
		passes, err := o.renderer.Render(o.Scene)
		if err != nil {
			return nil, errors.Wrap(err, "render object "+job.ModelID)
		}
		paths, err := o.compositor.Composite(passes, base)
		if err != nil {
			return nil, errors.Wrap(err, "render object "+job.ModelID)
		}
		result.Views = append(result.Views, o.viewTransform(float64(i)*step, paths))
		o.Rig.Orbit(step)
	}

	if err := writeTransforms(filepath.Join(job.OutputDir, TransformsFile), result.Views); err != nil {
		return nil, err
	}
	o.logger.Info("rendered mesh", "model", job.ModelID, "views", job.Views)
	return result, nil
}

func (o *Orchestrator) viewTransform(angle float64, paths map[Channel]string) ViewTransform {
	cam := o.Scene.Camera.RenderCamera()
	vt := ViewTransform{
		File:   filepath.Base(paths[ChannelColor]),
		Angle:  angle,
		Origin: cam.Origin,
		X:      cam.ScreenX,
		Y:      cam.ScreenY,
		Z:      cam.ScreenX.Cross(cam.ScreenY).Normalize(),
		FOV:    cam.FieldOfView,
	}
	for _, r := range o.compositor.Routes() {
		if p, ok := paths[r.Channel]; ok {
			vt.Channels = append(vt.Channels, filepath.Base(p))
		}
	}
	return vt
}

func writeTransforms(path string, views []ViewTransform) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write transforms")
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(views); err != nil {
		return errors.Wrap(err, "write transforms")
	}
	return errors.Wrap(f.Close(), "write transforms")
}

// Run renders every mesh in order, stopping at the first failure. With
// dataset set, output paths follow the dataset layout of each mesh. A
// manifest is written to outputRoot once all meshes succeed.
func (o *Orchestrator) Run(meshPaths []string, outputRoot string, dataset bool) (*Manifest, error) {
	manifest := &Manifest{
		RunID:    uuid.NewString(),
		Started:  time.Now(),
		Settings: o.Settings,
	}
	if o.Settings.MaxMeshes > 0 && len(meshPaths) > o.Settings.MaxMeshes {
		o.logger.Info("limiting run", "meshes", o.Settings.MaxMeshes, "found", len(meshPaths))
		meshPaths = meshPaths[:o.Settings.MaxMeshes]
	}
	for i, path := range meshPaths {
		var job *RenderJob
		var err error
		if dataset {
			job, err = NewDatasetJob(path, outputRoot, o.Settings.Views)
		} else {
			job, err = NewSingleJob(path, outputRoot, o.Settings.Views)
		}
		if err != nil {
			return nil, err
		}
		o.logger.Info("processing mesh", "index", i+1, "total", len(meshPaths), "model", job.ModelID)
		result, err := o.RenderMesh(job)
		if err != nil {
			return nil, err
		}
		manifest.Models = append(manifest.Models, result)
	}
	manifest.Finished = time.Now()
	if err := manifest.Save(filepath.Join(outputRoot, ManifestFile)); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "save manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "save manifest")
	}
	return nil
}
