package views

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

// Default orientation of the key light, matching the stock scene light.
var defaultLightRotation = model3d.XYZ(0.6503, 0.0552, 1.8664)

// NewSunLight creates a directional light without shadows.
func NewSunLight(location, rotation model3d.Coord3D, energy float64) *Light {
	return &Light{
		Name:           "Sun",
		Type:           LightSun,
		Location:       location,
		Rotation:       rotation,
		Color:          render3d.NewColor(1),
		Energy:         energy,
		SpecularFactor: 1,
	}
}

// NewAreaLight creates a square area light of unit size.
func NewAreaLight(name string, location, rotation model3d.Coord3D, energy float64) *Light {
	return &Light{
		Name:           name,
		Type:           LightArea,
		Location:       location,
		Rotation:       rotation,
		Color:          render3d.NewColor(1),
		Energy:         energy,
		Size:           1,
		CastShadows:    true,
		SpecularFactor: 1,
	}
}

// NewDiskAreaLight creates the disk-shaped area light used for voxel scenes.
func NewDiskAreaLight(name string, location, rotation model3d.Coord3D, energy float64) *Light {
	l := NewAreaLight(name, location, rotation, energy)
	l.Shape = AreaDisk
	l.Size = 1.5
	return l
}

// NewPlane creates a square plane of the given side length, facing +Z
// before rotation.
func NewPlane(name string, location, rotation model3d.Coord3D, size float64) *Object {
	h := size / 2
	corners := [4]model3d.Coord3D{
		model3d.XYZ(-h, -h, 0),
		model3d.XYZ(h, -h, 0),
		model3d.XYZ(h, h, 0),
		model3d.XYZ(-h, h, 0),
	}
	for i, c := range corners {
		corners[i] = eulerXYZ(rotation, c).Add(location)
	}
	mesh := model3d.NewMesh()
	mesh.Add(&model3d.Triangle{corners[0], corners[1], corners[2]})
	mesh.Add(&model3d.Triangle{corners[0], corners[2], corners[3]})
	return NewObject(name, mesh)
}

// A CameraRig is a camera parented to a pivot empty which it tracks.
// Rotating the pivot about Z orbits the camera around the pivot.
type CameraRig struct {
	Camera *Camera
	Pivot  *Empty
}

// NewCameraRig places the camera at a location relative to a pivot at the
// origin and links both into the scene.
func NewCameraRig(s *Scene, location model3d.Coord3D, lens, sensorWidth float64) *CameraRig {
	pivot := &Empty{Name: "Empty"}
	cam := NewCamera(location, lens)
	cam.SensorWidth = sensorWidth
	cam.Parent = pivot
	s.TrackTo(cam, pivot)
	s.AddEmpty(pivot)
	s.Camera = cam
	return &CameraRig{Camera: cam, Pivot: pivot}
}

// Orbit rotates the pivot about the vertical axis.
func (c *CameraRig) Orbit(degrees float64) {
	c.Pivot.Rotation.Z += degreesToRadians(degrees)
}

// Reset returns the pivot to zero rotation.
func (c *CameraRig) Reset() {
	c.Pivot.Rotation = model3d.Coord3D{}
}

// AddStudioLights adds a key sun and a weak fill sun facing the opposite
// way, so the side facing away from the key light is not black.
func AddStudioLights(s *Scene) (key, fill *Light) {
	key = NewSunLight(model3d.XYZ(4.07625, 1.00545, 5.90386), defaultLightRotation, 10)
	key.Name = "Light"
	fill = NewSunLight(key.Location.Scale(-1), defaultLightRotation, 0.015)
	fill.Rotation = oppositeRotation(key)
	s.AddLight(key)
	s.AddLight(fill)
	return key, fill
}

// oppositeRotation finds Euler angles which point a sun opposite to l.
func oppositeRotation(l *Light) model3d.Coord3D {
	// Rotating by pi about X flips -Z to +Z before the original rotation.
	r := l.Rotation
	return model3d.XYZ(r.X+math.Pi, r.Y, r.Z)
}
