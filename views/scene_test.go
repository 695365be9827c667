package views

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func TestCameraRigOrbit(t *testing.T) {
	s := NewScene()
	rig := NewCameraRig(s, model3d.XYZ(0, 1, 0.6), 35, 32)
	require.Equal(t, rig.Camera, s.Camera)
	require.Len(t, s.Empties, 1)

	start := rig.Camera.RenderCamera()
	require.InDelta(t, 0, start.Origin.Dist(model3d.XYZ(0, 1, 0.6)), 1e-8)

	// The camera always faces the pivot.
	forward := start.ScreenX.Cross(start.ScreenY)
	require.InDelta(t, 1, forward.Dot(start.Origin.Scale(-1).Normalize()), 1e-8)

	rig.Orbit(90)
	quarter := rig.Camera.RenderCamera()
	require.InDelta(t, 0, quarter.Origin.Dist(model3d.XYZ(-1, 0, 0.6)), 1e-8)
	require.InDelta(t, 1, quarter.ScreenX.Cross(quarter.ScreenY).
		Dot(quarter.Origin.Scale(-1).Normalize()), 1e-8)
	require.InDelta(t, 0, quarter.ScreenX.Z, 1e-8, "image rows stay level")
	require.Less(t, quarter.ScreenY.Z, 0.0)

	rig.Orbit(270)
	require.InDelta(t, 2*math.Pi, rig.Pivot.Rotation.Z, 1e-8)
	rig.Reset()
	require.Equal(t, model3d.Coord3D{}, rig.Pivot.Rotation)
}

func TestCameraFieldOfView(t *testing.T) {
	cam := NewCamera(model3d.Coord3D{}, 35)
	require.InDelta(t, 2*math.Atan(16.0/35), cam.FieldOfView(), 1e-12)
}

func TestStudioLights(t *testing.T) {
	s := NewScene()
	key, fill := AddStudioLights(s)
	require.Len(t, s.Lights, 2)
	require.Equal(t, 10.0, key.Energy)
	require.Equal(t, 0.015, fill.Energy)
	require.False(t, key.CastShadows)
	require.InDelta(t, -1, key.Direction().Dot(fill.Direction()), 1e-8)
}

func TestSceneObjects(t *testing.T) {
	s := NewScene()
	plane := NewPlane("Plane", model3d.Z(-1), model3d.Coord3D{}, 2)
	require.Equal(t, 2, plane.Mesh.NumTriangles())
	require.InDelta(t, 0, plane.Mesh.Min().Dist(model3d.XYZ(-1, -1, -1)), 1e-8)

	s.AddObject(plane)
	min, max, ok := s.Bounds()
	require.True(t, ok)
	require.Equal(t, plane.Mesh.Min(), min)
	require.Equal(t, plane.Mesh.Max(), max)

	require.True(t, s.RemoveObject(plane))
	require.False(t, s.RemoveObject(plane))
	_, _, ok = s.Bounds()
	require.False(t, ok)

	AddStudioLights(s)
	NewCameraRig(s, model3d.Y(1), 35, 32)
	s.RemoveAll()
	require.Empty(t, s.Lights)
	require.Nil(t, s.Camera)
}

func TestLightFactories(t *testing.T) {
	sun := NewSunLight(model3d.Z(5), model3d.Coord3D{}, 3)
	require.Equal(t, LightSun, sun.Type)
	require.InDelta(t, 0, sun.Direction().Dist(model3d.Z(-1)), 1e-8)

	area := NewAreaLight("Area", model3d.Z(2), model3d.Coord3D{}, 100)
	require.Equal(t, LightArea, area.Type)
	require.True(t, area.CastShadows)

	disk := NewDiskAreaLight("Disk", model3d.Z(2), model3d.Coord3D{}, 100)
	require.Equal(t, AreaDisk, disk.Shape)
	require.Equal(t, 1.5, disk.Size)
}
