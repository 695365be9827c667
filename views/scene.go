package views

import (
	"math"
	"sync"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

// An Object is a mesh in the scene with its shading attributes.
type Object struct {
	Name     string
	Mesh     *model3d.Mesh
	Material *PrincipledMaterial

	// PassIndex is written to the object-id channel.
	PassIndex int

	// Normals optionally overrides flat face normals with per-corner
	// shading normals.
	Normals map[*model3d.Triangle][3]model3d.Coord3D

	// FaceColors optionally overrides the material base color per face.
	FaceColors map[*model3d.Triangle]render3d.Color

	// VertexColors optionally overrides the base color per corner.
	VertexColors map[*model3d.Triangle][3]render3d.Color

	lock     sync.RWMutex
	collider model3d.Collider
}

// NewObject wraps a mesh with the default material.
func NewObject(name string, mesh *model3d.Mesh) *Object {
	return &Object{
		Name:     name,
		Mesh:     mesh,
		Material: DefaultMeshMaterial(),
	}
}

// Collider returns a ray collider for the mesh, building it on first use.
// Changing the mesh afterwards requires calling Invalidate.
func (o *Object) Collider() model3d.Collider {
	o.lock.RLock()
	c := o.collider
	o.lock.RUnlock()
	if c != nil {
		return c
	}
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.collider == nil {
		o.collider = model3d.MeshToCollider(o.Mesh)
	}
	return o.collider
}

// Invalidate drops cached acceleration structures after the mesh changes.
func (o *Object) Invalidate() {
	o.lock.Lock()
	o.collider = nil
	o.lock.Unlock()
}

// surface computes the shading normal and base color at a collision.
func (o *Object) surface(rc model3d.RayCollision) (model3d.Coord3D, render3d.Color) {
	normal := rc.Normal
	base := o.Material.BaseColor
	tc, ok := rc.Extra.(*model3d.TriangleCollision)
	if !ok {
		return normal, base
	}
	bary := tc.Barycentric
	if corners, ok := o.Normals[tc.Triangle]; ok {
		var sum model3d.Coord3D
		for i, n := range corners {
			sum = sum.Add(n.Scale(bary[i]))
		}
		if sum.Norm() > 1e-8 {
			normal = sum.Normalize()
		}
	}
	if c, ok := o.FaceColors[tc.Triangle]; ok {
		base = c
	}
	if corners, ok := o.VertexColors[tc.Triangle]; ok {
		var sum render3d.Color
		for i, c := range corners {
			sum = sum.Add(c.Scale(bary[i]))
		}
		base = sum
	}
	return normal, base
}

// An Empty is a massless anchor used as a parent and tracking target.
type Empty struct {
	Name     string
	Location model3d.Coord3D
	Rotation model3d.Coord3D
}

// Transform maps a point in the empty's local frame to world space.
func (e *Empty) Transform(local model3d.Coord3D) model3d.Coord3D {
	return eulerXYZ(e.Rotation, local).Add(e.Location)
}

// A Camera is a perspective camera described in physical units.
type Camera struct {
	Name     string
	Location model3d.Coord3D

	// Rotation orients the camera when it does not track a target.
	Rotation model3d.Coord3D

	Lens        float64 // focal length in mm
	SensorWidth float64 // in mm

	Parent *Empty
	Target *Empty
}

// NewCamera creates a camera with a 32mm sensor.
func NewCamera(location model3d.Coord3D, lens float64) *Camera {
	return &Camera{
		Name:        "Camera",
		Location:    location,
		Lens:        lens,
		SensorWidth: 32,
	}
}

// FieldOfView is the horizontal field of view in radians.
func (c *Camera) FieldOfView() float64 {
	return 2 * math.Atan(c.SensorWidth/(2*c.Lens))
}

// WorldLocation applies the parent transform to the camera location.
func (c *Camera) WorldLocation() model3d.Coord3D {
	if c.Parent != nil {
		return c.Parent.Transform(c.Location)
	}
	return c.Location
}

// RenderCamera computes the view of the camera. With a target, the camera
// looks along -Z toward it with its Y axis kept closest to world up.
func (c *Camera) RenderCamera() *render3d.Camera {
	origin := c.WorldLocation()
	var forward, up model3d.Coord3D
	if c.Target != nil {
		forward = c.Target.Location.Sub(origin)
		up = model3d.Z(1)
	} else {
		forward = eulerXYZ(c.Rotation, model3d.Z(-1))
		up = eulerXYZ(c.Rotation, model3d.Y(1))
	}
	if c.Parent != nil && c.Target == nil {
		forward = eulerXYZ(c.Parent.Rotation, forward)
		up = eulerXYZ(c.Parent.Rotation, up)
	}
	forward = forward.Normalize()
	right := forward.Cross(up)
	if right.Norm() < 1e-8 {
		right = forward.Cross(model3d.Y(1))
	}
	right = right.Normalize()
	down := forward.Cross(right).Normalize()
	return &render3d.Camera{
		Origin:      origin,
		ScreenX:     right,
		ScreenY:     down,
		FieldOfView: c.FieldOfView(),
	}
}

type LightType int

const (
	LightSun LightType = iota
	LightArea
	LightPoint
)

type AreaShape int

const (
	AreaSquare AreaShape = iota
	AreaDisk
)

// A Light is an emitter. Sun lights shine along their rotated -Z axis;
// area and point lights emit from their location.
type Light struct {
	Name     string
	Type     LightType
	Location model3d.Coord3D
	Rotation model3d.Coord3D
	Color    render3d.Color
	Energy   float64

	Shape AreaShape
	Size  float64

	CastShadows    bool
	SpecularFactor float64
}

// Direction is the direction light travels from a sun or area light.
func (l *Light) Direction() model3d.Coord3D {
	return eulerXYZ(l.Rotation, model3d.Z(-1)).Normalize()
}

// Scene is the state of one render session. Nothing outside of it is
// consulted by the renderer.
type Scene struct {
	Objects []*Object
	Lights  []*Light
	Empties []*Empty
	Camera  *Camera

	// World is the background radiance, also used as ambient light.
	World render3d.Color
}

func NewScene() *Scene {
	return &Scene{World: render3d.NewColor(0.05)}
}

func (s *Scene) AddObject(o *Object) {
	s.Objects = append(s.Objects, o)
}

// RemoveObject unlinks an object, reporting whether it was present.
func (s *Scene) RemoveObject(o *Object) bool {
	for i, x := range s.Objects {
		if x == o {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) AddLight(l *Light) {
	s.Lights = append(s.Lights, l)
}

func (s *Scene) AddEmpty(e *Empty) {
	s.Empties = append(s.Empties, e)
}

// RemoveAll clears every object, light, empty and the camera.
func (s *Scene) RemoveAll() {
	s.Objects = nil
	s.Lights = nil
	s.Empties = nil
	s.Camera = nil
}

// TrackTo constrains the camera to face the target.
func (s *Scene) TrackTo(c *Camera, target *Empty) {
	c.Target = target
}

// Bounds computes the bounding box of all objects.
func (s *Scene) Bounds() (min, max model3d.Coord3D, ok bool) {
	for _, o := range s.Objects {
		if o.Mesh.NumTriangles() == 0 {
			continue
		}
		if !ok {
			min, max, ok = o.Mesh.Min(), o.Mesh.Max(), true
		} else {
			min, max = min.Min(o.Mesh.Min()), max.Max(o.Mesh.Max())
		}
	}
	return
}
