package views

import (
	"fmt"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"gonum.org/v1/gonum/mat"
)

// A Primitive is one sphere or cube of a merged primitive mesh.
type Primitive struct {
	Center model3d.Coord3D

	// Radius is the sphere radius or half of the cube side.
	Radius float64

	Color    render3d.Color
	HasColor bool

	Triangles []*model3d.Triangle
}

// A PrimitiveMesh is a union of small primitives, ordered like the input
// elements they were created from.
type PrimitiveMesh struct {
	Primitives []*Primitive
}

// Mesh merges every primitive into a single mesh.
func (p *PrimitiveMesh) Mesh() *model3d.Mesh {
	mesh := model3d.NewMesh()
	for _, prim := range p.Primitives {
		for _, t := range prim.Triangles {
			mesh.Add(t)
		}
	}
	return mesh
}

// Object creates a scene object for the merged mesh, carrying per-vertex
// colors for colored primitives.
func (p *PrimitiveMesh) Object(name string, material *PrincipledMaterial) *Object {
	obj := NewObject(name, p.Mesh())
	obj.Material = material
	for _, prim := range p.Primitives {
		if !prim.HasColor {
			continue
		}
		if obj.VertexColors == nil {
			obj.VertexColors = map[*model3d.Triangle][3]render3d.Color{}
		}
		for _, t := range prim.Triangles {
			obj.VertexColors[t] = [3]render3d.Color{prim.Color, prim.Color, prim.Color}
		}
	}
	return obj
}

// PointCloudToSpheres places an icosphere of the given radius at every row
// of an (N,3) point matrix, at point*scale+offset. Matrices with six or
// more columns carry RGB colors in columns 3 through 5, stored unchanged.
func PointCloudToSpheres(points mat.Matrix, radius float64, offset model3d.Coord3D,
	scale float64, subdivisions int) (*PrimitiveMesh, error) {
	rows, cols := points.Dims()
	if cols != 3 && cols < 6 {
		return nil, fmt.Errorf("point cloud must have 3 or 6 columns but has %d", cols)
	}
	if subdivisions < 1 {
		return nil, fmt.Errorf("sphere subdivisions must be at least 1 but got %d", subdivisions)
	}
	base := model3d.NewMeshIcosphere(model3d.Origin, 1, subdivisions).TriangleSlice()
	res := &PrimitiveMesh{Primitives: make([]*Primitive, 0, rows)}
	for i := 0; i < rows; i++ {
		location := model3d.XYZ(points.At(i, 0), points.At(i, 1), points.At(i, 2)).
			Scale(scale).Add(offset)
		prim := &Primitive{
			Center:    location,
			Radius:    radius,
			Triangles: transformTriangles(base, radius, location),
		}
		if cols >= 6 {
			prim.HasColor = true
			prim.Color = rgb(points.At(i, 3), points.At(i, 4), points.At(i, 5))
		}
		res.Primitives = append(res.Primitives, prim)
	}
	return res, nil
}

// A VoxelGrid is a dense 3D occupancy array with x as the slowest axis and
// z as the fastest.
type VoxelGrid struct {
	Nx, Ny, Nz int
	Data       []bool
}

func NewVoxelGrid(nx, ny, nz int) *VoxelGrid {
	return &VoxelGrid{Nx: nx, Ny: ny, Nz: nz, Data: make([]bool, nx*ny*nz)}
}

func (v *VoxelGrid) index(x, y, z int) int {
	return (x*v.Ny+y)*v.Nz + z
}

func (v *VoxelGrid) At(x, y, z int) bool {
	return v.Data[v.index(x, y, z)]
}

func (v *VoxelGrid) Set(x, y, z int, value bool) {
	v.Data[v.index(x, y, z)] = value
}

// Count returns the number of filled cells.
func (v *VoxelGrid) Count() int {
	var n int
	for _, x := range v.Data {
		if x {
			n++
		}
	}
	return n
}

// CellCenter maps a cell to the unit cube centered at the origin, then
// applies scale and offset.
func (v *VoxelGrid) CellCenter(x, y, z int, scale float64, offset model3d.Coord3D) model3d.Coord3D {
	c := model3d.XYZ(
		(float64(x)+0.5)/float64(v.Nx)-0.5,
		(float64(y)+0.5)/float64(v.Ny)-0.5,
		(float64(z)+0.5)/float64(v.Nz)-0.5,
	)
	return c.Scale(scale).Add(offset)
}

// VoxelsToCubes places an axis-aligned cube with half-side radius at the
// center of every filled cell. An empty grid yields no primitives.
func VoxelsToCubes(grid *VoxelGrid, radius float64, offset model3d.Coord3D,
	scale float64) *PrimitiveMesh {
	base := model3d.NewMeshRect(model3d.XYZ(-1, -1, -1), model3d.XYZ(1, 1, 1)).TriangleSlice()
	res := &PrimitiveMesh{}
	for x := 0; x < grid.Nx; x++ {
		for y := 0; y < grid.Ny; y++ {
			for z := 0; z < grid.Nz; z++ {
				if !grid.At(x, y, z) {
					continue
				}
				center := grid.CellCenter(x, y, z, scale, offset)
				res.Primitives = append(res.Primitives, &Primitive{
					Center:    center,
					Radius:    radius,
					Triangles: transformTriangles(base, radius, center),
				})
			}
		}
	}
	return res
}

func transformTriangles(base []*model3d.Triangle, scale float64,
	offset model3d.Coord3D) []*model3d.Triangle {
	res := make([]*model3d.Triangle, len(base))
	for i, t := range base {
		var nt model3d.Triangle
		for j, c := range t {
			nt[j] = c.Scale(scale).Add(offset)
		}
		res[i] = &nt
	}
	return res
}
