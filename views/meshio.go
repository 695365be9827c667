package views

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

// ImportOptions controls how a mesh file becomes a scene object.
type ImportOptions struct {
	// Scale multiplies every coordinate. Zero means 1.
	Scale float64

	// RemoveDoubles welds vertices closer than WeldEpsilon.
	RemoveDoubles bool
	WeldEpsilon   float64

	// EdgeSplit keeps corners sharp across edges steeper than SplitAngle
	// (radians) on smooth-shaded faces.
	EdgeSplit  bool
	SplitAngle float64

	// YUp converts Y-up OBJ files to the Z-up scene convention. STL and PLY
	// files are imported with their axes unchanged.
	YUp bool
}

// ImportOptionsFromSettings derives import options from run settings.
func ImportOptionsFromSettings(s *Settings) ImportOptions {
	return ImportOptions{
		Scale:         s.Scale,
		RemoveDoubles: s.RemoveDoubles,
		WeldEpsilon:   DefaultWeldEpsilon,
		EdgeSplit:     s.EdgeSplit,
		SplitAngle:    s.SplitAngle,
		YUp:           true,
	}
}

// A meshFace is a triangle with the attributes carried through cleanup.
type meshFace struct {
	Corners [3]model3d.Coord3D
	Color   *render3d.Color
	Smooth  bool
}

// ImportMesh loads an .obj, .stl or .ply file as an object with the default
// mesh material and specular reduced to 0.05.
func ImportMesh(path string, opts ImportOptions) (*Object, error) {
	var faces []meshFace
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		faces, err = readOBJFaces(path)
	case ".stl":
		faces, err = readSTLFaces(path)
	case ".ply":
		faces, err = readPLYFaces(path)
	default:
		err = fmt.Errorf("unsupported mesh extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrap(err, "import mesh")
	}
	if opts.YUp && ext == ".obj" {
		for i := range faces {
			for j, c := range faces[i].Corners {
				faces[i].Corners[j] = model3d.XYZ(c.X, -c.Z, c.Y)
			}
		}
	}
	if opts.Scale != 0 && opts.Scale != 1 {
		for i := range faces {
			for j, c := range faces[i].Corners {
				faces[i].Corners[j] = c.Scale(opts.Scale)
			}
		}
	}
	if opts.RemoveDoubles {
		eps := opts.WeldEpsilon
		if eps == 0 {
			eps = DefaultWeldEpsilon
		}
		faces = weldFaces(faces, eps)
	}
	base := filepath.Base(path)
	obj := buildObject(strings.TrimSuffix(base, filepath.Ext(base)), faces, opts)
	obj.Material.Specular = 0.05
	return obj, nil
}

func buildObject(name string, faces []meshFace, opts ImportOptions) *Object {
	mesh := model3d.NewMesh()
	obj := NewObject(name, mesh)
	tris := make([]*model3d.Triangle, len(faces))
	for i, f := range faces {
		t := &model3d.Triangle{f.Corners[0], f.Corners[1], f.Corners[2]}
		tris[i] = t
		mesh.Add(t)
		if f.Color != nil {
			if obj.FaceColors == nil {
				obj.FaceColors = map[*model3d.Triangle]render3d.Color{}
			}
			obj.FaceColors[t] = *f.Color
		}
	}
	splitAngle := math.Inf(1)
	if opts.EdgeSplit {
		splitAngle = opts.SplitAngle
	}
	obj.Normals = smoothNormals(faces, tris, splitAngle)
	return obj
}

// weldFaces snaps vertices to a grid of size eps, merging nearby vertices,
// and drops faces which collapse as a result.
func weldFaces(faces []meshFace, eps float64) []meshFace {
	type key [3]int64
	canonical := map[key]model3d.Coord3D{}
	snap := func(c model3d.Coord3D) model3d.Coord3D {
		k := key{
			int64(math.Round(c.X / eps)),
			int64(math.Round(c.Y / eps)),
			int64(math.Round(c.Z / eps)),
		}
		if existing, ok := canonical[k]; ok {
			return existing
		}
		canonical[k] = c
		return c
	}
	res := make([]meshFace, 0, len(faces))
	for _, f := range faces {
		for i, c := range f.Corners {
			f.Corners[i] = snap(c)
		}
		if f.Corners[0] == f.Corners[1] || f.Corners[1] == f.Corners[2] ||
			f.Corners[0] == f.Corners[2] {
			continue
		}
		res = append(res, f)
	}
	return res
}

// smoothNormals computes per-corner normals for smooth faces. A corner
// averages the area-weighted normals of smooth faces sharing its vertex
// whose normals are within splitAngle of its own face.
func smoothNormals(faces []meshFace, tris []*model3d.Triangle,
	splitAngle float64) map[*model3d.Triangle][3]model3d.Coord3D {
	incident := map[model3d.Coord3D][]int{}
	for i, f := range faces {
		if !f.Smooth {
			continue
		}
		for _, c := range f.Corners {
			incident[c] = append(incident[c], i)
		}
	}
	if len(incident) == 0 {
		return nil
	}
	minCos := math.Cos(math.Min(splitAngle, math.Pi))
	res := map[*model3d.Triangle][3]model3d.Coord3D{}
	for i, f := range faces {
		if !f.Smooth {
			continue
		}
		normal := tris[i].Normal()
		var corners [3]model3d.Coord3D
		for j, c := range f.Corners {
			var sum model3d.Coord3D
			for _, other := range incident[c] {
				n := tris[other].Normal()
				if n.Dot(normal) >= minCos-1e-8 {
					sum = sum.Add(n.Scale(tris[other].Area()))
				}
			}
			if sum.Norm() < 1e-12 {
				corners[j] = normal
			} else {
				corners[j] = sum.Normalize()
			}
		}
		res[tris[i]] = corners
	}
	return res
}

// OBJFace is a polygon of an OBJ file with zero-based vertex indices.
type OBJFace struct {
	Indices  []int
	Material string
	Smooth   bool
}

// OBJData is the geometry of a Wavefront OBJ file.
type OBJData struct {
	Vertices     []model3d.Coord3D
	Faces        []OBJFace
	MaterialLibs []string
}

// DecodeOBJ parses vertices, faces, smoothing groups and material
// references. Texture coordinates and normals are ignored.
func DecodeOBJ(r io.Reader) (*OBJData, error) {
	res := &OBJData{}
	var material string
	var smooth bool
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<24)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("decode obj: line %d: vertex needs 3 coordinates", lineNum)
			}
			var coords [3]float64
			for i := range coords {
				x, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "decode obj: line %d", lineNum)
				}
				coords[i] = x
			}
			res.Vertices = append(res.Vertices, model3d.NewCoord3DArray(coords))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("decode obj: line %d: face needs 3 vertices", lineNum)
			}
			face := OBJFace{Material: material, Smooth: smooth}
			for _, field := range fields[1:] {
				idx, err := parseOBJIndex(field, len(res.Vertices))
				if err != nil {
					return nil, errors.Wrapf(err, "decode obj: line %d", lineNum)
				}
				face.Indices = append(face.Indices, idx)
			}
			res.Faces = append(res.Faces, face)
		case "usemtl":
			material = strings.Join(fields[1:], " ")
		case "mtllib":
			res.MaterialLibs = append(res.MaterialLibs, fields[1:]...)
		case "s":
			smooth = len(fields) > 1 && fields[1] != "off" && fields[1] != "0"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}
	return res, nil
}

func parseOBJIndex(field string, numVertices int) (int, error) {
	vertex := strings.SplitN(field, "/", 2)[0]
	idx, err := strconv.Atoi(vertex)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		idx += numVertices
	} else {
		idx--
	}
	if idx < 0 || idx >= numVertices {
		return 0, fmt.Errorf("vertex index %s out of range", vertex)
	}
	return idx, nil
}

// DecodeMTL reads the diffuse color (Kd) of every material in a library.
func DecodeMTL(r io.Reader) (map[string]render3d.Color, error) {
	res := map[string]render3d.Color{}
	var current string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			current = strings.Join(fields[1:], " ")
		case "Kd":
			if len(fields) < 4 || current == "" {
				continue
			}
			var kd [3]float64
			for i := range kd {
				x, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrap(err, "decode mtl")
				}
				kd[i] = x
			}
			res[current] = rgb(kd[0], kd[1], kd[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "decode mtl")
	}
	return res, nil
}

// Triangles fan-triangulates the polygons of the file.
func (o *OBJData) Triangles() []*model3d.Triangle {
	var res []*model3d.Triangle
	for _, f := range o.Faces {
		for i := 1; i+1 < len(f.Indices); i++ {
			res = append(res, &model3d.Triangle{
				o.Vertices[f.Indices[0]],
				o.Vertices[f.Indices[i]],
				o.Vertices[f.Indices[i+1]],
			})
		}
	}
	return res
}

func readOBJFaces(path string) ([]meshFace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := DecodeOBJ(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	colors := map[string]render3d.Color{}
	for _, lib := range data.MaterialLibs {
		libPath := filepath.Join(filepath.Dir(path), lib)
		r, err := os.Open(libPath)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}
		libColors, err := DecodeMTL(r)
		r.Close()
		if err != nil {
			return nil, err
		}
		for name, c := range libColors {
			colors[name] = c
		}
	}

	var faces []meshFace
	for _, face := range data.Faces {
		var color *render3d.Color
		if c, ok := colors[face.Material]; ok {
			color = &c
		}
		for i := 1; i+1 < len(face.Indices); i++ {
			faces = append(faces, meshFace{
				Corners: [3]model3d.Coord3D{
					data.Vertices[face.Indices[0]],
					data.Vertices[face.Indices[i]],
					data.Vertices[face.Indices[i+1]],
				},
				Color:  color,
				Smooth: face.Smooth,
			})
		}
	}
	return faces, nil
}

func readSTLFaces(path string) ([]meshFace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tris, err := model3d.ReadSTL(f)
	if err != nil {
		return nil, err
	}
	faces := make([]meshFace, len(tris))
	for i, t := range tris {
		faces[i].Corners = *t
	}
	return faces, nil
}

func readPLYFaces(path string) ([]meshFace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mesh, err := ply.ReadMesh(f)
	if err != nil {
		return nil, err
	}
	if mesh.Topology() != modeling.TriangleTopology {
		return nil, fmt.Errorf("ply file %s does not contain triangles", path)
	}
	view := mesh.View()
	positions := view.Float3Data[modeling.PositionAttribute]
	var faces []meshFace
	for i := 0; i+2 < len(view.Indices); i += 3 {
		var face meshFace
		for j := 0; j < 3; j++ {
			p := positions[view.Indices[i+j]]
			face.Corners[j] = model3d.XYZ(p.X(), p.Y(), p.Z())
		}
		faces = append(faces, face)
	}
	return faces, nil
}
