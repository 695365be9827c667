package views

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LoadPointCloud reads an (N,3) or (N,6) point matrix from a .ply file or
// a whitespace separated text file (.xyz, .txt).
func LoadPointCloud(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load point cloud")
	}
	defer f.Close()
	var res *mat.Dense
	if strings.ToLower(filepath.Ext(path)) == ".ply" {
		res, err = ReadPLYPoints(f)
	} else {
		res, err = ReadXYZ(f)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load point cloud "+path)
	}
	return res, nil
}

// ReadXYZ parses one point per line. Every line must have the same number
// of columns, either 3 or 6; colors are kept as written.
func ReadXYZ(r io.Reader) (*mat.Dense, error) {
	var data []float64
	cols := 0
	rows := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		if cols == 0 {
			cols = len(fields)
			if cols != 3 && cols != 6 {
				return nil, fmt.Errorf("read xyz: expected 3 or 6 columns but got %d", cols)
			}
		} else if len(fields) != cols {
			return nil, fmt.Errorf("read xyz: row %d has %d columns, expected %d", rows,
				len(fields), cols)
		}
		for _, field := range fields {
			x, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrap(err, "read xyz")
			}
			data = append(data, x)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read xyz")
	}
	if rows == 0 {
		return nil, errors.New("read xyz: no points")
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadPLYPoints reads vertex positions, and colors when present, from a
// PLY file. Colors are normalized to [0, 1].
func ReadPLYPoints(r io.Reader) (*mat.Dense, error) {
	mesh, err := ply.ReadMesh(r)
	if err != nil {
		return nil, errors.Wrap(err, "read ply points")
	}
	view := mesh.View()
	positions := view.Float3Data[modeling.PositionAttribute]
	colors := view.Float3Data[modeling.ColorAttribute]
	if len(positions) == 0 {
		return nil, errors.New("read ply points: no vertices")
	}
	cols := 3
	if len(colors) == len(positions) {
		cols = 6
	}
	colorScale := 1.0
	for _, c := range colors {
		if c.X() > 1 || c.Y() > 1 || c.Z() > 1 {
			colorScale = 1.0 / 255
			break
		}
	}
	res := mat.NewDense(len(positions), cols, nil)
	for i, p := range positions {
		res.Set(i, 0, p.X())
		res.Set(i, 1, p.Y())
		res.Set(i, 2, p.Z())
		if cols == 6 {
			c := colors[i]
			res.Set(i, 3, c.X()*colorScale)
			res.Set(i, 4, c.Y()*colorScale)
			res.Set(i, 5, c.Z()*colorScale)
		}
	}
	return res, nil
}
