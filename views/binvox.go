package views

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Binvox is a run-length encoded voxel file as shipped with ShapeNet.
type Binvox struct {
	Grid      *VoxelGrid
	Translate model3d.Coord3D
	Scale     float64
}

// LoadBinvox reads a .binvox file from disk.
func LoadBinvox(path string) (*Binvox, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load binvox")
	}
	defer f.Close()
	return ReadBinvox(f)
}

// ReadBinvox decodes a binvox stream. Voxels are stored with x slowest,
// then z, then y; the result is reordered to the x, y, z grid layout.
func ReadBinvox(r io.Reader) (*Binvox, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "read binvox")
	}
	if !strings.HasPrefix(line, "#binvox") {
		return nil, errors.New("read binvox: missing magic")
	}
	res := &Binvox{Scale: 1}
	var dims [3]int
	for {
		line, err = br.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "read binvox header")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "data" {
			break
		}
		switch fields[0] {
		case "dim":
			if len(fields) != 4 {
				return nil, errors.New("read binvox: malformed dim")
			}
			for i := range dims {
				if dims[i], err = strconv.Atoi(fields[i+1]); err != nil {
					return nil, errors.Wrap(err, "read binvox: dim")
				}
			}
		case "translate":
			if len(fields) != 4 {
				return nil, errors.New("read binvox: malformed translate")
			}
			var t [3]float64
			for i := range t {
				if t[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
					return nil, errors.Wrap(err, "read binvox: translate")
				}
			}
			res.Translate = model3d.NewCoord3DArray(t)
		case "scale":
			if len(fields) != 2 {
				return nil, errors.New("read binvox: malformed scale")
			}
			if res.Scale, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, errors.Wrap(err, "read binvox: scale")
			}
		}
	}
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, errors.New("read binvox: missing or invalid dim")
	}

	total := dims[0] * dims[1] * dims[2]
	grid := NewVoxelGrid(dims[0], dims[2], dims[1])
	idx := 0
	for idx < total {
		var pair [2]byte
		if _, err := io.ReadFull(br, pair[:]); err != nil {
			return nil, errors.Wrap(err, "read binvox data")
		}
		value, count := pair[0] != 0, int(pair[1])
		if idx+count > total {
			return nil, fmt.Errorf("read binvox: run overflows %d voxels", total)
		}
		if value {
			for i := idx; i < idx+count; i++ {
				x := i / (dims[1] * dims[2])
				z := (i / dims[2]) % dims[1]
				y := i % dims[2]
				grid.Set(x, y, z, true)
			}
		}
		idx += count
	}
	res.Grid = grid
	return res, nil
}

// WriteBinvox encodes a grid in the binvox format.
func WriteBinvox(w io.Writer, b *Binvox) error {
	g := b.Grid
	bw := bufio.NewWriter(w)
	t := b.Translate
	_, err := fmt.Fprintf(bw, "#binvox 1\ndim %d %d %d\ntranslate %g %g %g\nscale %g\ndata\n",
		g.Nx, g.Nz, g.Ny, t.X, t.Y, t.Z, b.Scale)
	if err != nil {
		return errors.Wrap(err, "write binvox")
	}
	var run byte
	var value bool
	flush := func() error {
		if run == 0 {
			return nil
		}
		var v byte
		if value {
			v = 1
		}
		_, err := bw.Write([]byte{v, run})
		run = 0
		return err
	}
	for x := 0; x < g.Nx; x++ {
		for z := 0; z < g.Nz; z++ {
			for y := 0; y < g.Ny; y++ {
				cur := g.At(x, y, z)
				if run > 0 && (cur != value || run == 255) {
					if err := flush(); err != nil {
						return errors.Wrap(err, "write binvox")
					}
				}
				value = cur
				run++
			}
		}
	}
	if err := flush(); err != nil {
		return errors.Wrap(err, "write binvox")
	}
	return bw.Flush()
}
