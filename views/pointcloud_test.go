package views

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadXYZ(t *testing.T) {
	points, err := ReadXYZ(strings.NewReader("# points\n0 0 0\n1 2 3\n\n-1,0.5,2\n"))
	require.NoError(t, err)
	rows, cols := points.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)
	require.Equal(t, 0.5, points.At(2, 1))

	colored, err := ReadXYZ(strings.NewReader("0 0 0 1 0 0\n1 1 1 0 1 0\n"))
	require.NoError(t, err)
	_, cols = colored.Dims()
	require.Equal(t, 6, cols)

	_, err = ReadXYZ(strings.NewReader("0 0\n"))
	require.Error(t, err)
	_, err = ReadXYZ(strings.NewReader("0 0 0\n1 1 1 1 1 1\n"))
	require.Error(t, err)
	_, err = ReadXYZ(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadPointCloud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.xyz")
	require.NoError(t, os.WriteFile(path, []byte("0 0 0\n1 1 1\n"), 0644))
	points, err := LoadPointCloud(path)
	require.NoError(t, err)
	rows, _ := points.Dims()
	require.Equal(t, 2, rows)

	_, err = LoadPointCloud(filepath.Join(t.TempDir(), "missing.ply"))
	require.Error(t, err)
}
