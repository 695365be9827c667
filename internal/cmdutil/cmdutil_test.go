package cmdutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/shape-views/views"
	"github.com/urfave/cli/v2"
)

func runSettings(t *testing.T, args ...string) (*views.Settings, error) {
	var res *views.Settings
	app := &cli.App{
		Name: "test",
		Flags: append(RenderFlags(), &cli.IntFlag{
			Name: "max-meshes",
		}),
		Action: func(c *cli.Context) error {
			var err error
			res, err = Settings(c)
			return err
		},
	}
	err := app.Run(append([]string{"test"}, args...))
	return res, err
}

func TestSettingsDefaults(t *testing.T) {
	s, err := runSettings(t)
	require.NoError(t, err)
	require.Equal(t, views.DefaultSettings(), s)
}

func TestSettingsFlags(t *testing.T) {
	s, err := runSettings(t, "--views", "4", "--resolution", "32", "--engine", "phong",
		"--channels", "depth", "--channels", "id", "--opaque", "--max-meshes", "3")
	require.NoError(t, err)
	require.Equal(t, 4, s.Views)
	require.Equal(t, 32, s.Resolution)
	require.Equal(t, views.EnginePhong, s.Engine)
	require.Equal(t, []string{"depth", "id"}, s.Channels)
	require.False(t, s.Transparent)
	require.Equal(t, 3, s.MaxMeshes)

	_, err = runSettings(t, "--views", "400")
	require.Error(t, err)
	_, err = runSettings(t, "--samples", "0")
	require.Error(t, err)
	_, err = runSettings(t, "--samples", "0", "--adaptive-sampling")
	require.NoError(t, err)
}

func TestSettingsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	config := "views = 8\nresolution = 64\nengine = \"phong\"\n"
	require.NoError(t, os.WriteFile(path, []byte(config), 0644))

	s, err := runSettings(t, "--config", path, "--resolution", "16")
	require.NoError(t, err)
	require.Equal(t, 8, s.Views)
	require.Equal(t, 16, s.Resolution)
	require.Equal(t, views.EnginePhong, s.Engine)
	require.Equal(t, views.DefaultSettings().Samples, s.Samples)
}
