// Package cmdutil holds the flags and setup shared by the commands.
package cmdutil

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/unixpickle/shape-views/views"
	"github.com/urfave/cli/v2"
)

// NewLogger creates the stderr logger used by every command.
func NewLogger(c *cli.Context, prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          prefix,
	})
	if c.Bool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// VerboseFlag enables debug logging.
var VerboseFlag = &cli.BoolFlag{
	Name:    "verbose",
	Aliases: []string{"v"},
	Usage:   "log every rendered view",
}

// RenderFlags configure the orchestrator. Unset flags keep the value from
// --config, or the default settings.
func RenderFlags() []cli.Flag {
	defaults := views.DefaultSettings()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "TOML or YAML settings file",
		},
		&cli.IntFlag{
			Name:  "views",
			Value: defaults.Views,
			Usage: "number of views around the object",
		},
		&cli.StringFlag{
			Name:  "output-folder",
			Value: "renders",
			Usage: "root directory for rendered views",
		},
		&cli.Float64Flag{
			Name:  "scale",
			Value: defaults.Scale,
			Usage: "scale applied to imported geometry",
		},
		&cli.BoolFlag{
			Name:  "remove-doubles",
			Value: defaults.RemoveDoubles,
			Usage: "weld coincident vertices of imported meshes",
		},
		&cli.BoolFlag{
			Name:  "edge-split",
			Value: defaults.EdgeSplit,
			Usage: "keep sharp edges when smoothing normals",
		},
		&cli.Float64Flag{
			Name:  "depth-scale",
			Value: defaults.DepthScale,
			Usage: "scale of the 8-bit depth map",
		},
		&cli.IntFlag{
			Name:  "color-depth",
			Value: defaults.ColorDepth,
			Usage: "bits per channel: 8 or 16",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: defaults.Format,
			Usage: "image format: PNG, TIFF or PFM",
		},
		&cli.IntFlag{
			Name:  "resolution",
			Value: defaults.Resolution,
			Usage: "side length of rendered images",
		},
		&cli.StringFlag{
			Name:  "engine",
			Value: defaults.Engine,
			Usage: "render engine: " + views.EngineShaded + " or " + views.EnginePhong,
		},
		&cli.IntFlag{
			Name:  "samples",
			Value: defaults.Samples,
			Usage: "samples per pixel, or the adaptive cap",
		},
		&cli.BoolFlag{
			Name:  "adaptive-sampling",
			Value: defaults.AdaptiveSampling,
			Usage: "stop sampling pixels once they converge",
		},
		&cli.StringSliceFlag{
			Name:  "channels",
			Value: cli.NewStringSlice(defaults.Channels...),
			Usage: "output channels besides color",
		},
		&cli.BoolFlag{
			Name:  "opaque",
			Usage: "render a solid background instead of a transparent one",
		},
		VerboseFlag,
	}
}

// Settings builds run settings from --config and any flags set on the
// command line, and validates them.
func Settings(c *cli.Context) (*views.Settings, error) {
	s := views.DefaultSettings()
	if path := c.String("config"); path != "" {
		var err error
		s, err = views.LoadSettings(path)
		if err != nil {
			return nil, err
		}
	}
	// Flags only override the file when given explicitly.
	set := func(name string, apply func()) {
		if c.IsSet(name) || c.String("config") == "" {
			apply()
		}
	}
	set("views", func() { s.Views = c.Int("views") })
	set("scale", func() { s.Scale = c.Float64("scale") })
	set("remove-doubles", func() { s.RemoveDoubles = c.Bool("remove-doubles") })
	set("edge-split", func() { s.EdgeSplit = c.Bool("edge-split") })
	set("depth-scale", func() { s.DepthScale = c.Float64("depth-scale") })
	set("color-depth", func() { s.ColorDepth = c.Int("color-depth") })
	set("format", func() { s.Format = c.String("format") })
	set("resolution", func() { s.Resolution = c.Int("resolution") })
	set("engine", func() { s.Engine = c.String("engine") })
	set("samples", func() { s.Samples = c.Int("samples") })
	set("adaptive-sampling", func() { s.AdaptiveSampling = c.Bool("adaptive-sampling") })
	set("channels", func() { s.Channels = c.StringSlice("channels") })
	if c.IsSet("opaque") {
		s.Transparent = !c.Bool("opaque")
	}
	if c.IsSet("max-meshes") {
		s.MaxMeshes = c.Int("max-meshes")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "settings")
	}
	return s, nil
}
