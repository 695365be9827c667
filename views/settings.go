package views

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EngineShaded = "shaded"
	EnginePhong  = "phong"
)

const (
	DefaultSplitAngle  = 1.32645
	DefaultWeldEpsilon = 1e-4
)

// Settings is the one-time configuration of an orchestrator run.
type Settings struct {
	Views      int     `toml:"views" yaml:"views"`
	Resolution int     `toml:"resolution" yaml:"resolution"`
	ColorDepth int     `toml:"color_depth" yaml:"color_depth"`
	Format     string  `toml:"format" yaml:"format"`
	Engine     string  `toml:"engine" yaml:"engine"`
	DepthScale float64 `toml:"depth_scale" yaml:"depth_scale"`

	Transparent bool     `toml:"transparent" yaml:"transparent"`
	Channels    []string `toml:"channels" yaml:"channels"`

	// Samples is the number of samples per pixel. With adaptive sampling,
	// it is the maximum number of samples, or unlimited up to
	// AdaptiveMaxSamples when zero.
	Samples            int     `toml:"samples" yaml:"samples"`
	AdaptiveSampling   bool    `toml:"adaptive_sampling" yaml:"adaptive_sampling"`
	AdaptiveThreshold  float64 `toml:"adaptive_threshold" yaml:"adaptive_threshold"`
	AdaptiveMaxSamples int     `toml:"adaptive_max_samples" yaml:"adaptive_max_samples"`

	Scale         float64 `toml:"scale" yaml:"scale"`
	RemoveDoubles bool    `toml:"remove_doubles" yaml:"remove_doubles"`
	EdgeSplit     bool    `toml:"edge_split" yaml:"edge_split"`
	SplitAngle    float64 `toml:"split_angle" yaml:"split_angle"`

	// MaxMeshes stops a dataset run early; zero means no limit.
	MaxMeshes int `toml:"max_meshes" yaml:"max_meshes"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Views:              20,
		Resolution:         600,
		ColorDepth:         8,
		Format:             "PNG",
		Engine:             EngineShaded,
		DepthScale:         1.4,
		Transparent:        true,
		Channels:           []string{"color", "depth", "normal", "albedo", "id"},
		Samples:            16,
		AdaptiveThreshold:  0.01,
		AdaptiveMaxSamples: 256,
		Scale:              1,
		RemoveDoubles:      true,
		EdgeSplit:          true,
		SplitAngle:         DefaultSplitAngle,
	}
}

// LoadSettings reads a TOML or YAML settings file on top of the defaults.
// The format is chosen by file extension.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}
	s := DefaultSettings()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(s)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(s)
	default:
		return nil, fmt.Errorf("load settings: unsupported extension for %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}
	return s, nil
}

// Validate checks the settings for combinations that cannot be rendered.
func (s *Settings) Validate() error {
	if err := checkViews(s.Views); err != nil {
		return err
	}
	if s.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive but got %d", s.Resolution)
	}
	if s.ColorDepth != 8 && s.ColorDepth != 16 {
		return fmt.Errorf("color depth must be 8 or 16 but got %d", s.ColorDepth)
	}
	if _, err := ParseFileFormat(s.Format); err != nil {
		return err
	}
	if s.Engine != EngineShaded && s.Engine != EnginePhong {
		return fmt.Errorf("unknown engine: %s", s.Engine)
	}
	if _, err := s.ParsedChannels(); err != nil {
		return err
	}
	if s.Scale <= 0 {
		return fmt.Errorf("scale must be positive but got %f", s.Scale)
	}
	return ValidateSampling(s.Samples, s.AdaptiveSampling)
}

// ParsedChannels returns the enabled channels, always including color.
func (s *Settings) ParsedChannels() ([]Channel, error) {
	res := []Channel{ChannelColor}
	seen := map[Channel]bool{ChannelColor: true}
	for _, name := range s.Channels {
		ch, err := ParseChannel(name)
		if err != nil {
			return nil, err
		}
		if !seen[ch] {
			seen[ch] = true
			res = append(res, ch)
		}
	}
	return res, nil
}

// OutputFormat returns the color image format described by the settings.
func (s *Settings) OutputFormat() OutputFormat {
	format, _ := ParseFileFormat(s.Format)
	return OutputFormat{File: format, Depth: s.ColorDepth, Mode: ModeRGBA}
}

// ValidateSampling rejects a zero sample count when adaptive sampling is
// disabled, since every pixel would go unsampled.
func ValidateSampling(samples int, adaptive bool) error {
	if samples < 0 {
		return fmt.Errorf("sample count must not be negative but got %d", samples)
	}
	if !adaptive && samples == 0 {
		return errors.New("adaptive sampling is disabled but the sample count is zero")
	}
	return nil
}
