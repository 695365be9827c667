package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// A Channel is one rendered output stream.
type Channel int

const (
	ChannelColor Channel = iota
	ChannelDepth
	ChannelNormal
	ChannelAlbedo
	ChannelObjectID
)

// ParseChannel parses a case-insensitive channel name.
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "color", "image":
		return ChannelColor, nil
	case "depth":
		return ChannelDepth, nil
	case "normal":
		return ChannelNormal, nil
	case "albedo":
		return ChannelAlbedo, nil
	case "id", "object-id", "object_id":
		return ChannelObjectID, nil
	}
	return 0, fmt.Errorf("unknown channel: %s", name)
}

func (c Channel) String() string {
	switch c {
	case ChannelColor:
		return "color"
	case ChannelDepth:
		return "depth"
	case ChannelNormal:
		return "normal"
	case ChannelAlbedo:
		return "albedo"
	case ChannelObjectID:
		return "id"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Suffix is appended to the view path for the channel's file.
func (c Channel) Suffix() string {
	if c == ChannelColor {
		return ""
	}
	return "_" + c.String()
}

// A Pass is a raw per-pixel output of the renderer.
type Pass int

const (
	PassImage Pass = iota
	PassAlpha
	PassDepth
	PassNormal
	PassDiffuseColor
	PassObjectIndex
)

// A Node transforms one sample on its way to an output.
type Node interface {
	Apply(s Sample, passes *Passes, idx int) Sample
}

// MapValueNode computes (v+Offset)*Size on the first component and
// optionally clamps it.
type MapValueNode struct {
	Offset float64
	Size   float64
	UseMin bool
	Min    float64
	UseMax bool
	Max    float64
}

func (m *MapValueNode) Apply(s Sample, passes *Passes, idx int) Sample {
	v := (s[0] + m.Offset) * m.Size
	if m.UseMin {
		v = math.Max(v, m.Min)
	}
	if m.UseMax {
		v = math.Min(v, m.Max)
	}
	return Sample{v, v, v, s[3]}
}

type BlendType int

const (
	BlendMultiply BlendType = iota
	BlendAdd
)

// MixNode blends the sample's color with a constant color. Alpha is taken
// from the sample.
type MixNode struct {
	Blend BlendType
	Color Sample
}

func (m *MixNode) Apply(s Sample, passes *Passes, idx int) Sample {
	res := s
	for i := 0; i < 3; i++ {
		switch m.Blend {
		case BlendMultiply:
			res[i] = s[i] * m.Color[i]
		case BlendAdd:
			res[i] = s[i] + m.Color[i]
		}
	}
	return res
}

// SetAlphaNode replaces the sample's alpha with another pass.
type SetAlphaNode struct {
	Alpha Pass
}

func (s *SetAlphaNode) Apply(in Sample, passes *Passes, idx int) Sample {
	in[3] = passes.Sample(s.Alpha, idx)[0]
	return in
}

// SRGBNode applies the sRGB transfer curve to the clamped color
// components, turning linear radiance into display values.
type SRGBNode struct{}

func (SRGBNode) Apply(s Sample, passes *Passes, idx int) Sample {
	c := colorful.LinearRgb(clamp(s[0], 0, 1), clamp(s[1], 0, 1), clamp(s[2], 0, 1))
	return Sample{c.R, c.G, c.B, s[3]}
}

type MathOp int

const (
	MathDivide MathOp = iota
	MathMultiply
)

// MathNode applies a scalar operation to the first component.
type MathNode struct {
	Op    MathOp
	Value float64
	Clamp bool
}

func (m *MathNode) Apply(s Sample, passes *Passes, idx int) Sample {
	v := s[0]
	switch m.Op {
	case MathDivide:
		v /= m.Value
	case MathMultiply:
		v *= m.Value
	}
	if m.Clamp {
		v = clamp(v, 0, 1)
	}
	return Sample{v, v, v, s[3]}
}

// A Route wires one renderer pass through a chain of nodes into an output
// file for a channel.
type Route struct {
	Channel Channel
	Source  Pass
	Nodes   []Node
	Format  OutputFormat
}

// Evaluate runs every pixel of the source pass through the node chain.
func (r *Route) Evaluate(passes *Passes) *Plane {
	res := newPlane(passes.Width, passes.Height)
	for i := range res.Data {
		s := passes.Sample(r.Source, i)
		for _, n := range r.Nodes {
			s = n.Apply(s, passes, i)
		}
		res.Data[i] = s
	}
	return res
}

// A Compositor holds the output routing graph: exactly one route per
// enabled channel. It is built once and reused for every view.
type Compositor struct {
	routes []*Route
}

// NewCompositor builds the routing graph for the settings.
func NewCompositor(s *Settings) (*Compositor, error) {
	channels, err := s.ParsedChannels()
	if err != nil {
		return nil, errors.Wrap(err, "new compositor")
	}
	format := s.OutputFormat()
	c := &Compositor{}
	for _, ch := range channels {
		c.routes = append(c.routes, newRoute(ch, format, s.DepthScale))
	}
	return c, nil
}

func newRoute(ch Channel, format OutputFormat, depthScale float64) *Route {
	r := &Route{Channel: ch, Format: format}
	switch ch {
	case ChannelColor:
		r.Source = PassImage
		if !format.File.HDR() {
			r.Nodes = []Node{SRGBNode{}}
		}
	case ChannelDepth:
		r.Source = PassDepth
		if !format.File.HDR() {
			r.Format.Mode = ModeBW
			// Other formats cannot represent the full depth range.
			r.Nodes = []Node{&MapValueNode{Offset: -0.7, Size: depthScale, UseMin: true}}
		} else {
			r.Format.Mode = ModeRGB
		}
	case ChannelNormal:
		r.Source = PassNormal
		r.Nodes = []Node{
			&MixNode{Blend: BlendMultiply, Color: Sample{0.5, 0.5, 0.5, 1}},
			&MixNode{Blend: BlendAdd, Color: Sample{0.5, 0.5, 0.5, 0}},
			&SetAlphaNode{Alpha: PassAlpha},
		}
	case ChannelAlbedo:
		r.Source = PassDiffuseColor
		r.Nodes = []Node{&SetAlphaNode{Alpha: PassAlpha}}
		if !format.File.HDR() {
			r.Nodes = append(r.Nodes, SRGBNode{})
		}
	case ChannelObjectID:
		r.Source = PassObjectIndex
		if !format.File.HDR() {
			r.Format.Mode = ModeBW
			r.Nodes = []Node{&MathNode{Op: MathDivide, Value: math.Pow(2, float64(format.Depth))}}
		} else {
			r.Format.Mode = ModeRGB
		}
	}
	return r
}

// Routes returns the routes in channel order.
func (c *Compositor) Routes() []*Route {
	return append([]*Route{}, c.routes...)
}

// Route finds the route for a channel, or nil if it is disabled.
func (c *Compositor) Route(ch Channel) *Route {
	for _, r := range c.routes {
		if r.Channel == ch {
			return r
		}
	}
	return nil
}

// Composite writes every channel of a rendered view. The base path has no
// extension; each channel appends its suffix and the format extension.
func (c *Compositor) Composite(passes *Passes, base string) (map[Channel]string, error) {
	paths := map[Channel]string{}
	for _, r := range c.routes {
		path := base + r.Channel.Suffix() + r.Format.File.Ext()
		if err := WriteImage(path, r.Format, r.Evaluate(passes)); err != nil {
			return nil, errors.Wrap(err, "composite "+r.Channel.String())
		}
		paths[r.Channel] = path
	}
	return paths, nil
}
