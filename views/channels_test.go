package views

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

func TestCompositorRoutes(t *testing.T) {
	s := DefaultSettings()
	c, err := NewCompositor(s)
	require.NoError(t, err)

	routes := c.Routes()
	require.Len(t, routes, 5)
	seen := map[Channel]bool{}
	for _, r := range routes {
		require.False(t, seen[r.Channel], "duplicate route for %s", r.Channel)
		seen[r.Channel] = true
	}

	require.Equal(t, ModeBW, c.Route(ChannelDepth).Format.Mode)
	require.Equal(t, ModeBW, c.Route(ChannelObjectID).Format.Mode)
	require.Equal(t, ModeRGBA, c.Route(ChannelNormal).Format.Mode)

	s.Channels = []string{"normal"}
	c, err = NewCompositor(s)
	require.NoError(t, err)
	require.Len(t, c.Routes(), 2)
	require.Nil(t, c.Route(ChannelDepth))
}

func TestCompositorHDRRoutes(t *testing.T) {
	s := DefaultSettings()
	s.Format = "PFM"
	c, err := NewCompositor(s)
	require.NoError(t, err)
	require.Empty(t, c.Route(ChannelDepth).Nodes, "HDR depth is written raw")
	require.Empty(t, c.Route(ChannelObjectID).Nodes, "HDR ids are written raw")
	require.Empty(t, c.Route(ChannelColor).Nodes, "HDR color stays linear")
	require.Len(t, c.Route(ChannelAlbedo).Nodes, 1)
}

func testPasses() *Passes {
	p := newPasses(2, 1)
	p.Depth[0] = 1.0
	p.Depth[1] = BackgroundDepth
	p.Alpha[0] = 1
	p.Normal[0] = model3d.XYZ(0, 0, 1)
	p.Normal[1] = model3d.XYZ(-1, 0, 0)
	p.Albedo[0] = render3d.Color{X: 0.2, Y: 0.4, Z: 0.6}
	p.ObjectIndex[0] = 1
	return p
}

func TestRouteEvaluate(t *testing.T) {
	c, err := NewCompositor(DefaultSettings())
	require.NoError(t, err)
	passes := testPasses()

	depth := c.Route(ChannelDepth).Evaluate(passes)
	require.InDelta(t, (1.0-0.7)*1.4, depth.Data[0][0], 1e-8)

	normal := c.Route(ChannelNormal).Evaluate(passes)
	require.Equal(t, Sample{0.5, 0.5, 1, 1}, normal.Data[0])
	require.Equal(t, Sample{0, 0.5, 0.5, 0}, normal.Data[1])

	albedo := c.Route(ChannelAlbedo).Evaluate(passes)
	require.Equal(t, 1.0, albedo.Data[0][3])
	require.Equal(t, 0.0, albedo.Data[1][3])
	require.InDelta(t, 0.4845, albedo.Data[0][0], 1e-3)
	require.InDelta(t, 0.6651, albedo.Data[0][1], 1e-3)
	require.InDelta(t, 0.7977, albedo.Data[0][2], 1e-3)

	ids := c.Route(ChannelObjectID).Evaluate(passes)
	require.Equal(t, 1.0/256, ids.Data[0][0])
	require.Equal(t, 0.0, ids.Data[1][0])
}

func TestSRGBNode(t *testing.T) {
	var n SRGBNode
	clamped := n.Apply(Sample{0, -1, 1, 0.5}, nil, 0)
	require.Equal(t, 0.0, clamped[0])
	require.Equal(t, 0.0, clamped[1])
	require.InDelta(t, 1, clamped[2], 1e-9)
	require.Equal(t, 0.5, clamped[3])
	out := n.Apply(Sample{0.5, 0.001, 4, 1}, nil, 0)
	require.InDelta(t, 0.7354, out[0], 1e-3)
	require.InDelta(t, 0.01292, out[1], 1e-5)
	require.InDelta(t, 1, out[2], 1e-9)
}

func TestMapValueNodeClamp(t *testing.T) {
	n := &MapValueNode{Offset: -0.7, Size: 1.4, UseMin: true}
	require.Equal(t, 0.0, n.Apply(Sample{0.1, 0, 0, 1}, nil, 0)[0])
	n.UseMax = true
	n.Max = 1
	require.Equal(t, 1.0, n.Apply(Sample{100, 0, 0, 1}, nil, 0)[0])
}

func TestComposite(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCompositor(DefaultSettings())
	require.NoError(t, err)
	paths, err := c.Composite(testPasses(), filepath.Join(dir, "m_r_000"))
	require.NoError(t, err)
	require.Len(t, paths, 5)
	for _, name := range []string{"m_r_000.png", "m_r_000_depth.png", "m_r_000_normal.png",
		"m_r_000_albedo.png", "m_r_000_id.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
}
