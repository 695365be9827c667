package views

import (
	"fmt"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

// A PrincipledMaterial is a physically-based surface shader, parameterized
// by the standard set of principled inputs.
type PrincipledMaterial struct {
	Name string

	BaseColor render3d.Color
	Alpha     float64

	Subsurface       float64
	SubsurfaceColor  render3d.Color
	SubsurfaceRadius model3d.Coord3D

	Metallic            float64
	Specular            float64
	SpecularTint        float64
	Roughness           float64
	Anisotropic         float64
	AnisotropicRotation float64
	Sheen               float64
	SheenTint           float64
	Clearcoat           float64
	ClearcoatRoughness  float64
	IOR                 float64

	Transmission          float64
	TransmissionRoughness float64
}

// NewPrincipledMaterial creates a material with the default inputs of a
// freshly added principled shader node.
func NewPrincipledMaterial(name string) *PrincipledMaterial {
	return &PrincipledMaterial{
		Name:               name,
		BaseColor:          rgb(1, 0, 0),
		Alpha:              1,
		SubsurfaceColor:    render3d.NewColor(0.8),
		SubsurfaceRadius:   model3d.XYZ(1, 0.2, 0.1),
		Specular:           0.5,
		Roughness:          0.5,
		SheenTint:          0.5,
		ClearcoatRoughness: 0.03,
		IOR:                1.45,
	}
}

// DefaultMeshMaterial is the neutral gray applied to loaded meshes.
func DefaultMeshMaterial() *PrincipledMaterial {
	m := NewPrincipledMaterial("Material")
	m.BaseColor = render3d.NewColor(0.5)
	return m
}

func GlassMaterial() *PrincipledMaterial {
	m := NewPrincipledMaterial("Glass")
	m.Roughness = 0
	m.Clearcoat = 0.5
	m.ClearcoatRoughness = 0.03
	m.IOR = 1.45
	m.Transmission = 0.98
	return m
}

func GoldMaterial() *PrincipledMaterial {
	m := NewPrincipledMaterial("Gold")
	m.BaseColor = rgb(1.0, 0.71, 0.22)
	m.Metallic = 1
	m.Roughness = 0.1
	return m
}

func RoughBlueMaterial() *PrincipledMaterial {
	m := NewPrincipledMaterial("RoughBlue")
	m.BaseColor = rgb(0, 0, 1)
	m.Metallic = 0.5
	m.Specular = 1
	m.Roughness = 1
	return m
}

// MaterialPreset looks up a material by preset name.
func MaterialPreset(name string) (*PrincipledMaterial, error) {
	switch name {
	case "", "default":
		return DefaultMeshMaterial(), nil
	case "glass":
		return GlassMaterial(), nil
	case "gold":
		return GoldMaterial(), nil
	case "rough-blue", "rough_blue":
		return RoughBlueMaterial(), nil
	}
	return nil, fmt.Errorf("unknown material preset: %s", name)
}

// SetInput sets a named shader input. Colors take three or four values;
// scalars take one.
func (p *PrincipledMaterial) SetInput(name string, values ...float64) error {
	scalars := map[string]*float64{
		"Subsurface":             &p.Subsurface,
		"Metallic":               &p.Metallic,
		"Specular":               &p.Specular,
		"Specular Tint":          &p.SpecularTint,
		"Roughness":              &p.Roughness,
		"Anisotropic":            &p.Anisotropic,
		"Anisotropic Rotation":   &p.AnisotropicRotation,
		"Sheen":                  &p.Sheen,
		"Sheen Tint":             &p.SheenTint,
		"Clearcoat":              &p.Clearcoat,
		"Clearcoat Roughness":    &p.ClearcoatRoughness,
		"IOR":                    &p.IOR,
		"Transmission":           &p.Transmission,
		"Transmission Roughness": &p.TransmissionRoughness,
		"Alpha":                  &p.Alpha,
	}
	if ptr, ok := scalars[name]; ok {
		if len(values) != 1 {
			return fmt.Errorf("set input %q: expected 1 value but got %d", name, len(values))
		}
		*ptr = values[0]
		return nil
	}
	vectors := map[string]*model3d.Coord3D{
		"Base Color":        &p.BaseColor,
		"Subsurface Color":  &p.SubsurfaceColor,
		"Subsurface Radius": &p.SubsurfaceRadius,
	}
	if ptr, ok := vectors[name]; ok {
		if len(values) != 3 && len(values) != 4 {
			return fmt.Errorf("set input %q: expected 3 or 4 values but got %d", name,
				len(values))
		}
		*ptr = model3d.XYZ(values[0], values[1], values[2])
		return nil
	}
	return fmt.Errorf("set input: unknown input %q", name)
}

// Albedo is the diffuse color seen by the albedo pass.
func (p *PrincipledMaterial) Albedo(base render3d.Color) render3d.Color {
	diffuse := base.Scale(1 - p.Subsurface).Add(p.SubsurfaceColor.Scale(p.Subsurface))
	return diffuse.Scale((1 - p.Metallic) * (1 - p.Transmission))
}

// A shadeInput describes the geometry at one surface hit.
type shadeInput struct {
	Base   render3d.Color
	Normal model3d.Coord3D

	// Eye points from the surface toward the viewer.
	Eye model3d.Coord3D
}

// A lightSample is the incoming light from one emitter.
type lightSample struct {
	Direction model3d.Coord3D // toward the light
	Radiance  render3d.Color
	Specular  float64
}

// Shade computes outgoing radiance and coverage alpha for the given lights,
// using a Lambert diffuse lobe, Blinn-Phong specular and clearcoat lobes,
// a grazing sheen term and a Schlick transmission factor.
func (p *PrincipledMaterial) Shade(in shadeInput, lights []lightSample,
	ambient render3d.Color) (render3d.Color, float64) {
	n := in.Normal
	if n.Dot(in.Eye) < 0 {
		n = n.Scale(-1)
	}
	cosEye := math.Max(n.Dot(in.Eye), 0)

	diffuse := p.Albedo(in.Base)
	tint := render3d.NewColor(1)
	if lum := luminance(in.Base); lum > 0 {
		tint = in.Base.Scale(1 / lum)
	}
	dielectric := render3d.NewColor(1).Scale(1 - p.SpecularTint).Add(tint.Scale(p.SpecularTint))
	f0 := dielectric.Scale(0.08 * p.Specular).Scale(1 - p.Metallic).Add(in.Base.Scale(p.Metallic))
	sheenColor := render3d.NewColor(1).Scale(1 - p.SheenTint).Add(tint.Scale(p.SheenTint))

	result := ambient.Mul(diffuse)
	for _, l := range lights {
		cosLight := n.Dot(l.Direction)
		if cosLight <= 0 {
			continue
		}
		half := l.Direction.Add(in.Eye).Normalize()
		cosHalf := math.Max(n.Dot(half), 0)
		fresnel := schlick(f0, math.Max(half.Dot(in.Eye), 0))

		lobe := diffuse.Scale(cosLight / math.Pi)
		spec := fresnel.Scale(blinnPhong(p.Roughness, cosHalf) * cosLight * l.Specular)
		lobe = lobe.Add(spec)
		if p.Clearcoat > 0 {
			coat := schlick(render3d.NewColor(0.04), math.Max(half.Dot(in.Eye), 0))
			lobe = lobe.Add(coat.Scale(p.Clearcoat * 0.25 *
				blinnPhong(p.ClearcoatRoughness, cosHalf) * cosLight * l.Specular))
		}
		if p.Sheen > 0 {
			lobe = lobe.Add(sheenColor.Scale(p.Sheen * math.Pow(1-cosEye, 5) * cosLight))
		}
		result = result.Add(lobe.Mul(l.Radiance))
	}

	alpha := p.Alpha
	if p.Transmission > 0 {
		r0 := math.Pow((p.IOR-1)/(p.IOR+1), 2)
		reflect := r0 + (1-r0)*math.Pow(1-cosEye, 5)
		alpha *= 1 - p.Transmission*(1-reflect)
	}
	return result, clamp(alpha, 0, 1)
}

func schlick(f0 render3d.Color, cosTheta float64) render3d.Color {
	w := math.Pow(1-cosTheta, 5)
	return f0.Scale(1 - w).Add(render3d.NewColor(w))
}

// blinnPhong evaluates a normalized Blinn-Phong lobe whose exponent is
// derived from a perceptual roughness.
func blinnPhong(roughness, cosHalf float64) float64 {
	alpha := math.Max(roughness*roughness, 1e-3)
	exponent := math.Max(2/(alpha*alpha)-2, 0)
	return (exponent + 2) / (2 * math.Pi) * math.Pow(cosHalf, exponent)
}

func luminance(c render3d.Color) float64 {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}
