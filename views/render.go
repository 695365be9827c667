package views

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

const (
	// BackgroundDepth is the depth written where no surface is hit.
	BackgroundDepth = 1e10

	// sunEnergyScale converts sun strength to radiance.
	sunEnergyScale = 0.1

	// areaEnergyScale converts area/point light power to intensity.
	areaEnergyScale = 1.0

	shadowEpsilon = 1e-5

	adaptiveBatch = 4
)

// Passes holds the raw per-pixel outputs of one render. Every slice is in
// row-major order with row zero at the top.
type Passes struct {
	Width  int
	Height int

	// Color is the shaded image with straight alpha.
	Color *Plane

	// Alpha is the geometric coverage of each pixel.
	Alpha []float64

	// Depth is the camera-space depth of the pixel center.
	Depth []float64

	// Normal is the world-space shading normal of the pixel center.
	Normal []model3d.Coord3D

	// Albedo is the diffuse surface color of the pixel center.
	Albedo []render3d.Color

	// ObjectIndex is the pass index of the object at the pixel center.
	ObjectIndex []float64
}

func newPasses(width, height int) *Passes {
	n := width * height
	return &Passes{
		Width:       width,
		Height:      height,
		Color:       newPlane(width, height),
		Alpha:       make([]float64, n),
		Depth:       make([]float64, n),
		Normal:      make([]model3d.Coord3D, n),
		Albedo:      make([]render3d.Color, n),
		ObjectIndex: make([]float64, n),
	}
}

// Sample reads pixel idx of a pass as an RGBA sample.
func (p *Passes) Sample(pass Pass, idx int) Sample {
	switch pass {
	case PassImage:
		return p.Color.Data[idx]
	case PassAlpha:
		a := p.Alpha[idx]
		return Sample{a, a, a, 1}
	case PassDepth:
		d := p.Depth[idx]
		return Sample{d, d, d, 1}
	case PassNormal:
		n := p.Normal[idx]
		return Sample{n.X, n.Y, n.Z, 1}
	case PassDiffuseColor:
		c := p.Albedo[idx]
		return Sample{c.X, c.Y, c.Z, 1}
	case PassObjectIndex:
		i := p.ObjectIndex[idx]
		return Sample{i, i, i, 1}
	}
	panic("unknown pass")
}

// RenderOptions configures a Renderer.
type RenderOptions struct {
	Width  int
	Height int
	Engine string

	Samples            int
	Adaptive           bool
	AdaptiveThreshold  float64
	AdaptiveMaxSamples int

	Transparent bool
}

// RenderOptionsFromSettings derives square render options from settings.
func RenderOptionsFromSettings(s *Settings) RenderOptions {
	return RenderOptions{
		Width:              s.Resolution,
		Height:             s.Resolution,
		Engine:             s.Engine,
		Samples:            s.Samples,
		Adaptive:           s.AdaptiveSampling,
		AdaptiveThreshold:  s.AdaptiveThreshold,
		AdaptiveMaxSamples: s.AdaptiveMaxSamples,
		Transparent:        s.Transparent,
	}
}

// A Renderer ray casts a Scene into render passes.
type Renderer struct {
	opts RenderOptions
}

func NewRenderer(opts RenderOptions) (*Renderer, error) {
	if err := ValidateSampling(opts.Samples, opts.Adaptive); err != nil {
		return nil, errors.Wrap(err, "new renderer")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("new renderer: image dimensions must be positive")
	}
	switch opts.Engine {
	case "":
		opts.Engine = EngineShaded
	case EngineShaded, EnginePhong:
	default:
		return nil, errors.New("new renderer: unknown engine " + opts.Engine)
	}
	if opts.Adaptive && opts.AdaptiveMaxSamples <= 0 {
		opts.AdaptiveMaxSamples = 256
	}
	return &Renderer{opts: opts}, nil
}

type sceneHit struct {
	Object    *Object
	Collision model3d.RayCollision
}

type preparedScene struct {
	scene     *Scene
	objects   []*Object
	colliders []model3d.Collider
}

func prepareScene(s *Scene) *preparedScene {
	p := &preparedScene{scene: s}
	for _, o := range s.Objects {
		if o.Mesh == nil || o.Mesh.NumTriangles() == 0 {
			continue
		}
		p.objects = append(p.objects, o)
		p.colliders = append(p.colliders, o.Collider())
	}
	return p
}

func (p *preparedScene) cast(ray *model3d.Ray) (hit sceneHit, ok bool) {
	for i, c := range p.colliders {
		if rc, collides := c.FirstRayCollision(ray); collides {
			if !ok || rc.Scale < hit.Collision.Scale {
				hit = sceneHit{Object: p.objects[i], Collision: rc}
				ok = true
			}
		}
	}
	return
}

func (p *preparedScene) occluded(origin, direction model3d.Coord3D, maxScale float64) bool {
	ray := &model3d.Ray{Origin: origin, Direction: direction}
	for _, c := range p.colliders {
		if rc, collides := c.FirstRayCollision(ray); collides && rc.Scale < maxScale {
			return true
		}
	}
	return false
}

func (p *preparedScene) lightSamples(point, normal model3d.Coord3D) []lightSample {
	var res []lightSample
	origin := point.Add(normal.Scale(shadowEpsilon))
	for _, l := range p.scene.Lights {
		var sample lightSample
		maxScale := math.Inf(1)
		switch l.Type {
		case LightSun:
			sample.Direction = l.Direction().Scale(-1)
			sample.Radiance = l.Color.Scale(l.Energy * sunEnergyScale)
		default:
			toLight := l.Location.Sub(point)
			dist := toLight.Norm()
			if dist == 0 {
				continue
			}
			sample.Direction = toLight.Scale(1 / dist)
			falloff := 1 / (4 * math.Pi * dist * dist)
			if l.Type == LightArea {
				falloff *= math.Max(0, l.Direction().Dot(sample.Direction.Scale(-1)))
			}
			sample.Radiance = l.Color.Scale(l.Energy * areaEnergyScale * falloff)
			maxScale = dist
		}
		sample.Specular = l.SpecularFactor
		if l.CastShadows && p.occluded(origin, sample.Direction, maxScale) {
			continue
		}
		res = append(res, sample)
	}
	return res
}

// Render produces every pass for the scene's camera. It blocks until the
// whole image is finished.
func (r *Renderer) Render(s *Scene) (*Passes, error) {
	if s.Camera == nil {
		return nil, errors.New("render: scene has no camera")
	}
	cam := s.Camera.RenderCamera()
	prepared := prepareScene(s)
	passes := newPasses(r.opts.Width, r.opts.Height)

	r.renderAux(prepared, cam, passes)
	if r.opts.Engine == EnginePhong {
		r.renderPhong(prepared, cam, passes)
	} else {
		r.renderShaded(prepared, cam, passes)
	}
	return passes, nil
}

// rayCaster returns a function mapping continuous pixel coordinates to
// camera rays. The direction's component along the view axis is 1, so a
// collision scale is a camera-space depth.
func (r *Renderer) rayCaster(cam *render3d.Camera) func(px, py float64) *model3d.Ray {
	forward := cam.ScreenX.Cross(cam.ScreenY).Normalize()
	w, h := float64(r.opts.Width), float64(r.opts.Height)
	tanHalf := math.Tan(cam.FieldOfView / 2)
	return func(px, py float64) *model3d.Ray {
		sx := (2*px/w - 1) * tanHalf
		sy := (2*py/h - 1) * tanHalf * h / w
		dir := forward.Add(cam.ScreenX.Scale(sx)).Add(cam.ScreenY.Scale(sy))
		return &model3d.Ray{Origin: cam.Origin, Direction: dir}
	}
}

func (r *Renderer) renderAux(p *preparedScene, cam *render3d.Camera, passes *Passes) {
	caster := r.rayCaster(cam)
	essentials.ConcurrentMap(0, r.opts.Height, func(y int) {
		for x := 0; x < r.opts.Width; x++ {
			idx := x + y*r.opts.Width
			ray := caster(float64(x)+0.5, float64(y)+0.5)
			hit, ok := p.cast(ray)
			if !ok {
				passes.Depth[idx] = BackgroundDepth
				continue
			}
			normal, base := hit.Object.surface(hit.Collision)
			passes.Depth[idx] = hit.Collision.Scale
			passes.Normal[idx] = normal
			passes.Albedo[idx] = hit.Object.Material.Albedo(base)
			passes.ObjectIndex[idx] = float64(hit.Object.PassIndex)
		}
	})
}

func (r *Renderer) renderShaded(p *preparedScene, cam *render3d.Camera, passes *Passes) {
	caster := r.rayCaster(cam)
	essentials.ConcurrentMap(0, r.opts.Height, func(y int) {
		gen := rand.New(rand.NewSource(int64(y) + 1))
		for x := 0; x < r.opts.Width; x++ {
			idx := x + y*r.opts.Width
			sampler := func(jitter bool) (render3d.Color, float64, float64) {
				px, py := float64(x)+0.5, float64(y)+0.5
				if jitter {
					px, py = float64(x)+gen.Float64(), float64(y)+gen.Float64()
				}
				return r.shadeRay(p, caster(px, py))
			}
			color, alpha, coverage := r.samplePixel(sampler)
			passes.Color.Data[idx] = Sample{color.X, color.Y, color.Z, alpha}
			passes.Alpha[idx] = coverage
		}
	})
}

// samplePixel averages samples of a pixel. The sampler returns a
// premultiplied color, an alpha and a coverage for one ray.
func (r *Renderer) samplePixel(sampler func(jitter bool) (render3d.Color,
	float64, float64)) (render3d.Color, float64, float64) {
	var sumColor render3d.Color
	var sumAlpha, sumCoverage, sumLum, sumLumSq float64
	count := 0
	take := func(jitter bool) {
		c, a, cov := sampler(jitter)
		sumColor = sumColor.Add(c)
		sumAlpha += a
		sumCoverage += cov
		lum := luminance(c)
		sumLum += lum
		sumLumSq += lum * lum
		count++
	}

	if !r.opts.Adaptive {
		if r.opts.Samples == 1 {
			take(false)
		} else {
			for i := 0; i < r.opts.Samples; i++ {
				take(true)
			}
		}
	} else {
		limit := r.opts.AdaptiveMaxSamples
		if r.opts.Samples > 0 && r.opts.Samples < limit {
			limit = r.opts.Samples
		}
		for count < limit {
			for i := 0; i < adaptiveBatch && count < limit; i++ {
				take(true)
			}
			n := float64(count)
			mean := sumLum / n
			variance := math.Max(sumLumSq/n-mean*mean, 0)
			if math.Sqrt(variance/n) < r.opts.AdaptiveThreshold {
				break
			}
		}
	}

	n := float64(count)
	alpha := sumAlpha / n
	var color render3d.Color
	if sumAlpha > 0 {
		color = sumColor.Scale(1 / sumAlpha)
	}
	return color, alpha, sumCoverage / n
}

// shadeRay returns a premultiplied color, alpha and geometric coverage.
func (r *Renderer) shadeRay(p *preparedScene, ray *model3d.Ray) (render3d.Color, float64,
	float64) {
	hit, ok := p.cast(ray)
	if !ok {
		if r.opts.Transparent {
			return render3d.Color{}, 0, 0
		}
		return p.scene.World, 1, 0
	}
	point := ray.Origin.Add(ray.Direction.Scale(hit.Collision.Scale))
	normal, base := hit.Object.surface(hit.Collision)
	eye := ray.Direction.Scale(-1).Normalize()
	if normal.Dot(eye) < 0 {
		normal = normal.Scale(-1)
	}
	color, alpha := hit.Object.Material.Shade(
		shadeInput{Base: base, Normal: normal, Eye: eye},
		p.lightSamples(point, normal),
		p.scene.World,
	)
	premult := color.Scale(alpha)
	if r.opts.Transparent {
		return premult, alpha, 1
	}
	return premult.Add(p.scene.World.Scale(1 - alpha)), 1, 1
}

// renderPhong shades the color pass with render3d's ray caster, using
// the material base colors and converting suns to distant point lights.
func (r *Renderer) renderPhong(p *preparedScene, cam *render3d.Camera, passes *Passes) {
	var joined render3d.JoinedObject
	for i, o := range p.objects {
		obj := o
		joined = append(joined, render3d.Objectify(
			p.colliders[i],
			func(c model3d.Coord3D, rc model3d.RayCollision) render3d.Color {
				_, base := obj.surface(rc)
				return obj.Material.Albedo(base)
			},
		))
	}

	center := model3d.Coord3D{}
	radius := 1.0
	if min, max, ok := p.scene.Bounds(); ok {
		center = min.Mid(max)
		radius = math.Max(min.Dist(max), 1e-3)
	}
	var lights []*render3d.PointLight
	for _, l := range p.scene.Lights {
		if l.Type == LightSun {
			lights = append(lights, &render3d.PointLight{
				Origin: center.Sub(l.Direction().Scale(radius * 1000)),
				Color:  l.Color.Scale(l.Energy * sunEnergyScale),
			})
		} else {
			lights = append(lights, &render3d.PointLight{
				Origin: l.Location,
				Color:  l.Color.Scale(l.Energy * areaEnergyScale),
			})
		}
	}

	img := render3d.NewImage(r.opts.Width, r.opts.Height)
	if len(joined) > 0 {
		caster := &render3d.RayCaster{Camera: cam, Lights: lights}
		caster.Render(img, joined)
	}
	for y := 0; y < r.opts.Height; y++ {
		for x := 0; x < r.opts.Width; x++ {
			idx := x + y*r.opts.Width
			coverage := 0.0
			if passes.Depth[idx] < BackgroundDepth {
				coverage = 1
			}
			c := img.At(x, y)
			alpha := coverage
			if !r.opts.Transparent {
				c = c.Scale(coverage).Add(p.scene.World.Scale(1 - coverage))
				alpha = 1
			}
			passes.Color.Data[idx] = Sample{c.X, c.Y, c.Z, alpha}
			passes.Alpha[idx] = coverage
		}
	}
}
