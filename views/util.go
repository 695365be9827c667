package views

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Float | constraints.Integer](x, min, max T) T {
	if x < min {
		return min
	} else if x > max {
		return max
	}
	return x
}

// rgb stores color components as given, without any gamma conversion.
func rgb(r, g, b float64) render3d.Color {
	return render3d.Color{X: r, Y: g, Z: b}
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

// eulerXYZ rotates c by Euler angles (radians) applied about X, then Y, then
// Z, matching the XYZ rotation mode of the scene objects.
func eulerXYZ(angles, c model3d.Coord3D) model3d.Coord3D {
	return rotateZ(rotateY(rotateX(c, angles.X), angles.Y), angles.Z)
}

func rotateX(c model3d.Coord3D, theta float64) model3d.Coord3D {
	sin, cos := math.Sincos(theta)
	return model3d.XYZ(c.X, cos*c.Y-sin*c.Z, sin*c.Y+cos*c.Z)
}

func rotateY(c model3d.Coord3D, theta float64) model3d.Coord3D {
	sin, cos := math.Sincos(theta)
	return model3d.XYZ(cos*c.X+sin*c.Z, c.Y, -sin*c.X+cos*c.Z)
}

func rotateZ(c model3d.Coord3D, theta float64) model3d.Coord3D {
	sin, cos := math.Sincos(theta)
	return model3d.XYZ(cos*c.X-sin*c.Y, sin*c.X+cos*c.Y, c.Z)
}
