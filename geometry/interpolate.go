// Package geometry converts declarative paths into dense ordered point
// sequences suitable for timed pen-motion playback. All functions are
// pure: no state, no I/O, and degenerate input never errors.
package geometry

import (
	"math"

	"github.com/inkhaven/easel/types"
)

// lengthSegments is the segment count used for linear approximation of
// Bezier arc length.
const lengthSegments = 20

// Interpolate expands a path into an ordered point sequence at the given
// sampling density (samples per unit length). Endpoints are preserved
// exactly. A path with fewer points than its kind requires returns its
// original point list unchanged.
func Interpolate(p types.Path, density float64) []types.Point {
	if p.Degenerate() {
		return p.Points
	}

	switch p.Kind {
	case types.PathLine:
		return interpolateLine(p.Points[0], p.Points[1], density)
	case types.PathPolyline:
		return interpolatePolyline(p.Points, density)
	case types.PathQuadratic:
		return interpolateQuadratic(p.Points[0], p.Points[1], p.Points[2], density)
	case types.PathCubic:
		return interpolateCubic(p.Points[0], p.Points[1], p.Points[2], p.Points[3], density)
	case types.PathSVG:
		return interpolateSVG(p, density)
	default:
		return p.Points
	}
}

// sampleCount converts an estimated length to a point count.
func sampleCount(length, density float64) int {
	n := int(math.Round(length * density))
	if n < 2 {
		return 2
	}
	return n
}

func distance(a, b types.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func lerp(a, b types.Point, t float64) types.Point {
	return types.Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

func interpolateLine(a, b types.Point, density float64) []types.Point {
	n := sampleCount(distance(a, b), density)
	out := make([]types.Point, n)
	for i := 0; i < n; i++ {
		out[i] = lerp(a, b, float64(i)/float64(n-1))
	}
	// Pin the endpoint against float drift.
	out[n-1] = b
	return out
}

// interpolatePolyline samples each segment independently with a step count
// proportional to that segment's own length, concatenating without
// duplicating shared vertices.
func interpolatePolyline(pts []types.Point, density float64) []types.Point {
	out := []types.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Round(distance(a, b) * density))
		if steps < 1 {
			steps = 1
		}
		for s := 1; s <= steps; s++ {
			out = append(out, lerp(a, b, float64(s)/float64(steps)))
		}
		// The segment's own endpoint is exact; overwrite the last sample.
		out[len(out)-1] = b
	}
	return out
}

func interpolateQuadratic(p0, p1, p2 types.Point, density float64) []types.Point {
	curve := func(t float64) types.Point { return quadraticPoint(p0, p1, p2, t) }
	return sampleCurve(curve, p0, p2, density)
}

func interpolateCubic(p0, p1, p2, p3 types.Point, density float64) []types.Point {
	curve := func(t float64) types.Point { return cubicPoint(p0, p1, p2, p3, t) }
	return sampleCurve(curve, p0, p3, density)
}

// sampleCurve evaluates a parametric curve at uniform t with a point count
// derived from a linear approximation of its length.
func sampleCurve(curve func(float64) types.Point, start, end types.Point, density float64) []types.Point {
	n := sampleCount(estimateLength(curve), density)
	out := make([]types.Point, n)
	for i := 0; i < n; i++ {
		out[i] = curve(float64(i) / float64(n-1))
	}
	out[0] = start
	out[n-1] = end
	return out
}

// estimateLength approximates curve length by summing lengthSegments chords.
func estimateLength(curve func(float64) types.Point) float64 {
	var total float64
	prev := curve(0)
	for i := 1; i <= lengthSegments; i++ {
		next := curve(float64(i) / lengthSegments)
		total += distance(prev, next)
		prev = next
	}
	return total
}

// quadraticPoint evaluates the closed-form quadratic Bezier blend at t.
func quadraticPoint(p0, p1, p2 types.Point, t float64) types.Point {
	u := 1 - t
	return types.Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}

// cubicPoint evaluates the closed-form cubic Bezier blend at t.
func cubicPoint(p0, p1, p2, p3 types.Point, t float64) types.Point {
	u := 1 - t
	return types.Point{
		X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
		Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
	}
}

// interpolateSVG decodes the path data into line/quadratic/cubic segments,
// interpolates each independently, and concatenates the results.
func interpolateSVG(p types.Path, density float64) []types.Point {
	segments := DecodePathData(p.Data)
	var out []types.Point
	for _, seg := range segments {
		seg.Author = p.Author
		out = append(out, Interpolate(seg, density)...)
	}
	return out
}
