// Package types defines the shared data model for the easel runtime:
// points, paths, pending strokes, wire messages, and gallery records.
package types

// Point is an immutable 2D canvas coordinate.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// PathKind is the declarative path type discriminator.
type PathKind string

// Path kind constants.
const (
	PathLine      PathKind = "line"
	PathPolyline  PathKind = "polyline"
	PathQuadratic PathKind = "quadratic"
	PathCubic     PathKind = "cubic"
	PathSVG       PathKind = "svg"
)

// MinPoints returns the minimum point count required to interpolate
// this kind. SVG paths carry no point list and return 0.
func (k PathKind) MinPoints() int {
	switch k {
	case PathLine, PathPolyline:
		return 2
	case PathQuadratic:
		return 3
	case PathCubic:
		return 4
	default:
		return 0
	}
}

// Author identifies who produced a path.
type Author string

// Author constants.
const (
	AuthorAgent Author = "agent"
	AuthorHuman Author = "human"
)

// Path is a declarative stroke description before rasterization.
//
// For line/polyline/quadratic/cubic kinds the geometry lives in Points.
// For svg kind the geometry is the opaque Data string and Points is empty.
type Path struct {
	// Kind is the path type discriminator.
	Kind PathKind `json:"kind" msgpack:"kind"`
	// Points holds the endpoint/control geometry for non-SVG kinds.
	Points []Point `json:"points,omitempty" msgpack:"points,omitempty"`
	// Data is the SVG path-data string for the svg kind.
	Data string `json:"data,omitempty" msgpack:"data,omitempty"`
	// Author is who produced the path.
	Author Author `json:"author" msgpack:"author"`
	// Color is an optional stroke color override.
	Color string `json:"color,omitempty" msgpack:"color,omitempty"`
	// Width is an optional stroke width override.
	Width float64 `json:"width,omitempty" msgpack:"width,omitempty"`
	// Opacity is an optional stroke opacity override.
	Opacity float64 `json:"opacity,omitempty" msgpack:"opacity,omitempty"`
	// Brush is an optional brush-preset identifier.
	Brush string `json:"brush,omitempty" msgpack:"brush,omitempty"`
}

// Degenerate reports whether the path has too few points for its kind.
// Degenerate paths interpolate to their original point list, never error.
func (p *Path) Degenerate() bool {
	if p.Kind == PathSVG {
		return p.Data == ""
	}
	return len(p.Points) < p.Kind.MinPoints()
}
