package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/inkhaven/easel/types"
)

// DecodePathData parses SVG path data into line, quadratic, and cubic
// segments with absolute coordinates. Arcs are converted to cubic
// approximations. Malformed data decodes as far as possible and stops;
// it never errors — an empty or unparseable string yields no segments.
func DecodePathData(data string) []types.Path {
	s := newPathScanner(data)
	var segments []types.Path

	var cur, start types.Point
	// Previous control points for smooth (S/T) reflection.
	var prevCubicCtrl, prevQuadCtrl types.Point
	var prevWasCubic, prevWasQuad bool

	emit := func(kind types.PathKind, pts ...types.Point) {
		segments = append(segments, types.Path{Kind: kind, Points: pts})
	}

	for {
		cmd, ok := s.nextCommand()
		if !ok {
			break
		}
		rel := cmd >= 'a' && cmd <= 'z'
		upper := cmd &^ 0x20

		// Reflection state is per emitted segment, not per command: only
		// a cubic or quadratic segment arms the next smooth join, and a
		// later pair within one S/T polycommand reflects the control
		// point the previous pair just emitted.
		switch upper {
		case 'C', 'S', 'Q', 'T':
		default:
			prevWasCubic, prevWasQuad = false, false
		}

		switch upper {
		case 'M':
			p, ok := s.nextPoint(cur, rel)
			if !ok {
				return segments
			}
			cur, start = p, p
			// Subsequent coordinate pairs are implicit lineto commands.
			for s.hasNumber() {
				p, ok := s.nextPoint(cur, rel)
				if !ok {
					return segments
				}
				emit(types.PathLine, cur, p)
				cur = p
			}
		case 'L':
			for {
				p, ok := s.nextPoint(cur, rel)
				if !ok {
					return segments
				}
				emit(types.PathLine, cur, p)
				cur = p
				if !s.hasNumber() {
					break
				}
			}
		case 'H':
			for {
				x, ok := s.nextNumber()
				if !ok {
					return segments
				}
				if rel {
					x += cur.X
				}
				p := types.Point{X: x, Y: cur.Y}
				emit(types.PathLine, cur, p)
				cur = p
				if !s.hasNumber() {
					break
				}
			}
		case 'V':
			for {
				y, ok := s.nextNumber()
				if !ok {
					return segments
				}
				if rel {
					y += cur.Y
				}
				p := types.Point{X: cur.X, Y: y}
				emit(types.PathLine, cur, p)
				cur = p
				if !s.hasNumber() {
					break
				}
			}
		case 'C':
			for {
				c1, ok1 := s.nextPoint(cur, rel)
				c2, ok2 := s.nextPoint(cur, rel)
				end, ok3 := s.nextPoint(cur, rel)
				if !ok1 || !ok2 || !ok3 {
					return segments
				}
				emit(types.PathCubic, cur, c1, c2, end)
				prevCubicCtrl = c2
				prevWasCubic, prevWasQuad = true, false
				cur = end
				if !s.hasNumber() {
					break
				}
			}
		case 'S':
			for {
				c2, ok1 := s.nextPoint(cur, rel)
				end, ok2 := s.nextPoint(cur, rel)
				if !ok1 || !ok2 {
					return segments
				}
				c1 := cur
				if prevWasCubic {
					c1 = reflect(prevCubicCtrl, cur)
				}
				emit(types.PathCubic, cur, c1, c2, end)
				prevCubicCtrl = c2
				prevWasCubic, prevWasQuad = true, false
				cur = end
				if !s.hasNumber() {
					break
				}
			}
		case 'Q':
			for {
				c, ok1 := s.nextPoint(cur, rel)
				end, ok2 := s.nextPoint(cur, rel)
				if !ok1 || !ok2 {
					return segments
				}
				emit(types.PathQuadratic, cur, c, end)
				prevQuadCtrl = c
				prevWasQuad, prevWasCubic = true, false
				cur = end
				if !s.hasNumber() {
					break
				}
			}
		case 'T':
			for {
				end, ok := s.nextPoint(cur, rel)
				if !ok {
					return segments
				}
				c := cur
				if prevWasQuad {
					c = reflect(prevQuadCtrl, cur)
				}
				emit(types.PathQuadratic, cur, c, end)
				prevQuadCtrl = c
				prevWasQuad, prevWasCubic = true, false
				cur = end
				if !s.hasNumber() {
					break
				}
			}
		case 'A':
			for {
				rx, ok1 := s.nextNumber()
				ry, ok2 := s.nextNumber()
				rot, ok3 := s.nextNumber()
				largeArc, ok4 := s.nextNumber()
				sweep, ok5 := s.nextNumber()
				end, ok6 := s.nextPoint(cur, rel)
				if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
					return segments
				}
				cubics := arcToCubics(cur, end, rx, ry, rot, largeArc != 0, sweep != 0)
				segments = append(segments, cubics...)
				cur = end
				if !s.hasNumber() {
					break
				}
			}
		case 'Z':
			if cur != start {
				emit(types.PathLine, cur, start)
			}
			cur = start
		default:
			// Unknown command: stop decoding rather than guess.
			return segments
		}
	}

	return segments
}

// reflect mirrors a control point through a pivot for smooth curve joins.
func reflect(ctrl, pivot types.Point) types.Point {
	return types.Point{X: 2*pivot.X - ctrl.X, Y: 2*pivot.Y - ctrl.Y}
}

// arcToCubics converts an SVG elliptical arc to cubic Bezier segments via
// the standard endpoint-to-center conversion, splitting the sweep into
// slices of at most 90 degrees.
func arcToCubics(from, to types.Point, rx, ry, rotDeg float64, largeArc, sweep bool) []types.Path {
	if rx == 0 || ry == 0 || from == to {
		return []types.Path{{Kind: types.PathLine, Points: []types.Point{from, to}}}
	}
	rx, ry = math.Abs(rx), math.Abs(ry)

	phi := rotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	// Step 1: transform to the ellipse-aligned frame.
	dx := (from.X - to.X) / 2
	dy := (from.Y - to.Y) / 2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// Scale radii up if the endpoints are out of range.
	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	// Step 2: center in the aligned frame.
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	radicand := num / den
	if radicand < 0 {
		radicand = 0
	}
	coef := math.Sqrt(radicand)
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	// Step 3: center in the original frame.
	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	// Step 4: start angle and sweep extent.
	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	delta := theta2 - theta1
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	// Split into <= 90 degree slices, each one cubic.
	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := delta / float64(n)

	pointAt := func(theta float64) types.Point {
		x := rx * math.Cos(theta)
		y := ry * math.Sin(theta)
		return types.Point{
			X: cosPhi*x - sinPhi*y + cx,
			Y: sinPhi*x + cosPhi*y + cy,
		}
	}
	derivAt := func(theta float64) (float64, float64) {
		x := -rx * math.Sin(theta)
		y := ry * math.Cos(theta)
		return cosPhi*x - sinPhi*y, sinPhi*x + cosPhi*y
	}

	out := make([]types.Path, 0, n)
	// Tangent scale for a cubic approximating a circular slice.
	alpha := 4.0 / 3.0 * math.Tan(step/4)
	p0 := from
	for i := 0; i < n; i++ {
		t0 := theta1 + float64(i)*step
		t1 := t0 + step
		p3 := pointAt(t1)
		if i == n-1 {
			p3 = to
		}
		dx0, dy0 := derivAt(t0)
		dx1, dy1 := derivAt(t1)
		p1 := types.Point{X: p0.X + alpha*dx0, Y: p0.Y + alpha*dy0}
		p2 := types.Point{X: p3.X - alpha*dx1, Y: p3.Y - alpha*dy1}
		out = append(out, types.Path{Kind: types.PathCubic, Points: []types.Point{p0, p1, p2, p3}})
		p0 = p3
	}
	return out
}

// pathScanner tokenizes SVG path data: single-letter commands and numbers
// separated by whitespace or commas.
type pathScanner struct {
	data string
	pos  int
}

func newPathScanner(data string) *pathScanner {
	return &pathScanner{data: data}
}

func (s *pathScanner) skipSeparators() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			s.pos++
			continue
		}
		break
	}
}

// nextCommand returns the next command letter, or false at end of input.
func (s *pathScanner) nextCommand() (byte, bool) {
	s.skipSeparators()
	if s.pos >= len(s.data) {
		return 0, false
	}
	c := s.data[s.pos]
	if !strings.ContainsRune("MmLlHhVvCcSsQqTtAaZz", rune(c)) {
		return 0, false
	}
	s.pos++
	return c, true
}

// hasNumber reports whether a number follows before the next command.
func (s *pathScanner) hasNumber() bool {
	s.skipSeparators()
	if s.pos >= len(s.data) {
		return false
	}
	c := s.data[s.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

// nextNumber scans one float.
func (s *pathScanner) nextNumber() (float64, bool) {
	s.skipSeparators()
	start := s.pos
	if s.pos < len(s.data) && (s.data[s.pos] == '-' || s.data[s.pos] == '+') {
		s.pos++
	}
	seenDot := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			s.pos++
			continue
		}
		if (c == 'e' || c == 'E') && s.pos > start {
			s.pos++
			if s.pos < len(s.data) && (s.data[s.pos] == '-' || s.data[s.pos] == '+') {
				s.pos++
			}
			continue
		}
		break
	}
	if s.pos == start {
		return 0, false
	}
	v, err := strconv.ParseFloat(s.data[start:s.pos], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// nextPoint scans an x,y pair, resolving relative coordinates against cur.
func (s *pathScanner) nextPoint(cur types.Point, rel bool) (types.Point, bool) {
	x, ok := s.nextNumber()
	if !ok {
		return types.Point{}, false
	}
	y, ok := s.nextNumber()
	if !ok {
		return types.Point{}, false
	}
	if rel {
		x += cur.X
		y += cur.Y
	}
	return types.Point{X: x, Y: y}, true
}
