// Package ops implements the derived construction operations that edit the
// sketch graph while preserving the invariants the solver depends on:
// fillet, trim/split and curve intersection. All geometric degeneracies
// (parallel lines, disjoint circles, zero-length directions) produce empty
// results, never errors; errors are reserved for rejected user input.
package ops

import (
	"fmt"
	"math"

	"github.com/chazu/planar/pkg/sketch"
)

// parallelTol is the determinant threshold below which two lines are
// treated as parallel.
const parallelTol = 1e-9

// CurveKind tags a CurveRef. Consumers switch exhaustively on it; there is
// no structural inspection of entities anywhere.
type CurveKind int

const (
	CurveLine CurveKind = iota
	CurveCircle
	CurveArc
)

func (k CurveKind) String() string {
	switch k {
	case CurveLine:
		return "line"
	case CurveCircle:
		return "circle"
	case CurveArc:
		return "arc"
	default:
		return "unknown"
	}
}

// CurveRef names one intersectable curve of a sketch.
type CurveRef struct {
	Kind CurveKind
	ID   sketch.EntityID
}

// Intersect computes the closed-form intersection of two curves, inserts
// each intersection point into the sketch and attaches it with COINCIDENT
// constraints to both input curves so the solver keeps it there. An empty
// slice means the curves do not intersect (or are degenerate); that is not
// an error.
func Intersect(s *sketch.Sketch, a, b CurveRef) ([]*sketch.Point, error) {
	ga, err := resolveCurve(s, a)
	if err != nil {
		return nil, err
	}
	gb, err := resolveCurve(s, b)
	if err != nil {
		return nil, err
	}

	var hits []sketch.Vec2
	switch {
	case ga.isLine && gb.isLine:
		if p, _, _, ok := lineLine(ga.a, ga.b, gb.a, gb.b); ok {
			hits = []sketch.Vec2{p}
		}
	case ga.isLine && !gb.isLine:
		hits = lineCircle(ga.a, ga.b, gb.center, gb.radius)
	case !ga.isLine && gb.isLine:
		hits = lineCircle(gb.a, gb.b, ga.center, ga.radius)
	default:
		hits = circleCircle(ga.center, ga.radius, gb.center, gb.radius)
	}

	var points []*sketch.Point
	for _, h := range hits {
		p := s.AddPoint(h.X, h.Y)
		attachToCurve(s, p.ID, a)
		attachToCurve(s, p.ID, b)
		points = append(points, p)
	}
	return points, nil
}

// curveGeom is the resolved geometry of a CurveRef.
type curveGeom struct {
	isLine bool
	a, b   sketch.Vec2 // line endpoints
	center sketch.Vec2 // circle/arc center
	radius float64
}

func resolveCurve(s *sketch.Sketch, ref CurveRef) (curveGeom, error) {
	switch ref.Kind {
	case CurveLine:
		l := s.Line(ref.ID)
		if l == nil {
			return curveGeom{}, fmt.Errorf("no line %s", ref.ID.Short())
		}
		p1, p2 := s.Point(l.P1), s.Point(l.P2)
		if p1 == nil || p2 == nil {
			return curveGeom{}, fmt.Errorf("line %s has missing endpoints", ref.ID.Short())
		}
		return curveGeom{isLine: true, a: p1.Pos, b: p2.Pos}, nil
	case CurveCircle:
		c := s.Circle(ref.ID)
		if c == nil {
			return curveGeom{}, fmt.Errorf("no circle %s", ref.ID.Short())
		}
		o := s.Point(c.Center)
		if o == nil {
			return curveGeom{}, fmt.Errorf("circle %s has missing center", ref.ID.Short())
		}
		return curveGeom{center: o.Pos, radius: c.Radius}, nil
	case CurveArc:
		a := s.Arc(ref.ID)
		if a == nil {
			return curveGeom{}, fmt.Errorf("no arc %s", ref.ID.Short())
		}
		o := s.Point(a.Center)
		if o == nil {
			return curveGeom{}, fmt.Errorf("arc %s has missing center", ref.ID.Short())
		}
		return curveGeom{center: o.Pos, radius: a.Radius}, nil
	default:
		return curveGeom{}, fmt.Errorf("unknown curve kind %d", ref.Kind)
	}
}

// attachToCurve adds the COINCIDENT constraint that keeps an intersection
// point glued to the curve it was found on.
func attachToCurve(s *sketch.Sketch, pid sketch.EntityID, ref CurveRef) {
	switch ref.Kind {
	case CurveLine:
		s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{pid}, []sketch.EntityID{ref.ID}, nil)
	case CurveCircle, CurveArc:
		s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{pid}, nil, []sketch.EntityID{ref.ID})
	}
}

// lineLine intersects the infinite lines through (a1,a2) and (b1,b2) via a
// 2x2 determinant. It also reports the parametric positions t (on a) and u
// (on b). Parallel lines yield no intersection.
func lineLine(a1, a2, b1, b2 sketch.Vec2) (p sketch.Vec2, t, u float64, ok bool) {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	det := da.Cross(db)
	if math.Abs(det) <= parallelTol {
		return sketch.Vec2{}, 0, 0, false
	}
	w := b1.Sub(a1)
	t = w.Cross(db) / det
	u = w.Cross(da) / det
	return a1.Add(da.Scale(t)), t, u, true
}

// lineCircle intersects the infinite line through (a, b) with a circle.
// The discriminant decides between 0, 1 (tangent) and 2 solutions.
func lineCircle(a, b, center sketch.Vec2, r float64) []sketch.Vec2 {
	d := b.Sub(a)
	f := a.Sub(center)
	A := d.Dot(d)
	if A < 1e-18 {
		return nil
	}
	B := 2 * f.Dot(d)
	C := f.Dot(f) - r*r
	disc := B*B - 4*A*C
	if disc < 0 {
		return nil
	}
	if disc == 0 {
		t := -B / (2 * A)
		return []sketch.Vec2{a.Add(d.Scale(t))}
	}
	sq := math.Sqrt(disc)
	t1 := (-B - sq) / (2 * A)
	t2 := (-B + sq) / (2 * A)
	return []sketch.Vec2{a.Add(d.Scale(t1)), a.Add(d.Scale(t2))}
}

// circleCircle intersects two circles via the radical line. Disjoint,
// nested and concentric pairs are degenerate and yield nothing; the
// degeneracy checks are exact comparisons by contract.
func circleCircle(o1 sketch.Vec2, r1 float64, o2 sketch.Vec2, r2 float64) []sketch.Vec2 {
	d := o1.Dist(o2)
	if d == 0 || d > r1+r2 || d < math.Abs(r1-r2) {
		return nil
	}
	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h2 := r1*r1 - a*a
	if h2 < 0 {
		h2 = 0
	}
	h := math.Sqrt(h2)
	dir := o2.Sub(o1).Scale(1 / d)
	mid := o1.Add(dir.Scale(a))
	if h == 0 {
		return []sketch.Vec2{mid}
	}
	n := sketch.Vec2{X: -dir.Y, Y: dir.X}
	return []sketch.Vec2{mid.Add(n.Scale(h)), mid.Sub(n.Scale(h))}
}
