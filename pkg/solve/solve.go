// Package solve implements the constraint relaxation engine. It never
// solves the constraint system exactly; each pass applies one small local
// correction per constraint and the system settles into an approximate
// fixed point over a fixed number of passes. There is no Jacobian and no
// matrix inversion, so redundant or mildly conflicting constraints degrade
// into visible disagreement instead of singularities.
package solve

import (
	"math"

	"github.com/chazu/planar/pkg/sketch"
)

const (
	// Passes is the fixed relaxation iteration budget per solve call.
	Passes = 20
	// Step is the relaxation factor applied to every correction.
	Step = 0.5
)

// Result carries the new point positions and circle/arc radii produced by a
// solve, plus the worst per-constraint residual remaining after the final
// pass. The inputs of Solve are never mutated.
type Result struct {
	Positions map[sketch.EntityID]sketch.Vec2
	Radii     map[sketch.EntityID]float64
	Residual  float64
}

// circleRef is a solver-internal view of a circle or arc: both share the
// constraint namespace and both have a center point and a radius.
type circleRef struct {
	center sketch.EntityID
	radius float64
}

// state is the per-call working set: a flat coordinate buffer with a stable
// id->index map, a fixed mask and lookup tables for lines and circles/arcs.
// Indices are only valid for the duration of one call; entities can be
// added or removed between solves.
type state struct {
	buf     []float64 // 2 reals per point
	idx     map[sketch.EntityID]int
	fixed   []bool
	lines   map[sketch.EntityID]*sketch.Line
	circles map[sketch.EntityID]*circleRef
}

// Solve runs the relaxation over the given entities and returns updated
// positions and radii. It is a pure function of its inputs and idempotent
// at a fixed point; a point whose Fixed flag is set (or that is referenced
// by a FIXED constraint) is never repositioned.
func Solve(points []*sketch.Point, constraints []*sketch.Constraint, lines []*sketch.Line, circles []*sketch.Circle, arcs []*sketch.Arc) Result {
	st := &state{
		buf:     make([]float64, 2*len(points)),
		idx:     make(map[sketch.EntityID]int, len(points)),
		fixed:   make([]bool, len(points)),
		lines:   make(map[sketch.EntityID]*sketch.Line, len(lines)),
		circles: make(map[sketch.EntityID]*circleRef, len(circles)+len(arcs)),
	}
	for i, p := range points {
		st.idx[p.ID] = i
		st.buf[2*i] = p.Pos.X
		st.buf[2*i+1] = p.Pos.Y
		st.fixed[i] = p.Fixed
	}
	for _, l := range lines {
		st.lines[l.ID] = l
	}
	for _, c := range circles {
		st.circles[c.ID] = &circleRef{center: c.Center, radius: c.Radius}
	}
	for _, a := range arcs {
		st.circles[a.ID] = &circleRef{center: a.Center, radius: a.Radius}
	}

	// FIXED constraints pin their points for the whole call.
	for _, c := range constraints {
		if c.Kind != sketch.Fixed {
			continue
		}
		for _, pid := range c.Points {
			if i, ok := st.idx[pid]; ok {
				st.fixed[i] = true
			}
		}
	}

	for pass := 0; pass < Passes; pass++ {
		for _, c := range constraints {
			st.apply(c)
		}
		// RADIUS is exact, not iterative: overwrite after each full pass.
		for _, c := range constraints {
			if c.Kind != sketch.Radius {
				continue
			}
			for _, cid := range c.Circles {
				if ref, ok := st.circles[cid]; ok {
					ref.radius = c.Value
				}
			}
		}
	}

	res := Result{
		Positions: make(map[sketch.EntityID]sketch.Vec2, len(points)),
		Radii:     make(map[sketch.EntityID]float64, len(st.circles)),
	}
	for id, i := range st.idx {
		res.Positions[id] = st.point(i)
	}
	for id, ref := range st.circles {
		res.Radii[id] = ref.radius
	}
	for _, c := range constraints {
		if r := st.residual(c); r > res.Residual {
			res.Residual = r
		}
	}
	return res
}

// Apply runs Solve over a sketch and writes the result back into it.
func Apply(s *sketch.Sketch) Result {
	res := Solve(s.Points, s.Constraints, s.Lines, s.Circles, s.Arcs)
	for _, p := range s.Points {
		if pos, ok := res.Positions[p.ID]; ok {
			p.Pos = pos
		}
	}
	for _, c := range s.Circles {
		if r, ok := res.Radii[c.ID]; ok {
			c.Radius = r
		}
	}
	for _, a := range s.Arcs {
		if r, ok := res.Radii[a.ID]; ok {
			a.Radius = r
		}
	}
	return res
}

// --- buffer access -------------------------------------------------------

func (st *state) point(i int) sketch.Vec2 {
	return sketch.Vec2{X: st.buf[2*i], Y: st.buf[2*i+1]}
}

func (st *state) setPoint(i int, v sketch.Vec2) {
	st.buf[2*i] = v.X
	st.buf[2*i+1] = v.Y
}

// nudge moves point i by delta unless it is fixed.
func (st *state) nudge(i int, delta sketch.Vec2) {
	if st.fixed[i] {
		return
	}
	st.buf[2*i] += delta.X
	st.buf[2*i+1] += delta.Y
}

// pointIdx resolves a point id, reporting whether it exists.
func (st *state) pointIdx(id sketch.EntityID) (int, bool) {
	i, ok := st.idx[id]
	return i, ok
}

// lineIdx resolves a line id to its endpoint indices.
func (st *state) lineIdx(id sketch.EntityID) (p1, p2 int, ok bool) {
	l, ok := st.lines[id]
	if !ok {
		return 0, 0, false
	}
	p1, ok1 := st.idx[l.P1]
	p2, ok2 := st.idx[l.P2]
	return p1, p2, ok1 && ok2
}

// weights splits a residual between two endpoints: half each when both are
// free, everything to the free one when the other is fixed.
func weights(aFixed, bFixed bool) (wa, wb float64) {
	switch {
	case aFixed && bFixed:
		return 0, 0
	case aFixed:
		return 0, 1
	case bFixed:
		return 1, 0
	default:
		return 0.5, 0.5
	}
}

// wrapToPi normalizes an angle difference into (-pi, pi].
func wrapToPi(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// wrapToHalfPi normalizes an orientation difference into (-pi/2, pi/2].
// Parallelism is insensitive to line direction, so differences are taken
// modulo pi.
func wrapToHalfPi(a float64) float64 {
	a = wrapToPi(a)
	if a > math.Pi/2 {
		a -= math.Pi
	}
	if a <= -math.Pi/2 {
		a += math.Pi
	}
	return a
}
