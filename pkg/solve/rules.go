package solve

import (
	"math"

	"github.com/chazu/planar/pkg/sketch"
)

// apply runs one local correction for a single constraint. Corrections are
// Gauss-Seidel style: each reads the current buffer and writes its nudge
// immediately, in constraint list order.
func (st *state) apply(c *sketch.Constraint) {
	switch c.Kind {
	case sketch.Horizontal:
		st.levelPair(c, false)
	case sketch.Vertical:
		st.levelPair(c, true)
	case sketch.Distance:
		if len(c.Points) < 2 {
			return
		}
		i, ok1 := st.pointIdx(c.Points[0])
		j, ok2 := st.pointIdx(c.Points[1])
		if ok1 && ok2 {
			st.adjustDistance(i, j, c.Value)
		}
	case sketch.Coincident:
		st.coincident(c)
	case sketch.Midpoint:
		st.midpoint(c)
	case sketch.EqualLength:
		st.equalLength(c)
	case sketch.Parallel:
		st.parallel(c)
	case sketch.Angle:
		st.angle(c)
	case sketch.Tangent:
		st.tangent(c)
	case sketch.Fixed, sketch.Radius:
		// FIXED is handled by the fixed mask; RADIUS is overwritten exactly
		// at the end of each pass.
	}
}

// levelPair drives two points toward a shared y (horizontal) or x
// (vertical) coordinate.
func (st *state) levelPair(c *sketch.Constraint, vertical bool) {
	if len(c.Points) < 2 {
		return
	}
	i, ok1 := st.pointIdx(c.Points[0])
	j, ok2 := st.pointIdx(c.Points[1])
	if !ok1 || !ok2 {
		return
	}
	a, b := st.point(i), st.point(j)
	var r float64 // residual along the levelled axis
	if vertical {
		r = b.X - a.X
	} else {
		r = b.Y - a.Y
	}
	wa, wb := weights(st.fixed[i], st.fixed[j])
	var da, db sketch.Vec2
	if vertical {
		da = sketch.Vec2{X: r * wa * Step}
		db = sketch.Vec2{X: -r * wb * Step}
	} else {
		da = sketch.Vec2{Y: r * wa * Step}
		db = sketch.Vec2{Y: -r * wb * Step}
	}
	st.nudge(i, da)
	st.nudge(j, db)
}

// adjustDistance nudges two points so their separation moves toward target.
// Degenerate (near-zero) separations are left alone to avoid dividing by
// zero; the pair has no defined direction to correct along.
func (st *state) adjustDistance(i, j int, target float64) {
	a, b := st.point(i), st.point(j)
	d := a.Dist(b)
	if d < 1e-9 {
		return
	}
	diff := target - d
	wa, wb := weights(st.fixed[i], st.fixed[j])
	dir := b.Sub(a).Scale(1 / d)
	st.nudge(i, dir.Scale(-diff*wa*Step))
	st.nudge(j, dir.Scale(diff*wb*Step))
}

// coincident handles the three shapes of COINCIDENT:
//   - two or more points: pull every free point toward the cluster centroid
//   - one point + a line: pull the point onto the segment (and the line
//     toward the point)
//   - one point + a circle/arc: keep the point at radius from the center
func (st *state) coincident(c *sketch.Constraint) {
	if len(c.Points) >= 2 {
		var centroid sketch.Vec2
		idxs := make([]int, 0, len(c.Points))
		for _, pid := range c.Points {
			if i, ok := st.pointIdx(pid); ok {
				idxs = append(idxs, i)
				centroid = centroid.Add(st.point(i))
			}
		}
		if len(idxs) < 2 {
			return
		}
		centroid = centroid.Scale(1 / float64(len(idxs)))
		for _, i := range idxs {
			st.nudge(i, centroid.Sub(st.point(i)).Scale(Step))
		}
		return
	}
	if len(c.Points) == 1 && len(c.Lines) >= 1 {
		st.pointOnLine(c.Points[0], c.Lines[0])
		return
	}
	if len(c.Points) == 1 && len(c.Circles) >= 1 {
		st.pointOnCircle(c.Points[0], c.Circles[0])
	}
}

// pointOnLine pulls a point onto the closest spot of a segment while
// translating the segment's free endpoints toward the point.
func (st *state) pointOnLine(pid, lid sketch.EntityID) {
	pi, ok := st.pointIdx(pid)
	if !ok {
		return
	}
	p1, p2, ok := st.lineIdx(lid)
	if !ok {
		return
	}
	a, b, p := st.point(p1), st.point(p2), st.point(pi)
	ab := b.Sub(a)
	len2 := ab.Dot(ab)
	if len2 < 1e-12 {
		return
	}
	t := p.Sub(a).Dot(ab) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	foot := a.Add(ab.Scale(t))
	e := p.Sub(foot)
	wp, wl := weights(st.fixed[pi], st.fixed[p1] && st.fixed[p2])
	st.nudge(pi, e.Scale(-wp*Step))
	st.nudge(p1, e.Scale(wl*Step))
	st.nudge(p2, e.Scale(wl*Step))
}

// pointOnCircle keeps a point at the circle's radius from its center. The
// radius itself is untouched; only positions relax.
func (st *state) pointOnCircle(pid, cid sketch.EntityID) {
	ref, ok := st.circles[cid]
	if !ok {
		return
	}
	pi, ok1 := st.pointIdx(pid)
	ci, ok2 := st.pointIdx(ref.center)
	if !ok1 || !ok2 {
		return
	}
	st.adjustDistance(ci, pi, ref.radius)
}

// midpoint pulls a point toward the average of a line's endpoints.
func (st *state) midpoint(c *sketch.Constraint) {
	if len(c.Points) < 1 || len(c.Lines) < 1 {
		return
	}
	pi, ok := st.pointIdx(c.Points[0])
	if !ok {
		return
	}
	p1, p2, ok := st.lineIdx(c.Lines[0])
	if !ok {
		return
	}
	mid := st.point(p1).Add(st.point(p2)).Scale(0.5)
	e := st.point(pi).Sub(mid)
	wp, wl := weights(st.fixed[pi], st.fixed[p1] && st.fixed[p2])
	st.nudge(pi, e.Scale(-wp*Step))
	st.nudge(p1, e.Scale(wl*Step))
	st.nudge(p2, e.Scale(wl*Step))
}

// equalLength nudges two lines' lengths toward their average.
func (st *state) equalLength(c *sketch.Constraint) {
	if len(c.Lines) < 2 {
		return
	}
	a1, a2, ok1 := st.lineIdx(c.Lines[0])
	b1, b2, ok2 := st.lineIdx(c.Lines[1])
	if !ok1 || !ok2 {
		return
	}
	d1 := st.point(a1).Dist(st.point(a2))
	d2 := st.point(b1).Dist(st.point(b2))
	avg := (d1 + d2) / 2
	st.adjustDistance(a1, a2, avg)
	st.adjustDistance(b1, b2, avg)
}

// parallel rotates both lines toward a shared orientation. Orientation is
// taken modulo pi so anti-parallel lines already satisfy the constraint.
func (st *state) parallel(c *sketch.Constraint) {
	if len(c.Lines) < 2 {
		return
	}
	a1, a2, ok1 := st.lineIdx(c.Lines[0])
	b1, b2, ok2 := st.lineIdx(c.Lines[1])
	if !ok1 || !ok2 {
		return
	}
	va := st.point(a2).Sub(st.point(a1))
	vb := st.point(b2).Sub(st.point(b1))
	if va.Len() < 1e-9 || vb.Len() < 1e-9 {
		return
	}
	delta := wrapToHalfPi(vb.Angle() - va.Angle())
	st.rotateLine(a1, a2, delta*0.5*Step)
	st.rotateLine(b1, b2, -delta*0.5*Step)
}

// angle drives the angle between two lines (or one line and the horizontal
// axis) toward the target value in degrees.
func (st *state) angle(c *sketch.Constraint) {
	target := c.Value * math.Pi / 180
	switch len(c.Lines) {
	case 0:
		return
	case 1:
		p1, p2, ok := st.lineIdx(c.Lines[0])
		if !ok {
			return
		}
		v := st.point(p2).Sub(st.point(p1))
		if v.Len() < 1e-9 {
			return
		}
		delta := wrapToPi(target - v.Angle())
		st.rotateLine(p1, p2, delta*Step)
	default:
		a1, a2, ok1 := st.lineIdx(c.Lines[0])
		b1, b2, ok2 := st.lineIdx(c.Lines[1])
		if !ok1 || !ok2 {
			return
		}
		va := st.point(a2).Sub(st.point(a1))
		vb := st.point(b2).Sub(st.point(b1))
		if va.Len() < 1e-9 || vb.Len() < 1e-9 {
			return
		}
		delta := wrapToPi(target - (vb.Angle() - va.Angle()))
		st.rotateLine(b1, b2, delta*0.5*Step)
		st.rotateLine(a1, a2, -delta*0.5*Step)
	}
}

// tangent keeps a line at distance radius from a circle's center, or a
// point at radius from the center when no line is referenced.
func (st *state) tangent(c *sketch.Constraint) {
	if len(c.Circles) < 1 {
		return
	}
	if len(c.Lines) >= 1 {
		st.lineTangentCircle(c.Lines[0], c.Circles[0])
		return
	}
	if len(c.Points) >= 1 {
		st.pointOnCircle(c.Points[0], c.Circles[0])
	}
}

func (st *state) lineTangentCircle(lid, cid sketch.EntityID) {
	ref, ok := st.circles[cid]
	if !ok {
		return
	}
	p1, p2, ok := st.lineIdx(lid)
	if !ok {
		return
	}
	ci, ok := st.pointIdx(ref.center)
	if !ok {
		return
	}
	a, b, o := st.point(p1), st.point(p2), st.point(ci)
	ab := b.Sub(a)
	l := ab.Len()
	if l < 1e-9 {
		return
	}
	dir := ab.Scale(1 / l)
	signed := dir.Cross(o.Sub(a)) // positive when the center is left of the line
	dist := math.Abs(signed)
	// Normal pointing from the line toward the center. A center exactly on
	// the line has no side; pick the left normal.
	n := sketch.Vec2{X: -dir.Y, Y: dir.X}
	if signed < 0 {
		n = n.Scale(-1)
	}
	err := dist - ref.radius
	wl, wc := weights(st.fixed[p1] && st.fixed[p2], st.fixed[ci])
	st.nudge(p1, n.Scale(err*wl*Step))
	st.nudge(p2, n.Scale(err*wl*Step))
	st.nudge(ci, n.Scale(-err*wc*Step))
}

// rotateLine rotates a line by delta radians. The pivot is the midpoint
// when both endpoints are free, or the fixed endpoint when one is pinned.
func (st *state) rotateLine(p1, p2 int, delta float64) {
	f1, f2 := st.fixed[p1], st.fixed[p2]
	a, b := st.point(p1), st.point(p2)
	switch {
	case f1 && f2:
		return
	case f1:
		st.setPoint(p2, rotateAbout(b, a, delta))
	case f2:
		st.setPoint(p1, rotateAbout(a, b, delta))
	default:
		mid := a.Add(b).Scale(0.5)
		st.setPoint(p1, rotateAbout(a, mid, delta))
		st.setPoint(p2, rotateAbout(b, mid, delta))
	}
}

func rotateAbout(p, pivot sketch.Vec2, delta float64) sketch.Vec2 {
	sin, cos := math.Sincos(delta)
	d := p.Sub(pivot)
	return sketch.Vec2{
		X: pivot.X + d.X*cos - d.Y*sin,
		Y: pivot.Y + d.X*sin + d.Y*cos,
	}
}

// residual reports how far a constraint is from satisfied: a distance in
// sketch units for positional constraints, radians for angular ones.
// Non-convergent sketches keep a large residual after the iteration budget;
// callers may log it for diagnosis (the solver itself never errors).
func (st *state) residual(c *sketch.Constraint) float64 {
	switch c.Kind {
	case sketch.Horizontal, sketch.Vertical:
		if len(c.Points) < 2 {
			return 0
		}
		i, ok1 := st.pointIdx(c.Points[0])
		j, ok2 := st.pointIdx(c.Points[1])
		if !ok1 || !ok2 {
			return 0
		}
		if c.Kind == sketch.Horizontal {
			return math.Abs(st.point(i).Y - st.point(j).Y)
		}
		return math.Abs(st.point(i).X - st.point(j).X)

	case sketch.Distance:
		if len(c.Points) < 2 {
			return 0
		}
		i, ok1 := st.pointIdx(c.Points[0])
		j, ok2 := st.pointIdx(c.Points[1])
		if !ok1 || !ok2 {
			return 0
		}
		return math.Abs(st.point(i).Dist(st.point(j)) - c.Value)

	case sketch.Coincident:
		if len(c.Points) >= 2 {
			var worst float64
			i0, ok := st.pointIdx(c.Points[0])
			if !ok {
				return 0
			}
			for _, pid := range c.Points[1:] {
				if i, ok := st.pointIdx(pid); ok {
					if d := st.point(i).Dist(st.point(i0)); d > worst {
						worst = d
					}
				}
			}
			return worst
		}
		return st.curveResidual(c)

	case sketch.Midpoint:
		if len(c.Points) < 1 || len(c.Lines) < 1 {
			return 0
		}
		pi, ok := st.pointIdx(c.Points[0])
		if !ok {
			return 0
		}
		p1, p2, ok := st.lineIdx(c.Lines[0])
		if !ok {
			return 0
		}
		mid := st.point(p1).Add(st.point(p2)).Scale(0.5)
		return st.point(pi).Dist(mid)

	case sketch.EqualLength:
		if len(c.Lines) < 2 {
			return 0
		}
		a1, a2, ok1 := st.lineIdx(c.Lines[0])
		b1, b2, ok2 := st.lineIdx(c.Lines[1])
		if !ok1 || !ok2 {
			return 0
		}
		return math.Abs(st.point(a1).Dist(st.point(a2)) - st.point(b1).Dist(st.point(b2)))

	case sketch.Parallel:
		if len(c.Lines) < 2 {
			return 0
		}
		a1, a2, ok1 := st.lineIdx(c.Lines[0])
		b1, b2, ok2 := st.lineIdx(c.Lines[1])
		if !ok1 || !ok2 {
			return 0
		}
		va := st.point(a2).Sub(st.point(a1))
		vb := st.point(b2).Sub(st.point(b1))
		if va.Len() < 1e-9 || vb.Len() < 1e-9 {
			return 0
		}
		return math.Abs(wrapToHalfPi(vb.Angle() - va.Angle()))

	case sketch.Tangent:
		return st.curveResidual(c)
	}
	return 0
}

// curveResidual measures point-on-curve and line-tangent violations.
func (st *state) curveResidual(c *sketch.Constraint) float64 {
	if len(c.Circles) >= 1 {
		ref, ok := st.circles[c.Circles[0]]
		if !ok {
			return 0
		}
		ci, ok := st.pointIdx(ref.center)
		if !ok {
			return 0
		}
		o := st.point(ci)
		if len(c.Lines) >= 1 {
			p1, p2, ok := st.lineIdx(c.Lines[0])
			if !ok {
				return 0
			}
			a, b := st.point(p1), st.point(p2)
			ab := b.Sub(a)
			l := ab.Len()
			if l < 1e-9 {
				return 0
			}
			return math.Abs(math.Abs(ab.Scale(1/l).Cross(o.Sub(a))) - ref.radius)
		}
		if len(c.Points) >= 1 {
			if pi, ok := st.pointIdx(c.Points[0]); ok {
				return math.Abs(st.point(pi).Dist(o) - ref.radius)
			}
		}
		return 0
	}
	if len(c.Points) == 1 && len(c.Lines) >= 1 {
		pi, ok := st.pointIdx(c.Points[0])
		if !ok {
			return 0
		}
		p1, p2, ok := st.lineIdx(c.Lines[0])
		if !ok {
			return 0
		}
		a, b, p := st.point(p1), st.point(p2), st.point(pi)
		ab := b.Sub(a)
		len2 := ab.Dot(ab)
		if len2 < 1e-12 {
			return p.Dist(a)
		}
		t := p.Sub(a).Dot(ab) / len2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		return p.Dist(a.Add(ab.Scale(t)))
	}
	return 0
}
