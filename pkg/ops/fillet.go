package ops

import (
	"fmt"
	"math"

	"github.com/chazu/planar/pkg/sketch"
)

const (
	// DefaultFilletRadius is the nominal fillet radius in sketch units.
	DefaultFilletRadius = 20.0

	// maxTangentFraction caps the tangent distance at this fraction of
	// either arm's length so the fillet stays inside both segments.
	maxTangentFraction = 0.4
)

// Fillet replaces the vertex shared by exactly two lines with a tangent
// arc. The vertex may be a coincidence cluster; the two lines are the
// (deduplicated) lines touching any point of the cluster. The construction
// is exact, not iterative: tangent distance r/tan(theta/2) along each arm,
// center at r/sin(theta/2) along the bisector. The old cluster points are
// removed, each line is shortened to its tangent point, and the new arc is
// wired in with TANGENT, COINCIDENT and RADIUS constraints. Callers run a
// solver pass afterward to settle the rest of the graph.
//
// The requested radius is reduced automatically when the tangent distance
// would exceed 40% of either arm. If the vertex is not shared by exactly
// two lines the sketch is left untouched and an error is returned.
func Fillet(s *sketch.Sketch, vertexID sketch.EntityID, radius float64) (*sketch.Arc, error) {
	vertex := s.Point(vertexID)
	if vertex == nil {
		return nil, fmt.Errorf("no point %s", vertexID.Short())
	}
	if radius <= 0 {
		radius = DefaultFilletRadius
	}

	cluster := s.Cluster(vertexID)
	lines := s.LinesAt(cluster)
	if len(lines) != 2 {
		return nil, fmt.Errorf("fillet needs a vertex shared by exactly 2 lines, found %d", len(lines))
	}

	l1, l2 := lines[0], lines[1]
	near1, far1 := splitEnds(l1, cluster)
	near2, far2 := splitEnds(l2, cluster)
	farP1, farP2 := s.Point(far1), s.Point(far2)
	if farP1 == nil || farP2 == nil {
		return nil, fmt.Errorf("fillet lines have missing endpoints")
	}

	v := vertex.Pos
	d1 := farP1.Pos.Sub(v)
	d2 := farP2.Pos.Sub(v)
	len1, len2 := d1.Len(), d2.Len()
	if len1 < 1e-9 || len2 < 1e-9 {
		return nil, fmt.Errorf("fillet arms are degenerate")
	}
	d1 = d1.Scale(1 / len1)
	d2 = d2.Scale(1 / len2)

	cos := d1.Dot(d2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	theta := math.Acos(cos)
	if theta < 1e-6 || math.Pi-theta < 1e-6 {
		return nil, fmt.Errorf("fillet lines are collinear")
	}
	half := theta / 2

	// Tangent distance along each arm; shrink the radius if it would put a
	// tangent point past 40% of either arm.
	tan := radius / math.Tan(half)
	maxTan := maxTangentFraction * math.Min(len1, len2)
	if tan > maxTan {
		tan = maxTan
		radius = tan * math.Tan(half)
	}

	t1 := v.Add(d1.Scale(tan))
	t2 := v.Add(d2.Scale(tan))
	bisector := d1.Add(d2).Normalize()
	center := v.Add(bisector.Scale(radius / math.Sin(half)))

	// All geometry checks passed; mutate.
	tp1 := s.AddPoint(t1.X, t1.Y)
	tp2 := s.AddPoint(t2.X, t2.Y)
	cp := s.AddPoint(center.X, center.Y)

	// The coincident constraints holding the cluster together are obsolete;
	// remove them before re-pointing so they do not glue the two new
	// tangent points to each other.
	for i := len(s.Constraints) - 1; i >= 0; i-- {
		c := s.Constraints[i]
		if c.Kind == sketch.Coincident && len(c.Points) >= 2 && allIn(c.Points, cluster) {
			s.DeleteConstraint(c.ID)
		}
	}

	// Shorten each line to its tangent point.
	replaceEndpoint(l1, near1, tp1.ID)
	replaceEndpoint(l2, near2, tp2.ID)

	// Constraints that referenced a cluster point follow the tangent point
	// of the line they belonged to; anything else lands on the first.
	for _, c := range s.Constraints {
		repointConstraint(c, cluster, near1, near2, tp1.ID, tp2.ID)
	}

	arc, err := s.AddArc(cp.ID, radius, tp1.ID, tp2.ID)
	if err != nil {
		return nil, err
	}

	s.AddConstraint(sketch.Tangent, 0, nil, []sketch.EntityID{l1.ID}, []sketch.EntityID{arc.ID})
	s.AddConstraint(sketch.Tangent, 0, nil, []sketch.EntityID{l2.ID}, []sketch.EntityID{arc.ID})
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{tp1.ID}, nil, []sketch.EntityID{arc.ID})
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{tp2.ID}, nil, []sketch.EntityID{arc.ID})
	s.AddConstraint(sketch.Radius, radius, nil, nil, []sketch.EntityID{arc.ID})

	// The old vertex cluster is fully detached now; removing the points
	// cascades away any stale references.
	for id := range cluster {
		s.DeletePoint(id)
	}

	return arc, nil
}

// splitEnds returns the endpoint of l inside the cluster and the one
// outside it.
func splitEnds(l *sketch.Line, cluster map[sketch.EntityID]bool) (near, far sketch.EntityID) {
	if cluster[l.P1] {
		return l.P1, l.P2
	}
	return l.P2, l.P1
}

func replaceEndpoint(l *sketch.Line, old, repl sketch.EntityID) {
	if l.P1 == old {
		l.P1 = repl
	}
	if l.P2 == old {
		l.P2 = repl
	}
}

func allIn(ids []sketch.EntityID, set map[sketch.EntityID]bool) bool {
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}

// repointConstraint rewrites references to old cluster points onto the new
// tangent points: references tied to line 1's old endpoint go to tangent
// point 1, line 2's to tangent point 2, any other cluster member to the
// first.
func repointConstraint(c *sketch.Constraint, cluster map[sketch.EntityID]bool, near1, near2, tp1, tp2 sketch.EntityID) {
	for i, pid := range c.Points {
		if !cluster[pid] {
			continue
		}
		switch pid {
		case near2:
			c.Points[i] = tp2
		default:
			// near1 and any other cluster member follow line 1's side.
			c.Points[i] = tp1
		}
	}
}
