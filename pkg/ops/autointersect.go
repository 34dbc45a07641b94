package ops

import (
	"github.com/chazu/planar/pkg/sketch"
	"github.com/dhconnelly/rtreego"
)

const (
	// interiorEps excludes intersections at or near segment endpoints; the
	// parametric position must be strictly inside (eps, 1-eps) on both
	// segments. Shared endpoints are connectivity, not intersections.
	interiorEps = 0.001

	// dedupRadius suppresses intersection points that already exist within
	// this distance of a sketch point.
	dedupRadius = 1.0
)

// pointEntry indexes one sketch point in the dedup r-tree.
type pointEntry struct {
	id  sketch.EntityID
	pos sketch.Vec2
}

func (e *pointEntry) Bounds() rtreego.Rect {
	return rtreego.Point{e.pos.X, e.pos.Y}.ToRect(dedupRadius / 2)
}

// AutoIntersect scans every pair of lines in the sketch, inserts a
// coincident-constrained point at each intersection strictly interior to
// both segments, and skips locations already occupied by an existing point
// within dedupRadius. Returns the newly created points.
func AutoIntersect(s *sketch.Sketch) []*sketch.Point {
	rt := rtreego.NewTree(2, 25, 50)
	for _, p := range s.Points {
		rt.Insert(&pointEntry{id: p.ID, pos: p.Pos})
	}

	nearExisting := func(at sketch.Vec2) bool {
		probe := rtreego.Point{at.X, at.Y}.ToRect(dedupRadius)
		for _, hit := range rt.SearchIntersect(probe) {
			if e, ok := hit.(*pointEntry); ok && e.pos.Dist(at) <= dedupRadius {
				return true
			}
		}
		return false
	}

	var created []*sketch.Point
	for i := 0; i < len(s.Lines); i++ {
		for j := i + 1; j < len(s.Lines); j++ {
			la, lb := s.Lines[i], s.Lines[j]
			a1, a2 := s.Point(la.P1), s.Point(la.P2)
			b1, b2 := s.Point(lb.P1), s.Point(lb.P2)
			if a1 == nil || a2 == nil || b1 == nil || b2 == nil {
				continue
			}
			at, t, u, ok := lineLine(a1.Pos, a2.Pos, b1.Pos, b2.Pos)
			if !ok {
				continue
			}
			if t <= interiorEps || t >= 1-interiorEps || u <= interiorEps || u >= 1-interiorEps {
				continue
			}
			if nearExisting(at) {
				continue
			}
			p := s.AddPoint(at.X, at.Y)
			attachToCurve(s, p.ID, CurveRef{Kind: CurveLine, ID: la.ID})
			attachToCurve(s, p.ID, CurveRef{Kind: CurveLine, ID: lb.ID})
			rt.Insert(&pointEntry{id: p.ID, pos: p.Pos})
			created = append(created, p)
		}
	}
	return created
}
