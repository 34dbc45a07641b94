package ops

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/planar/pkg/sketch"
)

// trimTol is the proximity within which a point counts as lying on a
// circle for circle-to-arc conversion.
const trimTol = 1.0

// Trim removes or splits geometry between two points, typically an
// intersection point and a boundary point.
//
// If both points lie on a common circle the circle is converted into an
// arc bounded by them (construction flag preserved). Otherwise the target
// line is located (the single selected line, else a line whose literal
// endpoints match, else a line coincidence-linked to both points) and one
// of three cases applies:
//
//   - both points are literal endpoints: the line is deleted outright
//   - one is a literal endpoint: the line is shortened to run from its
//     other endpoint to the trim point, which becomes a true endpoint
//   - neither is: the line is split in two at the interior points
func Trim(s *sketch.Sketch, aID, bID sketch.EntityID) error {
	pa, pb := s.Point(aID), s.Point(bID)
	if pa == nil || pb == nil {
		return fmt.Errorf("trim points must exist")
	}

	if c := commonCircle(s, pa, pb); c != nil {
		return circleToArc(s, c, aID, bID)
	}

	line, err := targetLine(s, aID, bID)
	if err != nil {
		return err
	}

	aEnd := line.P1 == aID || line.P2 == aID
	bEnd := line.P1 == bID || line.P2 == bID

	switch {
	case aEnd && bEnd:
		// Trim to nothing.
		s.DeleteLine(line.ID)
		return nil

	case aEnd != bEnd:
		endpoint, trimPoint := aID, bID
		if bEnd {
			endpoint, trimPoint = bID, aID
		}
		keep := line.P1
		if keep == endpoint {
			keep = line.P2
		}
		line.P1, line.P2 = keep, trimPoint
		// The trim point is a true endpoint now; its on-line coincidence
		// constraint is redundant.
		dropPointOnLine(s, trimPoint, line.ID)
		return nil

	default:
		return splitLine(s, line, aID, bID)
	}
}

// commonCircle finds a circle on which both points lie within trimTol of
// the radius, or nil.
func commonCircle(s *sketch.Sketch, pa, pb *sketch.Point) *sketch.Circle {
	for _, c := range s.Circles {
		center := s.Point(c.Center)
		if center == nil {
			continue
		}
		da := math.Abs(pa.Pos.Dist(center.Pos) - c.Radius)
		db := math.Abs(pb.Pos.Dist(center.Pos) - c.Radius)
		if da <= trimTol && db <= trimTol {
			return c
		}
	}
	return nil
}

// circleToArc replaces a circle with an arc bounded by the two points,
// re-pointing the circle's constraints onto the arc.
func circleToArc(s *sketch.Sketch, c *sketch.Circle, aID, bID sketch.EntityID) error {
	arc, err := s.AddArc(c.Center, c.Radius, aID, bID)
	if err != nil {
		return err
	}
	arc.Construction = c.Construction
	for _, con := range s.Constraints {
		for i, cid := range con.Circles {
			if cid == c.ID {
				con.Circles[i] = arc.ID
			}
		}
	}
	s.DeleteCircle(c.ID)
	return nil
}

// targetLine locates the line to trim: prefer the single selected line,
// else a line whose literal endpoints are exactly the two points, else a
// line coincidence-linked to both.
func targetLine(s *sketch.Sketch, aID, bID sketch.EntityID) (*sketch.Line, error) {
	if len(s.Selection.Lines) == 1 {
		for id := range s.Selection.Lines {
			if l := s.Line(id); l != nil {
				return l, nil
			}
		}
	}
	for _, l := range s.Lines {
		if (l.P1 == aID && l.P2 == bID) || (l.P1 == bID && l.P2 == aID) {
			return l, nil
		}
	}
	for _, l := range s.Lines {
		if linkedToLine(s, aID, l) && linkedToLine(s, bID, l) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("no line links points %s and %s", aID.Short(), bID.Short())
}

// linkedToLine reports whether a point is a literal endpoint of the line,
// shares a coincidence cluster with one, or is coincident-constrained onto
// the line itself.
func linkedToLine(s *sketch.Sketch, pid sketch.EntityID, l *sketch.Line) bool {
	if l.P1 == pid || l.P2 == pid {
		return true
	}
	find := s.Canonical()
	root := find(pid)
	if find(l.P1) == root || find(l.P2) == root {
		return true
	}
	for _, c := range s.Constraints {
		if c.Kind != sketch.Coincident || len(c.Points) != 1 || c.Points[0] != pid {
			continue
		}
		for _, lid := range c.Lines {
			if lid == l.ID {
				return true
			}
		}
	}
	return false
}

// dropPointOnLine removes the coincidence constraints tying a point onto a
// specific line.
func dropPointOnLine(s *sketch.Sketch, pid, lid sketch.EntityID) {
	for i := len(s.Constraints) - 1; i >= 0; i-- {
		c := s.Constraints[i]
		if c.Kind != sketch.Coincident || len(c.Points) != 1 || c.Points[0] != pid {
			continue
		}
		for _, id := range c.Lines {
			if id == lid {
				s.DeleteConstraint(c.ID)
				break
			}
		}
	}
}

// splitLine replaces a line with two segments that leave a gap between the
// interior points, ordered by distance from the original start.
func splitLine(s *sketch.Sketch, line *sketch.Line, aID, bID sketch.EntityID) error {
	start := s.Point(line.P1)
	if start == nil {
		return fmt.Errorf("line %s has a missing start point", line.ID.Short())
	}
	cut := []sketch.EntityID{aID, bID}
	sort.Slice(cut, func(i, j int) bool {
		return s.Point(cut[i]).Pos.Dist(start.Pos) < s.Point(cut[j]).Pos.Dist(start.Pos)
	})

	p1, p2, construction := line.P1, line.P2, line.Construction
	s.DeleteLine(line.ID)

	first, err := s.AddLine(p1, cut[0])
	if err != nil {
		return err
	}
	second, err := s.AddLine(cut[1], p2)
	if err != nil {
		return err
	}
	first.Construction = construction
	second.Construction = construction
	return nil
}
