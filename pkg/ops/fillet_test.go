package ops

import (
	"math"
	"testing"

	"github.com/chazu/planar/pkg/sketch"
)

// rightAngleCorner builds two 50-unit arms meeting at a shared vertex at
// the origin: one along +X, one along +Y.
func rightAngleCorner(s *sketch.Sketch) (v, farX, farY *sketch.Point) {
	v = s.AddPoint(0, 0)
	farX = s.AddPoint(50, 0)
	farY = s.AddPoint(0, 50)
	s.AddLine(v.ID, farX.ID)
	s.AddLine(v.ID, farY.ID)
	return v, farX, farY
}

func TestFilletRightAngle(t *testing.T) {
	s := sketch.New()
	v, _, _ := rightAngleCorner(s)

	arc, err := Fillet(s, v.ID, 20)
	if err != nil {
		t.Fatalf("Fillet: %v", err)
	}

	if math.Abs(arc.Radius-20) > 1e-9 {
		t.Errorf("arc radius = %g, want 20", arc.Radius)
	}
	if s.Point(v.ID) != nil {
		t.Error("old vertex still present")
	}

	// Right angle, radius 20: tangent points 20 along each arm, center at
	// (20,20).
	center := s.Point(arc.Center)
	if center.Pos.Dist(sketch.Vec2{X: 20, Y: 20}) > 1e-9 {
		t.Errorf("arc center at %v, want (20,20)", center.Pos)
	}
	t1, t2 := s.Point(arc.P1), s.Point(arc.P2)
	onAxes := (t1.Pos.Dist(sketch.Vec2{X: 20, Y: 0}) < 1e-9 && t2.Pos.Dist(sketch.Vec2{X: 0, Y: 20}) < 1e-9) ||
		(t1.Pos.Dist(sketch.Vec2{X: 0, Y: 20}) < 1e-9 && t2.Pos.Dist(sketch.Vec2{X: 20, Y: 0}) < 1e-9)
	if !onAxes {
		t.Errorf("tangent points at %v, %v; want (20,0) and (0,20)", t1.Pos, t2.Pos)
	}

	// Both lines must now end at a tangent point, not the old vertex.
	for _, l := range s.Lines {
		if s.Point(l.P1) == nil || s.Point(l.P2) == nil {
			t.Error("line has dangling endpoint after fillet")
		}
	}

	var tangents, radii, coincidents int
	for _, c := range s.Constraints {
		switch c.Kind {
		case sketch.Tangent:
			tangents++
		case sketch.Radius:
			radii++
		case sketch.Coincident:
			coincidents++
		}
	}
	if tangents != 2 || radii != 1 || coincidents != 2 {
		t.Errorf("constraints after fillet: %d tangent, %d radius, %d coincident; want 2/1/2",
			tangents, radii, coincidents)
	}
}

func TestFilletClampsRadiusToArms(t *testing.T) {
	s := sketch.New()
	v, _, _ := rightAngleCorner(s)

	// Radius 100 needs a tangent distance of 100, but 40% of a 50-unit arm
	// caps it at 20, which for a right angle means radius 20.
	arc, err := Fillet(s, v.ID, 100)
	if err != nil {
		t.Fatalf("Fillet: %v", err)
	}
	if math.Abs(arc.Radius-20) > 1e-9 {
		t.Errorf("clamped arc radius = %g, want 20", arc.Radius)
	}
}

func TestFilletAcrossCoincidenceCluster(t *testing.T) {
	// Two lines whose shared corner is two distinct points glued by a
	// coincidence constraint.
	s := sketch.New()
	v1 := s.AddPoint(0, 0)
	v2 := s.AddPoint(0, 0)
	farX := s.AddPoint(50, 0)
	farY := s.AddPoint(0, 50)
	s.AddLine(v1.ID, farX.ID)
	s.AddLine(v2.ID, farY.ID)
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{v1.ID, v2.ID}, nil, nil)

	arc, err := Fillet(s, v1.ID, 20)
	if err != nil {
		t.Fatalf("Fillet: %v", err)
	}
	if s.Point(v1.ID) != nil || s.Point(v2.ID) != nil {
		t.Error("cluster points still present after fillet")
	}
	// The cluster-gluing constraint must be gone, not re-pointed onto the
	// tangent points.
	for _, c := range s.Constraints {
		if c.Kind == sketch.Coincident && len(c.Points) == 2 {
			t.Error("stale cluster coincidence constraint survived")
		}
	}
	if math.Abs(arc.Radius-20) > 1e-9 {
		t.Errorf("arc radius = %g, want 20", arc.Radius)
	}
}

func TestFilletRejectsWrongLineCount(t *testing.T) {
	s := sketch.New()
	v := s.AddPoint(0, 0)
	far := s.AddPoint(50, 0)
	s.AddLine(v.ID, far.ID)

	before := len(s.Points)
	if _, err := Fillet(s, v.ID, 20); err == nil {
		t.Fatal("expected error for vertex with one line")
	}
	if len(s.Points) != before || len(s.Lines) != 1 {
		t.Error("failed fillet mutated the sketch")
	}
}

func TestFilletRejectsCollinear(t *testing.T) {
	s := sketch.New()
	v := s.AddPoint(0, 0)
	left := s.AddPoint(-50, 0)
	right := s.AddPoint(50, 0)
	s.AddLine(v.ID, left.ID)
	s.AddLine(v.ID, right.ID)

	if _, err := Fillet(s, v.ID, 20); err == nil {
		t.Fatal("expected error for collinear arms")
	}
	if s.Point(v.ID) == nil {
		t.Error("failed fillet deleted the vertex")
	}
}

func TestFilletRejectsUnknownPoint(t *testing.T) {
	s := sketch.New()
	if _, err := Fillet(s, "missing", 20); err == nil {
		t.Fatal("expected error for unknown vertex")
	}
}
