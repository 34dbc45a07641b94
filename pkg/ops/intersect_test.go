package ops

import (
	"math"
	"testing"

	"github.com/chazu/planar/pkg/sketch"
)

func addLine(t *testing.T, s *sketch.Sketch, x1, y1, x2, y2 float64) *sketch.Line {
	t.Helper()
	p1 := s.AddPoint(x1, y1)
	p2 := s.AddPoint(x2, y2)
	l, err := s.AddLine(p1.ID, p2.ID)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	return l
}

func addCircle(t *testing.T, s *sketch.Sketch, x, y, r float64) *sketch.Circle {
	t.Helper()
	center := s.AddPoint(x, y)
	c, err := s.AddCircle(center.ID, r)
	if err != nil {
		t.Fatalf("AddCircle: %v", err)
	}
	return c
}

func TestIntersectLineLine(t *testing.T) {
	s := sketch.New()
	la := addLine(t, s, 0, 0, 10, 0)
	lb := addLine(t, s, 5, -5, 5, 5)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: la.ID},
		CurveRef{Kind: CurveLine, ID: lb.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 1 {
		t.Fatalf("got %d points, want 1", len(pts))
	}
	if pts[0].Pos.Dist(sketch.Vec2{X: 5, Y: 0}) > 1e-9 {
		t.Errorf("intersection at %v, want (5,0)", pts[0].Pos)
	}
	// One on-line coincidence per input curve.
	attached := 0
	for _, c := range s.Constraints {
		if c.Kind == sketch.Coincident && len(c.Points) == 1 && c.Points[0] == pts[0].ID {
			attached++
		}
	}
	if attached != 2 {
		t.Errorf("intersection point attached by %d constraints, want 2", attached)
	}
}

func TestIntersectParallelLines(t *testing.T) {
	s := sketch.New()
	la := addLine(t, s, 0, 0, 10, 0)
	lb := addLine(t, s, 0, 5, 10, 5)

	before := len(s.Points)
	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: la.ID},
		CurveRef{Kind: CurveLine, ID: lb.ID})
	if err != nil {
		t.Fatalf("parallel lines must not be an error: %v", err)
	}
	if len(pts) != 0 {
		t.Errorf("got %d points for parallel lines, want 0", len(pts))
	}
	if len(s.Points) != before {
		t.Error("parallel intersection added points to the sketch")
	}
}

func TestIntersectLineCircle(t *testing.T) {
	s := sketch.New()
	l := addLine(t, s, -20, 0, 20, 0)
	c := addCircle(t, s, 0, 0, 5)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: l.ID},
		CurveRef{Kind: CurveCircle, ID: c.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2", len(pts))
	}
	xs := []float64{pts[0].Pos.X, pts[1].Pos.X}
	if xs[0] > xs[1] {
		xs[0], xs[1] = xs[1], xs[0]
	}
	if math.Abs(xs[0]+5) > 1e-9 || math.Abs(xs[1]-5) > 1e-9 {
		t.Errorf("hit x coordinates %v, want -5 and 5", xs)
	}
}

func TestIntersectLineCircleTangent(t *testing.T) {
	s := sketch.New()
	l := addLine(t, s, -20, 5, 20, 5)
	c := addCircle(t, s, 0, 0, 5)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: l.ID},
		CurveRef{Kind: CurveCircle, ID: c.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 1 {
		t.Fatalf("tangent line: got %d points, want 1", len(pts))
	}
	if pts[0].Pos.Dist(sketch.Vec2{X: 0, Y: 5}) > 1e-9 {
		t.Errorf("tangent point at %v, want (0,5)", pts[0].Pos)
	}
}

func TestIntersectLineCircleMiss(t *testing.T) {
	s := sketch.New()
	l := addLine(t, s, -20, 10, 20, 10)
	c := addCircle(t, s, 0, 0, 5)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: l.ID},
		CurveRef{Kind: CurveCircle, ID: c.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 0 {
		t.Errorf("got %d points for a miss, want 0", len(pts))
	}
}

func TestIntersectCircleCircle(t *testing.T) {
	s := sketch.New()
	c1 := addCircle(t, s, 0, 0, 10)
	c2 := addCircle(t, s, 10, 0, 10)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveCircle, ID: c1.ID},
		CurveRef{Kind: CurveCircle, ID: c2.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2", len(pts))
	}
	want := math.Sqrt(75)
	for _, p := range pts {
		if math.Abs(p.Pos.X-5) > 1e-9 || math.Abs(math.Abs(p.Pos.Y)-want) > 1e-9 {
			t.Errorf("intersection at %v, want (5, ±%g)", p.Pos, want)
		}
	}
}

func TestIntersectCircleCircleDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		x2, r1, r2 float64
	}{
		{"disjoint", 30, 10, 10},
		{"concentric", 0, 10, 5},
		{"nested", 2, 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sketch.New()
			c1 := addCircle(t, s, 0, 0, tt.r1)
			c2 := addCircle(t, s, tt.x2, 0, tt.r2)
			pts, err := Intersect(s,
				CurveRef{Kind: CurveCircle, ID: c1.ID},
				CurveRef{Kind: CurveCircle, ID: c2.ID})
			if err != nil {
				t.Fatalf("degenerate pair must not be an error: %v", err)
			}
			if len(pts) != 0 {
				t.Errorf("got %d points, want 0", len(pts))
			}
		})
	}
}

func TestIntersectCirclesTouching(t *testing.T) {
	s := sketch.New()
	c1 := addCircle(t, s, 0, 0, 5)
	c2 := addCircle(t, s, 10, 0, 5)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveCircle, ID: c1.ID},
		CurveRef{Kind: CurveCircle, ID: c2.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(pts) != 1 {
		t.Fatalf("externally tangent circles: got %d points, want 1", len(pts))
	}
	if pts[0].Pos.Dist(sketch.Vec2{X: 5, Y: 0}) > 1e-9 {
		t.Errorf("tangent point at %v, want (5,0)", pts[0].Pos)
	}
}

func TestIntersectArcUsesFullCircle(t *testing.T) {
	s := sketch.New()
	l := addLine(t, s, -20, 0, 20, 0)
	center := s.AddPoint(0, 0)
	p1 := s.AddPoint(5, 0)
	p2 := s.AddPoint(0, 5)
	arc, _ := s.AddArc(center.ID, 5, p1.ID, p2.ID)

	pts, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: l.ID},
		CurveRef{Kind: CurveArc, ID: arc.ID})
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	// Arcs intersect as their supporting circle.
	if len(pts) != 2 {
		t.Errorf("got %d points, want 2", len(pts))
	}
}

func TestIntersectUnknownCurve(t *testing.T) {
	s := sketch.New()
	l := addLine(t, s, 0, 0, 10, 0)
	_, err := Intersect(s,
		CurveRef{Kind: CurveLine, ID: l.ID},
		CurveRef{Kind: CurveCircle, ID: "missing"})
	if err == nil {
		t.Fatal("expected error for unknown curve id")
	}
}
