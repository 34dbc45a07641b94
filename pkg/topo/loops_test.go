package topo

import (
	"math"
	"testing"

	"github.com/chazu/planar/pkg/sketch"
)

// square adds a w x h rectangle of lines to the sketch and returns its
// corner points.
func square(s *sketch.Sketch, x, y, w, h float64) []*sketch.Point {
	p1 := s.AddPoint(x, y)
	p2 := s.AddPoint(x+w, y)
	p3 := s.AddPoint(x+w, y+h)
	p4 := s.AddPoint(x, y+h)
	s.AddLine(p1.ID, p2.ID)
	s.AddLine(p2.ID, p3.ID)
	s.AddLine(p3.ID, p4.ID)
	s.AddLine(p4.ID, p1.ID)
	return []*sketch.Point{p1, p2, p3, p4}
}

func TestExtractSquareLoop(t *testing.T) {
	s := sketch.New()
	square(s, 0, 0, 10, 10)

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	l := loops[0]
	if len(l.Edges) != 4 {
		t.Errorf("loop has %d edges, want 4", len(l.Edges))
	}
	if math.Abs(l.Area-100) > 1e-9 {
		t.Errorf("loop area = %g, want 100", l.Area)
	}
	if l.Parent != -1 || l.Depth != 0 {
		t.Errorf("single loop should be a root: parent=%d depth=%d", l.Parent, l.Depth)
	}
}

func TestConstructionLinesExcluded(t *testing.T) {
	s := sketch.New()
	pts := square(s, 0, 0, 10, 10)
	// Diagonal construction line must not split the square into triangles.
	diag, _ := s.AddLine(pts[0].ID, pts[2].ID)
	diag.Construction = true

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	if math.Abs(loops[0].Area-100) > 1e-9 {
		t.Errorf("area = %g, want 100", loops[0].Area)
	}
}

func TestOpenChainYieldsNoLoop(t *testing.T) {
	s := sketch.New()
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	p3 := s.AddPoint(10, 10)
	s.AddLine(p1.ID, p2.ID)
	s.AddLine(p2.ID, p3.ID)

	if loops := ExtractLoops(s); len(loops) != 0 {
		t.Errorf("open chain produced %d loops, want 0", len(loops))
	}
}

func TestDanglingEdgeIsPruned(t *testing.T) {
	s := sketch.New()
	pts := square(s, 0, 0, 10, 10)
	// Whisker hanging off one corner.
	tip := s.AddPoint(-5, -5)
	s.AddLine(pts[0].ID, tip.ID)

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	if math.Abs(loops[0].Area-100) > 1e-9 {
		t.Errorf("area = %g, want 100", loops[0].Area)
	}
}

func TestCoincidentEndpointsCloseLoop(t *testing.T) {
	// A triangle drawn as three separate segments whose endpoints are only
	// linked by coincidence constraints.
	s := sketch.New()
	a1 := s.AddPoint(0, 0)
	a2 := s.AddPoint(10, 0)
	b1 := s.AddPoint(10, 0)
	b2 := s.AddPoint(0, 10)
	c1 := s.AddPoint(0, 10)
	c2 := s.AddPoint(0, 0)
	s.AddLine(a1.ID, a2.ID)
	s.AddLine(b1.ID, b2.ID)
	s.AddLine(c1.ID, c2.ID)
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{a2.ID, b1.ID}, nil, nil)
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{b2.ID, c1.ID}, nil, nil)
	s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{c2.ID, a1.ID}, nil, nil)

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	if math.Abs(loops[0].Area-50) > 1e-9 {
		t.Errorf("triangle area = %g, want 50", loops[0].Area)
	}
}

func TestHoleContainment(t *testing.T) {
	s := sketch.New()
	square(s, 0, 0, 100, 100)
	square(s, 25, 25, 20, 20)

	loops := ExtractLoops(s)
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}
	var outer, inner *Loop
	for i := range loops {
		if loops[i].Area > 5000 {
			outer = &loops[i]
		} else {
			inner = &loops[i]
		}
	}
	if outer == nil || inner == nil {
		t.Fatal("could not identify inner and outer loops")
	}
	if outer.Depth != 0 {
		t.Errorf("outer depth = %d, want 0", outer.Depth)
	}
	if inner.Depth != 1 {
		t.Errorf("inner depth = %d, want 1 (hole)", inner.Depth)
	}
	if inner.Parent < 0 || math.Abs(loops[inner.Parent].Area-10000) > 1e-6 {
		t.Error("inner loop's parent is not the outer loop")
	}
}

func TestNestedIslandDepth(t *testing.T) {
	s := sketch.New()
	square(s, 0, 0, 100, 100)
	square(s, 20, 20, 60, 60)
	square(s, 40, 40, 20, 20)

	loops := ExtractLoops(s)
	if len(loops) != 3 {
		t.Fatalf("got %d loops, want 3", len(loops))
	}
	depths := map[float64]int{}
	for _, l := range loops {
		depths[math.Round(l.Area)] = l.Depth
	}
	if depths[10000] != 0 || depths[3600] != 1 || depths[400] != 2 {
		t.Errorf("depths by area = %v, want 10000:0 3600:1 400:2", depths)
	}
}

func TestStandaloneCircleLoop(t *testing.T) {
	s := sketch.New()
	center := s.AddPoint(0, 0)
	c, _ := s.AddCircle(center.ID, 10)

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	l := loops[0]
	if l.Circle == nil || l.Circle.ID != c.ID {
		t.Error("loop does not reference the circle")
	}
	if math.Abs(l.Area-math.Pi*100) > 1e-9 {
		t.Errorf("circle loop area = %g, want %g", l.Area, math.Pi*100)
	}
	if len(l.Sample) != circleFacets {
		t.Errorf("circle sample has %d points, want %d", len(l.Sample), circleFacets)
	}
}

func TestCircleInsideSquareIsHole(t *testing.T) {
	s := sketch.New()
	square(s, -50, -50, 100, 100)
	center := s.AddPoint(0, 0)
	s.AddCircle(center.ID, 10)

	loops := ExtractLoops(s)
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}
	for _, l := range loops {
		if l.Circle != nil && l.Depth != 1 {
			t.Errorf("contained circle depth = %d, want 1", l.Depth)
		}
		if l.Circle == nil && l.Depth != 0 {
			t.Errorf("outer square depth = %d, want 0", l.Depth)
		}
	}
}

func TestDegenerateLoopDiscarded(t *testing.T) {
	s := sketch.New()
	// Zero-area "loop": two points joined by two separate lines.
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	s.AddLine(p1.ID, p2.ID)
	s.AddLine(p2.ID, p1.ID)

	if loops := ExtractLoops(s); len(loops) != 0 {
		t.Errorf("degenerate loop not discarded: %d loops", len(loops))
	}
}

func TestArcLoopAreaIncludesBulge(t *testing.T) {
	// A half-disc: diameter line plus an arc over the top.
	s := sketch.New()
	a := s.AddPoint(-10, 0)
	b := s.AddPoint(10, 0)
	center := s.AddPoint(0, 0)
	s.AddLine(a.ID, b.ID)
	s.AddArc(center.ID, 10, b.ID, a.ID)

	loops := ExtractLoops(s)
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	// The sample polygon is triangle (-10,0) (10,0) (0,10): area 100. The
	// exact half-disc is pi*50; what matters is the bulge vertex making the
	// area clearly non-degenerate and the arc edge carrying its center.
	l := loops[0]
	if l.Area < 99 {
		t.Errorf("half-disc sample area = %g, want >= 100-ish with bulge vertex", l.Area)
	}
	foundArc := false
	for _, e := range l.Edges {
		if e.IsArc {
			foundArc = true
			if e.ArcCenter != (sketch.Vec2{X: 0, Y: 0}) {
				t.Errorf("arc center = %v, want (0,0)", e.ArcCenter)
			}
		}
	}
	if !foundArc {
		t.Error("no arc edge in loop")
	}
}
