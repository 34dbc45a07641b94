package sketch

import (
	"math"
	"testing"
)

func TestPendingDrawPoint(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolPoint)
	if !d.Click(s, Vec2{3, 4}) {
		t.Fatal("point tool should complete on first click")
	}
	if len(s.Points) != 1 || s.Points[0].Pos != (Vec2{3, 4}) {
		t.Error("point not added at click position")
	}
}

func TestPendingDrawLine(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolLine)
	if d.Click(s, Vec2{0, 0}) {
		t.Fatal("line tool completed after one click")
	}
	if !d.Click(s, Vec2{10, 0}) {
		t.Fatal("line tool did not complete after two clicks")
	}
	if len(s.Points) != 2 || len(s.Lines) != 1 {
		t.Errorf("got %d points, %d lines; want 2 points, 1 line", len(s.Points), len(s.Lines))
	}
}

func TestPendingDrawRect(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolRect)
	d.Click(s, Vec2{0, 0})
	if !d.Click(s, Vec2{10, 20}) {
		t.Fatal("rect tool did not complete after two clicks")
	}
	if len(s.Points) != 4 || len(s.Lines) != 4 {
		t.Fatalf("got %d points, %d lines; want 4 each", len(s.Points), len(s.Lines))
	}
	h, v := 0, 0
	for _, c := range s.Constraints {
		switch c.Kind {
		case Horizontal:
			h++
		case Vertical:
			v++
		}
	}
	if h != 2 || v != 2 {
		t.Errorf("rect constraints: %d horizontal, %d vertical; want 2 each", h, v)
	}
}

func TestPendingDrawCircle(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolCircle)
	d.Click(s, Vec2{0, 0})
	d.Click(s, Vec2{3, 4})
	if len(s.Circles) != 1 {
		t.Fatal("circle not created")
	}
	if got := s.Circles[0].Radius; math.Abs(got-5) > 1e-9 {
		t.Errorf("circle radius = %g, want 5", got)
	}
}

func TestPendingDrawArcSnapsEndToRadius(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolArc)
	d.Click(s, Vec2{0, 0})  // center
	d.Click(s, Vec2{10, 0}) // start, radius 10
	d.Click(s, Vec2{0, 25}) // end, off the radius
	if len(s.Arcs) != 1 {
		t.Fatal("arc not created")
	}
	a := s.Arcs[0]
	if math.Abs(a.Radius-10) > 1e-9 {
		t.Errorf("arc radius = %g, want 10", a.Radius)
	}
	end := s.Point(a.P2)
	if math.Abs(end.Pos.Dist(Vec2{0, 0})-10) > 1e-9 {
		t.Errorf("arc end not snapped to radius: at %v", end.Pos)
	}
}

func TestPendingDrawResetDiscardsClicks(t *testing.T) {
	s := New()
	var d PendingDraw
	d.Reset(ToolLine)
	d.Click(s, Vec2{0, 0})
	d.Reset(ToolCircle)
	d.Click(s, Vec2{5, 5})
	d.Click(s, Vec2{5, 6})
	if len(s.Lines) != 0 {
		t.Error("stale line click leaked through Reset")
	}
	if len(s.Circles) != 1 {
		t.Error("circle tool did not start fresh after Reset")
	}
}
