package sketch

import "testing"

func TestAddAndLookup(t *testing.T) {
	s := New()
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	l, err := s.AddLine(p1.ID, p2.ID)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	c, err := s.AddCircle(p1.ID, 5)
	if err != nil {
		t.Fatalf("AddCircle: %v", err)
	}

	if s.Point(p1.ID) != p1 {
		t.Error("Point lookup returned wrong point")
	}
	if s.Line(l.ID) != l {
		t.Error("Line lookup returned wrong line")
	}
	if s.Circle(c.ID) != c {
		t.Error("Circle lookup returned wrong circle")
	}
	if s.Point("nope") != nil {
		t.Error("lookup of unknown id should return nil")
	}
}

func TestAddLineRequiresExistingPoints(t *testing.T) {
	s := New()
	p := s.AddPoint(0, 0)
	if _, err := s.AddLine(p.ID, "missing"); err == nil {
		t.Error("expected error for missing endpoint")
	}
	if _, err := s.AddCircle("missing", 5); err == nil {
		t.Error("expected error for missing center")
	}
	if _, err := s.AddArc("missing", 5, p.ID, p.ID); err == nil {
		t.Error("expected error for missing arc center")
	}
}

func TestDeletePointCascades(t *testing.T) {
	s := New()
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	p3 := s.AddPoint(20, 0)
	l1, _ := s.AddLine(p1.ID, p2.ID)
	l2, _ := s.AddLine(p2.ID, p3.ID)
	c, _ := s.AddCircle(p1.ID, 5)
	s.AddConstraint(Distance, 10, []EntityID{p1.ID, p2.ID}, nil, nil)
	s.AddConstraint(Horizontal, 0, []EntityID{p2.ID, p3.ID}, nil, nil)
	s.AddConstraint(Radius, 5, nil, nil, []EntityID{c.ID})

	s.DeletePoint(p1.ID)

	if s.Point(p1.ID) != nil {
		t.Error("deleted point still present")
	}
	if s.Line(l1.ID) != nil {
		t.Error("line depending on deleted point still present")
	}
	if s.Line(l2.ID) == nil {
		t.Error("unrelated line was deleted")
	}
	if s.Circle(c.ID) != nil {
		t.Error("circle centered on deleted point still present")
	}
	// Distance referenced p1, Radius referenced the deleted circle; only the
	// Horizontal constraint survives.
	if len(s.Constraints) != 1 || s.Constraints[0].Kind != Horizontal {
		t.Errorf("expected only the horizontal constraint to survive, got %d", len(s.Constraints))
	}
}

func TestDeleteLineDropsConstraints(t *testing.T) {
	s := New()
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	p3 := s.AddPoint(0, 10)
	l1, _ := s.AddLine(p1.ID, p2.ID)
	l2, _ := s.AddLine(p1.ID, p3.ID)
	s.AddConstraint(Parallel, 0, nil, []EntityID{l1.ID, l2.ID}, nil)

	s.DeleteLine(l1.ID)

	if s.Point(p1.ID) == nil || s.Point(p2.ID) == nil {
		t.Error("deleting a line must not delete its endpoints")
	}
	if len(s.Constraints) != 0 {
		t.Error("constraint referencing deleted line still present")
	}
}

func TestCloneIsExclusive(t *testing.T) {
	s := New()
	p := s.AddPoint(1, 2)
	p.Fixed = true
	p2 := s.AddPoint(3, 4)
	l, _ := s.AddLine(p.ID, p2.ID)
	s.AddConstraint(Distance, 5, []EntityID{p.ID, p2.ID}, []EntityID{l.ID}, nil)
	s.Selection.Points[p.ID] = true

	c := s.Clone()

	// Mutating the clone must not leak into the original.
	c.Points[0].Pos = Vec2{99, 99}
	c.Constraints[0].Points[0] = "other"
	c.Selection.Points[p2.ID] = true

	if s.Points[0].Pos != (Vec2{1, 2}) {
		t.Error("clone shares point storage with original")
	}
	if s.Constraints[0].Points[0] != p.ID {
		t.Error("clone shares constraint id slices with original")
	}
	if s.Selection.Points[p2.ID] {
		t.Error("clone shares selection maps with original")
	}
	if !c.Points[0].Fixed {
		t.Error("clone lost Fixed flag")
	}
}

func TestLinesAt(t *testing.T) {
	s := New()
	p1 := s.AddPoint(0, 0)
	p2 := s.AddPoint(10, 0)
	p3 := s.AddPoint(20, 0)
	l1, _ := s.AddLine(p1.ID, p2.ID)
	l2, _ := s.AddLine(p2.ID, p3.ID)
	s.AddLine(p3.ID, p3.ID)

	got := s.LinesAt(map[EntityID]bool{p1.ID: true, p2.ID: true})
	if len(got) != 2 {
		t.Fatalf("LinesAt = %d lines, want 2", len(got))
	}
	seen := map[EntityID]bool{got[0].ID: true, got[1].ID: true}
	if !seen[l1.ID] || !seen[l2.ID] {
		t.Error("LinesAt returned wrong lines")
	}
}
