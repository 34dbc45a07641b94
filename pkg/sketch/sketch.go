package sketch

import "fmt"

// Sketch is the complete mutable state of one 2D sketch: entity collections,
// constraints, selection and the active tool. It is the unit of undo/redo
// snapshotting and is deep-copied wholesale, never diffed.
type Sketch struct {
	Points      []*Point      `json:"points"`
	Lines       []*Line       `json:"lines"`
	Circles     []*Circle     `json:"circles"`
	Arcs        []*Arc        `json:"arcs"`
	Constraints []*Constraint `json:"constraints"`
	Selection   Selection     `json:"selection"`
	Tool        Tool          `json:"tool"`
}

// New returns an empty sketch with the select tool active.
func New() *Sketch {
	return &Sketch{Selection: NewSelection()}
}

// Point returns the point with the given id, or nil.
func (s *Sketch) Point(id EntityID) *Point {
	for _, p := range s.Points {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Line returns the line with the given id, or nil.
func (s *Sketch) Line(id EntityID) *Line {
	for _, l := range s.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Circle returns the circle with the given id, or nil.
func (s *Sketch) Circle(id EntityID) *Circle {
	for _, c := range s.Circles {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Arc returns the arc with the given id, or nil.
func (s *Sketch) Arc(id EntityID) *Arc {
	for _, a := range s.Arcs {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Constraint returns the constraint with the given id, or nil.
func (s *Sketch) Constraint(id EntityID) *Constraint {
	for _, c := range s.Constraints {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// AddPoint creates a point at (x, y) and returns it.
func (s *Sketch) AddPoint(x, y float64) *Point {
	p := &Point{ID: NewEntityID(), Pos: Vec2{x, y}}
	s.Points = append(s.Points, p)
	return p
}

// AddLine creates a line between two existing points.
func (s *Sketch) AddLine(p1, p2 EntityID) (*Line, error) {
	if s.Point(p1) == nil || s.Point(p2) == nil {
		return nil, fmt.Errorf("line endpoints must be existing points")
	}
	l := &Line{ID: NewEntityID(), P1: p1, P2: p2}
	s.Lines = append(s.Lines, l)
	return l, nil
}

// AddCircle creates a circle around an existing center point.
func (s *Sketch) AddCircle(center EntityID, radius float64) (*Circle, error) {
	if s.Point(center) == nil {
		return nil, fmt.Errorf("circle center must be an existing point")
	}
	c := &Circle{ID: NewEntityID(), Center: center, Radius: radius}
	s.Circles = append(s.Circles, c)
	return c, nil
}

// AddArc creates an arc around an existing center point between two existing
// endpoints. The caller is responsible for placing the endpoints at distance
// radius from the center.
func (s *Sketch) AddArc(center EntityID, radius float64, p1, p2 EntityID) (*Arc, error) {
	if s.Point(center) == nil || s.Point(p1) == nil || s.Point(p2) == nil {
		return nil, fmt.Errorf("arc center and endpoints must be existing points")
	}
	a := &Arc{ID: NewEntityID(), Center: center, Radius: radius, P1: p1, P2: p2}
	s.Arcs = append(s.Arcs, a)
	return a, nil
}

// AddConstraint creates a constraint over the given entity ids.
func (s *Sketch) AddConstraint(kind ConstraintKind, value float64, points, lines, circles []EntityID) *Constraint {
	c := &Constraint{
		ID:      NewEntityID(),
		Kind:    kind,
		Value:   value,
		Points:  append([]EntityID(nil), points...),
		Lines:   append([]EntityID(nil), lines...),
		Circles: append([]EntityID(nil), circles...),
	}
	s.Constraints = append(s.Constraints, c)
	return c
}

// DeletePoint removes a point and cascade-deletes every line, circle and arc
// that depends on it, along with all constraints referencing any removed
// entity.
func (s *Sketch) DeletePoint(id EntityID) {
	if s.Point(id) == nil {
		return
	}
	for i := len(s.Lines) - 1; i >= 0; i-- {
		if l := s.Lines[i]; l.P1 == id || l.P2 == id {
			s.DeleteLine(l.ID)
		}
	}
	for i := len(s.Circles) - 1; i >= 0; i-- {
		if c := s.Circles[i]; c.Center == id {
			s.DeleteCircle(c.ID)
		}
	}
	for i := len(s.Arcs) - 1; i >= 0; i-- {
		if a := s.Arcs[i]; a.Center == id || a.P1 == id || a.P2 == id {
			s.DeleteArc(a.ID)
		}
	}
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].ID == id {
			s.Points = append(s.Points[:i], s.Points[i+1:]...)
		}
	}
	delete(s.Selection.Points, id)
	s.dropConstraintsReferencing(id)
}

// DeleteLine removes a line and the constraints referencing it.
func (s *Sketch) DeleteLine(id EntityID) {
	for i := len(s.Lines) - 1; i >= 0; i-- {
		if s.Lines[i].ID == id {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
		}
	}
	delete(s.Selection.Lines, id)
	s.dropConstraintsReferencing(id)
}

// DeleteCircle removes a circle and the constraints referencing it.
func (s *Sketch) DeleteCircle(id EntityID) {
	for i := len(s.Circles) - 1; i >= 0; i-- {
		if s.Circles[i].ID == id {
			s.Circles = append(s.Circles[:i], s.Circles[i+1:]...)
		}
	}
	delete(s.Selection.Circles, id)
	s.dropConstraintsReferencing(id)
}

// DeleteArc removes an arc and the constraints referencing it.
func (s *Sketch) DeleteArc(id EntityID) {
	for i := len(s.Arcs) - 1; i >= 0; i-- {
		if s.Arcs[i].ID == id {
			s.Arcs = append(s.Arcs[:i], s.Arcs[i+1:]...)
		}
	}
	delete(s.Selection.Arcs, id)
	s.dropConstraintsReferencing(id)
}

// DeleteConstraint removes a single constraint.
func (s *Sketch) DeleteConstraint(id EntityID) {
	for i := len(s.Constraints) - 1; i >= 0; i-- {
		if s.Constraints[i].ID == id {
			s.Constraints = append(s.Constraints[:i], s.Constraints[i+1:]...)
		}
	}
}

// dropConstraintsReferencing removes every constraint that mentions the
// given entity id in any of its reference lists.
func (s *Sketch) dropConstraintsReferencing(id EntityID) {
	for i := len(s.Constraints) - 1; i >= 0; i-- {
		if constraintReferences(s.Constraints[i], id) {
			s.Constraints = append(s.Constraints[:i], s.Constraints[i+1:]...)
		}
	}
}

func constraintReferences(c *Constraint, id EntityID) bool {
	for _, p := range c.Points {
		if p == id {
			return true
		}
	}
	for _, l := range c.Lines {
		if l == id {
			return true
		}
	}
	for _, cc := range c.Circles {
		if cc == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the sketch. Clones share nothing with the
// original; history entries must be exclusive.
func (s *Sketch) Clone() *Sketch {
	out := &Sketch{
		Points:      make([]*Point, len(s.Points)),
		Lines:       make([]*Line, len(s.Lines)),
		Circles:     make([]*Circle, len(s.Circles)),
		Arcs:        make([]*Arc, len(s.Arcs)),
		Constraints: make([]*Constraint, len(s.Constraints)),
		Selection:   s.Selection.clone(),
		Tool:        s.Tool,
	}
	for i, p := range s.Points {
		cp := *p
		out.Points[i] = &cp
	}
	for i, l := range s.Lines {
		cl := *l
		out.Lines[i] = &cl
	}
	for i, c := range s.Circles {
		cc := *c
		out.Circles[i] = &cc
	}
	for i, a := range s.Arcs {
		ca := *a
		out.Arcs[i] = &ca
	}
	for i, c := range s.Constraints {
		cc := *c
		cc.Points = append([]EntityID(nil), c.Points...)
		cc.Lines = append([]EntityID(nil), c.Lines...)
		cc.Circles = append([]EntityID(nil), c.Circles...)
		out.Constraints[i] = &cc
	}
	return out
}

// LinesAt returns the (deduplicated) lines that have any of the given point
// ids as a literal endpoint.
func (s *Sketch) LinesAt(points map[EntityID]bool) []*Line {
	var out []*Line
	seen := make(map[EntityID]bool)
	for _, l := range s.Lines {
		if seen[l.ID] {
			continue
		}
		if points[l.P1] || points[l.P2] {
			seen[l.ID] = true
			out = append(out, l)
		}
	}
	return out
}
