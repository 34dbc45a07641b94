// Package sketch defines the core entity model for planar: points, lines,
// circles, arcs and the constraints between them. A Sketch is the unit of
// editing and of undo/redo snapshotting.
package sketch

import (
	"math"

	"github.com/google/uuid"
)

// EntityID is a process-unique identifier for a sketch entity or constraint.
type EntityID string

// NewEntityID returns a fresh process-unique id.
func NewEntityID() EntityID {
	return EntityID(uuid.NewString())
}

// Short returns an abbreviated form of the id for error messages.
func (id EntityID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Vec2 is a 2D point or direction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float64 { return v.X*w.X + v.Y*w.Y }

// Cross returns the scalar cross product of v and w.
func (v Vec2) Cross(w Vec2) float64 { return v.X*w.Y - v.Y*w.X }

// Len returns the euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and w.
func (v Vec2) Dist(w Vec2) float64 { return v.Sub(w).Len() }

// Normalize returns v scaled to unit length, or the zero vector if v is
// degenerate.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Angle returns the angle of v in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Point is a sketch vertex. Fixed points are solver anchors: once a point
// has been explicitly dragged or pinned the solver never repositions it.
type Point struct {
	ID    EntityID `json:"id"`
	Pos   Vec2     `json:"pos"`
	Fixed bool     `json:"fixed,omitempty"`
}

// Line is a straight segment between two points. Construction lines are
// reference-only and excluded from profile extraction.
type Line struct {
	ID           EntityID `json:"id"`
	P1           EntityID `json:"p1"`
	P2           EntityID `json:"p2"`
	Construction bool     `json:"construction,omitempty"`
}

// Circle is a full circle around a center point. The radius may be solved
// or pinned by a RADIUS constraint.
type Circle struct {
	ID           EntityID `json:"id"`
	Center       EntityID `json:"center"`
	Radius       float64  `json:"radius"`
	Construction bool     `json:"construction,omitempty"`
}

// Arc is a circular arc from P1 to P2 around Center. The construction
// operations that create arcs guarantee both endpoints lie at distance
// Radius from the center; the solver does not enforce this directly.
type Arc struct {
	ID           EntityID `json:"id"`
	Center       EntityID `json:"center"`
	Radius       float64  `json:"radius"`
	P1           EntityID `json:"p1"`
	P2           EntityID `json:"p2"`
	Construction bool     `json:"construction,omitempty"`
}

// ConstraintKind enumerates the constraint types understood by the solver.
type ConstraintKind int

const (
	Coincident ConstraintKind = iota
	Horizontal
	Vertical
	Distance
	Radius
	Parallel
	Angle
	Tangent
	Fixed
	Midpoint
	EqualLength
)

func (k ConstraintKind) String() string {
	switch k {
	case Coincident:
		return "coincident"
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Distance:
		return "distance"
	case Radius:
		return "radius"
	case Parallel:
		return "parallel"
	case Angle:
		return "angle"
	case Tangent:
		return "tangent"
	case Fixed:
		return "fixed"
	case Midpoint:
		return "midpoint"
	case EqualLength:
		return "equal-length"
	default:
		return "unknown"
	}
}

// Constraint relates points, lines and circles/arcs. Arcs are referenced
// through the Circles list; the two kinds share that namespace. Value holds
// a distance, an angle in degrees, or a radius depending on Kind.
type Constraint struct {
	ID      EntityID       `json:"id"`
	Kind    ConstraintKind `json:"kind"`
	Points  []EntityID     `json:"points,omitempty"`
	Lines   []EntityID     `json:"lines,omitempty"`
	Circles []EntityID     `json:"circles,omitempty"`
	Value   float64        `json:"value,omitempty"`
}

// Tool enumerates the interactive drawing tools.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPoint
	ToolLine
	ToolRect
	ToolCircle
	ToolArc
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolPoint:
		return "point"
	case ToolLine:
		return "line"
	case ToolRect:
		return "rect"
	case ToolCircle:
		return "circle"
	case ToolArc:
		return "arc"
	default:
		return "unknown"
	}
}

// Selection holds the current selection, one set per entity kind.
type Selection struct {
	Points  map[EntityID]bool `json:"points,omitempty"`
	Lines   map[EntityID]bool `json:"lines,omitempty"`
	Circles map[EntityID]bool `json:"circles,omitempty"`
	Arcs    map[EntityID]bool `json:"arcs,omitempty"`
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{
		Points:  make(map[EntityID]bool),
		Lines:   make(map[EntityID]bool),
		Circles: make(map[EntityID]bool),
		Arcs:    make(map[EntityID]bool),
	}
}

// Clear empties all selection sets.
func (s *Selection) Clear() {
	for id := range s.Points {
		delete(s.Points, id)
	}
	for id := range s.Lines {
		delete(s.Lines, id)
	}
	for id := range s.Circles {
		delete(s.Circles, id)
	}
	for id := range s.Arcs {
		delete(s.Arcs, id)
	}
}

// clone returns a deep copy of the selection.
func (s Selection) clone() Selection {
	out := NewSelection()
	for id := range s.Points {
		out.Points[id] = true
	}
	for id := range s.Lines {
		out.Lines[id] = true
	}
	for id := range s.Circles {
		out.Circles[id] = true
	}
	for id := range s.Arcs {
		out.Arcs[id] = true
	}
	return out
}
