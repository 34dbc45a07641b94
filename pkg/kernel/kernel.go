// Package kernel defines the abstract solid-modeling kernel interface.
// Implementations (sdfx) turn closed 2D profiles into extruded or revolved
// solids behind this interface, so backends can be swapped without touching
// the sketch side. The kernel is a read-only consumer of settled profiles;
// a kernel failure never corrupts sketch state.
package kernel

// Point is a 2D profile coordinate.
type Point struct {
	X, Y float64
}

// Segment is one boundary piece of a profile loop: a straight segment, or
// a circular arc when Arc is set. Arc segments sweep from Start to End
// around Center along the shorter angular path; CW selects the clockwise
// direction of that sweep.
type Segment struct {
	Start, End Point
	Arc        bool
	Center     Point
	Radius     float64
	CW         bool
}

// Loop is one closed boundary. Hole loops are subtracted from the solid
// region of their enclosing loop.
type Loop struct {
	Segments []Segment
	Hole     bool
}

// Profile is an ordered list of closed loops, outer boundaries first.
type Profile struct {
	Loops []Loop
}

// IsEmpty reports whether the profile has no loops at all.
func (p Profile) IsEmpty() bool { return len(p.Loops) == 0 }

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract solid-modeling interface. Errors from its methods
// are "cannot build" signals that must be surfaced to the user as blocking
// messages, never swallowed.
type Kernel interface {
	// Extrude sweeps the profile along Z by depth.
	Extrude(p Profile, depth float64) (Solid, error)

	// Revolve rotates the profile about the Y axis by angleDeg degrees.
	// Callers must present the profile in the axis frame (axis at x=0,
	// profile entirely at x >= 0).
	Revolve(p Profile, angleDeg float64) (Solid, error)

	// ToMesh converts a solid to a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
