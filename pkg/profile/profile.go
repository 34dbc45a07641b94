// Package profile bridges the sketch's extracted loops and the solid
// kernel: it converts topo loops into kernel profiles, transforms them
// into the revolve-axis frame, and turns kernel failures into visible
// errors. It never mutates the sketch.
package profile

import (
	"fmt"
	"math"

	"github.com/chazu/planar/pkg/kernel"
	"github.com/chazu/planar/pkg/sketch"
	"github.com/chazu/planar/pkg/topo"
)

// axisTol is the slack allowed when checking that a revolve profile stays
// on one side of the axis.
const axisTol = 1e-6

// ErrNoProfile is returned when the sketch contains no closed loops.
var ErrNoProfile = fmt.Errorf("sketch has no closed profile")

// Build extracts the sketch's closed loops and converts them into a kernel
// profile. Loops at odd nesting depth become holes.
func Build(s *sketch.Sketch) (kernel.Profile, error) {
	loops := topo.ExtractLoops(s)
	if len(loops) == 0 {
		return kernel.Profile{}, ErrNoProfile
	}

	var p kernel.Profile
	for _, loop := range loops {
		kl := kernel.Loop{Hole: loop.Depth%2 == 1}
		if loop.Circle != nil {
			kl.Segments = circleSegments(loop)
		} else {
			for _, e := range loop.Edges {
				seg := kernel.Segment{
					Start: kernel.Point{X: e.APos.X, Y: e.APos.Y},
					End:   kernel.Point{X: e.BPos.X, Y: e.BPos.Y},
				}
				if e.IsArc && e.Arc != nil {
					seg.Arc = true
					seg.Center = kernel.Point{X: e.ArcCenter.X, Y: e.ArcCenter.Y}
					seg.Radius = e.Arc.Radius
				}
				kl.Segments = append(kl.Segments, seg)
			}
		}
		if len(kl.Segments) == 0 {
			continue
		}
		p.Loops = append(p.Loops, kl)
	}
	if p.IsEmpty() {
		return kernel.Profile{}, ErrNoProfile
	}
	return p, nil
}

// circleSegments represents a full circle as two half-circle arcs; a
// single arc segment cannot express a closed circle.
func circleSegments(loop topo.Loop) []kernel.Segment {
	c := loop.Circle
	if len(loop.Sample) == 0 {
		return nil
	}
	// Sample vertices are evenly spaced, so the first and its antipode
	// recover the center.
	o := loop.Sample[0]
	center := o.Add(loop.Sample[len(loop.Sample)/2].Sub(o).Scale(0.5))
	a := kernel.Point{X: o.X, Y: o.Y}
	b := kernel.Point{X: 2*center.X - o.X, Y: 2*center.Y - o.Y}
	kc := kernel.Point{X: center.X, Y: center.Y}
	return []kernel.Segment{
		{Start: a, End: b, Arc: true, Center: kc, Radius: c.Radius},
		{Start: b, End: a, Arc: true, Center: kc, Radius: c.Radius, CW: true},
	}
}

// Extrude builds the sketch's profile and sweeps it by depth.
func Extrude(s *sketch.Sketch, k kernel.Kernel, depth float64) (*kernel.Mesh, error) {
	p, err := Build(s)
	if err != nil {
		return nil, err
	}
	solid, err := k.Extrude(p, depth)
	if err != nil {
		return nil, fmt.Errorf("extrude failed: %w", err)
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("meshing failed: %w", err)
	}
	return mesh, nil
}

// Revolve builds the sketch's profile, transforms it into the frame of the
// given axis line and revolves it by angleDeg degrees. A profile that
// crosses the axis cannot be revolved and yields an error.
func Revolve(s *sketch.Sketch, k kernel.Kernel, axisLine sketch.EntityID, angleDeg float64) (*kernel.Mesh, error) {
	axis := s.Line(axisLine)
	if axis == nil {
		return nil, fmt.Errorf("no axis line %s", axisLine.Short())
	}
	a, b := s.Point(axis.P1), s.Point(axis.P2)
	if a == nil || b == nil {
		return nil, fmt.Errorf("axis line has missing endpoints")
	}
	dir := b.Pos.Sub(a.Pos)
	if dir.Len() < 1e-9 {
		return nil, fmt.Errorf("axis line is degenerate")
	}

	p, err := Build(s)
	if err != nil {
		return nil, err
	}
	p, err = toAxisFrame(p, a.Pos, dir.Normalize())
	if err != nil {
		return nil, err
	}

	solid, err := k.Revolve(p, angleDeg)
	if err != nil {
		return nil, fmt.Errorf("revolve failed: %w", err)
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("meshing failed: %w", err)
	}
	return mesh, nil
}

// toAxisFrame rigidly maps profile coordinates so the axis becomes the Y
// axis at x=0. Profiles entirely on the negative side are mirrored onto
// the positive side; profiles straddling the axis are rejected.
func toAxisFrame(p kernel.Profile, origin sketch.Vec2, axisDir sketch.Vec2) (kernel.Profile, error) {
	xDir := sketch.Vec2{X: axisDir.Y, Y: -axisDir.X}

	local := func(pt kernel.Point) kernel.Point {
		d := sketch.Vec2{X: pt.X, Y: pt.Y}.Sub(origin)
		return kernel.Point{X: d.Dot(xDir), Y: d.Dot(axisDir)}
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	out := kernel.Profile{Loops: make([]kernel.Loop, len(p.Loops))}
	for i, loop := range p.Loops {
		out.Loops[i].Hole = loop.Hole
		out.Loops[i].Segments = make([]kernel.Segment, len(loop.Segments))
		for j, seg := range loop.Segments {
			t := seg
			t.Start = local(seg.Start)
			t.End = local(seg.End)
			if seg.Arc {
				t.Center = local(seg.Center)
			}
			for _, x := range []float64{t.Start.X, t.End.X} {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
			out.Loops[i].Segments[j] = t
		}
	}

	switch {
	case minX >= -axisTol:
		return out, nil
	case maxX <= axisTol:
		// Entirely on the negative side: mirror across the axis.
		for i := range out.Loops {
			for j := range out.Loops[i].Segments {
				seg := &out.Loops[i].Segments[j]
				seg.Start.X = -seg.Start.X
				seg.End.X = -seg.End.X
				seg.Center.X = -seg.Center.X
				seg.CW = !seg.CW
			}
		}
		return out, nil
	default:
		return kernel.Profile{}, fmt.Errorf("profile crosses the revolve axis")
	}
}
