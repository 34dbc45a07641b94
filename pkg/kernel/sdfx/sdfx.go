// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/planar/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// arcFacetsPerTurn controls how finely arc segments are flattened into
// polygon vertices. SDF booleans want polygons, so arcs are sampled.
const arcFacetsPerTurn = 64

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Extrude sweeps the profile along Z by depth. The solid spans z in
// [0, depth] so sketch coordinates map directly onto the bottom face.
func (k *SdfxKernel) Extrude(p kernel.Profile, depth float64) (kernel.Solid, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("extrude depth must be positive, got %g", depth)
	}
	s2, err := profileSDF2(p)
	if err != nil {
		return nil, err
	}
	s3 := sdf.Extrude3D(s2, depth)
	// Extrude3D centers the solid on z=0; shift to the min-corner
	// convention.
	m := sdf.Translate3d(v3.Vec{Z: depth / 2})
	return wrap(sdf.Transform3D(s3, m)), nil
}

// Revolve rotates the profile about the Y axis. The profile must already
// be in the axis frame (entirely at x >= 0).
func (k *SdfxKernel) Revolve(p kernel.Profile, angleDeg float64) (kernel.Solid, error) {
	if angleDeg <= 0 {
		return nil, fmt.Errorf("revolve angle must be positive, got %g", angleDeg)
	}
	s2, err := profileSDF2(p)
	if err != nil {
		return nil, err
	}
	if angleDeg >= 360 {
		s3, err := sdf.Revolve3D(s2)
		if err != nil {
			return nil, fmt.Errorf("revolve: %w", err)
		}
		return wrap(s3), nil
	}
	s3, err := sdf.RevolveTheta3D(s2, angleDeg*math.Pi/180)
	if err != nil {
		return nil, fmt.Errorf("revolve: %w", err)
	}
	return wrap(s3), nil
}

// profileSDF2 builds the 2D region of a profile: the union of its solid
// loops minus the union of its hole loops.
func profileSDF2(p kernel.Profile) (sdf.SDF2, error) {
	if p.IsEmpty() {
		return nil, fmt.Errorf("profile has no closed loops")
	}
	var solids, holes []sdf.SDF2
	for i, loop := range p.Loops {
		poly, err := loopSDF2(loop)
		if err != nil {
			return nil, fmt.Errorf("loop %d: %w", i, err)
		}
		if loop.Hole {
			holes = append(holes, poly)
		} else {
			solids = append(solids, poly)
		}
	}
	if len(solids) == 0 {
		return nil, fmt.Errorf("profile has only hole loops")
	}
	region := sdf.Union2D(solids...)
	if len(holes) > 0 {
		region = sdf.Difference2D(region, sdf.Union2D(holes...))
	}
	return region, nil
}

// loopSDF2 polygonizes one closed loop, flattening arc segments.
func loopSDF2(loop kernel.Loop) (sdf.SDF2, error) {
	var verts []v2.Vec
	for _, seg := range loop.Segments {
		verts = append(verts, v2.Vec{X: seg.Start.X, Y: seg.Start.Y})
		if seg.Arc {
			verts = append(verts, arcSamples(seg)...)
		}
	}
	if len(verts) < 3 {
		return nil, fmt.Errorf("loop needs at least 3 vertices, got %d", len(verts))
	}
	poly, err := sdf.Polygon2D(verts)
	if err != nil {
		return nil, fmt.Errorf("polygon: %w", err)
	}
	return poly, nil
}

// arcSamples returns the interior vertices of an arc segment, following
// the shorter angular sweep (or the clockwise sweep when CW is set).
func arcSamples(seg kernel.Segment) []v2.Vec {
	o := seg.Center
	a1 := math.Atan2(seg.Start.Y-o.Y, seg.Start.X-o.X)
	a2 := math.Atan2(seg.End.Y-o.Y, seg.End.X-o.X)
	delta := a2 - a1
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	if seg.CW && delta > 0 {
		delta -= 2 * math.Pi
	}
	n := int(math.Ceil(math.Abs(delta) / (2 * math.Pi) * arcFacetsPerTurn))
	if n < 4 {
		n = 4
	}
	verts := make([]v2.Vec, 0, n-1)
	for i := 1; i < n; i++ {
		a := a1 + delta*float64(i)/float64(n)
		verts = append(verts, v2.Vec{
			X: o.X + seg.Radius*math.Cos(a),
			Y: o.Y + seg.Radius*math.Sin(a),
		})
	}
	return verts
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
