// Package export writes sketches to interchange formats. Currently only
// DXF R2000 via the yofu/dxf writer.
package export

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"

	"github.com/chazu/planar/pkg/sketch"
)

// arcFacetsPerTurn controls how finely arcs are sampled into line
// segments. DXF has native arcs, but sampled segments keep the output
// consumable by the widest set of viewers.
const arcFacetsPerTurn = 64

// DXF renders the sketch's geometry as a DXF drawing and writes it to
// path. Normal geometry goes on the GEOMETRY layer, construction geometry
// on CONSTRUCTION. Bare points are skipped; they carry no DXF meaning.
func DXF(s *sketch.Sketch, path string) error {
	d := dxf.NewDrawing()
	d.AddLayer("GEOMETRY", dxf.DefaultColor, dxf.DefaultLineType, true)
	d.AddLayer("CONSTRUCTION", dxf.DefaultColor, dxf.DefaultLineType, false)

	layer := func(construction bool) error {
		name := "GEOMETRY"
		if construction {
			name = "CONSTRUCTION"
		}
		return d.ChangeLayer(name)
	}

	for _, l := range s.Lines {
		p1, p2 := s.Point(l.P1), s.Point(l.P2)
		if p1 == nil || p2 == nil {
			continue
		}
		if err := layer(l.Construction); err != nil {
			return fmt.Errorf("dxf export: %w", err)
		}
		if _, err := d.Line(p1.Pos.X, p1.Pos.Y, 0, p2.Pos.X, p2.Pos.Y, 0); err != nil {
			return fmt.Errorf("dxf export: line %s: %w", l.ID.Short(), err)
		}
	}

	for _, c := range s.Circles {
		center := s.Point(c.Center)
		if center == nil || c.Radius <= 0 {
			continue
		}
		if err := layer(c.Construction); err != nil {
			return fmt.Errorf("dxf export: %w", err)
		}
		if _, err := d.Circle(center.Pos.X, center.Pos.Y, 0, c.Radius); err != nil {
			return fmt.Errorf("dxf export: circle %s: %w", c.ID.Short(), err)
		}
	}

	for _, a := range s.Arcs {
		pts := arcPoints(s, a)
		if len(pts) < 2 {
			continue
		}
		if err := layer(a.Construction); err != nil {
			return fmt.Errorf("dxf export: %w", err)
		}
		for i := 0; i+1 < len(pts); i++ {
			if _, err := d.Line(pts[i].X, pts[i].Y, 0, pts[i+1].X, pts[i+1].Y, 0); err != nil {
				return fmt.Errorf("dxf export: arc %s: %w", a.ID.Short(), err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("dxf export: saving %s: %w", path, err)
	}
	return nil
}

// arcPoints samples the arc's shorter angular sweep from P1 to P2.
func arcPoints(s *sketch.Sketch, a *sketch.Arc) []sketch.Vec2 {
	center := s.Point(a.Center)
	p1 := s.Point(a.P1)
	p2 := s.Point(a.P2)
	if center == nil || p1 == nil || p2 == nil || a.Radius <= 0 {
		return nil
	}

	a1 := p1.Pos.Sub(center.Pos).Angle()
	a2 := p2.Pos.Sub(center.Pos).Angle()
	delta := a2 - a1
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (2 * math.Pi) * arcFacetsPerTurn))
	if n < 4 {
		n = 4
	}
	pts := make([]sketch.Vec2, n+1)
	for i := 0; i <= n; i++ {
		ang := a1 + delta*float64(i)/float64(n)
		pts[i] = sketch.Vec2{
			X: center.Pos.X + a.Radius*math.Cos(ang),
			Y: center.Pos.Y + a.Radius*math.Sin(ang),
		}
	}
	return pts
}
