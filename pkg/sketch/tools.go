package sketch

// PendingDraw tracks the in-progress click sequence of a drawing tool.
// Line, rect and circle take two clicks (start then end), arc takes three
// (center, start, end). The sequence resets on completion and whenever the
// active tool changes; there is no persistence beyond the in-progress click.
type PendingDraw struct {
	tool   Tool
	clicks []Vec2
}

// Reset discards any in-progress clicks and arms the given tool.
func (d *PendingDraw) Reset(tool Tool) {
	d.tool = tool
	d.clicks = d.clicks[:0]
}

// Click feeds one click into the sequence. When the click completes the
// active tool's shape it is applied to the sketch and true is returned.
func (d *PendingDraw) Click(s *Sketch, at Vec2) bool {
	switch d.tool {
	case ToolPoint:
		s.AddPoint(at.X, at.Y)
		return true

	case ToolLine:
		d.clicks = append(d.clicks, at)
		if len(d.clicks) < 2 {
			return false
		}
		p1 := s.AddPoint(d.clicks[0].X, d.clicks[0].Y)
		p2 := s.AddPoint(d.clicks[1].X, d.clicks[1].Y)
		s.AddLine(p1.ID, p2.ID)
		d.clicks = d.clicks[:0]
		return true

	case ToolRect:
		d.clicks = append(d.clicks, at)
		if len(d.clicks) < 2 {
			return false
		}
		a, b := d.clicks[0], d.clicks[1]
		p1 := s.AddPoint(a.X, a.Y)
		p2 := s.AddPoint(b.X, a.Y)
		p3 := s.AddPoint(b.X, b.Y)
		p4 := s.AddPoint(a.X, b.Y)
		s.AddLine(p1.ID, p2.ID)
		s.AddLine(p2.ID, p3.ID)
		s.AddLine(p3.ID, p4.ID)
		s.AddLine(p4.ID, p1.ID)
		// Keep the rectangle axis-aligned under later edits.
		s.AddConstraint(Horizontal, 0, []EntityID{p1.ID, p2.ID}, nil, nil)
		s.AddConstraint(Horizontal, 0, []EntityID{p4.ID, p3.ID}, nil, nil)
		s.AddConstraint(Vertical, 0, []EntityID{p2.ID, p3.ID}, nil, nil)
		s.AddConstraint(Vertical, 0, []EntityID{p1.ID, p4.ID}, nil, nil)
		d.clicks = d.clicks[:0]
		return true

	case ToolCircle:
		d.clicks = append(d.clicks, at)
		if len(d.clicks) < 2 {
			return false
		}
		center := s.AddPoint(d.clicks[0].X, d.clicks[0].Y)
		s.AddCircle(center.ID, d.clicks[1].Dist(d.clicks[0]))
		d.clicks = d.clicks[:0]
		return true

	case ToolArc:
		d.clicks = append(d.clicks, at)
		if len(d.clicks) < 3 {
			return false
		}
		c, start, end := d.clicks[0], d.clicks[1], d.clicks[2]
		r := start.Dist(c)
		if r < 1e-9 {
			d.clicks = d.clicks[:0]
			return false
		}
		// Snap the final click onto the radius set by the second click.
		endOnArc := c.Add(end.Sub(c).Normalize().Scale(r))
		center := s.AddPoint(c.X, c.Y)
		p1 := s.AddPoint(start.X, start.Y)
		p2 := s.AddPoint(endOnArc.X, endOnArc.Y)
		s.AddArc(center.ID, r, p1.ID, p2.ID)
		d.clicks = d.clicks[:0]
		return true
	}
	return false
}
