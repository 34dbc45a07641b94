// Package topo extracts closed loops from the non-construction line/arc
// graph of a sketch. Loops are the candidate profile boundaries handed to
// the solid-modeling kernel. Construction geometry participates in the
// constraint solve but never appears here.
package topo

import (
	"math"
	"sort"

	"github.com/chazu/planar/pkg/sketch"
)

// walkLimit bounds a single loop walk to guard against pathological graphs.
const walkLimit = 1000

// degenerateArea is the area below which a loop is discarded as degenerate.
const degenerateArea = 1e-6

// circleFacets is the sample count used to polygonize standalone circles
// for area and containment tests.
const circleFacets = 32

// Edge is one boundary segment of a loop. A and B are canonical point ids
// (union-find representatives of coincidence clusters); APos and BPos are
// their resolved positions. Arc edges carry center and radius so the
// correct shorter angular sweep can be reconstructed downstream.
type Edge struct {
	A, B       sketch.EntityID
	APos, BPos sketch.Vec2
	IsArc      bool
	Arc        *sketch.Arc
	ArcCenter  sketch.Vec2
}

// Loop is a closed cycle of edges, or a standalone circle. Area is the
// unsigned polygon area of the loop's sample vertices (arc edges contribute
// a midpoint bulge vertex so curved regions measure correctly). Parent is
// the index of the smallest enclosing loop in the extraction result, or -1.
// Loops at even Depth are solid outer boundaries; odd Depth loops are holes
// subtracted from their parent.
type Loop struct {
	Edges  []Edge
	Circle *sketch.Circle // non-nil for standalone circle loops
	Sample []sketch.Vec2  // polygon sample used for area and containment
	Area   float64
	Parent int
	Depth  int
}

// ExtractLoops enumerates the closed loops of the sketch's non-construction
// geometry and assigns containment parents and nesting depths. A result
// with zero loops means the sketch has no closed profile.
func ExtractLoops(s *sketch.Sketch) []Loop {
	find := s.Canonical()

	// Positions keyed by canonical id (the representative member's position
	// stands in for the cluster) and by raw id for arc center/endpoint
	// lookups.
	pos := make(map[sketch.EntityID]sketch.Vec2)
	for _, p := range s.Points {
		id := find(p.ID)
		if _, ok := pos[id]; !ok {
			pos[id] = p.Pos
		}
	}
	for _, p := range s.Points {
		if _, ok := pos[p.ID]; !ok {
			pos[p.ID] = p.Pos
		}
	}

	var edges []*graphEdge
	for _, l := range s.Lines {
		if l.Construction {
			continue
		}
		a, b := find(l.P1), find(l.P2)
		if a == b {
			continue
		}
		edges = append(edges, &graphEdge{a: a, b: b})
	}
	for _, arc := range s.Arcs {
		if arc.Construction {
			continue
		}
		a, b := find(arc.P1), find(arc.P2)
		if a == b {
			continue
		}
		edges = append(edges, &graphEdge{a: a, b: b, isArc: true, arc: arc})
	}

	adj := make(map[sketch.EntityID][]*graphEdge)
	for _, e := range edges {
		adj[e.a] = append(adj[e.a], e)
		adj[e.b] = append(adj[e.b], e)
	}

	// A profile boundary is closed, so nodes of degree < 2 can never sit on
	// one. Strip them (and re-strip newly exposed ends) until stable.
	removed := make(map[sketch.EntityID]bool)
	for {
		changed := false
		for node, es := range adj {
			if removed[node] {
				continue
			}
			deg := 0
			for _, e := range es {
				if !removed[e.a] && !removed[e.b] {
					deg++
				}
			}
			if deg < 2 {
				removed[node] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var loops []Loop
	visited := make(map[sketch.EntityID]bool)

	for _, start := range sortedNodes(adj) {
		if removed[start] || visited[start] {
			continue
		}
		loop, ok := walkLoop(start, adj, removed, visited)
		if !ok {
			continue
		}
		l := buildLoop(loop, pos)
		if l.Area < degenerateArea {
			continue
		}
		loops = append(loops, l)
	}

	// Standalone circles are their own loops.
	for _, c := range s.Circles {
		if c.Construction {
			continue
		}
		center, ok := pos[find(c.Center)]
		if !ok || c.Radius <= 0 {
			continue
		}
		sample := make([]sketch.Vec2, circleFacets)
		for i := range sample {
			a := 2 * math.Pi * float64(i) / circleFacets
			sample[i] = sketch.Vec2{X: center.X + c.Radius*math.Cos(a), Y: center.Y + c.Radius*math.Sin(a)}
		}
		loops = append(loops, Loop{
			Circle: c,
			Sample: sample,
			Area:   math.Pi * c.Radius * c.Radius,
			Parent: -1,
		})
	}

	assignContainment(loops)
	return loops
}

// graphEdge is a working edge of the adjacency graph during extraction.
type graphEdge struct {
	a, b  sketch.EntityID
	isArc bool
	arc   *sketch.Arc
	used  bool
}

// sortedNodes returns the adjacency keys in a stable order so extraction is
// deterministic across runs.
func sortedNodes(adj map[sketch.EntityID][]*graphEdge) []sketch.EntityID {
	nodes := make([]sketch.EntityID, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// walkLoop walks forward from start along unused edges, preferring edges
// that lead to unvisited nodes and falling back to closing at the start
// once nothing else remains. Nodes of a discovered loop are marked visited
// globally so they are not reused by another loop.
func walkLoop(start sketch.EntityID, adj map[sketch.EntityID][]*graphEdge, removed, visited map[sketch.EntityID]bool) ([]Edge, bool) {
	var path []Edge
	onPath := map[sketch.EntityID]bool{start: true}
	cur := start

	for steps := 0; steps < walkLimit; steps++ {
		var next *graphEdge
		var nextNode sketch.EntityID

		// First choice: an unused edge to a node not yet on this path.
		// Fallback: an unused edge back to the start, closing the loop.
		for _, e := range adj[cur] {
			if e.used {
				continue
			}
			other := e.b
			if other == cur {
				other = e.a
			}
			if removed[other] || visited[other] {
				continue
			}
			if !onPath[other] {
				next = e
				nextNode = other
				break
			}
			if other == start && next == nil {
				next = e
				nextNode = other
			}
		}
		if next == nil {
			return nil, false
		}

		next.used = true
		path = append(path, Edge{A: cur, B: nextNode, IsArc: next.isArc, Arc: next.arc})

		if nextNode == start && len(path) >= 2 {
			for n := range onPath {
				visited[n] = true
			}
			return path, true
		}
		onPath[nextNode] = true
		cur = nextNode
	}
	return nil, false
}

// buildLoop samples the loop's vertices (with an arc-midpoint bulge for arc
// edges) and computes its unsigned shoelace area.
func buildLoop(edges []Edge, pos map[sketch.EntityID]sketch.Vec2) Loop {
	var sample []sketch.Vec2
	for i := range edges {
		e := &edges[i]
		e.APos = pos[e.A]
		e.BPos = pos[e.B]
		sample = append(sample, e.APos)
		if e.IsArc && e.Arc != nil {
			e.ArcCenter = pos[e.Arc.Center]
			if mid, ok := arcMidpoint(e.Arc, pos); ok {
				sample = append(sample, mid)
			}
		}
	}
	return Loop{
		Edges:  edges,
		Sample: sample,
		Area:   math.Abs(shoelace(sample)),
		Parent: -1,
	}
}

// arcMidpoint returns the point halfway along the arc's shorter angular
// sweep. Profile tracing follows the same sweep, so areas and containment
// match what the kernel will receive.
func arcMidpoint(a *sketch.Arc, pos map[sketch.EntityID]sketch.Vec2) (sketch.Vec2, bool) {
	o, ok := centerOf(a, pos)
	if !ok {
		return sketch.Vec2{}, false
	}
	p1, ok1 := pos[a.P1]
	p2, ok2 := pos[a.P2]
	if !ok1 || !ok2 {
		return sketch.Vec2{}, false
	}
	a1 := p1.Sub(o).Angle()
	a2 := p2.Sub(o).Angle()
	delta := a2 - a1
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	mid := a1 + delta/2
	return sketch.Vec2{X: o.X + a.Radius*math.Cos(mid), Y: o.Y + a.Radius*math.Sin(mid)}, true
}

func centerOf(a *sketch.Arc, pos map[sketch.EntityID]sketch.Vec2) (sketch.Vec2, bool) {
	if o, ok := pos[a.Center]; ok {
		return o, true
	}
	return sketch.Vec2{}, false
}

// shoelace returns the signed area of a polygon.
func shoelace(poly []sketch.Vec2) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// assignContainment sorts loops by descending area and gives each loop the
// smallest enclosing loop as parent, derived from a point-in-polygon test
// on one sample vertex. Depth follows the parent chain; even depth is
// solid, odd depth is a hole.
func assignContainment(loops []Loop) {
	order := make([]int, len(loops))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return loops[order[i]].Area > loops[order[j]].Area })

	for oi := len(order) - 1; oi >= 0; oi-- {
		i := order[oi]
		if len(loops[i].Sample) == 0 {
			continue
		}
		probe := loops[i].Sample[0]
		best := -1
		bestArea := math.Inf(1)
		for _, j := range order {
			if j == i || loops[j].Area <= loops[i].Area {
				continue
			}
			if pointInPolygon(probe, loops[j].Sample) && loops[j].Area < bestArea {
				best = j
				bestArea = loops[j].Area
			}
		}
		loops[i].Parent = best
	}

	// Depth by parent chain, outermost first.
	for _, i := range order {
		if loops[i].Parent < 0 {
			loops[i].Depth = 0
		} else {
			loops[i].Depth = loops[loops[i].Parent].Depth + 1
		}
	}
}

// pointInPolygon is a standard ray-casting test.
func pointInPolygon(p sketch.Vec2, poly []sketch.Vec2) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pi.X + (p.Y-pi.Y)/(pj.Y-pi.Y)*(pj.X-pi.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
