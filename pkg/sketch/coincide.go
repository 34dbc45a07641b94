package sketch

// Canonical builds a union-find over the current COINCIDENT point constraints
// and returns a find function mapping any point id to its cluster
// representative. Multi-point constraints union all listed points pairwise
// against the first.
//
// The mapping is rebuilt fresh on every call rather than maintained
// incrementally; clusters change shape frequently and the rebuild is cheap,
// which avoids incremental-invalidation bugs. Coincident points remain
// separate draggable entities; the solver, not a merge, pulls them together,
// so "coincident" is only approximately true between solves.
func (s *Sketch) Canonical() func(EntityID) EntityID {
	parent := make(map[EntityID]EntityID, len(s.Points))
	for _, p := range s.Points {
		parent[p.ID] = p.ID
	}

	var find func(EntityID) EntityID
	find = func(id EntityID) EntityID {
		root, ok := parent[id]
		if !ok {
			// Unknown ids are their own representative; the mapping is
			// total over any id handed to it.
			parent[id] = id
			return id
		}
		if root == id {
			return id
		}
		canonical := find(root)
		parent[id] = canonical // path compression
		return canonical
	}

	union := func(a, b EntityID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for _, c := range s.Constraints {
		if c.Kind != Coincident || len(c.Points) < 2 {
			continue
		}
		// Point-on-curve coincidences carry a single point plus a line or
		// circle reference and do not form clusters.
		first := c.Points[0]
		for _, other := range c.Points[1:] {
			union(first, other)
		}
	}

	return find
}

// Cluster returns every point id whose canonical representative matches the
// given point's, including the point itself.
func (s *Sketch) Cluster(id EntityID) map[EntityID]bool {
	find := s.Canonical()
	root := find(id)
	members := make(map[EntityID]bool)
	for _, p := range s.Points {
		if find(p.ID) == root {
			members[p.ID] = true
		}
	}
	return members
}
