package sketch

// DefaultHistoryLimit caps the number of retained undo snapshots.
const DefaultHistoryLimit = 100

// History is an undo/redo stack of whole-sketch snapshots. Every mutating
// operation pushes a deep copy before it runs; snapshots are exclusive and
// never aliased between entries.
type History struct {
	undo  []*Sketch
	redo  []*Sketch
	limit int
}

// NewHistory returns an empty history with the default snapshot limit.
func NewHistory() *History {
	return &History{limit: DefaultHistoryLimit}
}

// Push records a snapshot of the sketch as it is before a mutation and
// clears the redo stack.
func (h *History) Push(s *Sketch) {
	h.undo = append(h.undo, s.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// Undo exchanges the current sketch for the most recent snapshot. The
// current state moves to the redo stack. Returns nil if there is nothing
// to undo.
func (h *History) Undo(current *Sketch) *Sketch {
	if len(h.undo) == 0 {
		return nil
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return prev
}

// Redo exchanges the current sketch for the most recently undone state.
// Returns nil if there is nothing to redo.
func (h *History) Redo(current *Sketch) *Sketch {
	if len(h.redo) == 0 {
		return nil
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	return next
}

// Drop discards the most recent undo snapshot. Used when a mutation
// failed without changing the sketch.
func (h *History) Drop() {
	if len(h.undo) > 0 {
		h.undo = h.undo[:len(h.undo)-1]
	}
}

// CanUndo reports whether an undo snapshot is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo snapshot is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
