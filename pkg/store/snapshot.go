// Package store persists sketches. Sketches are serialized as JSON
// snapshots and kept in a local SQLite database, one row per named sketch.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/planar/pkg/sketch"
)

// Encode serializes a sketch to its JSON snapshot form. Entity ids and
// constraint values survive a round trip unchanged.
func Encode(s *sketch.Sketch) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding sketch: %w", err)
	}
	return data, nil
}

// Decode deserializes a JSON snapshot back into a sketch. Selection sets
// are re-initialized if the snapshot predates them or omitted empty maps.
func Decode(data []byte) (*sketch.Sketch, error) {
	s := sketch.New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding sketch: %w", err)
	}
	if s.Selection.Points == nil {
		s.Selection = sketch.NewSelection()
	}
	return s, nil
}
