package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/chazu/planar/pkg/advice"
	"github.com/chazu/planar/pkg/engine"
	"github.com/chazu/planar/pkg/export"
	"github.com/chazu/planar/pkg/kernel"
	"github.com/chazu/planar/pkg/kernel/sdfx"
	"github.com/chazu/planar/pkg/ops"
	"github.com/chazu/planar/pkg/profile"
	"github.com/chazu/planar/pkg/sketch"
	"github.com/chazu/planar/pkg/solve"
	"github.com/chazu/planar/pkg/store"
)

// dragSolveDelay coalesces solver runs while a point is being dragged.
const dragSolveDelay = 30 * time.Millisecond

// colorPalette assigns distinct colors to generated solids.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It owns the current sketch, its undo history
// and the evaluation engine, and exposes methods to the frontend via
// bindings. All bindings serialize on mu; Wails may call them from
// multiple goroutines.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	kernel kernel.Kernel
	store  *store.Store

	mu        sync.Mutex
	sketch    *sketch.Sketch
	history   *sketch.History
	dragSolve func(func())
	meshCount int
}

// NewApp creates the App with an empty sketch and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine:    engine.NewEngine(),
		kernel:    sdfx.New(),
		sketch:    sketch.New(),
		history:   sketch.NewHistory(),
		dragSolve: debounce.New(dragSolveDelay),
	}
}

// startup is called by Wails on app startup. The context is saved so
// Wails runtime methods can be called later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	st, err := store.Open("planar.db")
	if err != nil {
		log.Printf("sketch store unavailable: %v", err)
		return
	}
	a.store = st
}

// shutdown is called by Wails on app exit.
func (a *App) shutdown(ctx context.Context) {
	if a.store != nil {
		a.store.Close()
	}
}

// ---------------------------------------------------------------------------
// Frontend data types
// ---------------------------------------------------------------------------

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// PointData, LineData, CircleData and ArcData are the 2D view of the
// current sketch sent to the canvas.
type PointData struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Fixed bool    `json:"fixed"`
}

type LineData struct {
	ID           string `json:"id"`
	P1           string `json:"p1"`
	P2           string `json:"p2"`
	Construction bool   `json:"construction"`
}

type CircleData struct {
	ID           string  `json:"id"`
	Center       string  `json:"center"`
	Radius       float64 `json:"radius"`
	Construction bool    `json:"construction"`
}

type ArcData struct {
	ID           string  `json:"id"`
	Center       string  `json:"center"`
	Radius       float64 `json:"radius"`
	P1           string  `json:"p1"`
	P2           string  `json:"p2"`
	Construction bool    `json:"construction"`
}

// SketchData is the full 2D state returned after every mutation.
type SketchData struct {
	Points      []PointData     `json:"points"`
	Lines       []LineData      `json:"lines"`
	Circles     []CircleData    `json:"circles"`
	Arcs        []ArcData       `json:"arcs"`
	Constraints int             `json:"constraints"`
	Errors      []EvalErrorData `json:"errors"`
}

// sketchData renders the current sketch for the frontend. Callers must
// hold mu.
func (a *App) sketchData() SketchData {
	out := SketchData{
		Points:      []PointData{},
		Lines:       []LineData{},
		Circles:     []CircleData{},
		Arcs:        []ArcData{},
		Constraints: len(a.sketch.Constraints),
		Errors:      []EvalErrorData{},
	}
	for _, p := range a.sketch.Points {
		out.Points = append(out.Points, PointData{
			ID: string(p.ID), X: p.Pos.X, Y: p.Pos.Y, Fixed: p.Fixed,
		})
	}
	for _, l := range a.sketch.Lines {
		out.Lines = append(out.Lines, LineData{
			ID: string(l.ID), P1: string(l.P1), P2: string(l.P2),
			Construction: l.Construction,
		})
	}
	for _, c := range a.sketch.Circles {
		out.Circles = append(out.Circles, CircleData{
			ID: string(c.ID), Center: string(c.Center), Radius: c.Radius,
			Construction: c.Construction,
		})
	}
	for _, arc := range a.sketch.Arcs {
		out.Arcs = append(out.Arcs, ArcData{
			ID: string(arc.ID), Center: string(arc.Center), Radius: arc.Radius,
			P1: string(arc.P1), P2: string(arc.P2),
			Construction: arc.Construction,
		})
	}
	return out
}

// snapshot pushes the current sketch onto the undo history. Callers must
// hold mu and call it before mutating.
func (a *App) snapshot() {
	a.history.Push(a.sketch)
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Evaluate runs Lisp source through the engine and replaces the current
// sketch with the result. On eval errors the current sketch is kept.
func (a *App) Evaluate(source string) SketchData {
	s, evalErrs, err := a.engine.Evaluate(source)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		out := a.sketchData()
		out.Errors = append(out.Errors, EvalErrorData{Message: err.Error()})
		return out
	}
	if len(evalErrs) > 0 {
		out := a.sketchData()
		for _, e := range evalErrs {
			out.Errors = append(out.Errors, EvalErrorData{
				Line: e.Line, Col: e.Col, Message: e.Message,
			})
		}
		return out
	}

	a.snapshot()
	a.sketch = s
	return a.sketchData()
}

// ---------------------------------------------------------------------------
// Direct editing
// ---------------------------------------------------------------------------

// DragPoint moves a point to (x, y) and pins it there; a dragged point
// becomes a solver anchor. Solver runs are debounced so rapid drag events
// coalesce into one relaxation.
func (a *App) DragPoint(id string, x, y float64) SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.sketch.Point(sketch.EntityID(id))
	if p == nil {
		out := a.sketchData()
		out.Errors = append(out.Errors, EvalErrorData{Message: fmt.Sprintf("no point %s", id)})
		return out
	}
	p.Pos = sketch.Vec2{X: x, Y: y}
	p.Fixed = true

	a.dragSolve(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		solve.Apply(a.sketch)
	})
	return a.sketchData()
}

// Solve runs the relaxation immediately, e.g. on drag end.
func (a *App) Solve() SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()
	solve.Apply(a.sketch)
	return a.sketchData()
}

// Fillet replaces the two-line corner at the given vertex with a tangent
// arc of the given radius (0 selects the default).
func (a *App) Fillet(pointID string, radius float64) SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	if radius <= 0 {
		radius = ops.DefaultFilletRadius
	}
	a.snapshot()
	if _, err := ops.Fillet(a.sketch, sketch.EntityID(pointID), radius); err != nil {
		a.history.Drop()
		out := a.sketchData()
		out.Errors = append(out.Errors, EvalErrorData{Message: err.Error()})
		return out
	}
	solve.Apply(a.sketch)
	return a.sketchData()
}

// Trim cuts the line between two cut points, or converts a circle to an
// arc between two points on it.
func (a *App) Trim(p1, p2 string) SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshot()
	if err := ops.Trim(a.sketch, sketch.EntityID(p1), sketch.EntityID(p2)); err != nil {
		a.history.Drop()
		out := a.sketchData()
		out.Errors = append(out.Errors, EvalErrorData{Message: err.Error()})
		return out
	}
	solve.Apply(a.sketch)
	return a.sketchData()
}

// AutoIntersect inserts points at every interior line/line crossing.
func (a *App) AutoIntersect() SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshot()
	ops.AutoIntersect(a.sketch)
	solve.Apply(a.sketch)
	return a.sketchData()
}

// Undo restores the previous sketch snapshot.
func (a *App) Undo() SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	if prev := a.history.Undo(a.sketch); prev != nil {
		a.sketch = prev
	}
	return a.sketchData()
}

// Redo re-applies an undone snapshot.
func (a *App) Redo() SketchData {
	a.mu.Lock()
	defer a.mu.Unlock()

	if next := a.history.Redo(a.sketch); next != nil {
		a.sketch = next
	}
	return a.sketchData()
}

// ---------------------------------------------------------------------------
// Solid generation
// ---------------------------------------------------------------------------

// Extrude sweeps the sketch's closed profile to the given depth and
// returns the resulting triangle mesh.
func (a *App) Extrude(depth float64) (MeshData, error) {
	a.mu.Lock()
	s := a.sketch.Clone()
	a.mu.Unlock()

	mesh, err := profile.Extrude(s, a.kernel, depth)
	if err != nil {
		log.Printf("Extrude error: %v", err)
		return MeshData{}, err
	}
	return a.toMeshData(mesh, "extrude"), nil
}

// Revolve spins the sketch's closed profile around the given axis line by
// angleDeg degrees.
func (a *App) Revolve(axisLineID string, angleDeg float64) (MeshData, error) {
	a.mu.Lock()
	s := a.sketch.Clone()
	a.mu.Unlock()

	mesh, err := profile.Revolve(s, a.kernel, sketch.EntityID(axisLineID), angleDeg)
	if err != nil {
		log.Printf("Revolve error: %v", err)
		return MeshData{}, err
	}
	return a.toMeshData(mesh, "revolve"), nil
}

func (a *App) toMeshData(m *kernel.Mesh, kind string) MeshData {
	a.mu.Lock()
	a.meshCount++
	n := a.meshCount
	a.mu.Unlock()

	name := m.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", kind, n)
	}
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		Name:     name,
		Color:    colorPalette[(n-1)%len(colorPalette)],
	}
}

// ---------------------------------------------------------------------------
// Persistence and export
// ---------------------------------------------------------------------------

// SaveSketch stores the current sketch under the given name.
func (a *App) SaveSketch(name string) error {
	if a.store == nil {
		return fmt.Errorf("sketch store unavailable")
	}
	a.mu.Lock()
	s := a.sketch.Clone()
	a.mu.Unlock()
	return a.store.Save(a.ctx, name, s)
}

// LoadSketch replaces the current sketch with a stored one.
func (a *App) LoadSketch(name string) (SketchData, error) {
	if a.store == nil {
		return SketchData{}, fmt.Errorf("sketch store unavailable")
	}
	s, err := a.store.Load(a.ctx, name)
	if err != nil {
		return SketchData{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot()
	a.sketch = s
	return a.sketchData(), nil
}

// ListSketches returns the names of all stored sketches.
func (a *App) ListSketches() ([]string, error) {
	if a.store == nil {
		return nil, fmt.Errorf("sketch store unavailable")
	}
	return a.store.List(a.ctx)
}

// ExportDXF writes the current sketch to a DXF file at path.
func (a *App) ExportDXF(path string) error {
	a.mu.Lock()
	s := a.sketch.Clone()
	a.mu.Unlock()
	return export.DXF(s, path)
}

// Advice asks the configured model for constraint suggestions. Returns a
// plain-text list, or an error when no API key is configured.
func (a *App) Advice() (string, error) {
	client, err := advice.NewClient()
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	s := a.sketch.Clone()
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(a.ctx, 60*time.Second)
	defer cancel()
	return client.Advise(ctx, s)
}
