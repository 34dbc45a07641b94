package engine

import (
	"math"
	"strings"
	"testing"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	s, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if s == nil {
		t.Fatal("expected non-nil sketch")
	}
	if len(s.Points) != 0 {
		t.Errorf("expected empty sketch, got %d points", len(s.Points))
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	s, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if s == nil || len(s.Points) != 0 {
		t.Fatal("expected empty sketch")
	}
}

func TestEvaluatePointAndLine(t *testing.T) {
	eng := NewEngine()

	source := `
(def a (point 0 0 :fixed))
(def b (point 100 0))
(line a b)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(s.Points) != 2 || len(s.Lines) != 1 {
		t.Fatalf("got %d points, %d lines; want 2 and 1", len(s.Points), len(s.Lines))
	}
	if !s.Points[0].Fixed {
		t.Error(":fixed flag not applied")
	}
	if s.Points[1].Fixed {
		t.Error("second point should not be fixed")
	}
}

func TestEvaluateSolvesConstraints(t *testing.T) {
	eng := NewEngine()

	source := `
(def a (point 0 0 :fixed))
(def b (point 90 0))
(distance a b 100)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	d := s.Points[0].Pos.Dist(s.Points[1].Pos)
	if math.Abs(d-100) > 1e-3 {
		t.Errorf("distance after evaluation = %g, want 100 (solve not applied?)", d)
	}
}

func TestEvaluateCircleAndRadius(t *testing.T) {
	eng := NewEngine()

	source := `
(def o (point 0 0))
(def c (circle o 5 :construction))
(radius c 12)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(s.Circles) != 1 {
		t.Fatal("circle not created")
	}
	if !s.Circles[0].Construction {
		t.Error(":construction flag not applied")
	}
	if s.Circles[0].Radius != 12 {
		t.Errorf("radius = %g, want exactly 12", s.Circles[0].Radius)
	}
}

func TestEvaluateComments(t *testing.T) {
	eng := NewEngine()

	source := `
; a lone point
(point 1 2) ; trailing comment
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(s.Points) != 1 {
		t.Errorf("got %d points, want 1", len(s.Points))
	}
}

func TestEvaluateFillet(t *testing.T) {
	eng := NewEngine()

	source := `
(def v (point 0 0))
(def x (point 50 0))
(def y (point 0 50))
(line v x)
(line v y)
(fillet v 20)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(s.Arcs) != 1 {
		t.Fatalf("got %d arcs, want 1", len(s.Arcs))
	}
	if math.Abs(s.Arcs[0].Radius-20) > 1e-6 {
		t.Errorf("fillet arc radius = %g, want 20", s.Arcs[0].Radius)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	s, evalErrs, err := eng.Evaluate("(point 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil sketch on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateBadArguments(t *testing.T) {
	eng := NewEngine()

	// distance wants two point refs and a number.
	s, evalErrs, err := eng.Evaluate(`(distance 1 2 3)`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil sketch on builtin error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	if !strings.Contains(evalErrs[0].Message, "distance") {
		t.Errorf("error does not name the builtin: %q", evalErrs[0].Message)
	}
}

func TestEvaluateConcurrentCalls(t *testing.T) {
	eng := NewEngine()
	done := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- true }()
			eng.Evaluate(`(point 1 1)`)
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestEvalErrorString(t *testing.T) {
	e := EvalError{Line: 3, Message: "boom"}
	if got := e.Error(); got != "line 3: boom" {
		t.Errorf("Error() = %q", got)
	}
	e = EvalError{Message: "boom"}
	if got := e.Error(); got != "boom" {
		t.Errorf("Error() = %q", got)
	}
}
