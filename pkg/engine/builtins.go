package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/planar/pkg/ops"
	"github.com/chazu/planar/pkg/sketch"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword tokens rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites planar DSL source into plain zygomys:
//
//  1. :keyword -> "__kw_keyword" string literals, so flags like
//     :construction need no registered globals.
//  2. ; line comments -> // comments (zygomys has no ; comments).
//
// String literal boundaries are respected.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/8)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			// Copy the string literal untouched.
			out.WriteByte(b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					out.WriteByte(b[i])
					i++
				}
				out.WriteByte(b[i])
				i++
			}
			if i < len(b) {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.Write(b[i+1 : j])
			out.WriteByte('"')
			i = j

		default:
			out.WriteByte(b[i])
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Entity references
// ---------------------------------------------------------------------------

// refKind distinguishes what a sexpRef points at.
type refKind int

const (
	refPoint refKind = iota
	refLine
	refCircle
	refArc
)

func (k refKind) String() string {
	switch k {
	case refPoint:
		return "point"
	case refLine:
		return "line"
	case refCircle:
		return "circle"
	case refArc:
		return "arc"
	default:
		return "unknown"
	}
}

// sexpRef wraps a sketch entity id so builtins can pass entities between
// each other through the Lisp environment.
type sexpRef struct {
	kind refKind
	id   sketch.EntityID
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %s)", r.kind, r.id.Short())
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toRef(s zygo.Sexp, want refKind) (sketch.EntityID, error) {
	r, ok := s.(*sexpRef)
	if !ok {
		return "", fmt.Errorf("expected %s reference, got %T (%s)", want, s, s.SexpString(nil))
	}
	if r.kind != want {
		return "", fmt.Errorf("expected %s reference, got %s", want, r.kind)
	}
	return r.id, nil
}

// toCurveRef accepts a line, circle or arc reference.
func toCurveRef(s zygo.Sexp) (ops.CurveRef, error) {
	r, ok := s.(*sexpRef)
	if !ok {
		return ops.CurveRef{}, fmt.Errorf("expected curve reference, got %T (%s)", s, s.SexpString(nil))
	}
	switch r.kind {
	case refLine:
		return ops.CurveRef{Kind: ops.CurveLine, ID: r.id}, nil
	case refCircle:
		return ops.CurveRef{Kind: ops.CurveCircle, ID: r.id}, nil
	case refArc:
		return ops.CurveRef{Kind: ops.CurveArc, ID: r.id}, nil
	}
	return ops.CurveRef{}, fmt.Errorf("expected curve reference, got %s", r.kind)
}

// toCircleOrArc accepts either circle or arc references; they share the
// constraint namespace.
func toCircleOrArc(s zygo.Sexp) (sketch.EntityID, error) {
	r, ok := s.(*sexpRef)
	if !ok || (r.kind != refCircle && r.kind != refArc) {
		return "", fmt.Errorf("expected circle or arc reference")
	}
	return r.id, nil
}

// hasFlag reports whether a preprocessed keyword flag appears in args and
// returns the remaining positional arguments.
func splitFlags(args []zygo.Sexp) (positional []zygo.Sexp, flags map[string]bool) {
	flags = make(map[string]bool)
	for _, a := range args {
		if str, ok := a.(*zygo.SexpStr); ok && strings.HasPrefix(str.S, kwPrefix) {
			flags[str.S[len(kwPrefix):]] = true
			continue
		}
		positional = append(positional, a)
	}
	return positional, flags
}

// pointIDs extracts a list of point references.
func pointIDs(args []zygo.Sexp) ([]sketch.EntityID, error) {
	ids := make([]sketch.EntityID, 0, len(args))
	for _, a := range args {
		id, err := toRef(a, refPoint)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the planar DSL builtins into a zygomys
// environment. The builtins populate the provided sketch during
// evaluation. Source must be run through preprocessSource first so that
// :keyword tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *sketch.Sketch) {

	// (point x y [:fixed])
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, flags := splitFlags(args)
		if len(pos) != 2 {
			return zygo.SexpNull, fmt.Errorf("point: want (point x y), got %d args", len(pos))
		}
		x, err := toFloat64(pos[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: x: %w", err)
		}
		y, err := toFloat64(pos[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: y: %w", err)
		}
		p := s.AddPoint(x, y)
		p.Fixed = flags["fixed"]
		return &sexpRef{kind: refPoint, id: p.ID}, nil
	})

	// (line p1 p2 [:construction])
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, flags := splitFlags(args)
		if len(pos) != 2 {
			return zygo.SexpNull, fmt.Errorf("line: want (line p1 p2)")
		}
		p1, err := toRef(pos[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		p2, err := toRef(pos[1], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		l, err := s.AddLine(p1, p2)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		l.Construction = flags["construction"]
		return &sexpRef{kind: refLine, id: l.ID}, nil
	})

	// (circle center r [:construction])
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, flags := splitFlags(args)
		if len(pos) != 2 {
			return zygo.SexpNull, fmt.Errorf("circle: want (circle center r)")
		}
		center, err := toRef(pos[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		r, err := toFloat64(pos[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
		}
		c, err := s.AddCircle(center, r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		c.Construction = flags["construction"]
		return &sexpRef{kind: refCircle, id: c.ID}, nil
	})

	// (arc center r p1 p2 [:construction])
	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, flags := splitFlags(args)
		if len(pos) != 4 {
			return zygo.SexpNull, fmt.Errorf("arc: want (arc center r p1 p2)")
		}
		center, err := toRef(pos[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		r, err := toFloat64(pos[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: radius: %w", err)
		}
		p1, err := toRef(pos[2], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		p2, err := toRef(pos[3], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		a, err := s.AddArc(center, r, p1, p2)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		a.Construction = flags["construction"]
		return &sexpRef{kind: refArc, id: a.ID}, nil
	})

	// (coincident p1 p2 ...) — two or more points
	env.AddFunction("coincident", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		ids, err := pointIDs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("coincident: %w", err)
		}
		if len(ids) < 2 {
			return zygo.SexpNull, fmt.Errorf("coincident: want at least 2 points")
		}
		c := s.AddConstraint(sketch.Coincident, 0, ids, nil, nil)
		return &sexpRef{kind: refPoint, id: c.ID}, nil
	})

	// (on_line p l) — point constrained onto a line
	env.AddFunction("on_line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("on_line: want (on_line p l)")
		}
		p, err := toRef(args[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("on_line: %w", err)
		}
		l, err := toRef(args[1], refLine)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("on_line: %w", err)
		}
		s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{p}, []sketch.EntityID{l}, nil)
		return zygo.SexpNull, nil
	})

	// (on_circle p c) — point constrained onto a circle or arc
	env.AddFunction("on_circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("on_circle: want (on_circle p c)")
		}
		p, err := toRef(args[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("on_circle: %w", err)
		}
		c, err := toCircleOrArc(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("on_circle: %w", err)
		}
		s.AddConstraint(sketch.Coincident, 0, []sketch.EntityID{p}, nil, []sketch.EntityID{c})
		return zygo.SexpNull, nil
	})

	// (horizontal p1 p2) / (vertical p1 p2)
	levelled := func(kind sketch.ConstraintKind, fname string) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ids, err := pointIDs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fname, err)
			}
			if len(ids) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s: want exactly 2 points", fname)
			}
			s.AddConstraint(kind, 0, ids, nil, nil)
			return zygo.SexpNull, nil
		}
	}
	env.AddFunction("horizontal", levelled(sketch.Horizontal, "horizontal"))
	env.AddFunction("vertical", levelled(sketch.Vertical, "vertical"))

	// (distance p1 p2 value)
	env.AddFunction("distance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("distance: want (distance p1 p2 value)")
		}
		ids, err := pointIDs(args[:2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("distance: %w", err)
		}
		v, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("distance: value: %w", err)
		}
		s.AddConstraint(sketch.Distance, v, ids, nil, nil)
		return zygo.SexpNull, nil
	})

	// (radius c value)
	env.AddFunction("radius", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("radius: want (radius c value)")
		}
		c, err := toCircleOrArc(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radius: %w", err)
		}
		v, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radius: value: %w", err)
		}
		s.AddConstraint(sketch.Radius, v, nil, nil, []sketch.EntityID{c})
		return zygo.SexpNull, nil
	})

	// (parallel l1 l2) / (equal_length l1 l2)
	linePair := func(kind sketch.ConstraintKind, fname string) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s: want exactly 2 lines", fname)
			}
			l1, err := toRef(args[0], refLine)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fname, err)
			}
			l2, err := toRef(args[1], refLine)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fname, err)
			}
			s.AddConstraint(kind, 0, nil, []sketch.EntityID{l1, l2}, nil)
			return zygo.SexpNull, nil
		}
	}
	env.AddFunction("parallel", linePair(sketch.Parallel, "parallel"))
	env.AddFunction("equal_length", linePair(sketch.EqualLength, "equal_length"))

	// (angle l deg) or (angle l1 l2 deg)
	env.AddFunction("angle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 && len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("angle: want (angle l deg) or (angle l1 l2 deg)")
		}
		var lines []sketch.EntityID
		for _, a := range args[:len(args)-1] {
			l, err := toRef(a, refLine)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("angle: %w", err)
			}
			lines = append(lines, l)
		}
		deg, err := toFloat64(args[len(args)-1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: degrees: %w", err)
		}
		s.AddConstraint(sketch.Angle, deg, nil, lines, nil)
		return zygo.SexpNull, nil
	})

	// (tangent l c)
	env.AddFunction("tangent", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("tangent: want (tangent l c)")
		}
		l, err := toRef(args[0], refLine)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tangent: %w", err)
		}
		c, err := toCircleOrArc(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tangent: %w", err)
		}
		s.AddConstraint(sketch.Tangent, 0, nil, []sketch.EntityID{l}, []sketch.EntityID{c})
		return zygo.SexpNull, nil
	})

	// (midpoint p l)
	env.AddFunction("midpoint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("midpoint: want (midpoint p l)")
		}
		p, err := toRef(args[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("midpoint: %w", err)
		}
		l, err := toRef(args[1], refLine)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("midpoint: %w", err)
		}
		s.AddConstraint(sketch.Midpoint, 0, []sketch.EntityID{p}, []sketch.EntityID{l}, nil)
		return zygo.SexpNull, nil
	})

	// (fix p ...) — pin points as solver anchors
	env.AddFunction("fix", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		ids, err := pointIDs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fix: %w", err)
		}
		if len(ids) == 0 {
			return zygo.SexpNull, fmt.Errorf("fix: want at least 1 point")
		}
		for _, id := range ids {
			if p := s.Point(id); p != nil {
				p.Fixed = true
			}
		}
		s.AddConstraint(sketch.Fixed, 0, ids, nil, nil)
		return zygo.SexpNull, nil
	})

	// (fillet p [r]) — tangent arc at a two-line vertex
	env.AddFunction("fillet", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 && len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("fillet: want (fillet p [r])")
		}
		p, err := toRef(args[0], refPoint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
		}
		r := ops.DefaultFilletRadius
		if len(args) == 2 {
			if r, err = toFloat64(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: radius: %w", err)
			}
		}
		arc, err := ops.Fillet(s, p, r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
		}
		return &sexpRef{kind: refArc, id: arc.ID}, nil
	})

	// (trim p1 p2)
	env.AddFunction("trim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("trim: want (trim p1 p2)")
		}
		ids, err := pointIDs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("trim: %w", err)
		}
		if err := ops.Trim(s, ids[0], ids[1]); err != nil {
			return zygo.SexpNull, fmt.Errorf("trim: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// (intersect a b) — pairwise closed-form intersection
	env.AddFunction("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("intersect: want (intersect a b)")
		}
		a, err := toCurveRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		b, err := toCurveRef(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		points, err := ops.Intersect(s, a, b)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		refs := make([]zygo.Sexp, len(points))
		for i, p := range points {
			refs[i] = &sexpRef{kind: refPoint, id: p.ID}
		}
		return env.NewSexpArray(refs), nil
	})

	// (auto_intersect) — insert points at all interior line crossings
	env.AddFunction("auto_intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		points := ops.AutoIntersect(s)
		refs := make([]zygo.Sexp, len(points))
		for i, p := range points {
			refs[i] = &sexpRef{kind: refPoint, id: p.ID}
		}
		return env.NewSexpArray(refs), nil
	})
}
