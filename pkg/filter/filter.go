// Package filter selects totals with a CEL expression over key, topic and score,
// for example `score >= 50 && topic.startsWith("sp")`.
package filter

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/dtnitsch/topic-scores/models"
)

// Filter is a compiled expression. The zero value and a Filter built from an
// empty expression match everything.
type Filter struct {
	expr    string
	prog    cel.Program
	enabled bool
}

// New compiles expr. The expression must evaluate to a bool.
func New(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("score", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q returns %s, want bool", expr, ast.OutputType())
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, prog: prog, enabled: true}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match reports whether t satisfies the expression.
func (f *Filter) Match(t models.Total) (bool, error) {
	if f == nil || !f.enabled {
		return true, nil
	}

	out, _, err := f.prog.Eval(map[string]any{
		"key":   t.Key,
		"topic": t.Topic,
		"score": int64(t.Score),
	})
	if err != nil {
		return false, fmt.Errorf("filter %q on %s: %w", f.expr, t, err)
	}
	b, ok := out.Value().(bool)
	return ok && b, nil
}

// Apply returns the totals that match, in their original order.
func (f *Filter) Apply(totals []models.Total) ([]models.Total, error) {
	if f == nil || !f.enabled {
		return totals, nil
	}

	out := make([]models.Total, 0, len(totals))
	for _, t := range totals {
		ok, err := f.Match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
