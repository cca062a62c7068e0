// Package query compiles CEL expressions into node predicates. A query is
// ANDed into the base visibility filter, e.g.
//
//	kind == "atomicGoal" && "B1" in levels
//	label.startsWith("Alg") || area == "math"
//
// The node type is bound as kind because type is a CEL builtin.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// ErrInvalidQuery wraps compile and type errors.
var ErrInvalidQuery = errors.New("invalid query")

// Variables lists the names an expression can use.
var Variables = []string{"id", "kind", "label", "expertise", "levels", "area", "topic", "detail", "rank", "order", "text"}

// Query is a compiled node predicate. A nil *Query matches every node.
type Query struct {
	src string
	prg cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("label", cel.StringType),
		cel.Variable("expertise", cel.StringType),
		cel.Variable("levels", cel.ListType(cel.StringType)),
		cel.Variable("area", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("detail", cel.StringType),
		cel.Variable("rank", cel.IntType),
		cel.Variable("order", cel.DoubleType),
		cel.Variable("text", cel.StringType),
	)
}

// Compile parses and type-checks expr. An empty expression gives a nil
// query.
func Compile(expr string) (*Query, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("creating query environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q yields %s, want bool", ErrInvalidQuery, expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return &Query{src: expr, prg: prg}, nil
}

// MustCompile is Compile for expressions known to be valid.
func MustCompile(expr string) *Query {
	q, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the source expression.
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	return q.src
}

func activation(n *model.Node) map[string]any {
	topic := n.TopicID
	if topic == "" {
		topic = n.ParentTopicID
	}
	levels := n.Levels
	if levels == nil {
		levels = []string{}
	}
	return map[string]any{
		"id":        n.ID,
		"kind":      string(n.Type),
		"label":     n.DisplayLabel(),
		"expertise": n.Expertise,
		"levels":    levels,
		"area":      n.AreaID,
		"topic":     topic,
		"detail":    n.DetailLevel,
		"rank":      int64(n.DetailRank),
		"order":     n.OrderValue(),
		"text":      n.Text(),
	}
}

// Match evaluates the query for n. Evaluation errors count as no match.
func (q *Query) Match(n *model.Node) bool {
	if q == nil {
		return true
	}
	out, _, err := q.prg.Eval(activation(n))
	if err != nil {
		debug.Log("query %q on %s: %v", q.src, n.ID, err)
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
