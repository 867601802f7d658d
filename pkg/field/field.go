// Package field models boundary-condition fields: a value that is either a
// scalar or a function of the position (x, y, z).
//
// Functions come in two forms. Expression fields are parsed from HCL
// expression source ("0.1 * z + 2", "max(x, 0)") and can be persisted; Go
// functions built with FromFunc are runtime-only and cannot be encoded.
package field

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// ErrInvalidExpression is returned when expression source cannot be compiled.
	ErrInvalidExpression = errors.New("invalid field expression")

	// ErrOpaque is returned when a Go function field has to be serialized.
	ErrOpaque = errors.New("function field cannot be encoded")
)

// Func is a field evaluated in Go.
type Func func(x, y, z float64) float64

type form int

const (
	formConstant form = iota
	formExpression
	formFunc
)

// Field is a scalar or a function of position. The zero value is the
// constant zero field.
type Field struct {
	form  form
	value float64
	src   string
	expr  hclsyntax.Expression
	fn    Func
}

// Constant returns a field with the same value everywhere.
func Constant(v float64) Field {
	return Field{form: formConstant, value: v}
}

// Zero returns the constant zero field.
func Zero() Field {
	return Constant(0)
}

// FromFunc wraps a Go function.
func FromFunc(fn Func) Field {
	if fn == nil {
		return Zero()
	}
	return Field{form: formFunc, fn: fn}
}

var positionVariables = map[string]struct{}{"x": {}, "y": {}, "z": {}}

var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"log":    stdlib.LogFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"signum": stdlib.SignumFunc,
}

// Parse compiles an HCL expression over the variables x, y and z.
// A plain numeric literal yields a constant field.
func Parse(src string) (Field, error) {
	if v, err := strconv.ParseFloat(src, 64); err == nil {
		return Constant(v), nil
	}

	expr, diags := hclsyntax.ParseExpression([]byte(src), "field", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return Field{}, fmt.Errorf("%w %q: %s", ErrInvalidExpression, src, diags.Error())
	}

	for _, traversal := range expr.Variables() {
		if _, ok := positionVariables[traversal.RootName()]; !ok {
			return Field{}, fmt.Errorf("%w %q: unknown variable %q (only x, y, z)", ErrInvalidExpression, src, traversal.RootName())
		}
	}
	for _, call := range functionCalls(expr) {
		if _, ok := functions[call]; !ok {
			return Field{}, fmt.Errorf("%w %q: unknown function %q (available: %v)", ErrInvalidExpression, src, call, FunctionNames())
		}
	}

	return Field{form: formExpression, src: src, expr: expr}, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(src string) Field {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

// FunctionNames lists the functions available to expressions.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func functionCalls(expr hclsyntax.Expression) []string {
	var calls []string
	_ = hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			calls = append(calls, call.Name)
		}
		return nil
	})
	return calls
}

// IsConstant reports whether the field has the same value everywhere.
func (f Field) IsConstant() bool {
	return f.form == formConstant
}

// IsExpression reports whether the field was parsed from expression source.
func (f Field) IsExpression() bool {
	return f.form == formExpression
}

// Value returns the scalar of a constant field.
func (f Field) Value() (float64, bool) {
	if f.form != formConstant {
		return 0, false
	}
	return f.value, true
}

// Source returns the expression source, or "" for other forms.
func (f Field) Source() string {
	return f.src
}

// Eval evaluates the field at (x, y, z).
func (f Field) Eval(x, y, z float64) (float64, error) {
	switch f.form {
	case formConstant:
		return f.value, nil
	case formFunc:
		return f.fn(x, y, z), nil
	case formExpression:
		return f.evalExpression(x, y, z)
	default:
		return 0, fmt.Errorf("unknown field form %d", f.form)
	}
}

// At evaluates the field and returns NaN if evaluation fails.
func (f Field) At(x, y, z float64) float64 {
	v, err := f.Eval(x, y, z)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (f Field) evalExpression(x, y, z float64) (float64, error) {
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"x": cty.NumberFloatVal(x),
			"y": cty.NumberFloatVal(y),
			"z": cty.NumberFloatVal(z),
		},
		Functions: functions,
	}

	val, diags := f.expr.Value(ctx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("evaluate %q: %s", f.src, diags.Error())
	}
	if val.IsNull() || !val.IsKnown() {
		return 0, fmt.Errorf("evaluate %q: expression produced no value", f.src)
	}

	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", f.src, err)
	}

	var out float64
	if err := gocty.FromCtyValue(num, &out); err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", f.src, err)
	}
	return out, nil
}

func (f Field) String() string {
	switch f.form {
	case formConstant:
		return strconv.FormatFloat(f.value, 'g', -1, 64)
	case formExpression:
		return f.src
	default:
		return "<func>"
	}
}
