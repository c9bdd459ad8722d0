package evaluator

import (
	"math"
	"rpy/internal/ast"
	"rpy/internal/object"
	"testing"
)

func testEval(t *testing.T, exp ast.Expression, env *object.Environment) ast.Expression {
	t.Helper()
	val, err := Eval(exp, env)
	if err != nil {
		t.Fatalf("eval %s: unexpected error: %v", exp, err)
	}
	e, ok := object.AsExpression(val)
	if !ok {
		t.Fatalf("eval %s: expected an expression value, got %s", exp, val.Type())
	}
	return e
}

func expectValue(t *testing.T, got, want ast.Expression) {
	t.Helper()
	if !ast.Equal(got, want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got none", kind)
	}
	got, ok := KindOf(err)
	if !ok || got != kind {
		t.Errorf("expected %s error, got %v (%q)", kind, got, err.Error())
	}
}

func TestEvalConstants(t *testing.T) {
	env := object.NewEnvironment()
	cases := []ast.Expression{
		ast.Int(10), ast.Real(2.5), ast.Bool(true), ast.String("hi"), ast.Void(), ast.Nothing(),
	}
	for _, c := range cases {
		t.Run(c.String(), func(t *testing.T) {
			expectValue(t, testEval(t, c, env), c)
		})
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		exp      ast.Expression
		expected ast.Expression
	}{
		{"10 + 20", ast.Infix(ast.ADD, ast.Int(10), ast.Int(20)), ast.Int(30)},
		{"(10 + 20) + 30", ast.Infix(ast.ADD, ast.Infix(ast.ADD, ast.Int(10), ast.Int(20)), ast.Int(30)), ast.Int(60)},
		{"10 + 20.5", ast.Infix(ast.ADD, ast.Int(10), ast.Real(20.5)), ast.Real(30.5)},
		{"300 - 100.5", ast.Infix(ast.SUB, ast.Int(300), ast.Real(100.5)), ast.Real(199.5)},
		{"10.5 * 20", ast.Infix(ast.MUL, ast.Real(10.5), ast.Int(20)), ast.Real(210)},
		{"20 / 10", ast.Infix(ast.DIV, ast.Int(20), ast.Int(10)), ast.Int(2)},
		{"10 / 3", ast.Infix(ast.DIV, ast.Int(10), ast.Int(3)), ast.Int(3)},
		{"-7 / 2", ast.Infix(ast.DIV, ast.Int(-7), ast.Int(2)), ast.Int(-3)},
		{"7 / -2", ast.Infix(ast.DIV, ast.Int(7), ast.Int(-2)), ast.Int(-3)},
		{"10 / 4.0", ast.Infix(ast.DIV, ast.Int(10), ast.Real(4)), ast.Real(2.5)},
		{"1 / 0 saturates", ast.Infix(ast.DIV, ast.Int(1), ast.Int(0)), ast.Int(math.MaxInt32)},
		{"-1 / 0 saturates", ast.Infix(ast.DIV, ast.Int(-1), ast.Int(0)), ast.Int(math.MinInt32)},
		{"0 / 0 is zero", ast.Infix(ast.DIV, ast.Int(0), ast.Int(0)), ast.Int(0)},
		{"max + 1 saturates", ast.Infix(ast.ADD, ast.Int(math.MaxInt32), ast.Int(1)), ast.Int(math.MaxInt32)},
		{"min * 2 saturates", ast.Infix(ast.MUL, ast.Int(math.MinInt32), ast.Int(2)), ast.Int(math.MinInt32)},
		{"2 * 3 + (10 - 4)", ast.Infix(ast.ADD, ast.Infix(ast.MUL, ast.Int(2), ast.Int(3)), ast.Infix(ast.SUB, ast.Int(10), ast.Int(4))), ast.Int(12)},
	}

	env := object.NewEnvironment()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectValue(t, testEval(t, c.exp, env), c.expected)
		})
	}
}

func TestIntegerDivisionTruncates(t *testing.T) {
	env := object.NewEnvironment()
	for a := int32(-20); a <= 20; a++ {
		for b := int32(-6); b <= 6; b++ {
			if b == 0 {
				continue
			}
			got := testEval(t, ast.Infix(ast.DIV, ast.Int(a), ast.Int(b)), env)
			expectValue(t, got, ast.Int(a/b))
		}
	}
}

func TestRealDivision(t *testing.T) {
	env := object.NewEnvironment()
	got := testEval(t, ast.Infix(ast.DIV, ast.Int(10), ast.Real(3.0)), env)
	r, ok := got.(*ast.RealLiteral)
	if !ok {
		t.Fatalf("expected a real, got %s", got)
	}
	if math.Abs(r.Value-3.3333333333333335) > 1e-15 {
		t.Errorf("expected 3.3333333333333335, got %v", r.Value)
	}
}

func TestArithmeticTypeMismatch(t *testing.T) {
	env := object.NewEnvironment()
	cases := []struct {
		exp     ast.Expression
		message string
	}{
		{ast.Infix(ast.ADD, ast.Int(1), ast.Bool(true)), "addition '(+)' is only defined for numbers (integers and real)."},
		{ast.Infix(ast.SUB, ast.String("a"), ast.Int(1)), "subtraction '(-)' is only defined for numbers (integers and real)."},
		{ast.Infix(ast.MUL, ast.Nothing(), ast.Int(1)), "multiplication '(*)' is only defined for numbers (integers and real)."},
		{ast.Infix(ast.DIV, ast.Int(1), ast.Void()), "division '(/)' is only defined for numbers (integers and real)."},
		{ast.Infix(ast.AND, ast.Int(1), ast.Bool(true)), "'and' is only defined for booleans."},
		{ast.Infix(ast.OR, ast.Bool(true), ast.Int(1)), "'or' is only defined for booleans."},
		{ast.Not(ast.Int(1)), "'not' is only defined for booleans."},
		{ast.Infix(ast.EQ, ast.Bool(true), ast.Bool(true)), "(==) is only defined for numbers (integers and real)."},
		{ast.Infix(ast.LTE, ast.String("a"), ast.Int(1)), "(<=) is only defined for numbers (integers and real)."},
	}
	for _, c := range cases {
		t.Run(c.exp.String(), func(t *testing.T) {
			_, err := Eval(c.exp, env)
			expectKind(t, err, TypeMismatch)
			if err != nil && err.Error() != c.message {
				t.Errorf("expected message %q, got %q", c.message, err.Error())
			}
		})
	}
}

func TestBooleanAndRelational(t *testing.T) {
	cases := []struct {
		exp      ast.Expression
		expected bool
	}{
		{ast.Infix(ast.AND, ast.Bool(true), ast.Bool(false)), false},
		{ast.Infix(ast.AND, ast.Bool(true), ast.Bool(true)), true},
		{ast.Infix(ast.OR, ast.Bool(false), ast.Bool(true)), true},
		{ast.Infix(ast.OR, ast.Bool(false), ast.Bool(false)), false},
		{ast.Not(ast.Bool(false)), true},
		{ast.Infix(ast.EQ, ast.Int(2), ast.Real(2.0)), true},
		{ast.Infix(ast.GT, ast.Real(2.5), ast.Int(2)), true},
		{ast.Infix(ast.LT, ast.Int(3), ast.Int(2)), false},
		{ast.Infix(ast.GTE, ast.Int(2), ast.Int(2)), true},
		{ast.Infix(ast.LTE, ast.Int(3), ast.Real(2.9)), false},
	}
	env := object.NewEnvironment()
	for _, c := range cases {
		t.Run(c.exp.String(), func(t *testing.T) {
			expectValue(t, testEval(t, c.exp, env), ast.Bool(c.expected))
		})
	}
}

func TestVariables(t *testing.T) {
	env := object.NewEnvironment()
	env.Define("a", object.NewExp(ast.Int(5)))
	env.Define("b", object.NewExp(ast.Int(3)))

	exp := ast.Infix(ast.MUL, ast.Var("a"), ast.Infix(ast.ADD, ast.Var("b"), ast.Int(2)))
	expectValue(t, testEval(t, exp, env), ast.Int(25))

	_, err := Eval(ast.Var("z"), env)
	expectKind(t, err, LookupFailure)
	if err != nil && err.Error() != "variable z not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	env := object.NewEnvironment()
	constants := []ast.Expression{ast.Int(10), ast.Real(6.9), ast.String("s"), ast.Bool(false)}
	for _, c := range constants {
		expectValue(t, testEval(t, &ast.Unwrap{Value: &ast.Just{Value: c}}, env), c)
		expectValue(t, testEval(t, &ast.Unwrap{Value: &ast.Ok{Value: c}}, env), c)
	}

	failing := []ast.Expression{
		&ast.Err{Value: ast.Int(1)},
		ast.Nothing(),
		&ast.Err{Value: ast.Nothing()},
		ast.Int(3),
	}
	for _, f := range failing {
		t.Run(f.String(), func(t *testing.T) {
			_, err := Eval(&ast.Unwrap{Value: f}, env)
			expectKind(t, err, TypeMismatch)
		})
	}
}

func TestIsErrorAndIsNothingAreTotal(t *testing.T) {
	env := object.NewEnvironment()
	env.Define("f", &object.Function{Def: &ast.Function{Name: "f"}})

	values := []ast.Expression{
		ast.Int(2), ast.Real(1.5), ast.String("x"), ast.Bool(true), ast.Void(), ast.Nothing(),
		&ast.Ok{Value: ast.Int(2)}, &ast.Err{Value: ast.Int(2)}, &ast.Just{Value: ast.Int(2)},
		ast.Var("f"),
	}
	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			_, isErr := v.(*ast.Err)
			_, isNothing := v.(*ast.NothingLiteral)
			expectValue(t, testEval(t, &ast.IsError{Value: v}, env), ast.Bool(isErr))
			expectValue(t, testEval(t, &ast.IsNothing{Value: v}, env), ast.Bool(isNothing))
		})
	}
}

func TestWrappersRejectFunctions(t *testing.T) {
	env := object.NewEnvironment()
	env.Define("f", &object.Function{Def: &ast.Function{Name: "f"}})

	expectValue(t, testEval(t, &ast.Just{Value: ast.Infix(ast.ADD, ast.Int(1), ast.Int(1))}, env), &ast.Just{Value: ast.Int(2)})

	for _, exp := range []ast.Expression{
		&ast.Just{Value: ast.Var("f")},
		&ast.Ok{Value: ast.Var("f")},
		&ast.Err{Value: ast.Var("f")},
	} {
		_, err := Eval(exp, env)
		expectKind(t, err, TypeMismatch)
	}
}

func TestPropagateUnwrapsSuccess(t *testing.T) {
	env := object.NewEnvironment()
	expectValue(t, testEval(t, &ast.Propagate{Value: &ast.Ok{Value: ast.Int(4)}}, env), ast.Int(4))
	expectValue(t, testEval(t, &ast.Propagate{Value: &ast.Just{Value: ast.Int(5)}}, env), ast.Int(5))

	_, err := Eval(&ast.Propagate{Value: ast.Int(1)}, env)
	expectKind(t, err, TypeMismatch)

	_, err = Eval(&ast.Propagate{Value: &ast.Err{Value: ast.Int(1)}}, env)
	if _, ok := asPropagation(err); !ok {
		t.Errorf("expected the propagation signal, got %v", err)
	}
}

func TestEvalExpressionTerminatesOnPropagation(t *testing.T) {
	env := object.NewEnvironment()
	cases := []struct {
		exp     ast.Expression
		message string
	}{
		{&ast.Propagate{Value: &ast.Err{Value: ast.Int(1)}}, "program terminated with errors: 1"},
		{&ast.Propagate{Value: ast.Nothing()}, `program terminated with errors: "could not unwrap Nothing"`},
	}
	for _, c := range cases {
		_, err := EvalExpression(c.exp, env)
		expectKind(t, err, ProgramTermination)
		if err != nil && err.Error() != c.message {
			t.Errorf("expected %q, got %q", c.message, err.Error())
		}
	}

	val, err := EvalExpression(&ast.Propagate{Value: &ast.Ok{Value: ast.Int(4)}}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.Inspect() != "4" {
		t.Errorf("expected 4, got %s", val.Inspect())
	}
}

func TestUnknownExpression(t *testing.T) {
	_, err := Eval(nil, object.NewEnvironment())
	expectKind(t, err, Unimplemented)
}

func TestSaturateInt32(t *testing.T) {
	cases := []struct {
		in  float64
		out int32
	}{
		{2.9, 2},
		{-2.9, -2},
		{math.Inf(1), math.MaxInt32},
		{math.Inf(-1), math.MinInt32},
		{math.NaN(), 0},
		{3e10, math.MaxInt32},
		{-3e10, math.MinInt32},
	}
	for _, c := range cases {
		if got := saturateInt32(c.in); got != c.out {
			t.Errorf("saturateInt32(%v) = %d, want %d", c.in, got, c.out)
		}
	}
}
