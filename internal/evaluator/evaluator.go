package evaluator

import (
	"math"
	"rpy/internal/ast"
	"rpy/internal/object"
)

// Eval evaluates exp against env. env is only read.
func Eval(exp ast.Expression, env *object.Environment) (object.Object, error) {
	switch node := exp.(type) {

	case *ast.InfixExpression:
		return evalInfixExpression(node, env)

	case *ast.NotExpression:
		return evalNotExpression(node, env)

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.FuncCall:
		return call(node.Name, node.Arguments, env)

	case *ast.Just:
		return evalWrapper(node.Value, env, "Just", func(e ast.Expression) ast.Expression { return &ast.Just{Value: e} })

	case *ast.Ok:
		return evalWrapper(node.Value, env, "Ok", func(e ast.Expression) ast.Expression { return &ast.Ok{Value: e} })

	case *ast.Err:
		return evalWrapper(node.Value, env, "Err", func(e ast.Expression) ast.Expression { return &ast.Err{Value: e} })

	case *ast.Unwrap:
		return evalUnwrap(node, env)

	case *ast.IsError:
		return evalIsError(node, env)

	case *ast.IsNothing:
		return evalIsNothing(node, env)

	case *ast.Propagate:
		return evalPropagate(node, env)

	case *ast.ADTConstructor:
		return evalADTConstructor(node, env)
	}

	if exp != nil && ast.IsConstant(exp) {
		return object.NewExp(exp), nil
	}
	return nil, newError(Unimplemented, "expression not implemented yet: %v", exp)
}

func nativeBoolToBoolean(input bool) object.Object {
	return object.NewExp(ast.Bool(input))
}

func evalIdentifier(node *ast.Identifier, env *object.Environment) (object.Object, error) {
	val, ok := env.Get(node.Value)
	if !ok {
		return nil, newError(LookupFailure, "variable %s not found", node.Value)
	}
	return val, nil
}

func evalOperands(lhs, rhs ast.Expression, env *object.Environment) (ast.Expression, ast.Expression, error) {
	left, err := Eval(lhs, env)
	if err != nil {
		return nil, nil, err
	}
	right, err := Eval(rhs, env)
	if err != nil {
		return nil, nil, err
	}
	l, _ := object.AsExpression(left)
	r, _ := object.AsExpression(right)
	return l, r, nil
}

func evalInfixExpression(node *ast.InfixExpression, env *object.Environment) (object.Object, error) {
	left, right, err := evalOperands(node.Left, node.Right, env)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case ast.ADD, ast.SUB, ast.MUL, ast.DIV:
		return evalArithmeticExpression(node.Operator, left, right)
	case ast.AND, ast.OR:
		return evalBooleanExpression(node.Operator, left, right)
	case ast.EQ, ast.GT, ast.LT, ast.GTE, ast.LTE:
		return evalRelationalExpression(node.Operator, left, right)
	}
	return nil, newError(Unimplemented, "unknown operator: %s", node.Operator)
}

var arithmeticErrors = map[ast.Operator]string{
	ast.ADD: "addition '(+)' is only defined for numbers (integers and real).",
	ast.SUB: "subtraction '(-)' is only defined for numbers (integers and real).",
	ast.MUL: "multiplication '(*)' is only defined for numbers (integers and real).",
	ast.DIV: "division '(/)' is only defined for numbers (integers and real).",
}

// numeric returns the float view of an integer or real constant.
func numeric(exp ast.Expression) (value float64, isInt bool, ok bool) {
	switch n := exp.(type) {
	case *ast.IntegerLiteral:
		return float64(n.Value), true, true
	case *ast.RealLiteral:
		return n.Value, false, true
	}
	return 0, false, false
}

func evalArithmeticExpression(op ast.Operator, left, right ast.Expression) (object.Object, error) {
	a, aInt, okA := numeric(left)
	b, bInt, okB := numeric(right)
	if !okA || !okB {
		return nil, newError(TypeMismatch, "%s", arithmeticErrors[op])
	}

	var result float64
	switch op {
	case ast.ADD:
		result = a + b
	case ast.SUB:
		result = a - b
	case ast.MUL:
		result = a * b
	case ast.DIV:
		result = a / b
	}

	if aInt && bInt {
		return object.NewExp(ast.Int(saturateInt32(result))), nil
	}
	return object.NewExp(ast.Real(result)), nil
}

// saturateInt32 converts toward zero, clamping at the int32 bounds. NaN maps
// to zero.
func saturateInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func boolean(exp ast.Expression) (bool, bool) {
	b, ok := exp.(*ast.BooleanLiteral)
	if !ok {
		return false, false
	}
	return b.Value, true
}

func evalBooleanExpression(op ast.Operator, left, right ast.Expression) (object.Object, error) {
	a, okA := boolean(left)
	b, okB := boolean(right)
	if !okA || !okB {
		return nil, newError(TypeMismatch, "'%s' is only defined for booleans.", op)
	}
	if op == ast.AND {
		return nativeBoolToBoolean(a && b), nil
	}
	return nativeBoolToBoolean(a || b), nil
}

func evalNotExpression(node *ast.NotExpression, env *object.Environment) (object.Object, error) {
	right, err := Eval(node.Right, env)
	if err != nil {
		return nil, err
	}
	exp, _ := object.AsExpression(right)
	b, ok := boolean(exp)
	if !ok {
		return nil, newError(TypeMismatch, "'not' is only defined for booleans.")
	}
	return nativeBoolToBoolean(!b), nil
}

func evalRelationalExpression(op ast.Operator, left, right ast.Expression) (object.Object, error) {
	a, _, okA := numeric(left)
	b, _, okB := numeric(right)
	if !okA || !okB {
		return nil, newError(TypeMismatch, "(%s) is only defined for numbers (integers and real).", op)
	}

	var result bool
	switch op {
	case ast.EQ:
		result = a == b
	case ast.GT:
		result = a > b
	case ast.LT:
		result = a < b
	case ast.GTE:
		result = a >= b
	case ast.LTE:
		result = a <= b
	}
	return nativeBoolToBoolean(result), nil
}

func evalWrapper(inner ast.Expression, env *object.Environment, name string, wrap func(ast.Expression) ast.Expression) (object.Object, error) {
	val, err := Eval(inner, env)
	if err != nil {
		return nil, err
	}
	exp, ok := object.AsExpression(val)
	if !ok {
		return nil, newError(TypeMismatch, "'%s' expects an expression value, got %s", name, val.Type())
	}
	return object.NewExp(wrap(exp)), nil
}

func evalUnwrap(node *ast.Unwrap, env *object.Environment) (object.Object, error) {
	val, err := Eval(node.Value, env)
	if err != nil {
		return nil, err
	}
	exp, _ := object.AsExpression(val)
	switch e := exp.(type) {
	case *ast.Just:
		return object.NewExp(e.Value), nil
	case *ast.Ok:
		return object.NewExp(e.Value), nil
	}
	return nil, newError(TypeMismatch, "'unwrap' expects a Just or Ok.")
}

func evalIsError(node *ast.IsError, env *object.Environment) (object.Object, error) {
	val, err := Eval(node.Value, env)
	if err != nil {
		return nil, err
	}
	exp, _ := object.AsExpression(val)
	_, isErr := exp.(*ast.Err)
	return nativeBoolToBoolean(isErr), nil
}

func evalIsNothing(node *ast.IsNothing, env *object.Environment) (object.Object, error) {
	val, err := Eval(node.Value, env)
	if err != nil {
		return nil, err
	}
	exp, _ := object.AsExpression(val)
	_, isNothing := exp.(*ast.NothingLiteral)
	return nativeBoolToBoolean(isNothing), nil
}
