package evaluator

import (
	"log/slog"
	"rpy/internal/ast"
	"rpy/internal/object"
)

func evalPropagate(node *ast.Propagate, env *object.Environment) (object.Object, error) {
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
	case *ast.Err:
		return nil, &propagation{Value: e.Value}
	case *ast.NothingLiteral:
		return nil, &propagation{Value: ast.String(nothingPropagated)}
	}
	return nil, newError(TypeMismatch, "'?' expects a Just, Ok, Err or Nothing.")
}

// intercept runs after every statement. Ordinary failures pass through; a
// propagation either terminates the program (top-level scope) or becomes an
// Err return of the enclosing scope.
func intercept(flow ControlFlow, err error, env *object.Environment) (ControlFlow, error) {
	if err == nil {
		return flow, nil
	}
	p, ok := asPropagation(err)
	if !ok {
		return nil, err
	}
	return handlePropagation(p, env)
}

func handlePropagation(p *propagation, env *object.Environment) (ControlFlow, error) {
	val, err := Eval(p.Value, env)
	if err != nil {
		return nil, err
	}
	slog.Debug("propagating error",
		slog.Uint64("env", env.ID),
		slog.String("scope", env.ScopeKey().String()),
		slog.String("value", val.Inspect()))

	if env.Recursion == 0 {
		return nil, newError(ProgramTermination, "program terminated with errors: %s", val.Inspect())
	}
	exp, ok := object.AsExpression(val)
	if !ok {
		return nil, newError(TypeMismatch, "cannot propagate %s", val.Type())
	}
	return &Return{Value: object.NewExp(&ast.Err{Value: exp})}, nil
}
