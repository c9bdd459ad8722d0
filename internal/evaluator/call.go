package evaluator

import (
	"log/slog"
	"rpy/internal/ast"
	"rpy/internal/object"
)

// call invokes a user function. The callee runs in a fresh environment that
// sees the function bindings reachable from the caller's scope chain, the ADT
// table and its own parameters, never the caller's plain variables.
func call(name ast.Name, args []ast.Expression, env *object.Environment) (object.Object, error) {
	val, ok := env.Get(name)
	if !ok {
		return nil, newError(LookupFailure, "function %s not found", name)
	}
	fn, ok := val.(*object.Function)
	if !ok {
		return nil, newError(LookupFailure, "function %s not found", name)
	}
	if fn.Def.Body == nil {
		return nil, newError(LookupFailure, "function %s is declared but not defined", name)
	}
	if env.Depth+1 > env.Limit {
		return nil, newError(ResourceExhaustion, "maximum call depth (%d) exceeded", env.Limit)
	}

	callEnv := extendFunctionEnv(env)

	// arguments are evaluated in the caller's environment
	params := fn.Def.Params
	for i := 0; i < len(params) && i < len(args); i++ {
		argValue, err := Eval(args[i], env)
		if err != nil {
			return nil, err
		}
		callEnv.Define(params[i].Name, argValue)
	}

	slog.Debug("call",
		slog.String("function", name),
		slog.Int("depth", callEnv.Depth),
		slog.Uint64("env", callEnv.ID))

	flow, err := execute(fn.Def.Body, callEnv)
	if err != nil {
		return nil, err
	}
	if ret, ok := flow.(*Return); ok {
		return ret.Value, nil
	}
	return nil, newError(TypeMismatch, "function %s did not return a value", name)
}

// extendFunctionEnv builds the callee environment: function bindings are
// copied walking the caller chain innermost to root, so on a name clash the
// binding nearer the root is the one kept.
func extendFunctionEnv(env *object.Environment) *object.Environment {
	callEnv := env.NewCallEnvironment()
	for _, frame := range env.Chain() {
		for name, v := range frame.Variables {
			if _, ok := v.(*object.Function); ok {
				callEnv.Define(name, v)
			}
		}
	}
	for name, constructors := range env.Types {
		callEnv.DefineType(name, constructors)
	}
	return callEnv
}
