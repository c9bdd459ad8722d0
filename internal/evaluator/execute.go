package evaluator

import (
	"log/slog"
	"rpy/internal/ast"
	"rpy/internal/log"
	"rpy/internal/object"
)

// ControlFlow is the outcome of executing a statement: either Continue with
// the updated environment or Return with a value.
type ControlFlow interface {
	controlFlow()
}

type Continue struct {
	Env *object.Environment
}

type Return struct {
	Value object.Object
}

func (c *Continue) controlFlow() {}
func (r *Return) controlFlow()   {}

// Run executes a whole program. Failures come back as *Error; the internal
// propagation signal never escapes.
func Run(stmt ast.Statement, env *object.Environment) (ControlFlow, error) {
	slog.Info(" ---- begin ----")
	defer slog.Info(" ---- done ----")

	flow, err := Execute(stmt, env)
	if err != nil {
		return nil, terminate(err)
	}
	return flow, nil
}

// EvalExpression evaluates a standalone expression at the top level. A `?`
// that fails terminates it the way it terminates a program.
func EvalExpression(exp ast.Expression, env *object.Environment) (object.Object, error) {
	val, err := Eval(exp, env)
	if err != nil {
		return nil, terminate(err)
	}
	return val, nil
}

func terminate(err error) error {
	if p, ok := asPropagation(err); ok {
		return newError(ProgramTermination, "program terminated with errors: %s", p.Value.String())
	}
	return err
}

// Execute runs stmt against a copy of env; env itself is left untouched.
func Execute(stmt ast.Statement, env *object.Environment) (ControlFlow, error) {
	return execute(stmt, env.Clone())
}

// execute runs stmt in place on env, which the caller owns.
func execute(stmt ast.Statement, env *object.Environment) (ControlFlow, error) {
	if log.TraceEnabled() {
		log.Trace("execute",
			slog.Uint64("env", env.ID),
			slog.String("scope", env.ScopeKey().String()),
			slog.String("statement", stmt.String()))
	}
	flow, err := executeStatement(stmt, env)
	return intercept(flow, err, env)
}

func executeStatement(stmt ast.Statement, env *object.Environment) (ControlFlow, error) {
	switch node := stmt.(type) {

	case *ast.Assignment:
		val, err := Eval(node.Value, env)
		if err != nil {
			return nil, err
		}
		env.Define(node.Name, val)
		return &Continue{Env: env}, nil

	case *ast.IfThenElse:
		return executeIfThenElse(node, env)

	case *ast.While:
		return executeWhile(node, env)

	case *ast.Block:
		return executeBlock(node.Statements, env)

	case *ast.Sequence:
		return executeBlock([]ast.Statement{node.First, node.Second}, env)

	case *ast.AssertTrue:
		return executeAssert(node.Condition, true, node.Message, env)

	case *ast.AssertFalse:
		return executeAssert(node.Condition, false, node.Message, env)

	case *ast.AssertEQ:
		return executeAssert(ast.Infix(ast.EQ, node.Left, node.Right), true, node.Message, env)

	case *ast.AssertNEQ:
		return executeAssert(ast.Infix(ast.EQ, node.Left, node.Right), false, node.Message, env)

	case *ast.AssertFails:
		return nil, newError(AssertionFailure, "%s", node.Message)

	case *ast.FuncDef:
		env.Define(node.Function.Name, &object.Function{Def: node.Function})
		return &Continue{Env: env}, nil

	case *ast.ADTDeclaration:
		evalADTDeclaration(node, env)
		return &Continue{Env: env}, nil

	case *ast.TestDef:
		registerTest(node.Function, env)
		return &Continue{Env: env}, nil

	case *ast.ModTestDef:
		return executeModTestDef(node, env)

	case *ast.Return:
		val, err := Eval(node.Value, env)
		if err != nil {
			return nil, err
		}
		return &Return{Value: val}, nil

	case *ast.Match:
		return evalMatch(node, env)
	}

	return nil, newError(Unimplemented, "statement not implemented yet: %v", stmt)
}

func condition(exp ast.Expression, env *object.Environment) (value bool, isBool bool, err error) {
	val, err := Eval(exp, env)
	if err != nil {
		return false, false, err
	}
	e, _ := object.AsExpression(val)
	value, isBool = boolean(e)
	return value, isBool, nil
}

func executeIfThenElse(node *ast.IfThenElse, env *object.Environment) (ControlFlow, error) {
	cond, isBool, err := condition(node.Condition, env)
	if err != nil {
		return nil, err
	}
	if !isBool {
		return nil, newError(TypeMismatch, "condition must evaluate to a boolean")
	}
	if cond {
		return execute(node.Then, env)
	}
	if node.Else != nil {
		return execute(node.Else, env)
	}
	return &Continue{Env: env}, nil
}

func executeWhile(node *ast.While, env *object.Environment) (ControlFlow, error) {
	for {
		cond, isBool, err := condition(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if !isBool {
			return nil, newError(TypeMismatch, "loop condition must evaluate to a boolean")
		}
		if !cond {
			return &Continue{Env: env}, nil
		}

		flow, err := execute(node.Body, env)
		if err != nil {
			return nil, err
		}
		switch f := flow.(type) {
		case *Return:
			return f, nil
		case *Continue:
			env = f.Env
		}
	}
}

func executeBlock(stmts []ast.Statement, env *object.Environment) (ControlFlow, error) {
	for _, stmt := range stmts {
		flow, err := execute(stmt, env)
		if err != nil {
			return nil, err
		}
		switch f := flow.(type) {
		case *Return:
			return f, nil
		case *Continue:
			env = f.Env
		}
	}
	return &Continue{Env: env}, nil
}

func executeAssert(cond ast.Expression, expected bool, message string, env *object.Environment) (ControlFlow, error) {
	value, isBool, err := condition(cond, env)
	if err != nil {
		return nil, err
	}
	if !isBool {
		return nil, newError(TypeMismatch, "assertion condition must evaluate to a boolean")
	}
	if value != expected {
		return nil, newError(AssertionFailure, "%s", message)
	}
	return &Continue{Env: env}, nil
}

// registerTest stores a copy of test whose body ends in an implicit void
// return, so that a test that runs to completion counts as passed.
func registerTest(test *ast.Function, env *object.Environment) {
	ret := &ast.Return{Value: ast.Void()}
	body := ast.Statement(ret)
	if test.Body != nil {
		body = &ast.Sequence{First: test.Body, Second: ret}
	}
	env.DefineTest(test.Name, &ast.Function{
		Name:   test.Name,
		Kind:   test.Kind,
		Params: test.Params,
		Body:   body,
	})
	slog.Debug("registered test",
		slog.String("test", test.Name),
		slog.String("scope", env.ScopeKey().String()))
}

func executeModTestDef(node *ast.ModTestDef, env *object.Environment) (ControlFlow, error) {
	moduleEnv := object.NewRootEnvironment(env.Limit)
	moduleEnv.Depth = env.Depth

	flow, err := execute(node.Body, moduleEnv)
	if err != nil {
		return nil, err
	}
	switch f := flow.(type) {
	case *Return:
		return f, nil
	case *Continue:
		moduleEnv = f.Env
	}

	env.Define(node.Name, &object.TestEnvironment{Name: node.Name, Env: moduleEnv})
	return &Continue{Env: env}, nil
}
