package object

import (
	"fmt"
	"rpy/internal/ast"
)

const (
	EXPRESSION_OBJ       = "EXPRESSION"
	FUNCTION_OBJ         = "FUNCTION"
	TEST_ENVIRONMENT_OBJ = "TEST_ENVIRONMENT"
)

type ObjectType string

// Object is a runtime value bound in a frame.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Exp wraps an evaluated expression: constants, optional/result wrappers and
// ADT instances.
type Exp struct {
	Value ast.Expression
}

func (e *Exp) Type() ObjectType { return EXPRESSION_OBJ }
func (e *Exp) Inspect() string  { return e.Value.String() }

func NewExp(value ast.Expression) *Exp {
	return &Exp{Value: value}
}

// Function is a first-class reference to a user function.
type Function struct {
	Def *ast.Function
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<function " + f.Def.Name + ">" }

// TestEnvironment is the persisted environment of a test module.
type TestEnvironment struct {
	Name string
	Env  *Environment
}

func (te *TestEnvironment) Type() ObjectType { return TEST_ENVIRONMENT_OBJ }
func (te *TestEnvironment) Inspect() string {
	return fmt.Sprintf("<test module %s (%d tests)>", te.Name, len(te.Env.TestNames()))
}

// AsExpression returns the wrapped expression when obj is an Exp.
func AsExpression(obj Object) (ast.Expression, bool) {
	exp, ok := obj.(*Exp)
	if !ok {
		return nil, false
	}
	return exp.Value, true
}
