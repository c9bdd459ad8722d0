package ast

import (
	"bytes"
	"reflect"
	"strconv"
	"strings"
)

type Name = string

// The base Node interface
type Node interface {
	String() string
}

type Statement interface {
	Node
	statementNode()
}

// Expression nodes double as runtime values: once evaluated, an expression is
// either a literal, an optional/result wrapper or an ADT constructor
// application whose arguments are themselves values.
type Expression interface {
	Node
	expressionNode()
}

type Operator string

const (
	ADD Operator = "+"
	SUB Operator = "-"
	MUL Operator = "*"
	DIV Operator = "/"
	AND Operator = "and"
	OR  Operator = "or"
	EQ  Operator = "=="
	GT  Operator = ">"
	LT  Operator = "<"
	GTE Operator = ">="
	LTE Operator = "<="
)

// Constants

type IntegerLiteral struct {
	Value int32
}

func (il *IntegerLiteral) expressionNode() {}
func (il *IntegerLiteral) String() string  { return strconv.FormatInt(int64(il.Value), 10) }

type RealLiteral struct {
	Value float64
}

func (rl *RealLiteral) expressionNode() {}
func (rl *RealLiteral) String() string {
	s := strconv.FormatFloat(rl.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

type BooleanLiteral struct {
	Value bool
}

func (b *BooleanLiteral) expressionNode() {}
func (b *BooleanLiteral) String() string {
	if b.Value {
		return "True"
	}
	return "False"
}

type StringLiteral struct {
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) String() string  { return strconv.Quote(sl.Value) }

type VoidLiteral struct{}

func (v *VoidLiteral) expressionNode() {}
func (v *VoidLiteral) String() string  { return "()" }

type NothingLiteral struct{}

func (n *NothingLiteral) expressionNode() {}
func (n *NothingLiteral) String() string  { return "Nothing" }

func Int(v int32) *IntegerLiteral     { return &IntegerLiteral{Value: v} }
func Real(v float64) *RealLiteral     { return &RealLiteral{Value: v} }
func Bool(v bool) *BooleanLiteral     { return &BooleanLiteral{Value: v} }
func String(v string) *StringLiteral  { return &StringLiteral{Value: v} }
func Void() *VoidLiteral              { return &VoidLiteral{} }
func Nothing() *NothingLiteral        { return &NothingLiteral{} }
func Var(name Name) *Identifier       { return &Identifier{Value: name} }

func Not(right Expression) *NotExpression { return &NotExpression{Right: right} }

// Variables and calls

type Identifier struct {
	Value Name
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Value }

type FuncCall struct {
	Name      Name
	Arguments []Expression
}

func (fc *FuncCall) expressionNode() {}
func (fc *FuncCall) String() string {
	return fc.Name + "(" + joinExpressions(fc.Arguments) + ")"
}

// Operators

type InfixExpression struct {
	Operator Operator
	Left     Expression
	Right    Expression
}

func (ie *InfixExpression) expressionNode() {}
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + string(ie.Operator) + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

func Infix(op Operator, left, right Expression) *InfixExpression {
	return &InfixExpression{Operator: op, Left: left, Right: right}
}

type NotExpression struct {
	Right Expression
}

func (ne *NotExpression) expressionNode() {}
func (ne *NotExpression) String() string  { return "(not " + ne.Right.String() + ")" }

// Optional and result values

type Just struct {
	Value Expression
}

func (j *Just) expressionNode() {}
func (j *Just) String() string  { return "Just(" + j.Value.String() + ")" }

type Ok struct {
	Value Expression
}

func (o *Ok) expressionNode() {}
func (o *Ok) String() string  { return "Ok(" + o.Value.String() + ")" }

type Err struct {
	Value Expression
}

func (e *Err) expressionNode() {}
func (e *Err) String() string  { return "Err(" + e.Value.String() + ")" }

type Unwrap struct {
	Value Expression
}

func (u *Unwrap) expressionNode() {}
func (u *Unwrap) String() string  { return "unwrap(" + u.Value.String() + ")" }

type IsError struct {
	Value Expression
}

func (ie *IsError) expressionNode() {}
func (ie *IsError) String() string  { return "is_error(" + ie.Value.String() + ")" }

type IsNothing struct {
	Value Expression
}

func (in *IsNothing) expressionNode() {}
func (in *IsNothing) String() string  { return "is_nothing(" + in.Value.String() + ")" }

type Propagate struct {
	Value Expression
}

func (p *Propagate) expressionNode() {}
func (p *Propagate) String() string  { return p.Value.String() + "?" }

// Algebraic data types

type ADTConstructor struct {
	ADT         Name
	Constructor Name
	Arguments   []Expression
}

func (ac *ADTConstructor) expressionNode() {}
func (ac *ADTConstructor) String() string {
	if len(ac.Arguments) == 0 {
		return ac.Constructor
	}
	return ac.Constructor + "(" + joinExpressions(ac.Arguments) + ")"
}

// IsConstant reports whether the expression is a plain literal.
func IsConstant(exp Expression) bool {
	switch exp.(type) {
	case *IntegerLiteral, *RealLiteral, *BooleanLiteral, *StringLiteral, *VoidLiteral, *NothingLiteral:
		return true
	}
	return false
}

// IsValue reports whether the expression is value-shaped: a constant, an
// optional/result wrapper around a value or a fully evaluated ADT instance.
func IsValue(exp Expression) bool {
	switch e := exp.(type) {
	case *Just:
		return IsValue(e.Value)
	case *Ok:
		return IsValue(e.Value)
	case *Err:
		return IsValue(e.Value)
	case *ADTConstructor:
		for _, arg := range e.Arguments {
			if !IsValue(arg) {
				return false
			}
		}
		return true
	}
	return IsConstant(exp)
}

// Equal compares two expression trees structurally.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case *IntegerLiteral:
		y, ok := b.(*IntegerLiteral)
		return ok && x.Value == y.Value
	case *RealLiteral:
		y, ok := b.(*RealLiteral)
		return ok && x.Value == y.Value
	case *BooleanLiteral:
		y, ok := b.(*BooleanLiteral)
		return ok && x.Value == y.Value
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Value == y.Value
	case *VoidLiteral:
		_, ok := b.(*VoidLiteral)
		return ok
	case *NothingLiteral:
		_, ok := b.(*NothingLiteral)
		return ok
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Value == y.Value
	case *Just:
		y, ok := b.(*Just)
		return ok && Equal(x.Value, y.Value)
	case *Ok:
		y, ok := b.(*Ok)
		return ok && Equal(x.Value, y.Value)
	case *Err:
		y, ok := b.(*Err)
		return ok && Equal(x.Value, y.Value)
	case *ADTConstructor:
		y, ok := b.(*ADTConstructor)
		if !ok || x.ADT != y.ADT || x.Constructor != y.Constructor || len(x.Arguments) != len(y.Arguments) {
			return false
		}
		for i := range x.Arguments {
			if !Equal(x.Arguments[i], y.Arguments[i]) {
				return false
			}
		}
		return true
	}
	// operator and call nodes are compared by shape only
	return a != nil && b != nil && reflect.TypeOf(a) == reflect.TypeOf(b) && a.String() == b.String()
}

func joinExpressions(exps []Expression) string {
	parts := make([]string, len(exps))
	for i, e := range exps {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
