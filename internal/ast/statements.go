package ast

import (
	"bytes"
	"strings"
)

type VarDeclaration struct {
	Name Name
}

func (vd *VarDeclaration) statementNode() {}
func (vd *VarDeclaration) String() string  { return "var " + vd.Name }

type ValDeclaration struct {
	Name Name
}

func (vd *ValDeclaration) statementNode() {}
func (vd *ValDeclaration) String() string  { return "val " + vd.Name }

type Assignment struct {
	Name  Name
	Value Expression
	Type  *Type // declared type, nil when omitted
}

func (a *Assignment) statementNode() {}
func (a *Assignment) String() string {
	var out bytes.Buffer
	out.WriteString(a.Name)
	if a.Type != nil {
		out.WriteString(": ")
		out.WriteString(a.Type.String())
	}
	out.WriteString(" = ")
	out.WriteString(a.Value.String())
	return out.String()
}

type IfThenElse struct {
	Condition Expression
	Then      Statement
	Else      Statement // optional
}

func (ite *IfThenElse) statementNode() {}
func (ite *IfThenElse) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(ite.Condition.String())
	out.WriteString(": ")
	out.WriteString(ite.Then.String())
	if ite.Else != nil {
		out.WriteString(" else: ")
		out.WriteString(ite.Else.String())
	}
	return out.String()
}

type While struct {
	Condition Expression
	Body      Statement
}

func (w *While) statementNode() {}
func (w *While) String() string {
	return "while " + w.Condition.String() + ": " + w.Body.String()
}

type Block struct {
	Statements []Statement
}

func (b *Block) statementNode() {}
func (b *Block) String() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

type Sequence struct {
	First  Statement
	Second Statement
}

func (s *Sequence) statementNode() {}
func (s *Sequence) String() string  { return s.First.String() + "; " + s.Second.String() }

// Seq folds statements into right-nested Sequence nodes.
func Seq(stmts ...Statement) Statement {
	switch len(stmts) {
	case 0:
		return &Block{}
	case 1:
		return stmts[0]
	}
	return &Sequence{First: stmts[0], Second: Seq(stmts[1:]...)}
}

type AssertTrue struct {
	Condition Expression
	Message   string
}

func (a *AssertTrue) statementNode() {}
func (a *AssertTrue) String() string {
	return "assert_true(" + a.Condition.String() + ", " + quote(a.Message) + ")"
}

type AssertFalse struct {
	Condition Expression
	Message   string
}

func (a *AssertFalse) statementNode() {}
func (a *AssertFalse) String() string {
	return "assert_false(" + a.Condition.String() + ", " + quote(a.Message) + ")"
}

type AssertEQ struct {
	Left    Expression
	Right   Expression
	Message string
}

func (a *AssertEQ) statementNode() {}
func (a *AssertEQ) String() string {
	return "assert_eq(" + a.Left.String() + ", " + a.Right.String() + ", " + quote(a.Message) + ")"
}

type AssertNEQ struct {
	Left    Expression
	Right   Expression
	Message string
}

func (a *AssertNEQ) statementNode() {}
func (a *AssertNEQ) String() string {
	return "assert_neq(" + a.Left.String() + ", " + a.Right.String() + ", " + quote(a.Message) + ")"
}

type AssertFails struct {
	Message string
}

func (a *AssertFails) statementNode() {}
func (a *AssertFails) String() string  { return "assert_fails(" + quote(a.Message) + ")" }

type FuncDef struct {
	Function *Function
}

func (fd *FuncDef) statementNode() {}
func (fd *FuncDef) String() string  { return "def " + fd.Function.String() }

type TestDef struct {
	Function *Function
}

func (td *TestDef) statementNode() {}
func (td *TestDef) String() string  { return "test " + td.Function.String() }

type ModTestDef struct {
	Name Name
	Body Statement
}

func (mt *ModTestDef) statementNode() {}
func (mt *ModTestDef) String() string  { return "modtest " + mt.Name + ": " + mt.Body.String() }

type Return struct {
	Value Expression
}

func (r *Return) statementNode() {}
func (r *Return) String() string  { return "return " + r.Value.String() }

type ADTDeclaration struct {
	Name         Name
	Constructors []ValueConstructor
}

func (ad *ADTDeclaration) statementNode() {}
func (ad *ADTDeclaration) String() string {
	parts := make([]string, len(ad.Constructors))
	for i, c := range ad.Constructors {
		parts[i] = c.String()
	}
	return "data " + ad.Name + " { " + strings.Join(parts, " | ") + " }"
}

type MatchCase struct {
	Pattern Expression
	Body    Statement
}

func (mc *MatchCase) String() string {
	return mc.Pattern.String() + " => " + mc.Body.String()
}

type Match struct {
	Value Expression
	Cases []*MatchCase
}

func (m *Match) statementNode() {}
func (m *Match) String() string {
	var out bytes.Buffer
	out.WriteString("match ")
	out.WriteString(m.Value.String())
	out.WriteString(" {")
	for i, c := range m.Cases {
		if i > 0 {
			out.WriteString(",")
		}
		out.WriteString(" ")
		out.WriteString(c.String())
	}
	out.WriteString(" }")
	return out.String()
}

func quote(s string) string {
	return String(s).String()
}
