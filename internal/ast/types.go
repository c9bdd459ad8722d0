package ast

import (
	"bytes"
	"strings"
)

type TypeKind int

const (
	TInteger TypeKind = iota
	TBool
	TReal
	TString
	TVoid
	TFunction
	TList
	TTuple
	TMaybe
	TResult
	TAny
	TADT
)

var typeKindNames = [...]string{
	"TInteger", "TBool", "TReal", "TString", "TVoid", "TFunction",
	"TList", "TTuple", "TMaybe", "TResult", "TAny", "TADT",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "TUnknown"
}

// ParseTypeKind is the inverse of TypeKind.String.
func ParseTypeKind(s string) (TypeKind, bool) {
	for i, name := range typeKindNames {
		if name == s {
			return TypeKind(i), true
		}
	}
	return 0, false
}

// Type is a declared type annotation. Args holds the element types of list,
// tuple, maybe and result types (Ok first, then error) and the parameter types
// of function types.
type Type struct {
	Kind         TypeKind
	Args         []Type
	Return       *Type              // TFunction only, nil for no declared return
	Name         Name               // TADT only
	Constructors []ValueConstructor // TADT only
}

func (t Type) String() string {
	var out bytes.Buffer
	out.WriteString(t.Kind.String())
	if t.Kind == TADT {
		out.WriteString("(" + t.Name + ")")
		return out.String()
	}
	if len(t.Args) > 0 || t.Kind == TFunction {
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		out.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	if t.Return != nil {
		out.WriteString(" -> " + t.Return.String())
	}
	return out.String()
}

func Simple(kind TypeKind) *Type { return &Type{Kind: kind} }

// ValueConstructor is one named case of an ADT.
type ValueConstructor struct {
	Name  Name
	Types []Type
}

func (vc ValueConstructor) String() string {
	if len(vc.Types) == 0 {
		return vc.Name
	}
	parts := make([]string, len(vc.Types))
	for i, t := range vc.Types {
		parts[i] = t.String()
	}
	return vc.Name + "(" + strings.Join(parts, ", ") + ")"
}

type FormalArgument struct {
	Name Name
	Type Type
}

func (fa FormalArgument) String() string { return fa.Name + ": " + fa.Type.String() }

// Function is a named function or test. A nil Body is a declared but
// undefined function.
type Function struct {
	Name   Name
	Kind   *Type
	Params []FormalArgument
	Body   Statement
}

const MainFunction = "__main__"

// NewMainFunction returns the implicit top-level scope function.
func NewMainFunction() *Function {
	return &Function{Name: MainFunction}
}

func (f *Function) String() string {
	var out bytes.Buffer

	params := []string{}
	for _, p := range f.Params {
		params = append(params, p.String())
	}

	out.WriteString(f.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if f.Kind != nil {
		out.WriteString(" -> ")
		out.WriteString(f.Kind.String())
	}
	if f.Body != nil {
		out.WriteString(": ")
		out.WriteString(f.Body.String())
	}

	return out.String()
}
