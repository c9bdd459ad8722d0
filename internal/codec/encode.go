package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"rpy/internal/ast"
)

var operatorTags = map[ast.Operator]string{
	ast.ADD: "Add",
	ast.SUB: "Sub",
	ast.MUL: "Mul",
	ast.DIV: "Div",
	ast.AND: "And",
	ast.OR:  "Or",
	ast.EQ:  "EQ",
	ast.GT:  "GT",
	ast.LT:  "LT",
	ast.GTE: "GTE",
	ast.LTE: "LTE",
}

// Walk converts a node into its interchange form: nested maps keyed by field
// name with a "type" discriminator on every node.
func Walk(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return map[string]interface{}{"type": "CInt", "value": n.Value}
	case *ast.RealLiteral:
		return map[string]interface{}{"type": "CReal", "value": n.Value}
	case *ast.BooleanLiteral:
		if n.Value {
			return map[string]interface{}{"type": "CTrue"}
		}
		return map[string]interface{}{"type": "CFalse"}
	case *ast.StringLiteral:
		return map[string]interface{}{"type": "CString", "value": n.Value}
	case *ast.VoidLiteral:
		return map[string]interface{}{"type": "CVoid"}
	case *ast.NothingLiteral:
		return map[string]interface{}{"type": "CNothing"}

	case *ast.Identifier:
		return map[string]interface{}{"type": "Var", "name": n.Value}

	case *ast.FuncCall:
		return map[string]interface{}{
			"type":      "FuncCall",
			"name":      n.Name,
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.InfixExpression:
		return map[string]interface{}{
			"type":  operatorTags[n.Operator],
			"left":  Walk(n.Left),
			"right": Walk(n.Right),
		}

	case *ast.NotExpression:
		return map[string]interface{}{"type": "Not", "value": Walk(n.Right)}
	case *ast.Just:
		return map[string]interface{}{"type": "CJust", "value": Walk(n.Value)}
	case *ast.Ok:
		return map[string]interface{}{"type": "COk", "value": Walk(n.Value)}
	case *ast.Err:
		return map[string]interface{}{"type": "CErr", "value": Walk(n.Value)}
	case *ast.Unwrap:
		return map[string]interface{}{"type": "Unwrap", "value": Walk(n.Value)}
	case *ast.IsError:
		return map[string]interface{}{"type": "IsError", "value": Walk(n.Value)}
	case *ast.IsNothing:
		return map[string]interface{}{"type": "IsNothing", "value": Walk(n.Value)}
	case *ast.Propagate:
		return map[string]interface{}{"type": "Propagate", "value": Walk(n.Value)}

	case *ast.ADTConstructor:
		return map[string]interface{}{
			"type":        "ADTConstructor",
			"adt":         n.ADT,
			"constructor": n.Constructor,
			"arguments":   walkExpressions(n.Arguments),
		}

	case *ast.VarDeclaration:
		return map[string]interface{}{"type": "VarDeclaration", "name": n.Name}
	case *ast.ValDeclaration:
		return map[string]interface{}{"type": "ValDeclaration", "name": n.Name}

	case *ast.Assignment:
		m := map[string]interface{}{
			"type":  "Assignment",
			"name":  n.Name,
			"value": Walk(n.Value),
		}
		if n.Type != nil {
			m["kind"] = walkType(*n.Type)
		}
		return m

	case *ast.IfThenElse:
		return map[string]interface{}{
			"type":      "IfThenElse",
			"condition": Walk(n.Condition),
			"then":      Walk(n.Then),
			"else":      Walk(n.Else),
		}

	case *ast.While:
		return map[string]interface{}{
			"type":      "While",
			"condition": Walk(n.Condition),
			"body":      Walk(n.Body),
		}

	case *ast.Block:
		statements := make([]interface{}, len(n.Statements))
		for i, s := range n.Statements {
			statements[i] = Walk(s)
		}
		return map[string]interface{}{"type": "Block", "statements": statements}

	case *ast.Sequence:
		return map[string]interface{}{
			"type":   "Sequence",
			"first":  Walk(n.First),
			"second": Walk(n.Second),
		}

	case *ast.AssertTrue:
		return map[string]interface{}{"type": "AssertTrue", "condition": Walk(n.Condition), "message": n.Message}
	case *ast.AssertFalse:
		return map[string]interface{}{"type": "AssertFalse", "condition": Walk(n.Condition), "message": n.Message}
	case *ast.AssertEQ:
		return map[string]interface{}{"type": "AssertEQ", "left": Walk(n.Left), "right": Walk(n.Right), "message": n.Message}
	case *ast.AssertNEQ:
		return map[string]interface{}{"type": "AssertNEQ", "left": Walk(n.Left), "right": Walk(n.Right), "message": n.Message}
	case *ast.AssertFails:
		return map[string]interface{}{"type": "AssertFails", "message": n.Message}

	case *ast.FuncDef:
		return map[string]interface{}{"type": "FuncDef", "function": walkFunction(n.Function)}
	case *ast.TestDef:
		return map[string]interface{}{"type": "TestDef", "function": walkFunction(n.Function)}

	case *ast.ModTestDef:
		return map[string]interface{}{
			"type": "ModTestDef",
			"name": n.Name,
			"body": Walk(n.Body),
		}

	case *ast.Return:
		return map[string]interface{}{"type": "Return", "value": Walk(n.Value)}

	case *ast.ADTDeclaration:
		return map[string]interface{}{
			"type":         "ADTDeclaration",
			"name":         n.Name,
			"constructors": walkConstructors(n.Constructors),
		}

	case *ast.Match:
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]interface{}{
				"pattern": Walk(c.Pattern),
				"body":    Walk(c.Body),
			}
		}
		return map[string]interface{}{
			"type":  "Match",
			"value": Walk(n.Value),
			"cases": cases,
		}
	}

	return map[string]interface{}{
		"type":  "Unknown",
		"value": fmt.Sprintf("%T", node),
	}
}

func walkExpressions(exps []ast.Expression) []interface{} {
	out := make([]interface{}, len(exps))
	for i, e := range exps {
		out[i] = Walk(e)
	}
	return out
}

func walkType(t ast.Type) interface{} {
	m := map[string]interface{}{"type": t.Kind.String()}
	if len(t.Args) > 0 {
		args := make([]interface{}, len(t.Args))
		for i, a := range t.Args {
			args[i] = walkType(a)
		}
		m["args"] = args
	}
	if t.Return != nil {
		m["return"] = walkType(*t.Return)
	}
	if t.Kind == ast.TADT {
		m["name"] = t.Name
		m["constructors"] = walkConstructors(t.Constructors)
	}
	return m
}

func walkConstructors(constructors []ast.ValueConstructor) []interface{} {
	out := make([]interface{}, len(constructors))
	for i, c := range constructors {
		types := make([]interface{}, len(c.Types))
		for j, t := range c.Types {
			types[j] = walkType(t)
		}
		out[i] = map[string]interface{}{"name": c.Name, "types": types}
	}
	return out
}

func walkFunction(fn *ast.Function) interface{} {
	if fn == nil {
		return nil
	}
	params := make([]interface{}, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = map[string]interface{}{"name": p.Name, "kind": walkType(p.Type)}
	}
	m := map[string]interface{}{
		"name":   fn.Name,
		"params": params,
		"body":   Walk(fn.Body),
	}
	if fn.Kind != nil {
		m["kind"] = walkType(*fn.Kind)
	}
	return m
}

// Encode renders node as indented JSON.
func Encode(node ast.Node) ([]byte, error) {
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(Walk(node)); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

func EncodeStatement(stmt ast.Statement) ([]byte, error) {
	return Encode(stmt)
}
