package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"rpy/internal/ast"
)

type node = map[string]interface{}

var operatorsByTag = func() map[string]ast.Operator {
	m := make(map[string]ast.Operator, len(operatorTags))
	for op, tag := range operatorTags {
		m[tag] = op
	}
	return m
}()

var wrappers = map[string]func(ast.Expression) ast.Expression{
	"Not":       func(e ast.Expression) ast.Expression { return &ast.NotExpression{Right: e} },
	"CJust":     func(e ast.Expression) ast.Expression { return &ast.Just{Value: e} },
	"COk":       func(e ast.Expression) ast.Expression { return &ast.Ok{Value: e} },
	"CErr":      func(e ast.Expression) ast.Expression { return &ast.Err{Value: e} },
	"Unwrap":    func(e ast.Expression) ast.Expression { return &ast.Unwrap{Value: e} },
	"IsError":   func(e ast.Expression) ast.Expression { return &ast.IsError{Value: e} },
	"IsNothing": func(e ast.Expression) ast.Expression { return &ast.IsNothing{Value: e} },
	"Propagate": func(e ast.Expression) ast.Expression { return &ast.Propagate{Value: e} },
}

// Decode reads a program: a single statement object, or an array of
// statements executed in order.
func Decode(r io.Reader) (ast.Statement, error) {
	var raw interface{}
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if items, ok := raw.([]interface{}); ok {
		stmts := make([]ast.Statement, len(items))
		for i, item := range items {
			stmt, err := statement(item)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
			stmts[i] = stmt
		}
		return ast.Seq(stmts...), nil
	}
	return statement(raw)
}

func DecodeStatement(data []byte) (ast.Statement, error) {
	var raw interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return statement(raw)
}

func DecodeExpression(data []byte) (ast.Expression, error) {
	var raw interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return expression(raw)
}

func unmarshal(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

func asNode(raw interface{}) (node, string, error) {
	n, ok := raw.(map[string]interface{})
	if !ok {
		return nil, "", fmt.Errorf("expected an object, got %T", raw)
	}
	tag, ok := n["type"].(string)
	if !ok {
		return nil, "", fmt.Errorf("node without a type: %v", raw)
	}
	return n, tag, nil
}

func str(n node, key string) (string, error) {
	s, ok := n[key].(string)
	if !ok {
		return "", fmt.Errorf("%s: field %q must be a string", n["type"], key)
	}
	return s, nil
}

func list(n node, key string) ([]interface{}, error) {
	switch l := n[key].(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return l, nil
	}
	return nil, fmt.Errorf("%s: field %q must be an array", n["type"], key)
}

func number(n node, key string) (json.Number, error) {
	num, ok := n[key].(json.Number)
	if !ok {
		return "", fmt.Errorf("%s: field %q must be a number", n["type"], key)
	}
	return num, nil
}

func expressions(n node, key string) ([]ast.Expression, error) {
	items, err := list(n, key)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Expression, len(items))
	for i, item := range items {
		if out[i], err = expression(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func expression(raw interface{}) (ast.Expression, error) {
	n, tag, err := asNode(raw)
	if err != nil {
		return nil, err
	}

	if op, ok := operatorsByTag[tag]; ok {
		left, err := expression(n["left"])
		if err != nil {
			return nil, err
		}
		right, err := expression(n["right"])
		if err != nil {
			return nil, err
		}
		return ast.Infix(op, left, right), nil
	}

	if wrap, ok := wrappers[tag]; ok {
		inner, err := expression(n["value"])
		if err != nil {
			return nil, err
		}
		return wrap(inner), nil
	}

	switch tag {
	case "CInt":
		num, err := number(n, "value")
		if err != nil {
			return nil, err
		}
		v, err := num.Int64()
		if err != nil || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("CInt: %s is not a 32-bit integer", num)
		}
		return ast.Int(int32(v)), nil

	case "CReal":
		num, err := number(n, "value")
		if err != nil {
			return nil, err
		}
		v, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("CReal: %w", err)
		}
		return ast.Real(v), nil

	case "CTrue":
		return ast.Bool(true), nil
	case "CFalse":
		return ast.Bool(false), nil
	case "CString":
		s, err := str(n, "value")
		if err != nil {
			return nil, err
		}
		return ast.String(s), nil
	case "CVoid":
		return ast.Void(), nil
	case "CNothing":
		return ast.Nothing(), nil

	case "Var":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		return ast.Var(name), nil

	case "FuncCall":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		args, err := expressions(n, "arguments")
		if err != nil {
			return nil, err
		}
		return &ast.FuncCall{Name: name, Arguments: args}, nil

	case "ADTConstructor":
		adt, err := str(n, "adt")
		if err != nil {
			return nil, err
		}
		constructor, err := str(n, "constructor")
		if err != nil {
			return nil, err
		}
		args, err := expressions(n, "arguments")
		if err != nil {
			return nil, err
		}
		return &ast.ADTConstructor{ADT: adt, Constructor: constructor, Arguments: args}, nil
	}

	return nil, fmt.Errorf("unknown expression type %q", tag)
}

func optionalStatement(raw interface{}) (ast.Statement, error) {
	if raw == nil {
		return nil, nil
	}
	return statement(raw)
}

func statement(raw interface{}) (ast.Statement, error) {
	n, tag, err := asNode(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "VarDeclaration", "ValDeclaration":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		if tag == "VarDeclaration" {
			return &ast.VarDeclaration{Name: name}, nil
		}
		return &ast.ValDeclaration{Name: name}, nil

	case "Assignment":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		value, err := expression(n["value"])
		if err != nil {
			return nil, err
		}
		stmt := &ast.Assignment{Name: name, Value: value}
		if n["kind"] != nil {
			t, err := typ(n["kind"])
			if err != nil {
				return nil, err
			}
			stmt.Type = &t
		}
		return stmt, nil

	case "IfThenElse":
		cond, err := expression(n["condition"])
		if err != nil {
			return nil, err
		}
		then, err := statement(n["then"])
		if err != nil {
			return nil, err
		}
		els, err := optionalStatement(n["else"])
		if err != nil {
			return nil, err
		}
		return &ast.IfThenElse{Condition: cond, Then: then, Else: els}, nil

	case "While":
		cond, err := expression(n["condition"])
		if err != nil {
			return nil, err
		}
		body, err := statement(n["body"])
		if err != nil {
			return nil, err
		}
		return &ast.While{Condition: cond, Body: body}, nil

	case "Block":
		items, err := list(n, "statements")
		if err != nil {
			return nil, err
		}
		stmts := make([]ast.Statement, len(items))
		for i, item := range items {
			if stmts[i], err = statement(item); err != nil {
				return nil, err
			}
		}
		return &ast.Block{Statements: stmts}, nil

	case "Sequence":
		first, err := statement(n["first"])
		if err != nil {
			return nil, err
		}
		second, err := statement(n["second"])
		if err != nil {
			return nil, err
		}
		return &ast.Sequence{First: first, Second: second}, nil

	case "AssertTrue", "AssertFalse":
		cond, err := expression(n["condition"])
		if err != nil {
			return nil, err
		}
		msg, err := str(n, "message")
		if err != nil {
			return nil, err
		}
		if tag == "AssertTrue" {
			return &ast.AssertTrue{Condition: cond, Message: msg}, nil
		}
		return &ast.AssertFalse{Condition: cond, Message: msg}, nil

	case "AssertEQ", "AssertNEQ":
		left, err := expression(n["left"])
		if err != nil {
			return nil, err
		}
		right, err := expression(n["right"])
		if err != nil {
			return nil, err
		}
		msg, err := str(n, "message")
		if err != nil {
			return nil, err
		}
		if tag == "AssertEQ" {
			return &ast.AssertEQ{Left: left, Right: right, Message: msg}, nil
		}
		return &ast.AssertNEQ{Left: left, Right: right, Message: msg}, nil

	case "AssertFails":
		msg, err := str(n, "message")
		if err != nil {
			return nil, err
		}
		return &ast.AssertFails{Message: msg}, nil

	case "FuncDef", "TestDef":
		fn, err := function(n["function"])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		if tag == "FuncDef" {
			return &ast.FuncDef{Function: fn}, nil
		}
		return &ast.TestDef{Function: fn}, nil

	case "ModTestDef":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		body, err := statement(n["body"])
		if err != nil {
			return nil, err
		}
		return &ast.ModTestDef{Name: name, Body: body}, nil

	case "Return":
		value, err := expression(n["value"])
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: value}, nil

	case "ADTDeclaration":
		name, err := str(n, "name")
		if err != nil {
			return nil, err
		}
		constructors, err := valueConstructors(n)
		if err != nil {
			return nil, err
		}
		return &ast.ADTDeclaration{Name: name, Constructors: constructors}, nil

	case "Match":
		value, err := expression(n["value"])
		if err != nil {
			return nil, err
		}
		items, err := list(n, "cases")
		if err != nil {
			return nil, err
		}
		cases := make([]*ast.MatchCase, len(items))
		for i, item := range items {
			c, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("Match: case %d must be an object", i+1)
			}
			pattern, err := expression(c["pattern"])
			if err != nil {
				return nil, err
			}
			body, err := statement(c["body"])
			if err != nil {
				return nil, err
			}
			cases[i] = &ast.MatchCase{Pattern: pattern, Body: body}
		}
		return &ast.Match{Value: value, Cases: cases}, nil
	}

	return nil, fmt.Errorf("unknown statement type %q", tag)
}

func function(raw interface{}) (*ast.Function, error) {
	n, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("function must be an object")
	}
	name, err := str(n, "name")
	if err != nil {
		return nil, err
	}
	fn := &ast.Function{Name: name}

	if n["kind"] != nil {
		t, err := typ(n["kind"])
		if err != nil {
			return nil, err
		}
		fn.Kind = &t
	}

	params, err := list(n, "params")
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		pn, ok := p.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: parameter must be an object", name)
		}
		pname, err := str(pn, "name")
		if err != nil {
			return nil, err
		}
		ptype, err := typ(pn["kind"])
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, ast.FormalArgument{Name: pname, Type: ptype})
	}

	if fn.Body, err = optionalStatement(n["body"]); err != nil {
		return nil, err
	}
	return fn, nil
}

func valueConstructors(n node) ([]ast.ValueConstructor, error) {
	items, err := list(n, "constructors")
	if err != nil {
		return nil, err
	}
	out := make([]ast.ValueConstructor, len(items))
	for i, item := range items {
		c, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("constructor %d must be an object", i+1)
		}
		if out[i].Name, err = str(c, "name"); err != nil {
			return nil, err
		}
		types, err := list(c, "types")
		if err != nil {
			return nil, err
		}
		for _, t := range types {
			parsed, err := typ(t)
			if err != nil {
				return nil, err
			}
			out[i].Types = append(out[i].Types, parsed)
		}
	}
	return out, nil
}

func typ(raw interface{}) (ast.Type, error) {
	n, tag, err := asNode(raw)
	if err != nil {
		return ast.Type{}, fmt.Errorf("type: %w", err)
	}
	kind, ok := ast.ParseTypeKind(tag)
	if !ok {
		return ast.Type{}, fmt.Errorf("unknown type %q", tag)
	}
	t := ast.Type{Kind: kind}

	args, err := list(n, "args")
	if err != nil {
		return ast.Type{}, err
	}
	for _, a := range args {
		parsed, err := typ(a)
		if err != nil {
			return ast.Type{}, err
		}
		t.Args = append(t.Args, parsed)
	}
	if n["return"] != nil {
		ret, err := typ(n["return"])
		if err != nil {
			return ast.Type{}, err
		}
		t.Return = &ret
	}
	if kind == ast.TADT {
		if t.Name, err = str(n, "name"); err != nil {
			return ast.Type{}, err
		}
		if t.Constructors, err = valueConstructors(n); err != nil {
			return ast.Type{}, err
		}
	}
	return t, nil
}
