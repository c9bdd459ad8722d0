package evaluator

import (
	"log/slog"
	"rpy/internal/ast"
	"rpy/internal/object"
)

func evalADTDeclaration(node *ast.ADTDeclaration, env *object.Environment) {
	env.DefineType(node.Name, node.Constructors)
	slog.Debug("declared ADT",
		slog.String("name", node.Name),
		slog.Int("constructors", len(node.Constructors)))
}

func lookupConstructor(adt, name ast.Name, env *object.Environment) (*ast.ValueConstructor, error) {
	constructors, ok := env.GetType(adt)
	if !ok {
		return nil, newError(LookupFailure, "ADT %s not found", adt)
	}
	for i := range constructors {
		if constructors[i].Name == name {
			return &constructors[i], nil
		}
	}
	return nil, newError(LookupFailure, "constructor %s not found in ADT %s", name, adt)
}

// evalADTConstructor checks the application against the declared constructor
// and returns the instance with every field evaluated.
func evalADTConstructor(node *ast.ADTConstructor, env *object.Environment) (object.Object, error) {
	vc, err := lookupConstructor(node.ADT, node.Constructor, env)
	if err != nil {
		return nil, err
	}
	if len(node.Arguments) != len(vc.Types) {
		return nil, newError(ArityMismatch, "constructor %s expects %d arguments, got %d",
			node.Constructor, len(vc.Types), len(node.Arguments))
	}

	fields := make([]ast.Expression, len(node.Arguments))
	for i, arg := range node.Arguments {
		val, err := Eval(arg, env)
		if err != nil {
			return nil, err
		}
		exp, ok := object.AsExpression(val)
		if !ok {
			return nil, newError(TypeMismatch, "constructor %s: argument %d must be a value, got %s",
				node.Constructor, i+1, val.Type())
		}
		fields[i] = exp
	}

	return object.NewExp(&ast.ADTConstructor{
		ADT:         node.ADT,
		Constructor: node.Constructor,
		Arguments:   fields,
	}), nil
}

// matchPattern reports whether value matches pattern. Patterns never bind:
// a constructor pattern compares names and then each field against its
// argument pattern, a value-shaped pattern compares by equality. A
// constructor pattern without arguments matches any instance of that
// constructor, at the top level and nested alike. A constructor pattern
// against a value that is not an ADT instance is unsupported.
func matchPattern(value, pattern ast.Expression, env *object.Environment) (bool, error) {
	switch p := pattern.(type) {
	case *ast.ADTConstructor:
		v, ok := value.(*ast.ADTConstructor)
		if !ok {
			return false, newError(PatternFailure, "unsupported pattern: %s against %s", p, value)
		}
		if v.ADT != p.ADT || v.Constructor != p.Constructor {
			return false, nil
		}
		if len(p.Arguments) == 0 {
			return true, nil
		}
		if len(p.Arguments) != len(v.Arguments) {
			return false, nil
		}
		for i, argPattern := range p.Arguments {
			exp, err := argumentPattern(argPattern, env)
			if err != nil {
				return false, err
			}
			matched, err := matchPattern(v.Arguments[i], exp, env)
			if err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	}

	if pattern != nil && ast.IsValue(pattern) {
		return ast.Equal(value, pattern), nil
	}
	return false, newError(PatternFailure, "unsupported pattern: %v", pattern)
}

// argumentPattern evaluates a nested pattern. Constructor patterns stay
// patterns so that their own arguments are resolved when they are matched.
func argumentPattern(pattern ast.Expression, env *object.Environment) (ast.Expression, error) {
	if p, ok := pattern.(*ast.ADTConstructor); ok {
		return p, nil
	}
	evaluated, err := Eval(pattern, env)
	if err != nil {
		return nil, err
	}
	exp, ok := object.AsExpression(evaluated)
	if !ok {
		return nil, newError(PatternFailure, "unsupported pattern: %s", evaluated.Inspect())
	}
	return exp, nil
}

func evalMatch(node *ast.Match, env *object.Environment) (ControlFlow, error) {
	val, err := Eval(node.Value, env)
	if err != nil {
		return nil, err
	}
	value, ok := object.AsExpression(val)
	if !ok {
		return nil, newError(PatternFailure, "cannot match on %s", val.Type())
	}

	for _, matchCase := range node.Cases {
		matched, err := matchPattern(value, matchCase.Pattern, env)
		if err != nil {
			return nil, err
		}
		if matched {
			return execute(matchCase.Body, env)
		}
	}
	return nil, newError(PatternFailure, "no matching pattern found")
}
