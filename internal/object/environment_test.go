package object

import (
	"rpy/internal/ast"
	"testing"
)

func TestDefineAndGet(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", NewExp(ast.Int(1)))

	val, ok := env.Get("x")
	if !ok {
		t.Fatalf("x is not bound")
	}
	if val.Inspect() != "1" {
		t.Errorf("expected 1, got %s", val.Inspect())
	}
	if _, ok := env.Get("y"); ok {
		t.Errorf("y should not be bound")
	}
	if env.ScopeKey() != MainKey {
		t.Errorf("expected main scope, got %s", env.ScopeKey())
	}
}

func TestPushFrameSeesParent(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", NewExp(ast.Int(1)))

	env.PushFrame(&ast.Function{Name: "f"})
	if env.ScopeKey() != (ScopeKey{Name: "f", Recursion: 1}) {
		t.Fatalf("unexpected scope %s", env.ScopeKey())
	}

	env.Define("x", NewExp(ast.Int(2)))
	env.Define("y", NewExp(ast.Int(3)))

	if val, _ := env.Get("x"); val.Inspect() != "2" {
		t.Errorf("inner x should shadow the outer one, got %s", val.Inspect())
	}
	if _, ok := env.GetLocal("x"); !ok {
		t.Errorf("x should be local to the pushed frame")
	}
	if len(env.Chain()) != 2 {
		t.Errorf("expected a chain of 2 frames, got %d", len(env.Chain()))
	}

	if err := env.PopFrame(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if env.ScopeKey() != MainKey {
		t.Errorf("expected main scope after pop, got %s", env.ScopeKey())
	}
	if val, _ := env.Get("x"); val.Inspect() != "1" {
		t.Errorf("outer x should be restored, got %s", val.Inspect())
	}
	if _, ok := env.Get("y"); ok {
		t.Errorf("y should be gone with its frame")
	}
	if _, ok := env.Frame(ScopeKey{Name: "f", Recursion: 1}); ok {
		t.Errorf("popped frame is still in the stack")
	}
}

func TestRecursiveFramesAreDistinct(t *testing.T) {
	env := NewEnvironment()
	f := &ast.Function{Name: "f"}

	env.PushFrame(f)
	env.Define("n", NewExp(ast.Int(1)))
	env.PushFrame(f)
	env.Define("n", NewExp(ast.Int(2)))

	if len(env.Stack) != 3 {
		t.Errorf("expected 3 frames, got %d", len(env.Stack))
	}
	outer, ok := env.Frame(ScopeKey{Name: "f", Recursion: 1})
	if !ok || outer.Variables["n"].Inspect() != "1" {
		t.Errorf("outer frame of f lost its binding")
	}

	if err := env.PopFrame(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if val, _ := env.Get("n"); val.Inspect() != "1" {
		t.Errorf("expected n = 1, got %s", val.Inspect())
	}
	if env.ScopeName() != "f" {
		t.Errorf("expected scope f, got %s", env.ScopeName())
	}
}

func TestPopRootFrameFails(t *testing.T) {
	env := NewEnvironment()
	if err := env.PopFrame(); err == nil {
		t.Errorf("popping the main frame should fail")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", NewExp(ast.Int(1)))
	env.DefineType("Color", []ast.ValueConstructor{{Name: "Red"}})
	env.DefineTest("t", &ast.Function{Name: "t"})

	c := env.Clone()
	if c.ID == env.ID {
		t.Errorf("clone shares the environment id")
	}
	c.Define("x", NewExp(ast.Int(2)))
	c.DefineType("Shape", nil)
	c.PushFrame(&ast.Function{Name: "g"})

	if val, _ := env.Get("x"); val.Inspect() != "1" {
		t.Errorf("original x changed to %s", val.Inspect())
	}
	if _, ok := env.GetType("Shape"); ok {
		t.Errorf("type leaked into the original")
	}
	if env.ScopeKey() != MainKey || len(env.Stack) != 1 {
		t.Errorf("original frame table changed")
	}
	if _, ok := c.GetType("Color"); !ok {
		t.Errorf("clone lost the Color type")
	}
	if err := c.PopFrame(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if names := c.TestNames(); len(names) != 1 || names[0] != "t" {
		t.Errorf("clone lost its tests: %v", names)
	}
}

func TestCallEnvironment(t *testing.T) {
	env := NewRootEnvironment(10)
	env.Define("x", NewExp(ast.Int(1)))

	callEnv := env.NewCallEnvironment()
	if callEnv.Depth != 1 || callEnv.Limit != 10 {
		t.Errorf("expected depth 1 and limit 10, got %d and %d", callEnv.Depth, callEnv.Limit)
	}
	if _, ok := callEnv.Get("x"); ok {
		t.Errorf("call environment sees the caller's variables")
	}
	if callEnv.ScopeKey() != MainKey {
		t.Errorf("call environment should start at the main scope")
	}
}

func TestTestNamesSorted(t *testing.T) {
	env := NewEnvironment()
	for _, name := range []string{"c", "a", "b"} {
		env.DefineTest(name, &ast.Function{Name: name})
	}
	names := env.TestNames()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("expected [a b c], got %v", names)
	}
	if _, ok := env.GetTest("b"); !ok {
		t.Errorf("test b not found")
	}
}

func TestInspect(t *testing.T) {
	env := NewEnvironment()
	env.DefineTest("t1", &ast.Function{Name: "t1"})

	cases := []struct {
		obj      Object
		typ      ObjectType
		expected string
	}{
		{NewExp(&ast.Just{Value: ast.Int(3)}), EXPRESSION_OBJ, "Just(3)"},
		{&Function{Def: &ast.Function{Name: "f"}}, FUNCTION_OBJ, "<function f>"},
		{&TestEnvironment{Name: "m", Env: env}, TEST_ENVIRONMENT_OBJ, "<test module m (1 tests)>"},
	}
	for _, c := range cases {
		if c.obj.Type() != c.typ {
			t.Errorf("expected type %s, got %s", c.typ, c.obj.Type())
		}
		if c.obj.Inspect() != c.expected {
			t.Errorf("expected %q, got %q", c.expected, c.obj.Inspect())
		}
	}
}
