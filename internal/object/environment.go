package object

import (
	"fmt"
	"log/slog"
	"rpy/internal/ast"
	"sort"
	"sync/atomic"
)

// DefaultMaxDepth bounds nested function calls so runaway recursion fails
// instead of exhausting the Go stack.
const DefaultMaxDepth = 2048

var nextID atomic.Uint64

func nextEnvID() uint64 {
	return nextID.Add(1)
}

// ScopeKey identifies a frame by owning function name and recursion depth.
type ScopeKey struct {
	Name      ast.Name
	Recursion int
}

func (k ScopeKey) String() string {
	return fmt.Sprintf("(%s, %d)", k.Name, k.Recursion)
}

var MainKey = ScopeKey{Name: ast.MainFunction, Recursion: 0}

type Frame struct {
	ParentFunction *ast.Function // restored on PopFrame
	ParentKey      *ScopeKey     // lookup key only
	Variables      map[ast.Name]Object
	Tests          map[ast.Name]*ast.Function
}

func NewFrame(fn *ast.Function, parent *ScopeKey) *Frame {
	return &Frame{
		ParentFunction: fn,
		ParentKey:      parent,
		Variables:      make(map[ast.Name]Object),
		Tests:          make(map[ast.Name]*ast.Function),
	}
}

func (f *Frame) clone() *Frame {
	c := NewFrame(f.ParentFunction, nil)
	if f.ParentKey != nil {
		key := *f.ParentKey
		c.ParentKey = &key
	}
	for k, v := range f.Variables {
		c.Variables[k] = v
	}
	for k, v := range f.Tests {
		c.Tests[k] = v
	}
	return c
}

// Environment is the full scope table of one program run or one function
// call. Every frame persists in Stack until it is popped; Types is unscoped.
type Environment struct {
	ID        uint64
	Scope     *ast.Function
	Recursion int
	Stack     map[ScopeKey]*Frame
	Types     map[ast.Name][]ast.ValueConstructor

	Depth int // nesting of function calls that produced this environment
	Limit int // maximum Depth before a call fails
}

func NewEnvironment() *Environment {
	return NewRootEnvironment(DefaultMaxDepth)
}

// NewRootEnvironment creates an environment holding only the main frame.
func NewRootEnvironment(limit int) *Environment {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	env := &Environment{
		ID:    nextEnvID(),
		Scope: ast.NewMainFunction(),
		Stack: map[ScopeKey]*Frame{MainKey: NewFrame(nil, nil)},
		Types: make(map[ast.Name][]ast.ValueConstructor),
		Limit: limit,
	}
	slog.Debug("------ new env ------",
		slog.Uint64("env", env.ID),
		slog.Int("depth-limit", limit))
	return env
}

// NewCallEnvironment creates the independent environment a function call
// executes in, one level deeper than e.
func (e *Environment) NewCallEnvironment() *Environment {
	env := NewRootEnvironment(e.Limit)
	env.Depth = e.Depth + 1
	return env
}

// Clone copies the frame table and the type table. Values are immutable and
// shared between the copies.
func (e *Environment) Clone() *Environment {
	newEnv := &Environment{
		ID:        nextEnvID(),
		Scope:     e.Scope,
		Recursion: e.Recursion,
		Stack:     make(map[ScopeKey]*Frame, len(e.Stack)),
		Types:     make(map[ast.Name][]ast.ValueConstructor, len(e.Types)),
		Depth:     e.Depth,
		Limit:     e.Limit,
	}
	for k, f := range e.Stack {
		newEnv.Stack[k] = f.clone()
	}
	for k, v := range e.Types {
		newEnv.Types[k] = v
	}
	return newEnv
}

func (e *Environment) ScopeName() ast.Name {
	return e.Scope.Name
}

func (e *Environment) ScopeKey() ScopeKey {
	return ScopeKey{Name: e.ScopeName(), Recursion: e.Recursion}
}

func (e *Environment) Frame(key ScopeKey) (*Frame, bool) {
	f, ok := e.Stack[key]
	return f, ok
}

func (e *Environment) CurrentFrame() *Frame {
	f, ok := e.Stack[e.ScopeKey()]
	if !ok {
		panic("no frame for active scope " + e.ScopeKey().String())
	}
	return f
}

// Chain returns the frames visible from the active scope, innermost first.
func (e *Environment) Chain() []*Frame {
	var chain []*Frame
	key := e.ScopeKey()
	for {
		f, ok := e.Stack[key]
		if !ok {
			return chain
		}
		chain = append(chain, f)
		if f.ParentKey == nil {
			return chain
		}
		key = *f.ParentKey
	}
}

// Get resolves name along the parent chain.
func (e *Environment) Get(name ast.Name) (Object, bool) {
	for _, f := range e.Chain() {
		if v, ok := f.Variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetLocal resolves name in the active frame only.
func (e *Environment) GetLocal(name ast.Name) (Object, bool) {
	v, ok := e.CurrentFrame().Variables[name]
	return v, ok
}

// Define binds name in the active frame, replacing an existing binding.
func (e *Environment) Define(name ast.Name, val Object) {
	e.CurrentFrame().Variables[name] = val
	slog.Debug("binding value",
		slog.Uint64("env", e.ID),
		slog.String("scope", e.ScopeKey().String()),
		slog.String("name", name),
		slog.Any("type", val.Type()))
}

func (e *Environment) DefineType(name ast.Name, constructors []ast.ValueConstructor) {
	e.Types[name] = constructors
}

func (e *Environment) GetType(name ast.Name) ([]ast.ValueConstructor, bool) {
	c, ok := e.Types[name]
	return c, ok
}

// DefineTest registers a test function in the active frame.
func (e *Environment) DefineTest(name ast.Name, test *ast.Function) {
	e.CurrentFrame().Tests[name] = test
}

func (e *Environment) GetTest(name ast.Name) (*ast.Function, bool) {
	t, ok := e.CurrentFrame().Tests[name]
	return t, ok
}

// TestNames lists the tests of the active frame in name order.
func (e *Environment) TestNames() []ast.Name {
	tests := e.CurrentFrame().Tests
	names := make([]ast.Name, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PushFrame enters a new scope owned by fn, one recursion level deeper, whose
// parent is the current scope.
func (e *Environment) PushFrame(fn *ast.Function) {
	parent := e.ScopeKey()
	key := ScopeKey{Name: fn.Name, Recursion: e.Recursion + 1}
	e.Stack[key] = NewFrame(e.Scope, &parent)
	e.Scope = fn
	e.Recursion++
	slog.Debug("push frame",
		slog.Uint64("env", e.ID),
		slog.String("key", key.String()),
		slog.String("parent", parent.String()))
}

// PopFrame leaves the active scope and restores the function that pushed it.
func (e *Environment) PopFrame() error {
	key := e.ScopeKey()
	f, ok := e.Stack[key]
	if !ok || f.ParentFunction == nil {
		return fmt.Errorf("cannot leave scope %s: no enclosing frame", key)
	}
	delete(e.Stack, key)
	e.Scope = f.ParentFunction
	e.Recursion--
	slog.Debug("pop frame",
		slog.Uint64("env", e.ID),
		slog.String("key", key.String()))
	return nil
}
