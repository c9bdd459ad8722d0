package evaluator

import (
	"log/slog"
	"rpy/internal/ast"
	"rpy/internal/object"
	"rpy/internal/util/future"
	"strings"

	"github.com/google/btree"
)

type TestStatus string

const (
	Passed TestStatus = "passed"
	Failed TestStatus = "failed"
)

// TestResult is one executed test. Name is "module::test"; Detail holds the
// failure message of a failed test and is empty otherwise.
type TestResult struct {
	Name   string
	Status TestStatus
	Detail string
}

// TestResults is a set of results ordered by test name.
type TestResults struct {
	tree *btree.BTreeG[TestResult]
}

func NewTestResults() *TestResults {
	return &TestResults{
		tree: btree.NewG[TestResult](8, func(a, b TestResult) bool {
			return a.Name < b.Name
		}),
	}
}

// Add inserts res, replacing an earlier result with the same name.
func (r *TestResults) Add(res TestResult) {
	r.tree.ReplaceOrInsert(res)
}

func (r *TestResults) Get(name string) (TestResult, bool) {
	return r.tree.Get(TestResult{Name: name})
}

func (r *TestResults) Len() int {
	return r.tree.Len()
}

// All returns the results in name order.
func (r *TestResults) All() []TestResult {
	out := make([]TestResult, 0, r.tree.Len())
	r.tree.Ascend(func(res TestResult) bool {
		out = append(out, res)
		return true
	})
	return out
}

func (r *TestResults) Count(status TestStatus) int {
	n := 0
	r.tree.Ascend(func(res TestResult) bool {
		if res.Status == status {
			n++
		}
		return true
	})
	return n
}

// TestSelection names a test module and optionally a single test in it. An
// empty Test selects every test of the module.
type TestSelection struct {
	Module ast.Name
	Test   ast.Name
}

func (s TestSelection) String() string {
	if s.Test == "" {
		return s.Module
	}
	return s.Module + "::" + s.Test
}

// ParseSelection reads "module" or "module::test".
func ParseSelection(s string) TestSelection {
	module, test, _ := strings.Cut(s, "::")
	return TestSelection{Module: module, Test: test}
}

// ExecuteTests runs the selected tests. Test failures become failed results;
// an unknown module or test name is returned as an error before any test
// runs.
//
// Selections run concurrently, one goroutine per selection, and ExecuteTests
// blocks until all of them finish. Every test still evaluates sequentially on
// a private clone of its module environment, and goroutines only read the
// shared module environment. Results are merged by name, so the returned set
// does not depend on scheduling; the order of log records does.
func ExecuteTests(selection []TestSelection, env *object.Environment) (*TestResults, error) {
	pending := make([]*future.Future[[]TestResult], 0, len(selection))

	for _, sel := range selection {
		module, err := lookupTestModule(sel.Module, env)
		if err != nil {
			return nil, err
		}

		names := module.Env.TestNames()
		if sel.Test != "" {
			if _, ok := module.Env.GetTest(sel.Test); !ok {
				return nil, newError(LookupFailure, "test %s not found in module %s", sel.Test, sel.Module)
			}
			names = []ast.Name{sel.Test}
		}

		pending = append(pending, future.New(func() ([]TestResult, error) {
			out := make([]TestResult, 0, len(names))
			for _, name := range names {
				test, _ := module.Env.GetTest(name)
				res := runTest(module, test)
				slog.Info("test finished",
					slog.String("test", res.Name),
					slog.String("status", string(res.Status)))
				out = append(out, res)
			}
			return out, nil
		}))
	}

	batches, err := future.All(pending...)
	if err != nil {
		return nil, err
	}
	results := NewTestResults()
	for _, batch := range batches {
		for _, res := range batch {
			results.Add(res)
		}
	}
	return results, nil
}

func lookupTestModule(name ast.Name, env *object.Environment) (*object.TestEnvironment, error) {
	val, ok := env.Get(name)
	if !ok {
		return nil, newError(LookupFailure, "test module %s not found", name)
	}
	module, ok := val.(*object.TestEnvironment)
	if !ok {
		return nil, newError(LookupFailure, "%s is not a test module", name)
	}
	return module, nil
}

// runTest calls test with no arguments from a frame of its own inside a copy
// of the module environment, so tests cannot observe each other.
func runTest(module *object.TestEnvironment, test *ast.Function) TestResult {
	res := TestResult{Name: module.Name + "::" + test.Name}

	env := module.Env.Clone()
	env.PushFrame(test)
	env.Define(test.Name, &object.Function{Def: test})

	if _, err := call(test.Name, nil, env); err != nil {
		res.Status = Failed
		res.Detail = err.Error()
		return res
	}
	if err := env.PopFrame(); err != nil {
		res.Status = Failed
		res.Detail = err.Error()
		return res
	}
	res.Status = Passed
	return res
}
