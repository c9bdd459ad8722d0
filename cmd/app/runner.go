package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"rpy/internal/ast"
	"rpy/internal/codec"
	"rpy/internal/evaluator"
	"rpy/internal/object"
	"rpy/internal/report"
	"rpy/internal/util"
	"sort"
)

const allTests = "all"

type runner struct {
	config  util.Configuration
	program string
	tests   []string
	out     io.Writer
	errOut  io.Writer
}

// run executes the program once and then the selected tests. It returns the
// process exit code.
func (r *runner) run(ctx context.Context) int {
	src, err := os.ReadFile(r.program)
	if err != nil {
		fmt.Fprintf(r.errOut, "failed to read '%s': %v\n", r.program, err)
		return 1
	}

	program, err := codec.Decode(bytes.NewReader(src))
	if err != nil {
		fmt.Fprintf(r.errOut, "%s: %v\n", r.program, err)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col := util.LineAndColumn(string(src), int(syntaxErr.Offset)-1)
			fmt.Fprintln(r.errOut, util.ContextLines(string(src), line, col))
		}
		return 1
	}

	if r.config.DebugJsonAST {
		data, err := codec.EncodeStatement(program)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
		r.out.Write(data)
	}

	flow, err := evaluator.Run(program, object.NewRootEnvironment(r.config.MaxCallDepth))
	if err != nil {
		var evalErr *evaluator.Error
		if errors.As(err, &evalErr) {
			fmt.Fprintf(r.errOut, "%s: %s\n", evalErr.Kind, evalErr.Message)
		} else {
			fmt.Fprintln(r.errOut, err)
		}
		return 1
	}

	var env *object.Environment
	switch f := flow.(type) {
	case *evaluator.Return:
		fmt.Fprintf(r.out, "return %s\n", f.Value.Inspect())
		if len(r.tests) > 0 {
			fmt.Fprintln(r.errOut, "program returned before its tests could be collected")
			return 1
		}
		return 0
	case *evaluator.Continue:
		env = f.Env
		printBindings(r.out, env)
	}

	if len(r.tests) == 0 {
		return 0
	}
	return r.runTests(ctx, env)
}

func printBindings(w io.Writer, env *object.Environment) {
	frame, ok := env.Frame(object.MainKey)
	if !ok {
		return
	}
	names := make([]string, 0, len(frame.Variables))
	for name := range frame.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s = %s\n", name, frame.Variables[name].Inspect())
	}
}

// selections expands the -test flags; "all" stands for every test module
// bound at the top level.
func (r *runner) selections(env *object.Environment) []evaluator.TestSelection {
	var out []evaluator.TestSelection
	for _, t := range r.tests {
		if t != allTests {
			out = append(out, evaluator.ParseSelection(t))
			continue
		}
		frame, _ := env.Frame(object.MainKey)
		var modules []ast.Name
		for name, val := range frame.Variables {
			if _, ok := val.(*object.TestEnvironment); ok {
				modules = append(modules, name)
			}
		}
		sort.Strings(modules)
		for _, m := range modules {
			out = append(out, evaluator.TestSelection{Module: m})
		}
	}
	return out
}

func (r *runner) runTests(ctx context.Context, env *object.Environment) int {
	results, err := evaluator.ExecuteTests(r.selections(env), env)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return 1
	}

	for _, res := range results.All() {
		if res.Status == evaluator.Passed {
			fmt.Fprintf(r.out, "PASS %s\n", res.Name)
		} else {
			fmt.Fprintf(r.out, "FAIL %s: %s\n", res.Name, res.Detail)
		}
	}
	fmt.Fprintf(r.out, "%d passed, %d failed\n", results.Count(evaluator.Passed), results.Count(evaluator.Failed))

	if r.config.Report.DSN != "" {
		if err := r.record(ctx, results); err != nil {
			fmt.Fprintln(r.errOut, err)
			return 1
		}
	}

	if results.Count(evaluator.Failed) > 0 {
		return 1
	}
	return 0
}

func (r *runner) record(ctx context.Context, results *evaluator.TestResults) error {
	store, err := report.Open(r.config.Report.Driver, r.config.Report.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	id, err := report.NewRunID()
	if err != nil {
		return fmt.Errorf("failed to create run id: %w", err)
	}
	run, err := store.SaveRun(ctx, id, r.program, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "recorded run %s\n", run.ID)
	return nil
}
