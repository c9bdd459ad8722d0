package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"rpy/internal/ast"
	"rpy/internal/codec"
	"rpy/internal/evaluator"
	"rpy/internal/object"
	"strings"
)

const PROMPT = ">> "

// Start reads one JSON encoded statement or expression per line and runs it
// against an environment that persists across lines. A failed line leaves the
// environment as it was.
func Start(in io.Reader, out io.Writer, maxDepth int) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	env := object.NewRootEnvironment(maxDepth)

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if stmt, err := codec.DecodeStatement([]byte(line)); err == nil {
			env = execute(out, stmt, env)
			continue
		}

		exp, err := codec.DecodeExpression([]byte(line))
		if err != nil {
			printError(out, err)
			continue
		}
		val, err := evaluator.EvalExpression(exp, env)
		if err != nil {
			printError(out, err)
			continue
		}
		io.WriteString(out, val.Inspect()+"\n")
	}
}

func execute(out io.Writer, stmt ast.Statement, env *object.Environment) *object.Environment {
	flow, err := evaluator.Execute(stmt, env)
	if err != nil {
		printError(out, err)
		return env
	}

	switch f := flow.(type) {
	case *evaluator.Return:
		io.WriteString(out, f.Value.Inspect()+"\n")
	case *evaluator.Continue:
		if a, ok := stmt.(*ast.Assignment); ok {
			if val, ok := f.Env.Get(a.Name); ok {
				io.WriteString(out, a.Name+" = "+val.Inspect()+"\n")
			}
		}
		return f.Env
	}
	return env
}

func printError(out io.Writer, err error) {
	var evalErr *evaluator.Error
	if errors.As(err, &evalErr) {
		fmt.Fprintf(out, "%s: %s\n", evalErr.Kind, evalErr.Message)
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}
