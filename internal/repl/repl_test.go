package repl

import (
	"bytes"
	"strings"
	"testing"
)

func TestStart(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"Assignment","name":"x","value":{"type":"CInt","value":20}}`,
		`{"type":"Add","left":{"type":"Var","name":"x"},"right":{"type":"CInt","value":22}}`,
		``,
		`{"type":"Assignment","name":"y","value":{"type":"Var","name":"missing"}}`,
		`{"type":"FuncDef","function":{"name":"twice","params":[{"name":"n","kind":{"type":"TInteger"}}],"body":{"type":"Return","value":{"type":"Mul","left":{"type":"Var","name":"n"},"right":{"type":"CInt","value":2}}}}}`,
		`{"type":"FuncCall","name":"twice","arguments":[{"type":"Var","name":"x"}]}`,
		`{"type":"Return","value":{"type":"CJust","value":{"type":"CString","value":"done"}}}`,
		`{"type":"Propagate","value":{"type":"CErr","value":{"type":"CInt","value":1}}}`,
		`not json`,
	}, "\n")

	var out bytes.Buffer
	Start(strings.NewReader(input), &out, 64)

	expected := []string{
		"x = 20",
		"42",
		"LookupFailure: variable missing not found",
		"40",
		`Just("done")`,
		"ProgramTermination: program terminated with errors: 1",
		"error: failed to decode JSON",
	}
	got := out.String()
	for _, e := range expected {
		if !strings.Contains(got, PROMPT+e) {
			t.Errorf("output misses %q:\n%s", e, got)
		}
	}
	if strings.Count(got, PROMPT) != 10 {
		t.Errorf("expected 10 prompts, got %d:\n%s", strings.Count(got, PROMPT), got)
	}
}
