package astjson

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/builtins"
	"github.com/deepnoodle-ai/lightc/compiler"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/types"
	"github.com/deepnoodle-ai/lightc/vm"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func decodeAndRun(t *testing.T, data []byte, reg *builtins.Registry, args ...any) (any, error) {
	t.Helper()
	lambda, err := Decode(data, reg)
	require.NoError(t, err)
	fn, err := compiler.Compile(lambda)
	require.NoError(t, err)
	return vm.New().Call(context.Background(), fn, args...)
}

func TestDecodeFactorial(t *testing.T) {
	result, err := decodeAndRun(t, fixture(t, "factorial.json"), builtins.New(), int64(10))
	require.NoError(t, err)
	require.Equal(t, int64(3628800), result)
}

func TestDecodeClosure(t *testing.T) {
	result, err := decodeAndRun(t, fixture(t, "counter.json"), builtins.New())
	require.NoError(t, err)
	require.Equal(t, int32(3), result)
}

func TestDecodeExceptions(t *testing.T) {
	var out bytes.Buffer
	_, err := decodeAndRun(t, fixture(t, "exceptions.json"), builtins.New(builtins.WithOutput(&out)))
	require.Equal(t, "Exception: boom\ncleanup\nsqrt=4\n", out.String())

	var rerr *errors.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, errors.E3009, rerr.Code)
	require.Equal(t, "exceptions.lc", rerr.Location.Filename)
	require.Equal(t, 3, rerr.Location.Line)
}

func TestRoundTrip(t *testing.T) {
	reg := builtins.New()
	for _, name := range []string{"factorial.json", "counter.json", "exceptions.json"} {
		t.Run(name, func(t *testing.T) {
			first, err := Decode(fixture(t, name), reg)
			require.NoError(t, err)
			encoded, err := Encode(first)
			require.NoError(t, err)
			second, err := Decode(encoded, reg)
			require.NoError(t, err, string(encoded))

			a, err := compiler.Compile(first)
			require.NoError(t, err)
			b, err := compiler.Compile(second)
			require.NoError(t, err)
			require.Equal(t, a.Code().InstructionCount(), b.Code().InstructionCount())
			for i := 0; i < a.Code().InstructionCount(); i++ {
				require.Equal(t, a.Code().InstructionAt(i), b.Code().InstructionAt(i), "instruction %d", i)
			}
		})
	}
}

func TestEncodeLabelsAndTry(t *testing.T) {
	x := ast.NewVariable("x", types.Int32)
	e := ast.NewVariable("e", types.Exception)
	end := &ast.LabelTarget{Name: "end", T: types.Int32}
	lambda := &ast.Lambda{
		Name:   "f",
		Params: []*ast.Variable{x},
		Body: ast.NewBlock(nil,
			&ast.Try{
				Body: &ast.Goto{Target: end, Value: x},
				Handlers: []*ast.CatchBlock{{
					Test:     types.Exception,
					Variable: e,
					Body:     &ast.Throw{},
				}},
				Fault: ast.Empty(),
			},
			&ast.Label{Target: end, Default: ast.NewConstant(int32(0))},
		),
	}
	data, err := Encode(lambda)
	require.NoError(t, err)
	require.Contains(t, string(data), `"labels": [`)

	decoded, err := Decode(data, builtins.New())
	require.NoError(t, err)
	block := decoded.Body.(*ast.Block)
	try := block.Exprs[0].(*ast.Try)
	label := block.Exprs[1].(*ast.Label)
	require.Same(t, try.Body.(*ast.Goto).Target, label.Target)
	require.Equal(t, types.Int32, label.Target.Type())
	require.Same(t, decoded.Params[0], try.Body.(*ast.Goto).Value)
	require.Equal(t, "e", try.Handlers[0].Variable.Name)
	require.NotNil(t, try.Fault)
}

func TestEncodeRejectsHostConstants(t *testing.T) {
	lambda := &ast.Lambda{Body: ast.NewTypedConstant(struct{}{}, types.Object)}
	_, err := Encode(lambda)
	require.ErrorContains(t, err, "cannot be encoded")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
		path  string
		hint  string
	}{
		{
			name:  "unknown function",
			input: `{"node": "lambda", "body": {"node": "call", "func": "prnt", "args": []}}`,
			code:  errors.E1003,
			path:  "body.func",
			hint:  "'print'",
		},
		{
			name:  "unknown node kind",
			input: `{"node": "lambda", "body": {"node": "bianry"}}`,
			code:  errors.E1002,
			path:  "body.node",
			hint:  "'binary'",
		},
		{
			name:  "unknown type",
			input: `{"node": "lambda", "body": {"node": "default", "type": "int23"}}`,
			code:  errors.E1004,
			path:  "body.type",
			hint:  "int32",
		},
		{
			name: "undeclared variable",
			input: `{"node": "lambda", "params": [{"name": "count", "type": "int32"}],
				"body": {"node": "var", "name": "cout"}}`,
			code: errors.E1005,
			path: "body",
			hint: "'count'",
		},
		{
			name: "undefined label",
			input: `{"node": "lambda", "body": {"node": "loop", "break": "done",
				"body": {"node": "goto", "kind": "break", "label": "don"}}}`,
			code: errors.E1006,
			path: "body.body.label",
			hint: "'done'",
		},
		{
			name:  "literal overflow",
			input: `{"node": "lambda", "body": {"node": "const", "type": "int8", "value": 300}}`,
			code:  errors.E1001,
			path:  "body.value",
		},
		{
			name:  "missing value",
			input: `{"node": "lambda", "body": {"node": "const", "type": "int32"}}`,
			code:  errors.E1001,
			path:  "body.value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), builtins.New())
			require.Error(t, err)
			errs := DecodeErrors(err)
			require.Len(t, errs, 1, err.Error())
			require.Equal(t, tt.code, errs[0].Code)
			require.Equal(t, tt.path, errs[0].Path)
			if tt.hint != "" {
				require.Contains(t, err.Error(), tt.hint)
			}
		})
	}
}

func TestDecodeAggregatesErrors(t *testing.T) {
	input := `{"node": "lambda", "body": {"node": "block", "exprs": [
		{"node": "call", "func": "nope"},
		{"node": "var", "name": "missing"},
		{"node": "default", "type": "widget"}
	]}}`
	_, err := Decode([]byte(input), builtins.New())
	require.Error(t, err)
	errs := DecodeErrors(err)
	require.Len(t, errs, 3)
	require.Equal(t, "body.exprs[0].func", errs[0].Path)
	require.Equal(t, "body.exprs[1]", errs[1].Path)
	require.Equal(t, "body.exprs[2].type", errs[2].Path)
	require.Contains(t, err.Error(), "3 decode errors")
}

func TestDecodeMalformed(t *testing.T) {
	for _, input := range []string{
		`{"node": "lambda", "body": `,
		`{"node": "lambda", "bogus": 1, "body": {"node": "default", "type": "void"}}`,
		`{"node": "block"}`,
	} {
		_, err := Decode([]byte(input), builtins.New())
		errs := DecodeErrors(err)
		require.Len(t, errs, 1, input)
		require.Equal(t, errors.E1001, errs[0].Code, input)
	}
}

func TestDecodeErrorFormatting(t *testing.T) {
	_, err := Decode([]byte(`{"node": "lambda", "body": {"node": "call", "func": "prnt"}}`), builtins.New())
	errs := DecodeErrors(err)
	require.Len(t, errs, 1)
	msg := errs[0].FriendlyErrorMessage()
	require.Contains(t, msg, "E1003")
	require.Contains(t, msg, "unknown function")
	require.Contains(t, msg, "print")
}
