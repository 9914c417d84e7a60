package builtins

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/types"
)

func call(t *testing.T, r *Registry, name string, args ...any) (any, error) {
	t.Helper()
	fn, ok := r.Func(name)
	require.True(t, ok, name)
	return fn.Invoke(context.Background(), nil, args)
}

func TestDefaults(t *testing.T) {
	r := New()
	require.Equal(t, []string{"concat", "fail", "itoa", "print", "sqrt", "strlen"}, r.FuncNames())
	require.Len(t, Docs(), len(r.FuncNames()))
	for _, doc := range Docs() {
		fn, ok := r.Func(doc.Name)
		require.True(t, ok, doc.Name)
		require.Len(t, doc.Args, len(fn.Params()), doc.Name)
		require.Equal(t, fn.ReturnType().Name(), doc.Returns, doc.Name)
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	r := New(WithOutput(&out))
	for _, v := range []any{"hi", int32(3), nil, object.NewException(types.Exception, "x")} {
		_, err := call(t, r, "print", v)
		require.NoError(t, err)
	}
	require.Equal(t, "hi\n3\nnil\nException: x\n", out.String())
}

func TestStringFunctions(t *testing.T) {
	r := New()
	v, err := call(t, r, "concat", "foo", "bar")
	require.NoError(t, err)
	require.Equal(t, "foobar", v)

	v, err = call(t, r, "strlen", "héllo")
	require.NoError(t, err)
	require.Equal(t, int32(6), v)

	_, err = call(t, r, "strlen", nil)
	exc, ok := object.AsException(err)
	require.True(t, ok)
	require.Equal(t, types.NullReferenceError, exc.Type())

	v, err = call(t, r, "itoa", int64(-42))
	require.NoError(t, err)
	require.Equal(t, "-42", v)
}

func TestSqrt(t *testing.T) {
	r := New()
	v, err := call(t, r, "sqrt", float64(9))
	require.NoError(t, err)
	require.Equal(t, float64(3), v)

	_, err = call(t, r, "sqrt", float64(-1))
	exc, ok := object.AsException(err)
	require.True(t, ok)
	require.Equal(t, types.ArgumentError, exc.Type())
}

func TestFail(t *testing.T) {
	_, err := call(t, New(), "fail", "boom")
	exc, ok := object.AsException(err)
	require.True(t, ok)
	require.Equal(t, types.Exception, exc.Type())
	require.Equal(t, "boom", exc.Message())
}

func TestTypes(t *testing.T) {
	r := New()
	for _, tt := range []struct {
		name string
		want *types.Type
	}{
		{"int32", types.Int32},
		{"string", types.String},
		{"DivideByZeroError", types.DivideByZeroError},
		{"RuntimeVariables", types.RuntimeVariables},
		{"float64[]", types.ArrayOf(types.Float64)},
		{"int32[][]", types.ArrayOf(types.ArrayOf(types.Int32))},
	} {
		got, ok := r.Type(tt.name)
		require.True(t, ok, tt.name)
		require.Equal(t, tt.want, got, tt.name)
	}
	for _, name := range []string{"widget", "void[]", ""} {
		_, ok := r.Type(name)
		require.False(t, ok, name)
	}
	require.Contains(t, r.TypeNames(), "StackOverflowError")
}

func TestRegister(t *testing.T) {
	r := New()
	custom := types.NewClass("ParseError", types.Exception)
	r.RegisterType(custom)
	got, ok := r.Type("ParseError")
	require.True(t, ok)
	require.Same(t, custom, got)
	require.True(t, types.Exception.AssignableFrom(got))
}
