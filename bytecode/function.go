package bytecode

import (
	"bytes"
	"fmt"
	"strings"
)

// Function represents a compiled function template.
// It is immutable after creation and contains all the static information
// needed to create closures at runtime.
type Function struct {
	id   int
	name string
	code *Code
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	// ID is the ordinal assigned by the compilation context. IDs are
	// unique within one compilation and deterministic across runs.
	ID   int
	Name string
	Code *Code
}

// NewFunction creates a new immutable Function from the given parameters.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		id:   params.ID,
		name: params.Name,
		code: params.Code,
	}
}

// ID returns the ordinal of this function within its compilation.
func (f *Function) ID() int {
	return f.id
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.name
}

// Code returns the compiled body of the function.
func (f *Function) Code() *Code {
	return f.code
}

// ParameterCount returns the number of parameters.
func (f *Function) ParameterCount() int {
	if f.code == nil {
		return 0
	}
	return f.code.ParamCount()
}

// LocalCount returns the number of local variables in the function body.
func (f *Function) LocalCount() int {
	if f.code == nil {
		return 0
	}
	return f.code.LocalCount()
}

// String returns a string representation of the function signature.
func (f *Function) String() string {
	var out bytes.Buffer
	var parameters []string
	if f.code != nil {
		for i := 0; i < f.code.ParamCount(); i++ {
			p := f.code.ParamAt(i)
			parameters = append(parameters, fmt.Sprintf("%s %s", p.Name, p.Type))
		}
	}
	out.WriteString("func")
	if f.name != "" {
		out.WriteString(" " + f.name)
	}
	out.WriteString("(")
	out.WriteString(strings.Join(parameters, ", "))
	out.WriteString(")")
	if f.code != nil && !f.code.ReturnsVoid() {
		out.WriteString(" " + f.code.ReturnType().String())
	}
	return out.String()
}
