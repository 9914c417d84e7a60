package builtins

// FuncSpec documents one builtin function.
type FuncSpec struct {
	Name    string   `json:"name"`
	Doc     string   `json:"doc"`
	Args    []string `json:"args"`
	Returns string   `json:"returns"`
	Example string   `json:"example,omitempty"`
}

// Docs returns documentation for all builtin functions.
func Docs() []FuncSpec {
	return builtinDocs
}

var builtinDocs = []FuncSpec{
	{
		Name:    "concat",
		Doc:     "Concatenate two strings",
		Args:    []string{"a string", "b string"},
		Returns: "string",
		Example: `{"node": "call", "func": "concat", "args": [{"node": "const", "type": "string", "value": "a"}, {"node": "const", "type": "string", "value": "b"}]}`,
	},
	{
		Name:    "fail",
		Doc:     "Raise an Exception with the given message",
		Args:    []string{"message string"},
		Returns: "void",
		Example: `{"node": "call", "func": "fail", "args": [{"node": "const", "type": "string", "value": "boom"}]}`,
	},
	{
		Name:    "itoa",
		Doc:     "Format an int64 in base 10",
		Args:    []string{"n int64"},
		Returns: "string",
		Example: `{"node": "call", "func": "itoa", "args": [{"node": "const", "type": "int64", "value": 42}]}`,
	},
	{
		Name:    "print",
		Doc:     "Write a value followed by a newline to the output",
		Args:    []string{"value object"},
		Returns: "void",
		Example: `{"node": "call", "func": "print", "args": [{"node": "const", "type": "string", "value": "hi"}]}`,
	},
	{
		Name:    "sqrt",
		Doc:     "Square root; raises ArgumentError for negative input",
		Args:    []string{"x float64"},
		Returns: "float64",
		Example: `{"node": "call", "func": "sqrt", "args": [{"node": "const", "type": "float64", "value": 2}]}`,
	},
	{
		Name:    "strlen",
		Doc:     "Length of a string in bytes",
		Args:    []string{"s string"},
		Returns: "int32",
		Example: `{"node": "call", "func": "strlen", "args": [{"node": "const", "type": "string", "value": "abc"}]}`,
	},
}
