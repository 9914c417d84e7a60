// Package astjson reads and writes expression trees as JSON.
//
// Every node is an object with a "node" field naming its kind. Variables
// are declared by lambda params, block vars and catch vars, and referenced
// by name with {"node": "var", "name": ...}. Labels are referenced by name
// and scoped to the enclosing lambda; labels that carry a value are
// declared in the lambda's "labels" list with their type.
package astjson

import "encoding/json"

// Node kinds.
const (
	KindConst          = "const"
	KindDefault        = "default"
	KindVar            = "var"
	KindAssign         = "assign"
	KindBinary         = "binary"
	KindUnary          = "unary"
	KindConvert        = "convert"
	KindTypeIs         = "type_is"
	KindCall           = "call"
	KindInvoke         = "invoke"
	KindNewArray       = "new_array"
	KindNewArrayBounds = "new_array_bounds"
	KindIndex          = "index"
	KindLen            = "len"
	KindLambda         = "lambda"
	KindRuntimeVars    = "runtime_vars"
	KindBlock          = "block"
	KindCond           = "cond"
	KindLabel          = "label"
	KindLoop           = "loop"
	KindGoto           = "goto"
	KindReturn         = "return"
	KindSwitch         = "switch"
	KindTry            = "try"
	KindThrow          = "throw"
	KindDebug          = "debug"
)

var nodeKinds = []string{
	KindConst, KindDefault, KindVar, KindAssign, KindBinary, KindUnary,
	KindConvert, KindTypeIs, KindCall, KindInvoke, KindNewArray,
	KindNewArrayBounds, KindIndex, KindLen, KindLambda, KindRuntimeVars,
	KindBlock, KindCond, KindLabel, KindLoop, KindGoto, KindReturn,
	KindSwitch, KindTry, KindThrow, KindDebug,
}

// node is the wire form of every tree node. Value holds a literal for
// const nodes and a child node everywhere else.
type node struct {
	Node    string          `json:"node"`
	Name    string          `json:"name,omitempty"`
	Type    string          `json:"type,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Op      string          `json:"op,omitempty"`
	Checked bool            `json:"checked,omitempty"`
	Func    string          `json:"func,omitempty"`
	Elem    string          `json:"elem,omitempty"`
	Returns string          `json:"returns,omitempty"`

	Left     *node `json:"left,omitempty"`
	Right    *node `json:"right,omitempty"`
	Operand  *node `json:"operand,omitempty"`
	Target   *node `json:"target,omitempty"`
	Receiver *node `json:"receiver,omitempty"`
	Array    *node `json:"array,omitempty"`
	Index    *node `json:"index,omitempty"`
	Length   *node `json:"length,omitempty"`
	Test     *node `json:"test,omitempty"`
	Then     *node `json:"then,omitempty"`
	Else     *node `json:"else,omitempty"`
	Body     *node `json:"body,omitempty"`
	Default  *node `json:"default,omitempty"`
	Finally  *node `json:"finally,omitempty"`
	Fault    *node `json:"fault,omitempty"`

	Args  []*node `json:"args,omitempty"`
	Items []*node `json:"items,omitempty"`
	Exprs []*node `json:"exprs,omitempty"`

	Params []varDecl   `json:"params,omitempty"`
	Vars   []varDecl   `json:"vars,omitempty"`
	Names  []string    `json:"names,omitempty"`
	Labels []labelDecl `json:"labels,omitempty"`

	Label    string `json:"label,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Break    string `json:"break,omitempty"`
	Continue string `json:"continue,omitempty"`

	Cases   []switchCase `json:"cases,omitempty"`
	Catches []catchBlock `json:"catches,omitempty"`

	File  string  `json:"file,omitempty"`
	Start *[2]int `json:"start,omitempty"`
	End   *[2]int `json:"end,omitempty"`
	Clear bool    `json:"clear,omitempty"`
}

type varDecl struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	ByRef bool   `json:"byref,omitempty"`
}

type labelDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type switchCase struct {
	Values []*node `json:"values"`
	Body   *node   `json:"body"`
}

type catchBlock struct {
	Type   string   `json:"type"`
	Var    *varDecl `json:"var,omitempty"`
	Body   *node    `json:"body"`
	Filter *node    `json:"filter,omitempty"`
}
