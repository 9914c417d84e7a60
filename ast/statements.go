package ast

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lightc/types"
)

// Block declares Variables scoped to the block and evaluates Exprs in
// order. The block's value is that of its last expression unless T is
// Void.
type Block struct {
	Variables []*Variable
	Exprs     []Node
	T         *types.Type
}

// NewBlock returns a block typed by its last expression.
func NewBlock(vars []*Variable, exprs ...Node) *Block {
	return &Block{Variables: vars, Exprs: exprs}
}

func (x *Block) Type() *types.Type {
	if x.T != nil {
		return x.T
	}
	if len(x.Exprs) == 0 {
		return types.Void
	}
	return x.Exprs[len(x.Exprs)-1].Type()
}

func (x *Block) String() string {
	var out strings.Builder
	out.WriteString("{ ")
	if len(x.Variables) > 0 {
		var names []string
		for _, v := range x.Variables {
			names = append(names, v.Name+" "+v.T.String())
		}
		out.WriteString("var " + strings.Join(names, ", ") + "; ")
	}
	out.WriteString(joinNodes(x.Exprs, "; "))
	out.WriteString(" }")
	return out.String()
}

// Conditional evaluates Test and then one of the arms. A nil IfFalse is
// treated as the empty expression.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
	T       *types.Type
}

func (x *Conditional) Type() *types.Type {
	if x.T != nil {
		return x.T
	}
	if x.IfFalse == nil {
		return types.Void
	}
	return x.IfTrue.Type()
}

func (x *Conditional) String() string {
	if x.IfFalse == nil {
		return fmt.Sprintf("if %s { %s }", x.Test, x.IfTrue)
	}
	return fmt.Sprintf("if %s { %s } else { %s }", x.Test, x.IfTrue, x.IfFalse)
}

// LabelTarget identifies a jump destination. Identity is the pointer. A
// non-void T means jumps to the target carry a value.
type LabelTarget struct {
	Name string
	T    *types.Type
}

// NewLabelTarget returns a void label target.
func NewLabelTarget(name string) *LabelTarget {
	return &LabelTarget{Name: name, T: types.Void}
}

func (t *LabelTarget) Type() *types.Type {
	if t == nil || t.T == nil {
		return types.Void
	}
	return t.T
}

func (t *LabelTarget) String() string {
	if t.Name == "" {
		return fmt.Sprintf("label_%p", t)
	}
	return t.Name
}

// Label marks the position of Target. When control falls into the label
// the value of Default is used.
type Label struct {
	Target  *LabelTarget
	Default Node
}

func (x *Label) Type() *types.Type { return x.Target.Type() }

func (x *Label) String() string {
	if x.Default != nil {
		return fmt.Sprintf("%s: %s", x.Target, x.Default)
	}
	return x.Target.String() + ":"
}

// Loop evaluates Body repeatedly until a jump to Break leaves it.
type Loop struct {
	Body     Node
	Break    *LabelTarget
	Continue *LabelTarget
}

func (x *Loop) Type() *types.Type {
	if x.Break == nil {
		return types.Void
	}
	return x.Break.Type()
}

func (x *Loop) String() string { return fmt.Sprintf("loop { %s }", x.Body) }

// GotoKind describes the intent of a Goto. It does not change codegen.
type GotoKind uint8

const (
	GotoJump GotoKind = iota
	GotoBreak
	GotoContinue
)

func (k GotoKind) String() string {
	switch k {
	case GotoBreak:
		return "break"
	case GotoContinue:
		return "continue"
	}
	return "goto"
}

// Goto transfers control to Target, optionally carrying Value. The node
// itself never completes normally; T is the type it pretends to have.
type Goto struct {
	Kind   GotoKind
	Target *LabelTarget
	Value  Node
	T      *types.Type
}

func (x *Goto) Type() *types.Type {
	if x.T == nil {
		return types.Void
	}
	return x.T
}

func (x *Goto) String() string {
	if x.Value != nil {
		return fmt.Sprintf("%s %s(%s)", x.Kind, x.Target, x.Value)
	}
	return fmt.Sprintf("%s %s", x.Kind, x.Target)
}

// Return exits the enclosing lambda, optionally with a value.
type Return struct {
	Value Node
}

func (x *Return) Type() *types.Type { return types.Void }

func (x *Return) String() string {
	if x.Value == nil {
		return "return"
	}
	return "return " + x.Value.String()
}

// SwitchCase is one arm of a Switch.
type SwitchCase struct {
	TestValues []Node
	Body       Node
}

// Switch dispatches on the value of an integer scrutinee.
type Switch struct {
	Value   Node
	Cases   []*SwitchCase
	Default Node
	T       *types.Type
}

func (x *Switch) Type() *types.Type {
	if x.T != nil {
		return x.T
	}
	if len(x.Cases) > 0 {
		return x.Cases[0].Body.Type()
	}
	if x.Default != nil {
		return x.Default.Type()
	}
	return types.Void
}

func (x *Switch) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "switch %s {", x.Value)
	for _, c := range x.Cases {
		fmt.Fprintf(&out, " case %s: %s;", joinNodes(c.TestValues, ", "), c.Body)
	}
	if x.Default != nil {
		fmt.Fprintf(&out, " default: %s;", x.Default)
	}
	out.WriteString(" }")
	return out.String()
}

// CatchBlock handles exceptions assignable to Test. Variable, when set,
// is bound to the caught exception for the duration of Body.
type CatchBlock struct {
	Test     *types.Type
	Variable *Variable
	Body     Node
	Filter   Node
}

func (c *CatchBlock) String() string {
	if c.Variable != nil {
		return fmt.Sprintf("catch (%s %s) { %s }", c.Test, c.Variable.Name, c.Body)
	}
	return fmt.Sprintf("catch (%s) { %s }", c.Test, c.Body)
}

// Try protects Body with catch handlers and an optional finally or
// fault block. Finally and Fault are mutually exclusive.
type Try struct {
	Body     Node
	Handlers []*CatchBlock
	Finally  Node
	Fault    Node
	T        *types.Type
}

func (x *Try) Type() *types.Type {
	if x.T != nil {
		return x.T
	}
	return x.Body.Type()
}

func (x *Try) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "try { %s }", x.Body)
	for _, h := range x.Handlers {
		out.WriteString(" " + h.String())
	}
	if x.Finally != nil {
		fmt.Fprintf(&out, " finally { %s }", x.Finally)
	}
	if x.Fault != nil {
		fmt.Fprintf(&out, " fault { %s }", x.Fault)
	}
	return out.String()
}

// Throw raises Value. A nil Value rethrows the exception bound by the
// enclosing catch block.
type Throw struct {
	Value Node
	T     *types.Type
}

func (x *Throw) Type() *types.Type {
	if x.T == nil {
		return types.Void
	}
	return x.T
}

func (x *Throw) String() string {
	if x.Value == nil {
		return "rethrow"
	}
	return "throw " + x.Value.String()
}

// DebugInfo associates the instructions that follow with a source range.
// A Clear marker ends the previous association.
type DebugInfo struct {
	File        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Clear       bool
}

// ClearDebugInfo returns a marker that clears the current position.
func ClearDebugInfo(file string) *DebugInfo {
	return &DebugInfo{File: file, StartLine: 0xfeefee, EndLine: 0xfeefee, Clear: true}
}

func (x *DebugInfo) Type() *types.Type { return types.Void }

func (x *DebugInfo) String() string {
	if x.Clear {
		return fmt.Sprintf("#clear %s", x.File)
	}
	return fmt.Sprintf("#line %s:%d:%d-%d:%d", x.File, x.StartLine, x.StartColumn, x.EndLine, x.EndColumn)
}
