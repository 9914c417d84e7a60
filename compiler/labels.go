package compiler

import (
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
)

// BranchLabel is a jump target within one function. Branches emitted
// before the label is marked are queued and patched by Mark.
type BranchLabel struct {
	targetIndex       int
	stackDepth        int
	continuationDepth int
	hasValue          bool
	labelIndex        int
	fixups            []int
}

// TargetIndex returns the marked instruction index, or -1.
func (l *BranchLabel) TargetIndex() int { return l.targetIndex }

// StackDepth returns the operand stack depth at the label, or -1 when
// not yet known.
func (l *BranchLabel) StackDepth() int { return l.stackDepth }

// MakeLabel returns a new unresolved label.
func (c *Compiler) MakeLabel() *BranchLabel {
	l := &BranchLabel{targetIndex: -1, stackDepth: -1, labelIndex: -1}
	c.labels = append(c.labels, l)
	return l
}

// makeLabelAt returns a label whose depth is fixed ahead of marking.
func (c *Compiler) makeLabelAt(depth int, hasValue bool) *BranchLabel {
	l := c.MakeLabel()
	l.stackDepth = depth
	l.hasValue = hasValue
	l.continuationDepth = c.continuationDepth
	return l
}

// Mark resolves l to the current instruction index and patches every
// branch queued on it.
func (c *Compiler) Mark(l *BranchLabel) {
	if l.targetIndex != -1 {
		errors.Internalf("label marked twice (at %d)", l.targetIndex)
	}
	switch {
	case c.reachable:
		if l.stackDepth != -1 && l.stackDepth != c.depth {
			errors.Internalf("stack depth %d at label, branches expect %d", c.depth, l.stackDepth)
		}
		l.stackDepth = c.depth
	case l.stackDepth != -1:
		c.setDepth(l.stackDepth)
	default:
		l.stackDepth = c.depth
	}
	c.reachable = true
	l.continuationDepth = c.continuationDepth
	l.targetIndex = len(c.instructions)
	for _, from := range l.fixups {
		c.patchOffset(from, l.targetIndex)
	}
	l.fixups = nil
}

// AddBranch links the branch instruction at from to l. The operand stack
// depth after the branch must match the depth at the label.
func (c *Compiler) AddBranch(l *BranchLabel, from int) {
	switch {
	case l.stackDepth == -1:
		l.stackDepth = c.depth
	case l.stackDepth != c.depth:
		errors.Internalf("branch at %d leaves depth %d, label expects %d", from, c.depth, l.stackDepth)
	}
	if l.targetIndex != -1 {
		c.patchOffset(from, l.targetIndex)
		return
	}
	l.fixups = append(l.fixups, from)
}

func (c *Compiler) patchOffset(from, target int) {
	c.instructions[from].A = int32(target - from)
}

// emitBranch emits a relative branch to l.
func (c *Compiler) emitBranch(opcode op.Code, l *BranchLabel) int {
	pos := c.emit(opcode, 0)
	c.AddBranch(l, pos)
	if opcode == op.Jump {
		c.reachable = false
	}
	return pos
}

// runtimeLabel returns the index of l in the runtime label table,
// allocating one on first use.
func (c *Compiler) runtimeLabel(l *BranchLabel) int {
	if l.labelIndex == -1 {
		l.labelIndex = len(c.runtimeLabels)
		c.runtimeLabels = append(c.runtimeLabels, l)
	}
	return l.labelIndex
}

// resolveLabels freezes the runtime label table. Every label with queued
// branches or a runtime index must have been marked.
func (c *Compiler) resolveLabels() []bytecode.RuntimeLabel {
	for _, l := range c.labels {
		if len(l.fixups) > 0 {
			errors.Internalf("label referenced by %d branch(es) was never marked", len(l.fixups))
		}
	}
	result := make([]bytecode.RuntimeLabel, len(c.runtimeLabels))
	for i, l := range c.runtimeLabels {
		if l.targetIndex == -1 {
			errors.Internalf("runtime label %d was never marked", i)
		}
		result[i] = bytecode.RuntimeLabel{
			Index:             l.targetIndex,
			StackDepth:        l.stackDepth,
			ContinuationDepth: l.continuationDepth,
			HasValue:          l.hasValue,
		}
	}
	return result
}
