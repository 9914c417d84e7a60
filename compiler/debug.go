package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
)

// compileDebugInfo records the source position of the instructions that
// follow. It emits no code. A marker at the same index as the previous
// one replaces it.
func (c *Compiler) compileDebugInfo(node *ast.DebugInfo) {
	info := bytecode.DebugInfo{
		Index:       len(c.instructions),
		StartLine:   node.StartLine,
		StartColumn: node.StartColumn,
		EndLine:     node.EndLine,
		EndColumn:   node.EndColumn,
		FileName:    node.File,
		IsClear:     node.Clear,
	}
	if n := len(c.debugInfos); n > 0 && c.debugInfos[n-1].Index == info.Index {
		c.debugInfos[n-1] = info
	} else {
		c.debugInfos = append(c.debugInfos, info)
	}
	if node.Clear {
		c.location = errors.SourceLocation{}
		return
	}
	c.location = errors.SourceLocation{
		Filename:  node.File,
		Line:      node.StartLine,
		Column:    node.StartColumn,
		EndLine:   node.EndLine,
		EndColumn: node.EndColumn,
	}
}
