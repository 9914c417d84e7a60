package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
)

// LabelScopeKind identifies the construct that opened a label scope.
type LabelScopeKind uint8

const (
	LambdaScope LabelScopeKind = iota
	BlockScope
	SwitchScope
	TryScope
	CatchScope
	FinallyScope
	FaultScope
	LoopScope
	StatementScope
	ExpressionScope
)

func (k LabelScopeKind) String() string {
	switch k {
	case LambdaScope:
		return "lambda"
	case BlockScope:
		return "block"
	case SwitchScope:
		return "switch"
	case TryScope:
		return "try"
	case CatchScope:
		return "catch"
	case FinallyScope:
		return "finally"
	case FaultScope:
		return "fault"
	case LoopScope:
		return "loop"
	case StatementScope:
		return "statement"
	}
	return "expression"
}

// LabelInfo binds a label target to its branch label within a scope.
type LabelInfo struct {
	Target *ast.LabelTarget
	Label  *BranchLabel
	Scope  *LabelScope

	// The Label node that defines the target, once known.
	node *ast.Label
}

// LabelScope is one level of the label scope chain.
type LabelScope struct {
	Kind   LabelScopeKind
	Node   ast.Node
	parent *LabelScope
	labels map[*ast.LabelTarget]*LabelInfo
}

// Parent returns the enclosing scope.
func (s *LabelScope) Parent() *LabelScope { return s.parent }

func (c *Compiler) pushScope(kind LabelScopeKind, node ast.Node) *LabelScope {
	s := &LabelScope{Kind: kind, Node: node, parent: c.scope}
	c.scope = s
	return s
}

func (c *Compiler) popScope(s *LabelScope) {
	if c.scope != s {
		errors.Internalf("label scope %s popped out of order", s.Kind)
	}
	c.scope = s.parent
}

// defineLabel registers target in scope s. The label depth is the
// current depth plus one when the target carries a value.
func (c *Compiler) defineLabel(s *LabelScope, target *ast.LabelTarget, node *ast.Label) (*LabelInfo, error) {
	if info, ok := s.labels[target]; ok {
		if node != nil && info.node != nil && info.node != node {
			return nil, c.compileErrorf(errors.E2013, "label %s is defined more than once", target)
		}
		return info, nil
	}
	hasValue := !target.Type().IsVoid()
	depth := c.depth
	if hasValue {
		depth++
	}
	info := &LabelInfo{
		Target: target,
		Label:  c.makeLabelAt(depth, hasValue),
		Scope:  s,
		node:   node,
	}
	if s.labels == nil {
		s.labels = map[*ast.LabelTarget]*LabelInfo{}
	}
	s.labels[target] = info
	return info, nil
}

// registerStatementLabels pre-registers the labels that appear as direct
// statements, so forward jumps to them resolve.
func (c *Compiler) registerStatementLabels(s *LabelScope, nodes []ast.Node) error {
	for _, node := range nodes {
		if label, ok := node.(*ast.Label); ok {
			if _, err := c.defineLabel(s, label.Target, label); err != nil {
				return err
			}
		}
	}
	return nil
}

// lookupLabel searches the scope chain of the current lambda for target.
// leave reports whether the jump crosses a try or catch scope. Jumping out
// of a finally or fault body is an error.
func (c *Compiler) lookupLabel(target *ast.LabelTarget) (info *LabelInfo, leave bool, err error) {
	for s := c.scope; s != nil; s = s.parent {
		if found, ok := s.labels[target]; ok {
			return found, leave, nil
		}
		switch s.Kind {
		case TryScope, CatchScope:
			leave = true
		case FinallyScope, FaultScope:
			return nil, false, c.compileErrorf(errors.E2012, "cannot jump to %s out of a %s block", target, s.Kind)
		case LambdaScope:
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// insideFinally reports whether the current position is inside a finally
// or fault body of this lambda.
func (c *Compiler) insideFinally() (LabelScopeKind, bool) {
	for s := c.scope; s != nil && s.Kind != LambdaScope; s = s.parent {
		if s.Kind == FinallyScope || s.Kind == FaultScope {
			return s.Kind, true
		}
	}
	return 0, false
}
