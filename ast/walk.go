package ast

import "iter"

// Visitor defines the interface for tree traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a tree in depth-first order, visiting children in
// evaluation order. Declarations (block variables, lambda parameters and
// catch variables) are not visited; only references are.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	walk := func(n Node) {
		if n != nil {
			Walk(v, n)
		}
	}

	switch n := node.(type) {
	// Leaves
	case *Constant, *Default, *Variable, *DebugInfo:

	case *Assign:
		walk(n.Target)
		walk(n.Value)
	case *Binary:
		walk(n.Left)
		walk(n.Right)
	case *Unary:
		walk(n.Operand)
	case *Convert:
		walk(n.Operand)
	case *TypeIs:
		walk(n.Operand)
	case *Call:
		walk(n.Receiver)
		for _, arg := range n.Args {
			walk(arg)
		}
	case *New:
		for _, arg := range n.Args {
			walk(arg)
		}
	case *Invoke:
		walk(n.Target)
		for _, arg := range n.Args {
			walk(arg)
		}
	case *Member:
		walk(n.Object)
	case *NewArray:
		for _, item := range n.Items {
			walk(item)
		}
	case *NewArrayBounds:
		walk(n.Length)
	case *Index:
		walk(n.Array)
		walk(n.Index)
	case *ArrayLength:
		walk(n.Array)
	case *Lambda:
		walk(n.Body)
	case *RuntimeVariables:
		for _, variable := range n.Variables {
			walk(variable)
		}

	// Control flow
	case *Block:
		for _, expr := range n.Exprs {
			walk(expr)
		}
	case *Conditional:
		walk(n.Test)
		walk(n.IfTrue)
		walk(n.IfFalse)
	case *Label:
		walk(n.Default)
	case *Loop:
		walk(n.Body)
	case *Goto:
		walk(n.Value)
	case *Return:
		walk(n.Value)
	case *Switch:
		walk(n.Value)
		for _, c := range n.Cases {
			for _, tv := range c.TestValues {
				walk(tv)
			}
			walk(c.Body)
		}
		walk(n.Default)
	case *Try:
		walk(n.Body)
		for _, h := range n.Handlers {
			walk(h.Filter)
			walk(h.Body)
		}
		walk(n.Finally)
		walk(n.Fault)
	case *Throw:
		walk(n.Value)
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Preorder returns an iterator over all the nodes of the tree rooted at
// root, in depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		ok := true
		Inspect(root, func(n Node) bool {
			if ok {
				ok = yield(n)
			}
			return ok
		})
	}
}
