package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
)

// captureAnalysis is computed over the whole tree before any code is
// emitted. A variable is hoisted when a lambda other than the one that
// declares it refers to it, or when a RuntimeVariables node names it.
// Hoisted variables live in cells from the moment they are defined.
type captureAnalysis struct {
	hoisted    map[*ast.Variable]bool
	undeclared []*ast.Variable
	declared   []string
}

func (a *captureAnalysis) isHoisted(v *ast.Variable) bool {
	return a.hoisted[v]
}

type declarations struct {
	lambda *ast.Lambda
	vars   []*ast.Variable
	parent *declarations
}

func (d *declarations) owner(v *ast.Variable) (*ast.Lambda, bool) {
	for s := d; s != nil; s = s.parent {
		for _, declared := range s.vars {
			if declared == v {
				return s.lambda, true
			}
		}
	}
	return nil, false
}

type captureVisitor struct {
	analysis *captureAnalysis
	lambda   *ast.Lambda
	scope    *declarations
}

func (v *captureVisitor) declare(lambda *ast.Lambda, vars []*ast.Variable) *captureVisitor {
	for _, variable := range vars {
		v.analysis.declared = append(v.analysis.declared, variable.Name)
	}
	return &captureVisitor{
		analysis: v.analysis,
		lambda:   lambda,
		scope:    &declarations{lambda: lambda, vars: vars, parent: v.scope},
	}
}

func (v *captureVisitor) reference(variable *ast.Variable, forceBox bool) {
	owner, ok := v.scope.owner(variable)
	if !ok {
		v.analysis.undeclared = append(v.analysis.undeclared, variable)
		return
	}
	if forceBox || owner != v.lambda {
		v.analysis.hoisted[variable] = true
	}
}

func (v *captureVisitor) Visit(node ast.Node) ast.Visitor {
	switch node := node.(type) {
	case nil:
		return nil
	case *ast.Lambda:
		return v.declare(node, node.Params)
	case *ast.Block:
		return v.declare(v.lambda, node.Variables)
	case *ast.Variable:
		v.reference(node, false)
	case *ast.RuntimeVariables:
		for _, variable := range node.Variables {
			v.reference(variable, true)
		}
		return nil
	case *ast.Try:
		// Catch variables are only visible inside their handler.
		ast.Walk(v, node.Body)
		for _, h := range node.Handlers {
			hv := v
			if h.Variable != nil {
				hv = v.declare(v.lambda, []*ast.Variable{h.Variable})
			}
			if h.Filter != nil {
				ast.Walk(hv, h.Filter)
			}
			ast.Walk(hv, h.Body)
		}
		if node.Finally != nil {
			ast.Walk(v, node.Finally)
		}
		if node.Fault != nil {
			ast.Walk(v, node.Fault)
		}
		return nil
	}
	return v
}

func analyzeCaptures(root *ast.Lambda) (*captureAnalysis, error) {
	analysis := &captureAnalysis{hoisted: map[*ast.Variable]bool{}}
	ast.Walk(&captureVisitor{analysis: analysis}, root)
	if len(analysis.undeclared) > 0 {
		v := analysis.undeclared[0]
		err := errors.CompileErrorf(errors.E1005, "variable %q is referenced outside the scope that declares it", v.Name)
		err.Function = root.Name
		err.Suggestions = errors.SuggestSimilar(v.Name, analysis.declared)
		return nil, err
	}
	return analysis, nil
}

// resolveVariable resolves v in this function, promoting it into the
// closure when an enclosing function declares it.
func (c *Compiler) resolveVariable(v *ast.Variable) Resolution {
	if r, ok := c.locals.TryGetLocalOrClosure(v); ok {
		return r
	}
	if c.parent == nil || !c.parent.provideCell(v) {
		errors.Internalf("variable %q not found in any enclosing function", v.Name)
	}
	return Resolution{Scope: Closure, Index: c.locals.AddClosureVariable(v)}
}

// provideCell reports whether this function can hand a cell for v to a
// nested function, inheriting it from its own parent when necessary.
func (c *Compiler) provideCell(v *ast.Variable) bool {
	if local, ok := c.locals.Local(v); ok {
		if !local.Boxed {
			errors.Internalf("captured variable %q is not boxed", v.Name)
		}
		return true
	}
	if _, ok := c.locals.TryGetLocalOrClosure(v); ok {
		return true
	}
	if c.parent != nil && c.parent.provideCell(v) {
		c.locals.AddClosureVariable(v)
		return true
	}
	return false
}

// compileLambda compiles node with a child compiler and emits the code
// that builds the closure: one cell per captured variable, then
// CreateClosure.
func (c *Compiler) compileLambda(node *ast.Lambda) error {
	child := newCompiler(c.comp, c, node)
	fn, err := child.compileFunction()
	if err != nil {
		return err
	}
	cells := child.locals.ClosureVariables()
	for _, v := range cells {
		r, ok := c.locals.TryGetLocalOrClosure(v)
		if !ok {
			errors.Internalf("cell for %q missing in %s", v.Name, c.displayName())
		}
		switch r.Scope {
		case Boxed:
			c.emit(op.LoadCell, int32(r.Index))
		case Closure:
			c.emit(op.LoadClosureCell, int32(r.Index))
		default:
			errors.Internalf("captured variable %q is not boxed", v.Name)
		}
	}
	index, err := c.constant(fn)
	if err != nil {
		return err
	}
	c.emitWithEffect(op.CreateClosure, len(cells), 1, index, int32(len(cells)))
	return nil
}

// compileRuntimeVariables builds a merged view: the function's own boxed
// locals are pushed as the first cell array, inherited cells form the
// second and are addressed with negative indexes.
func (c *Compiler) compileRuntimeVariables(node *ast.RuntimeVariables) error {
	var own []int
	ownIndex := map[int]int{}
	indexes := make([]int, len(node.Variables))
	for i, v := range node.Variables {
		r := c.resolveVariable(v)
		switch r.Scope {
		case Boxed:
			idx, ok := ownIndex[r.Index]
			if !ok {
				idx = len(own)
				ownIndex[r.Index] = idx
				own = append(own, r.Index)
			}
			indexes[i] = idx
		case Closure:
			indexes[i] = -1 - r.Index
		default:
			errors.Internalf("runtime variable %q is not boxed", v.Name)
		}
	}
	for _, slot := range own {
		c.emit(op.LoadCell, int32(slot))
	}
	index, err := c.constant(bytecode.NewCellMap(indexes))
	if err != nil {
		return err
	}
	c.emitWithEffect(op.MakeRuntimeVariables, len(own), 1, index, int32(len(own)))
	return nil
}
