package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/types"
)

// Encode writes lambda as indented JSON. Callables are written by name,
// so decoding the result needs a resolver that knows them. Member and New
// nodes have no JSON form.
func Encode(lambda *ast.Lambda) ([]byte, error) {
	e := &encoder{}
	n, err := e.lambda(lambda)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(n, "", "  ")
}

type labelNames struct {
	names map[*ast.LabelTarget]string
	used  map[string]bool
	decls []labelDecl
}

type encoder struct {
	labels []*labelNames
}

func typeName(t *types.Type) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

func decl(v *ast.Variable) varDecl {
	return varDecl{Name: v.Name, Type: typeName(v.T), ByRef: v.ByRef}
}

// label returns the name used for t within the current lambda. Distinct
// targets sharing a name get a numeric suffix.
func (e *encoder) label(t *ast.LabelTarget) string {
	if t == nil {
		return ""
	}
	ln := e.labels[len(e.labels)-1]
	if name, ok := ln.names[t]; ok {
		return name
	}
	base := t.Name
	if base == "" {
		base = "label"
	}
	name := base
	for i := 2; ln.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	ln.used[name] = true
	ln.names[t] = name
	if !t.Type().IsVoid() {
		ln.decls = append(ln.decls, labelDecl{Name: name, Type: typeName(t.Type())})
	}
	return name
}

func (e *encoder) lambda(x *ast.Lambda) (*node, error) {
	e.labels = append(e.labels, &labelNames{
		names: map[*ast.LabelTarget]string{},
		used:  map[string]bool{},
	})
	defer func() { e.labels = e.labels[:len(e.labels)-1] }()

	n := &node{Node: KindLambda, Name: x.Name, Returns: typeName(x.ReturnType)}
	for _, p := range x.Params {
		n.Params = append(n.Params, decl(p))
	}
	body, err := e.node(x.Body)
	if err != nil {
		return nil, err
	}
	n.Body = body
	n.Labels = e.labels[len(e.labels)-1].decls
	return n, nil
}

func (e *encoder) nodes(xs []ast.Node) ([]*node, error) {
	var result []*node
	for _, x := range xs {
		n, err := e.node(x)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func (e *encoder) optional(x ast.Node) (*node, error) {
	if x == nil {
		return nil, nil
	}
	return e.node(x)
}

func (e *encoder) value(x ast.Node) (json.RawMessage, error) {
	if x == nil {
		return nil, nil
	}
	n, err := e.node(x)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

func (e *encoder) node(x ast.Node) (*node, error) {
	var err error
	// fill runs each child encoder in order and stops at the first error.
	fill := func(fns ...func() error) error {
		for _, fn := range fns {
			if err := fn(); err != nil {
				return err
			}
		}
		return nil
	}
	child := func(dst **node, src ast.Node) func() error {
		return func() error {
			n, err := e.node(src)
			*dst = n
			return err
		}
	}
	opt := func(dst **node, src ast.Node) func() error {
		return func() error {
			n, err := e.optional(src)
			*dst = n
			return err
		}
	}
	list := func(dst *[]*node, src []ast.Node) func() error {
		return func() error {
			ns, err := e.nodes(src)
			*dst = ns
			return err
		}
	}
	value := func(dst *json.RawMessage, src ast.Node) func() error {
		return func() error {
			raw, err := e.value(src)
			*dst = raw
			return err
		}
	}

	n := &node{}
	switch x := x.(type) {
	case *ast.Constant:
		n.Node, n.Type = KindConst, typeName(x.T)
		if x.Value != nil {
			if k := x.T.Kind(); !k.IsNumeric() && k != types.KindBool && k != types.KindString {
				return nil, fmt.Errorf("constant of type %s cannot be encoded", x.T)
			}
			n.Value, err = json.Marshal(x.Value)
		}
	case *ast.Default:
		n.Node, n.Type = KindDefault, typeName(x.Type())
	case *ast.Variable:
		n.Node, n.Name = KindVar, x.Name
	case *ast.Assign:
		n.Node = KindAssign
		err = fill(child(&n.Target, x.Target), value(&n.Value, x.Value))
	case *ast.Binary:
		n.Node, n.Op = KindBinary, x.Op.String()
		err = fill(child(&n.Left, x.Left), child(&n.Right, x.Right))
	case *ast.Unary:
		n.Node, n.Op = KindUnary, x.Op.String()
		err = fill(child(&n.Operand, x.Operand))
	case *ast.Convert:
		n.Node, n.Type, n.Checked = KindConvert, typeName(x.To), x.Checked
		err = fill(child(&n.Operand, x.Operand))
	case *ast.TypeIs:
		n.Node, n.Type = KindTypeIs, typeName(x.Target)
		err = fill(child(&n.Operand, x.Operand))
	case *ast.Call:
		n.Node, n.Func = KindCall, x.Callable.Name()
		err = fill(opt(&n.Receiver, x.Receiver), list(&n.Args, x.Args))
	case *ast.Invoke:
		n.Node, n.Type = KindInvoke, typeName(x.T)
		err = fill(child(&n.Target, x.Target), list(&n.Args, x.Args))
	case *ast.NewArray:
		n.Node, n.Elem = KindNewArray, typeName(x.Elem)
		err = fill(list(&n.Items, x.Items))
	case *ast.NewArrayBounds:
		n.Node, n.Elem = KindNewArrayBounds, typeName(x.Elem)
		err = fill(child(&n.Length, x.Length))
	case *ast.Index:
		n.Node = KindIndex
		err = fill(child(&n.Array, x.Array), child(&n.Index, x.Index))
	case *ast.ArrayLength:
		n.Node = KindLen
		err = fill(child(&n.Array, x.Array))
	case *ast.Lambda:
		return e.lambda(x)
	case *ast.RuntimeVariables:
		n.Node = KindRuntimeVars
		for _, v := range x.Variables {
			n.Names = append(n.Names, v.Name)
		}
	case *ast.Block:
		n.Node, n.Type = KindBlock, typeName(x.T)
		for _, v := range x.Variables {
			n.Vars = append(n.Vars, decl(v))
		}
		err = fill(list(&n.Exprs, x.Exprs))
	case *ast.Conditional:
		n.Node, n.Type = KindCond, typeName(x.T)
		err = fill(child(&n.Test, x.Test), child(&n.Then, x.IfTrue), opt(&n.Else, x.IfFalse))
	case *ast.Label:
		n.Node, n.Label = KindLabel, e.label(x.Target)
		err = fill(opt(&n.Default, x.Default))
	case *ast.Loop:
		n.Node, n.Break, n.Continue = KindLoop, e.label(x.Break), e.label(x.Continue)
		err = fill(child(&n.Body, x.Body))
	case *ast.Goto:
		n.Node, n.Kind, n.Label, n.Type = KindGoto, x.Kind.String(), e.label(x.Target), typeName(x.T)
		err = fill(value(&n.Value, x.Value))
	case *ast.Return:
		n.Node = KindReturn
		err = fill(value(&n.Value, x.Value))
	case *ast.Switch:
		n.Node, n.Type = KindSwitch, typeName(x.T)
		err = fill(value(&n.Value, x.Value), opt(&n.Default, x.Default))
		for _, c := range x.Cases {
			if err != nil {
				break
			}
			var sc switchCase
			err = fill(list(&sc.Values, c.TestValues), child(&sc.Body, c.Body))
			n.Cases = append(n.Cases, sc)
		}
	case *ast.Try:
		n.Node, n.Type = KindTry, typeName(x.T)
		err = fill(child(&n.Body, x.Body), opt(&n.Finally, x.Finally), opt(&n.Fault, x.Fault))
		for _, h := range x.Handlers {
			if err != nil {
				break
			}
			cb := catchBlock{Type: typeName(h.Test)}
			if h.Variable != nil {
				d := decl(h.Variable)
				cb.Var = &d
			}
			err = fill(child(&cb.Body, h.Body), opt(&cb.Filter, h.Filter))
			n.Catches = append(n.Catches, cb)
		}
	case *ast.Throw:
		n.Node, n.Type = KindThrow, typeName(x.T)
		err = fill(value(&n.Value, x.Value))
	case *ast.DebugInfo:
		n.Node, n.File = KindDebug, x.File
		if x.Clear {
			n.Clear = true
		} else {
			n.Start = &[2]int{x.StartLine, x.StartColumn}
			n.End = &[2]int{x.EndLine, x.EndColumn}
		}
	default:
		return nil, fmt.Errorf("%T nodes cannot be encoded", x)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}
