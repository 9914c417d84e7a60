package astjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/types"
)

// Resolver resolves the callable and type names a tree refers to.
// *builtins.Registry implements it.
type Resolver interface {
	Func(name string) (ast.Callable, bool)
	Type(name string) (*types.Type, bool)
	FuncNames() []string
	TypeNames() []string
}

var primitiveNames = []string{
	"void", "bool", "int8", "int16", "int32", "int64", "uint8", "uint16",
	"uint32", "uint64", "float32", "float64", "string", "object", "func",
}

var binaryOps = map[string]ast.BinaryOp{}

var unaryOps = map[string]ast.UnaryOp{}

var gotoKinds = map[string]ast.GotoKind{
	"":         ast.GotoJump,
	"goto":     ast.GotoJump,
	"break":    ast.GotoBreak,
	"continue": ast.GotoContinue,
}

func init() {
	for op := ast.Add; op <= ast.OrElse; op++ {
		binaryOps[op.String()] = op
	}
	for op := ast.Negate; op <= ast.OnesComplement; op++ {
		unaryOps[op.String()] = op
	}
}

// Decode parses a JSON tree whose root is a lambda. Names are resolved
// against r. All problems found are returned together; the result is nil
// whenever the error is non-nil.
func Decode(data []byte, r Resolver) (*ast.Lambda, error) {
	root, err := parseNode(data)
	if err != nil {
		return nil, &DecodeError{Code: errors.E1001, Message: err.Error()}
	}
	d := &decoder{resolver: r}
	if root.Node != KindLambda {
		return nil, &DecodeError{
			Code:    errors.E1001,
			Message: fmt.Sprintf("root node must be a %s, got %q", KindLambda, root.Node),
		}
	}
	lambda := d.lambda(root, "")
	if d.errs != nil {
		d.errs.ErrorFormat = formatErrors
		return nil, d.errs
	}
	return lambda, nil
}

func parseNode(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var n node
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

type labelScope struct {
	targets  map[string]*ast.LabelTarget
	declared map[string]*types.Type
	defined  map[string]bool
	refs     map[string]string
}

type decoder struct {
	resolver Resolver
	errs     *multierror.Error
	scopes   []map[string]*ast.Variable
	labels   []*labelScope
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func at(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func (d *decoder) fail(code errors.ErrorCode, path string, format string, args ...any) {
	d.errs = multierror.Append(d.errs, &DecodeError{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *decoder) failSuggest(code errors.ErrorCode, path, name string, candidates []string, format string, args ...any) {
	d.errs = multierror.Append(d.errs, &DecodeError{
		Code:        code,
		Path:        path,
		Message:     fmt.Sprintf(format, args...),
		Suggestions: errors.SuggestSimilar(name, candidates),
	})
}

func (d *decoder) node(n *node, path string) ast.Node {
	if n == nil {
		d.fail(errors.E1001, path, "missing node")
		return ast.Empty()
	}
	switch n.Node {
	case KindConst:
		return d.constant(n, path)
	case KindDefault:
		return &ast.Default{T: d.typ(n.Type, join(path, "type"))}
	case KindVar:
		return d.variable(n.Name, path)
	case KindAssign:
		return &ast.Assign{
			Target: d.node(n.Target, join(path, "target")),
			Value:  d.value(n.Value, join(path, "value")),
		}
	case KindBinary:
		op, ok := binaryOps[n.Op]
		if !ok {
			d.fail(errors.E1001, join(path, "op"), "unknown binary operator %q", n.Op)
		}
		return &ast.Binary{
			Op:    op,
			Left:  d.node(n.Left, join(path, "left")),
			Right: d.node(n.Right, join(path, "right")),
		}
	case KindUnary:
		op, ok := unaryOps[n.Op]
		if !ok {
			d.fail(errors.E1001, join(path, "op"), "unknown unary operator %q", n.Op)
		}
		return &ast.Unary{Op: op, Operand: d.node(n.Operand, join(path, "operand"))}
	case KindConvert:
		return &ast.Convert{
			Operand: d.node(n.Operand, join(path, "operand")),
			To:      d.typ(n.Type, join(path, "type")),
			Checked: n.Checked,
		}
	case KindTypeIs:
		return &ast.TypeIs{
			Operand: d.node(n.Operand, join(path, "operand")),
			Target:  d.typ(n.Type, join(path, "type")),
		}
	case KindCall:
		return d.call(n, path)
	case KindInvoke:
		return &ast.Invoke{
			Target: d.node(n.Target, join(path, "target")),
			Args:   d.nodes(n.Args, join(path, "args")),
			T:      d.optionalType(n.Type, join(path, "type")),
		}
	case KindNewArray:
		return &ast.NewArray{
			Elem:  d.typ(n.Elem, join(path, "elem")),
			Items: d.nodes(n.Items, join(path, "items")),
		}
	case KindNewArrayBounds:
		return &ast.NewArrayBounds{
			Elem:   d.typ(n.Elem, join(path, "elem")),
			Length: d.node(n.Length, join(path, "length")),
		}
	case KindIndex:
		return &ast.Index{
			Array: d.node(n.Array, join(path, "array")),
			Index: d.node(n.Index, join(path, "index")),
		}
	case KindLen:
		return &ast.ArrayLength{Array: d.node(n.Array, join(path, "array"))}
	case KindLambda:
		return d.lambda(n, path)
	case KindRuntimeVars:
		vars := make([]*ast.Variable, len(n.Names))
		for i, name := range n.Names {
			vars[i] = d.variable(name, at(join(path, "names"), i))
		}
		return &ast.RuntimeVariables{Variables: vars}
	case KindBlock:
		return d.block(n, path)
	case KindCond:
		return &ast.Conditional{
			Test:    d.node(n.Test, join(path, "test")),
			IfTrue:  d.node(n.Then, join(path, "then")),
			IfFalse: d.optional(n.Else, join(path, "else")),
			T:       d.optionalType(n.Type, join(path, "type")),
		}
	case KindLabel:
		return &ast.Label{
			Target:  d.defineLabel(n.Label, join(path, "label")),
			Default: d.optional(n.Default, join(path, "default")),
		}
	case KindLoop:
		return &ast.Loop{
			Body:     d.node(n.Body, join(path, "body")),
			Break:    d.defineLabel(n.Break, join(path, "break")),
			Continue: d.defineLabel(n.Continue, join(path, "continue")),
		}
	case KindGoto:
		kind, ok := gotoKinds[n.Kind]
		if !ok {
			d.fail(errors.E1001, join(path, "kind"), "unknown goto kind %q", n.Kind)
		}
		return &ast.Goto{
			Kind:   kind,
			Target: d.referLabel(n.Label, join(path, "label")),
			Value:  d.optionalValue(n.Value, join(path, "value")),
			T:      d.optionalType(n.Type, join(path, "type")),
		}
	case KindReturn:
		return &ast.Return{Value: d.optionalValue(n.Value, join(path, "value"))}
	case KindSwitch:
		return d.switchNode(n, path)
	case KindTry:
		return d.try(n, path)
	case KindThrow:
		return &ast.Throw{
			Value: d.optionalValue(n.Value, join(path, "value")),
			T:     d.optionalType(n.Type, join(path, "type")),
		}
	case KindDebug:
		return d.debug(n, path)
	case "":
		d.fail(errors.E1001, path, "node has no kind")
	default:
		d.failSuggest(errors.E1002, join(path, "node"), n.Node, nodeKinds, "unknown node kind %q", n.Node)
	}
	return ast.Empty()
}

func (d *decoder) nodes(ns []*node, path string) []ast.Node {
	if len(ns) == 0 {
		return nil
	}
	result := make([]ast.Node, len(ns))
	for i, n := range ns {
		result[i] = d.node(n, at(path, i))
	}
	return result
}

func (d *decoder) optional(n *node, path string) ast.Node {
	if n == nil {
		return nil
	}
	return d.node(n, path)
}

// value decodes a child stored in a "value" field.
func (d *decoder) value(raw json.RawMessage, path string) ast.Node {
	if isNull(raw) {
		d.fail(errors.E1001, path, "missing node")
		return ast.Empty()
	}
	n, err := parseNode(raw)
	if err != nil {
		d.fail(errors.E1001, path, "%v", err)
		return ast.Empty()
	}
	return d.node(n, path)
}

func (d *decoder) optionalValue(raw json.RawMessage, path string) ast.Node {
	if isNull(raw) {
		return nil
	}
	return d.value(raw, path)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func (d *decoder) typ(name, path string) *types.Type {
	if name == "" {
		d.fail(errors.E1004, path, "missing type")
		return types.Object
	}
	if t, ok := d.resolver.Type(name); ok {
		return t
	}
	candidates := append(append([]string(nil), primitiveNames...), d.resolver.TypeNames()...)
	d.failSuggest(errors.E1004, path, strings.TrimSuffix(name, "[]"), candidates, "unknown type %q", name)
	return types.Object
}

func (d *decoder) optionalType(name, path string) *types.Type {
	if name == "" {
		return nil
	}
	return d.typ(name, path)
}

func (d *decoder) constant(n *node, path string) ast.Node {
	t := d.typ(n.Type, join(path, "type"))
	v, err := literal(t, n.Value)
	if err != nil {
		d.fail(errors.E1001, join(path, "value"), "invalid %s literal: %v", t, err)
		return &ast.Default{T: t}
	}
	return ast.NewTypedConstant(v, t)
}

func literal(t *types.Type, raw json.RawMessage) (any, error) {
	if isNull(raw) {
		if t.IsReference() {
			return nil, nil
		}
		return nil, fmt.Errorf("a value is required")
	}
	switch t.Kind() {
	case types.KindBool:
		return decodeAs[bool](raw)
	case types.KindInt8:
		return decodeAs[int8](raw)
	case types.KindInt16:
		return decodeAs[int16](raw)
	case types.KindInt32:
		return decodeAs[int32](raw)
	case types.KindInt64:
		return decodeAs[int64](raw)
	case types.KindUint8:
		return decodeAs[uint8](raw)
	case types.KindUint16:
		return decodeAs[uint16](raw)
	case types.KindUint32:
		return decodeAs[uint32](raw)
	case types.KindUint64:
		return decodeAs[uint64](raw)
	case types.KindFloat32:
		return decodeAs[float32](raw)
	case types.KindFloat64:
		return decodeAs[float64](raw)
	case types.KindString:
		return decodeAs[string](raw)
	}
	return nil, fmt.Errorf("only null is supported")
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *decoder) pushScope() {
	d.scopes = append(d.scopes, map[string]*ast.Variable{})
}

func (d *decoder) popScope() {
	d.scopes = d.scopes[:len(d.scopes)-1]
}

func (d *decoder) declare(decl varDecl, path string) *ast.Variable {
	if decl.Name == "" {
		d.fail(errors.E1001, join(path, "name"), "variable has no name")
	}
	v := &ast.Variable{
		Name:  decl.Name,
		T:     d.typ(decl.Type, join(path, "type")),
		ByRef: decl.ByRef,
	}
	scope := d.scopes[len(d.scopes)-1]
	if _, ok := scope[decl.Name]; ok {
		d.fail(errors.E1001, join(path, "name"), "variable %q declared twice", decl.Name)
	}
	scope[decl.Name] = v
	return v
}

func (d *decoder) variable(name, path string) *ast.Variable {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if v, ok := d.scopes[i][name]; ok {
			return v
		}
	}
	var visible []string
	for _, scope := range d.scopes {
		for n := range scope {
			visible = append(visible, n)
		}
	}
	sort.Strings(visible)
	d.failSuggest(errors.E1005, path, name, visible, "undeclared variable %q", name)
	return ast.NewVariable(name, types.Object)
}

func (d *decoder) pushLabels(decls []labelDecl, path string) {
	ls := &labelScope{
		targets:  map[string]*ast.LabelTarget{},
		declared: map[string]*types.Type{},
		defined:  map[string]bool{},
		refs:     map[string]string{},
	}
	for i, decl := range decls {
		ls.declared[decl.Name] = d.typ(decl.Type, join(at(join(path, "labels"), i), "type"))
	}
	d.labels = append(d.labels, ls)
}

func (d *decoder) popLabels() {
	ls := d.labels[len(d.labels)-1]
	d.labels = d.labels[:len(d.labels)-1]
	var defined []string
	for name := range ls.defined {
		defined = append(defined, name)
	}
	sort.Strings(defined)
	var missing []string
	for name := range ls.refs {
		if !ls.defined[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		d.failSuggest(errors.E1006, ls.refs[name], name, defined, "label %q is not defined in this lambda", name)
	}
}

func (d *decoder) labelTarget(name string) *ast.LabelTarget {
	ls := d.labels[len(d.labels)-1]
	if t, ok := ls.targets[name]; ok {
		return t
	}
	t := ast.NewLabelTarget(name)
	if typ, ok := ls.declared[name]; ok {
		t.T = typ
	}
	ls.targets[name] = t
	return t
}

func (d *decoder) defineLabel(name, path string) *ast.LabelTarget {
	if name == "" {
		return nil
	}
	ls := d.labels[len(d.labels)-1]
	if ls.defined[name] {
		d.fail(errors.E1001, path, "label %q defined twice", name)
	}
	ls.defined[name] = true
	return d.labelTarget(name)
}

func (d *decoder) referLabel(name, path string) *ast.LabelTarget {
	if name == "" {
		d.fail(errors.E1001, path, "goto has no label")
		return ast.NewLabelTarget("")
	}
	ls := d.labels[len(d.labels)-1]
	if _, ok := ls.refs[name]; !ok {
		ls.refs[name] = path
	}
	return d.labelTarget(name)
}

func (d *decoder) lambda(n *node, path string) *ast.Lambda {
	d.pushScope()
	d.pushLabels(n.Labels, path)
	params := make([]*ast.Variable, len(n.Params))
	for i, decl := range n.Params {
		params[i] = d.declare(decl, at(join(path, "params"), i))
	}
	lambda := &ast.Lambda{
		Name:       n.Name,
		Params:     params,
		ReturnType: d.optionalType(n.Returns, join(path, "returns")),
		Body:       d.node(n.Body, join(path, "body")),
	}
	d.popLabels()
	d.popScope()
	return lambda
}

func (d *decoder) block(n *node, path string) ast.Node {
	d.pushScope()
	defer d.popScope()
	vars := make([]*ast.Variable, len(n.Vars))
	for i, decl := range n.Vars {
		vars[i] = d.declare(decl, at(join(path, "vars"), i))
	}
	block := ast.NewBlock(vars, d.nodes(n.Exprs, join(path, "exprs"))...)
	block.T = d.optionalType(n.Type, join(path, "type"))
	return block
}

func (d *decoder) call(n *node, path string) ast.Node {
	fn, ok := d.resolver.Func(n.Func)
	if !ok {
		d.failSuggest(errors.E1003, join(path, "func"), n.Func, d.resolver.FuncNames(), "unknown function %q", n.Func)
		return ast.Empty()
	}
	return &ast.Call{
		Callable: fn,
		Receiver: d.optional(n.Receiver, join(path, "receiver")),
		Args:     d.nodes(n.Args, join(path, "args")),
	}
}

func (d *decoder) switchNode(n *node, path string) ast.Node {
	cases := make([]*ast.SwitchCase, len(n.Cases))
	for i, c := range n.Cases {
		casePath := at(join(path, "cases"), i)
		cases[i] = &ast.SwitchCase{
			TestValues: d.nodes(c.Values, join(casePath, "values")),
			Body:       d.node(c.Body, join(casePath, "body")),
		}
	}
	return &ast.Switch{
		Value:   d.value(n.Value, join(path, "value")),
		Cases:   cases,
		Default: d.optional(n.Default, join(path, "default")),
		T:       d.optionalType(n.Type, join(path, "type")),
	}
}

func (d *decoder) try(n *node, path string) ast.Node {
	try := &ast.Try{Body: d.node(n.Body, join(path, "body"))}
	for i, c := range n.Catches {
		catchPath := at(join(path, "catches"), i)
		block := &ast.CatchBlock{Test: d.typ(c.Type, join(catchPath, "type"))}
		d.pushScope()
		if c.Var != nil {
			decl := *c.Var
			if decl.Type == "" {
				decl.Type = c.Type
			}
			block.Variable = d.declare(decl, join(catchPath, "var"))
		}
		block.Filter = d.optional(c.Filter, join(catchPath, "filter"))
		block.Body = d.node(c.Body, join(catchPath, "body"))
		d.popScope()
		try.Handlers = append(try.Handlers, block)
	}
	try.Finally = d.optional(n.Finally, join(path, "finally"))
	try.Fault = d.optional(n.Fault, join(path, "fault"))
	try.T = d.optionalType(n.Type, join(path, "type"))
	return try
}

func (d *decoder) debug(n *node, path string) ast.Node {
	if n.Clear {
		return ast.ClearDebugInfo(n.File)
	}
	if n.Start == nil || n.End == nil {
		d.fail(errors.E1001, path, "debug node needs start and end positions")
		return ast.Empty()
	}
	return &ast.DebugInfo{
		File:        n.File,
		StartLine:   n.Start[0],
		StartColumn: n.Start[1],
		EndLine:     n.End[0],
		EndColumn:   n.End[1],
	}
}
