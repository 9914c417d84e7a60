// Package dis renders compiled code in a human-readable form.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

// Instruction is one disassembled instruction.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Name     string
	Operands []int32
	Info     string
}

// Disassemble decodes every instruction of code and annotates operands
// that refer to constants, locals, labels or branch targets.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var result []Instruction
	for ip := 0; ip < code.InstructionCount(); ip++ {
		instr := code.InstructionAt(ip)
		if instr.Op.String() == "INVALID" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", instr.Op, ip)
		}
		info := op.GetInfo(instr.Op)
		operands := []int32{instr.A, instr.B}[:info.OperandCount]
		annotation, err := annotate(code, ip, instr)
		if err != nil {
			return nil, err
		}
		result = append(result, Instruction{
			Offset:   ip,
			Opcode:   instr.Op,
			Name:     info.Name,
			Operands: operands,
			Info:     annotation,
		})
	}
	return result, nil
}

func annotate(code *bytecode.Code, ip int, instr bytecode.Instruction) (string, error) {
	constant := func(index int32) (any, error) {
		if index < 0 || int(index) >= code.ConstantCount() {
			return nil, fmt.Errorf("constant %d out of range at offset %d", index, ip)
		}
		return code.ConstantAt(int(index)), nil
	}
	switch instr.Op {
	case op.LoadConst, op.Call, op.CallInst, op.New, op.LoadField, op.LoadStaticField,
		op.StoreField, op.StoreStaticField, op.Unbox, op.Cast, op.TypeIs,
		op.NewArray, op.NewArrayBounds, op.CreateClosure:
		c, err := constant(instr.A)
		if err != nil {
			return "", err
		}
		return describeConstant(c), nil
	case op.InitLocal, op.InitBox:
		c, err := constant(instr.B)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", localName(code, ip, instr.A), describeConstant(c)), nil
	case op.LoadLocal, op.LoadBoxed, op.LoadCell, op.StoreLocal, op.StoreBoxed, op.BoxParam, op.Rethrow:
		return localName(code, ip, instr.A), nil
	case op.LoadClosure, op.LoadClosureCell, op.StoreClosure:
		if int(instr.A) < code.ClosureCellCount() {
			return code.ClosureCellAt(int(instr.A)), nil
		}
		return "", nil
	case op.Jump, op.JumpIfFalse, op.JumpIfTrue:
		return fmt.Sprintf("-> %d", ip+int(instr.A)), nil
	case op.Leave:
		if int(instr.A) >= code.LabelCount() {
			return "", fmt.Errorf("label %d out of range at offset %d", instr.A, ip)
		}
		return code.LabelAt(int(instr.A)).String(), nil
	case op.Switch:
		c, err := constant(instr.A)
		if err != nil {
			return "", err
		}
		table, ok := c.(*bytecode.SwitchTable)
		if !ok {
			return "", fmt.Errorf("switch at offset %d has no jump table", ip)
		}
		var cases []string
		for i := 0; i < table.CaseCount(); i++ {
			sc := table.CaseAt(i)
			cases = append(cases, fmt.Sprintf("%d->%d", sc.Value, ip+int(sc.Offset)))
		}
		return strings.Join(cases, " "), nil
	case op.MakeRuntimeVariables:
		c, err := constant(instr.A)
		if err != nil {
			return "", err
		}
		cells, ok := c.(*bytecode.CellMap)
		if !ok {
			return "", fmt.Errorf("runtime variables at offset %d has no cell map", ip)
		}
		indexes := make([]string, cells.Len())
		for i := range indexes {
			indexes[i] = fmt.Sprint(cells.At(i))
		}
		return "[" + strings.Join(indexes, " ") + "]", nil
	case op.BinaryOp:
		return fmt.Sprintf("%s %s", op.BinaryOpType(instr.A), types.Kind(instr.B)), nil
	case op.CompareOp:
		return fmt.Sprintf("%s %s", op.CompareOpType(instr.A), types.Kind(instr.B)), nil
	case op.Negate, op.NegateChecked, op.Not, op.Complement:
		return types.Kind(instr.A).String(), nil
	case op.Convert, op.ConvertChecked:
		return fmt.Sprintf("%s -> %s", types.Kind(instr.A), types.Kind(instr.B)), nil
	case op.LoopEntry:
		return fmt.Sprintf("loop %d", instr.A), nil
	}
	return "", nil
}

func localName(code *bytecode.Code, ip int, slot int32) string {
	for _, info := range code.LocalsAt(ip) {
		if info.Index == int(slot) {
			return info.Name
		}
	}
	// Locals initialized by the instruction start on the next one.
	for _, info := range code.LocalsAt(ip + 1) {
		if info.Index == int(slot) {
			return info.Name
		}
	}
	return ""
}

func describeConstant(c any) string {
	switch v := c.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	case *bytecode.Function:
		return "func " + v.Name()
	case ast.Callable:
		return v.Name()
	case ast.Field:
		return "." + v.Name()
	case *types.Type:
		return v.String()
	case *bytecode.SwitchTable:
		return fmt.Sprintf("switch(%d)", v.CaseCount())
	default:
		return fmt.Sprintf("%v", v)
	}
}

var (
	headerColor  = color.New(color.Bold)
	opcodeColor  = color.New(color.FgCyan)
	branchColor  = color.New(color.FgYellow)
	handlerColor = color.New(color.FgMagenta)
	infoColor    = color.New(color.FgGreen)
)

func colorFor(code op.Code) *color.Color {
	switch code {
	case op.Jump, op.JumpIfFalse, op.JumpIfTrue, op.Switch, op.Leave, op.Return:
		return branchColor
	case op.Throw, op.Rethrow, op.EnterFinally, op.EndFinally, op.EndFault:
		return handlerColor
	}
	return opcodeColor
}

// Print writes instructions to w as a table.
func Print(instructions []Instruction, w io.Writer) {
	t := newTable("OFFSET", "OPCODE", "OPERANDS", "INFO")
	t.align(0, alignRight)
	t.align(2, alignRight)
	for _, instr := range instructions {
		operands := make([]string, len(instr.Operands))
		for i, o := range instr.Operands {
			operands[i] = fmt.Sprint(o)
		}
		t.row(
			cell{text: fmt.Sprint(instr.Offset)},
			cell{text: instr.Name, color: colorFor(instr.Opcode)},
			cell{text: strings.Join(operands, " ")},
			cell{text: instr.Info, color: infoColor},
		)
	}
	t.render(w)
}

// PrintCode writes the instructions of code followed by its handler,
// label, debug, local and closure tables, then does the same for every
// nested function.
func PrintCode(code *bytecode.Code, w io.Writer) error {
	for i, c := range code.Flatten() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printOne(c, w); err != nil {
			return err
		}
	}
	return nil
}

func printOne(code *bytecode.Code, w io.Writer) error {
	instructions, err := Disassemble(code)
	if err != nil {
		return err
	}
	name := code.Name()
	if name == "" {
		name = "<lambda>"
	}
	params := make([]string, code.ParamCount())
	for i := range params {
		p := code.ParamAt(i)
		params[i] = fmt.Sprintf("%s %s", p.Name, p.Type)
	}
	headerColor.Fprintf(w, "func %s(%s) %s\n", name, strings.Join(params, ", "), code.ReturnType())
	fmt.Fprintf(w, "locals=%d max_stack=%d loops=%d\n", code.LocalCount(), code.MaxStackDepth(), code.LoopCount())
	if code.RequiresFullCompile() {
		reasons := make([]string, code.UnsupportedCount())
		for i := range reasons {
			reasons[i] = code.UnsupportedAt(i)
		}
		handlerColor.Fprintf(w, "requires full compile: %s\n", strings.Join(reasons, "; "))
	}
	Print(instructions, w)

	if code.HandlerCount() > 0 {
		t := newTable("KIND", "TYPE", "TRY", "HANDLER", "LABEL")
		for i := 0; i < code.HandlerCount(); i++ {
			h := code.HandlerAt(i)
			typ := ""
			if h.ExceptionType != nil {
				typ = h.ExceptionType.String()
			}
			t.row(
				cell{text: h.Kind.String(), color: handlerColor},
				cell{text: typ},
				cell{text: fmt.Sprintf("[%d, %d)", h.TryStart, h.TryEnd)},
				cell{text: fmt.Sprintf("%d..%d", h.HandlerStart, h.HandlerEnd)},
				cell{text: fmt.Sprint(h.Label)},
			)
		}
		t.render(w)
	}
	if code.LabelCount() > 0 {
		t := newTable("LABEL", "TARGET", "STACK", "CONT", "VALUE")
		for i := 0; i < code.LabelCount(); i++ {
			l := code.LabelAt(i)
			value := ""
			if l.HasValue {
				value = "yes"
			}
			t.row(
				cell{text: fmt.Sprint(i)},
				cell{text: fmt.Sprint(l.Index), color: branchColor},
				cell{text: fmt.Sprint(l.StackDepth)},
				cell{text: fmt.Sprint(l.ContinuationDepth)},
				cell{text: value},
			)
		}
		t.render(w)
	}
	if code.DebugInfoCount() > 0 {
		t := newTable("INDEX", "LOCATION")
		for i := 0; i < code.DebugInfoCount(); i++ {
			d := code.DebugInfoAtIndex(i)
			loc := d.Location()
			if d.IsClear {
				loc = "(clear)"
			}
			t.row(cell{text: fmt.Sprint(d.Index)}, cell{text: loc, color: infoColor})
		}
		t.render(w)
	}
	if code.LocalInfoCount() > 0 {
		t := newTable("SLOT", "NAME", "RANGE", "BOXED")
		for i := 0; i < code.LocalInfoCount(); i++ {
			l := code.LocalInfoAt(i)
			boxed := ""
			if l.Boxed {
				boxed = "yes"
			}
			t.row(
				cell{text: fmt.Sprint(l.Index)},
				cell{text: l.Name},
				cell{text: fmt.Sprintf("[%d, %d)", l.Start, l.End)},
				cell{text: boxed},
			)
		}
		t.render(w)
	}
	if code.ClosureCellCount() > 0 {
		t := newTable("CELL", "CAPTURED")
		for i := 0; i < code.ClosureCellCount(); i++ {
			t.row(cell{text: fmt.Sprint(i)}, cell{text: code.ClosureCellAt(i)})
		}
		t.render(w)
	}
	return nil
}
