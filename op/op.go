// Package op defines opcodes used by the lightc compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop       Code = 1
	Call      Code = 2 // A=callable const, B=argc
	CallInst  Code = 3 // A=callable const, B=argc; receiver below args
	Invoke    Code = 4 // A=argc, B=1 if a value is pushed
	New       Code = 5 // A=constructor const, B=argc
	Return    Code = 6 // A=1 if a value is returned
	LoopEntry Code = 7 // A=loop ordinal, B=body length hint

	// Jump. Operand A is relative to the branch instruction.
	Jump        Code = 10
	JumpIfFalse Code = 11
	JumpIfTrue  Code = 12
	Switch      Code = 13 // A=jump table const
	Leave       Code = 14 // A=runtime label index

	// Load
	LoadConst       Code = 20
	LoadLocal       Code = 21
	LoadBoxed       Code = 22
	LoadClosure     Code = 23
	LoadCell        Code = 24
	LoadClosureCell Code = 25
	LoadField       Code = 26 // A=field const
	LoadStaticField Code = 27 // A=field const

	// Store
	StoreLocal       Code = 30
	StoreBoxed       Code = 31
	StoreClosure     Code = 32
	StoreField       Code = 33
	StoreStaticField Code = 34

	// Variable lifetime
	InitLocal Code = 35 // A=slot, B=zero value const
	InitBox   Code = 36 // A=slot, B=zero value const
	BoxParam  Code = 37 // A=slot

	// Operations
	BinaryOp       Code = 40 // A=BinaryOpType, B=types.Kind
	CompareOp      Code = 41 // A=CompareOpType, B=types.Kind
	Negate         Code = 42 // A=types.Kind
	NegateChecked  Code = 43 // A=types.Kind
	Not            Code = 44 // A=types.Kind
	Complement     Code = 45 // A=types.Kind
	Convert        Code = 46 // A=from kind, B=to kind
	ConvertChecked Code = 47 // A=from kind, B=to kind
	Unbox          Code = 48 // A=type const
	Cast           Code = 49 // A=type const
	TypeIs         Code = 50 // A=type const

	// Arrays
	NewArray       Code = 60 // A=elem type const, B=count
	NewArrayBounds Code = 61 // A=elem type const
	LoadElement    Code = 62
	StoreElement   Code = 63
	ArrayLength    Code = 64

	// Stack
	Swap Code = 70
	Dup  Code = 71
	Pop  Code = 72

	// Push constants
	Nil   Code = 80
	False Code = 81
	True  Code = 82

	// Closures
	CreateClosure        Code = 120 // A=function const, B=cell count
	MakeRuntimeVariables Code = 121 // A=index map const, B=own cell count

	// Exception handling
	Throw        Code = 140
	Rethrow      Code = 141 // A=slot holding the caught exception
	EnterFinally Code = 142
	EndFinally   Code = 143
	EndFault     Code = 144
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	And      BinaryOpType = 6
	Or       BinaryOpType = 7
	Xor      BinaryOpType = 8
	LShift   BinaryOpType = 9
	RShift   BinaryOpType = 10
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	case LShift:
		return "<<"
	case RShift:
		return ">>"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Variable marks a stack effect that depends on the instruction operands.
const Variable = -1

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
	Pops         int
	Pushes       int
	IsBranch     bool
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op     Code
		name   string
		count  int
		pops   int
		pushes int
	}
	ops := []opInfo{
		{Nop, "NOP", 0, 0, 0},
		{Call, "CALL", 2, Variable, Variable},
		{CallInst, "CALL_INST", 2, Variable, Variable},
		{Invoke, "INVOKE", 2, Variable, Variable},
		{New, "NEW", 2, Variable, 1},
		{Return, "RETURN", 1, Variable, 0},
		{LoopEntry, "LOOP_ENTRY", 2, 0, 0},
		{Jump, "JUMP", 1, 0, 0},
		{JumpIfFalse, "JUMP_IF_FALSE", 1, 1, 0},
		{JumpIfTrue, "JUMP_IF_TRUE", 1, 1, 0},
		{Switch, "SWITCH", 1, 1, 0},
		{Leave, "LEAVE", 1, Variable, Variable},
		{LoadConst, "LOAD_CONST", 1, 0, 1},
		{LoadLocal, "LOAD_LOCAL", 1, 0, 1},
		{LoadBoxed, "LOAD_BOXED", 1, 0, 1},
		{LoadClosure, "LOAD_CLOSURE", 1, 0, 1},
		{LoadCell, "LOAD_CELL", 1, 0, 1},
		{LoadClosureCell, "LOAD_CLOSURE_CELL", 1, 0, 1},
		{LoadField, "LOAD_FIELD", 1, 1, 1},
		{LoadStaticField, "LOAD_STATIC_FIELD", 1, 0, 1},
		{StoreLocal, "STORE_LOCAL", 1, 1, 0},
		{StoreBoxed, "STORE_BOXED", 1, 1, 0},
		{StoreClosure, "STORE_CLOSURE", 1, 1, 0},
		{StoreField, "STORE_FIELD", 1, 2, 0},
		{StoreStaticField, "STORE_STATIC_FIELD", 1, 1, 0},
		{InitLocal, "INIT_LOCAL", 2, 0, 0},
		{InitBox, "INIT_BOX", 2, 0, 0},
		{BoxParam, "BOX_PARAM", 1, 0, 0},
		{BinaryOp, "BINARY_OP", 2, 2, 1},
		{CompareOp, "COMPARE_OP", 2, 2, 1},
		{Negate, "NEGATE", 1, 1, 1},
		{NegateChecked, "NEGATE_CHECKED", 1, 1, 1},
		{Not, "NOT", 1, 1, 1},
		{Complement, "COMPLEMENT", 1, 1, 1},
		{Convert, "CONVERT", 2, 1, 1},
		{ConvertChecked, "CONVERT_CHECKED", 2, 1, 1},
		{Unbox, "UNBOX", 1, 1, 1},
		{Cast, "CAST", 1, 1, 1},
		{TypeIs, "TYPE_IS", 1, 1, 1},
		{NewArray, "NEW_ARRAY", 2, Variable, 1},
		{NewArrayBounds, "NEW_ARRAY_BOUNDS", 1, 1, 1},
		{LoadElement, "LOAD_ELEMENT", 0, 2, 1},
		{StoreElement, "STORE_ELEMENT", 0, 3, 0},
		{ArrayLength, "ARRAY_LENGTH", 0, 1, 1},
		{Swap, "SWAP", 0, 2, 2},
		{Dup, "DUP", 0, 1, 2},
		{Pop, "POP", 0, 1, 0},
		{Nil, "NIL", 0, 0, 1},
		{False, "FALSE", 0, 0, 1},
		{True, "TRUE", 0, 0, 1},
		{CreateClosure, "CREATE_CLOSURE", 2, Variable, 1},
		{MakeRuntimeVariables, "MAKE_RUNTIME_VARIABLES", 2, Variable, 1},
		{Throw, "THROW", 0, 1, 0},
		{Rethrow, "RETHROW", 1, 0, 0},
		{EnterFinally, "ENTER_FINALLY", 0, 0, 0},
		{EndFinally, "END_FINALLY", 0, 0, 0},
		{EndFault, "END_FAULT", 0, 0, 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
			Pops:         o.pops,
			Pushes:       o.pushes,
			IsBranch:     o.op == Jump || o.op == JumpIfFalse || o.op == JumpIfTrue,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// String returns the name of the opcode.
func (c Code) String() string {
	if int(c) < len(infos) && infos[c].Name != "" {
		return infos[c].Name
	}
	return "INVALID"
}
