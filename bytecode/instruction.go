package bytecode

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/deepnoodle-ai/lightc/op"
)

// Instruction is one entry in the instruction stream. Operands that do not
// fit an immediate integer are indexes into the constant pool.
type Instruction struct {
	Op op.Code
	A  int32
	B  int32
}

// String returns the opcode name followed by its operands.
func (i Instruction) String() string {
	switch op.GetInfo(i.Op).OperandCount {
	case 0:
		return i.Op.String()
	case 1:
		return fmt.Sprintf("%s %d", i.Op, i.A)
	default:
		return fmt.Sprintf("%s %d %d", i.Op, i.A, i.B)
	}
}

// SwitchCase maps one case value to a branch offset relative to the
// Switch instruction.
type SwitchCase struct {
	Value  int64
	Offset int32
}

// SwitchTable is the constant operand of a Switch instruction. Cases are
// sorted by value.
type SwitchTable struct {
	cases []SwitchCase
}

// NewSwitchTable returns a table over a sorted copy of cases. When a value
// appears more than once the first occurrence wins.
func NewSwitchTable(cases []SwitchCase) *SwitchTable {
	c := make([]SwitchCase, len(cases))
	copy(c, cases)
	slices.SortStableFunc(c, func(a, b SwitchCase) int {
		return cmp.Compare(a.Value, b.Value)
	})
	c = slices.CompactFunc(c, func(a, b SwitchCase) bool {
		return a.Value == b.Value
	})
	return &SwitchTable{cases: c}
}

// Lookup returns the offset for value.
func (t *SwitchTable) Lookup(value int64) (int32, bool) {
	lo, hi := 0, len(t.cases)
	for lo < hi {
		mid := (lo + hi) / 2
		switch c := t.cases[mid]; {
		case c.Value == value:
			return c.Offset, true
		case c.Value < value:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// CaseCount returns the number of cases.
func (t *SwitchTable) CaseCount() int { return len(t.cases) }

// CaseAt returns the case at the given index.
func (t *SwitchTable) CaseAt(index int) SwitchCase { return t.cases[index] }

// CellMap is the constant operand of MakeRuntimeVariables. Non-negative
// entries index the frame's own cells pushed by the instruction; an entry
// -1-i refers to closure cell i.
type CellMap struct {
	indexes []int
}

// NewCellMap returns a map over a copy of indexes.
func NewCellMap(indexes []int) *CellMap {
	c := make([]int, len(indexes))
	copy(c, indexes)
	return &CellMap{indexes: c}
}

// Len returns the number of mapped variables.
func (m *CellMap) Len() int { return len(m.indexes) }

// At returns the signed index of variable i.
func (m *CellMap) At(i int) int { return m.indexes[i] }
