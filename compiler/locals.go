package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
)

// Local is a variable bound to a slot of the function being compiled.
type Local struct {
	Variable *ast.Variable
	Index    int
	Boxed    bool

	start    int
	used     bool
	previous *Local
}

// LocalDefinition identifies one binding created by DefineLocal.
type LocalDefinition struct {
	Index    int
	Variable *ast.Variable
}

// Scope indicates where a resolved variable lives.
type Scope string

const (
	// Slot is an unboxed local read and written directly.
	Slot Scope = "slot"
	// Boxed is a local whose slot holds a cell.
	Boxed Scope = "boxed"
	// Closure is a cell inherited from an enclosing function.
	Closure Scope = "closure"
)

// Resolution is the result of resolving a variable reference.
type Resolution struct {
	Scope Scope
	Index int
}

// LocalVariables allocates slots for the locals of one function. Slots
// are released in reverse order of definition, so a slot freed by a
// closed block is reused by the next one.
type LocalVariables struct {
	variables        map[*ast.Variable]*Local
	closure          map[*ast.Variable]int
	closureVariables []*ast.Variable
	localCount       int
	maxLocalCount    int
	infos            []bytecode.LocalInfo
}

// NewLocalVariables returns an empty allocator.
func NewLocalVariables() *LocalVariables {
	return &LocalVariables{
		variables: map[*ast.Variable]*Local{},
		closure:   map[*ast.Variable]int{},
	}
}

// DefineLocal binds v to the next free slot. A previous binding of the
// same variable is shadowed until the new one is undefined.
func (l *LocalVariables) DefineLocal(v *ast.Variable, start int) LocalDefinition {
	local := &Local{
		Variable: v,
		Index:    l.localCount,
		start:    start,
		previous: l.variables[v],
	}
	l.localCount++
	if l.localCount > l.maxLocalCount {
		l.maxLocalCount = l.localCount
	}
	l.variables[v] = local
	return LocalDefinition{Index: local.Index, Variable: v}
}

// UndefineLocal ends the binding created by def at instruction end.
func (l *LocalVariables) UndefineLocal(def LocalDefinition, end int) {
	local, ok := l.variables[def.Variable]
	if !ok || local.Index != def.Index {
		errors.Internalf("local %q (slot %d) is not the innermost binding", def.Variable.Name, def.Index)
	}
	if def.Index != l.localCount-1 {
		errors.Internalf("local %q released out of order (slot %d, top %d)", def.Variable.Name, def.Index, l.localCount-1)
	}
	l.infos = append(l.infos, bytecode.LocalInfo{
		Name:  def.Variable.Name,
		Index: local.Index,
		Start: local.start,
		End:   end,
		Boxed: local.Boxed,
	})
	if local.previous != nil {
		l.variables[def.Variable] = local.previous
	} else {
		delete(l.variables, def.Variable)
	}
	l.localCount--
}

// Box marks the local bound to v as boxed. The decision must be made
// before any code referencing the local is emitted.
func (l *LocalVariables) Box(v *ast.Variable) {
	local, ok := l.variables[v]
	if !ok {
		errors.Internalf("cannot box %q: not a local of this function", v.Name)
	}
	if local.used {
		errors.Internalf("cannot box %q after code referencing it was emitted", v.Name)
	}
	local.Boxed = true
}

// Local returns the innermost binding of v in this function.
func (l *LocalVariables) Local(v *ast.Variable) (*Local, bool) {
	local, ok := l.variables[v]
	return local, ok
}

// TryGetLocalOrClosure resolves v against this function's locals first
// and then its closure variables.
func (l *LocalVariables) TryGetLocalOrClosure(v *ast.Variable) (Resolution, bool) {
	if local, ok := l.variables[v]; ok {
		local.used = true
		if local.Boxed {
			return Resolution{Scope: Boxed, Index: local.Index}, true
		}
		return Resolution{Scope: Slot, Index: local.Index}, true
	}
	if index, ok := l.closure[v]; ok {
		return Resolution{Scope: Closure, Index: index}, true
	}
	return Resolution{}, false
}

// AddClosureVariable appends v to the closure variables and returns its
// cell index. Adding the same variable twice returns the first index.
func (l *LocalVariables) AddClosureVariable(v *ast.Variable) int {
	if index, ok := l.closure[v]; ok {
		return index
	}
	index := len(l.closureVariables)
	l.closure[v] = index
	l.closureVariables = append(l.closureVariables, v)
	return index
}

// ClosureVariables returns the captured variables in cell order.
func (l *LocalVariables) ClosureVariables() []*ast.Variable {
	return l.closureVariables
}

// LocalCount returns the number of slots currently in use.
func (l *LocalVariables) LocalCount() int {
	return l.localCount
}

// MaxLocalCount returns the high-water mark of slots in use.
func (l *LocalVariables) MaxLocalCount() int {
	return l.maxLocalCount
}

// Infos returns the live ranges of every local released so far.
func (l *LocalVariables) Infos() []bytecode.LocalInfo {
	return l.infos
}
