package vm

import (
	"sort"

	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

// Tier identifies the entry a Function currently executes through.
type Tier uint8

const (
	// TierInterpreted resolves branch targets and handlers by scanning the
	// artifact on every use.
	TierInterpreted Tier = iota

	// TierLinked uses precomputed branch targets and per-instruction
	// handler candidate lists.
	TierLinked
)

func (t Tier) String() string {
	switch t {
	case TierInterpreted:
		return "interpreted"
	case TierLinked:
		return "linked"
	}
	return "unknown"
}

// program is an executable entry for one artifact. The interpreted and
// linked entries share instructions and constants; the linked entry
// additionally caches resolution work.
type program struct {
	code         *bytecode.Code
	instructions []bytecode.Instruction
	constants    []any
	tier         Tier

	// Populated for linked programs only.
	targets    []int
	candidates [][]int
}

func interpret(code *bytecode.Code) *program {
	p := &program{
		code:         code,
		instructions: make([]bytecode.Instruction, code.InstructionCount()),
		constants:    make([]any, code.ConstantCount()),
		tier:         TierInterpreted,
	}
	for i := range p.instructions {
		p.instructions[i] = code.InstructionAt(i)
	}
	for i := range p.constants {
		p.constants[i] = code.ConstantAt(i)
	}
	return p
}

// link builds the optimized entry for code.
func link(code *bytecode.Code) *program {
	p := interpret(code)
	p.tier = TierLinked
	p.targets = make([]int, len(p.instructions))
	for ip, instr := range p.instructions {
		if op.GetInfo(instr.Op).IsBranch {
			p.targets[ip] = ip + int(instr.A)
		} else {
			p.targets[ip] = -1
		}
	}
	p.candidates = make([][]int, len(p.instructions))
	for ip := range p.instructions {
		var covering []int
		for i := 0; i < code.HandlerCount(); i++ {
			if code.HandlerAt(i).Covers(ip) {
				covering = append(covering, i)
			}
		}
		if len(covering) == 0 {
			continue
		}
		sort.SliceStable(covering, func(a, b int) bool {
			ha, hb := code.HandlerAt(covering[a]), code.HandlerAt(covering[b])
			return ha.IsBetterThan(&hb)
		})
		p.candidates[ip] = covering
	}
	return p
}

// target returns the absolute destination of the branch at ip.
func (p *program) target(ip int) int {
	if p.targets != nil {
		return p.targets[ip]
	}
	return ip + int(p.instructions[ip].A)
}

// findHandler returns the best handler covering ip that accepts excType.
func (p *program) findHandler(ip int, excType *types.Type) (bytecode.ExceptionHandler, bool) {
	if p.candidates == nil {
		h, _, ok := p.code.FindHandler(ip, excType)
		return h, ok
	}
	for _, i := range p.candidates[ip] {
		h := p.code.HandlerAt(i)
		if h.Matches(excType) {
			return h, true
		}
	}
	return bytecode.ExceptionHandler{}, false
}

// finallyFor returns the innermost finally handler protecting ip whose
// region does not contain target. A negative target stands for leaving
// the function.
func (p *program) finallyFor(ip, target int) (bytecode.ExceptionHandler, bool) {
	var best *bytecode.ExceptionHandler
	consider := func(h bytecode.ExceptionHandler) {
		if h.Kind != bytecode.FinallyHandler || !h.Covers(ip) {
			return
		}
		if target >= 0 && h.Covers(target) {
			return
		}
		if h.IsBetterThan(best) {
			best = &h
		}
	}
	if p.candidates != nil {
		for _, i := range p.candidates[ip] {
			consider(p.code.HandlerAt(i))
		}
	} else {
		for i := 0; i < p.code.HandlerCount(); i++ {
			consider(p.code.HandlerAt(i))
		}
	}
	if best == nil {
		return bytecode.ExceptionHandler{}, false
	}
	return *best, true
}
