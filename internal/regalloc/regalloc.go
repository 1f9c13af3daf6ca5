// Package regalloc computes block ordering, dominance, and live intervals
// over an SSA function, then assigns each SSA value a virtual register with
// a linear-scan allocator. Because the target VM's per-frame register file
// is unbounded (§4.E), "spills" are simply additional registers — the
// allocator still minimizes the count to keep frames small, it just never
// needs to generate spill/reload code.
package regalloc

import (
	"math"
	"sort"

	"github.com/gmlscript/gmlscript/internal/ssa"
)

// Result is the output of Allocate: a register number for every SSA value
// and the total register count the compiled function needs.
type Result struct {
	Reg          map[ssa.Value]int
	RegisterCount int
	Order        []*ssa.Block   // reverse-postorder block sequence
	Idom         map[int]*ssa.Block // immediate dominator, keyed by block ID
}

// Allocate runs liveness analysis and linear-scan register assignment over
// fn, which must already have had Function.Finish called.
func Allocate(fn *ssa.Function) *Result {
	order := reversePostorder(fn)
	idom := dominance(order)
	res := &Result{Reg: map[ssa.Value]int{}, Order: order, Idom: idom}

	orderIndex := make(map[int]int, len(order)) // block ID -> position in order
	for i, blk := range order {
		orderIndex[blk.ID] = i
	}

	type interval struct {
		val        ssa.Value
		start, end int
		pinned     bool
	}
	var intervals []interval

	defOrder := map[ssa.Value]int{}
	lastUse := map[ssa.Value]int{}
	touch := func(v ssa.Value, pos int) {
		if cur, ok := lastUse[v]; !ok || pos > cur {
			lastUse[v] = pos
		}
	}

	for i, blk := range order {
		for _, instr := range blk.Instrs {
			defOrder[instr.ID] = i
			lastUse[instr.ID] = i
			for _, arg := range instr.Args {
				touch(arg, i)
			}
		}
		if blk.Term != nil {
			if blk.Term.Cond != ssa.InvalidValue {
				touch(blk.Term.Cond, i)
			}
			if blk.Term.RetVal != ssa.InvalidValue {
				touch(blk.Term.RetVal, i)
			}
		}
	}
	// Phi operands are logically used at the end of the corresponding
	// predecessor block, not the header block itself.
	for _, blk := range order {
		for _, instr := range blk.Instrs {
			if instr.Op != ssa.OpPhi {
				continue
			}
			for i, arg := range instr.Args {
				if i >= len(blk.Preds) {
					break
				}
				touch(arg, orderIndex[blk.Preds[i].ID])
			}
		}
	}

	numParams := 0
	for _, blk := range order {
		for _, instr := range blk.Instrs {
			if instr.Op == ssa.OpParam {
				intervals = append(intervals, interval{val: instr.ID, start: 0, end: math.MaxInt32, pinned: true})
				res.Reg[instr.ID] = instr.NumArgs
				if instr.NumArgs+1 > numParams {
					numParams = instr.NumArgs + 1
				}
				continue
			}
			end := lastUse[instr.ID]
			if end < defOrder[instr.ID] {
				end = defOrder[instr.ID]
			}
			intervals = append(intervals, interval{val: instr.ID, start: defOrder[instr.ID], end: end})
		}
	}

	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	type active struct {
		end int
		reg int
	}
	var actives []active
	freeRegs := map[int]bool{}
	nextFresh := numParams

	for _, iv := range intervals {
		if iv.pinned {
			continue
		}
		// expire
		kept := actives[:0]
		for _, a := range actives {
			if a.end < iv.start {
				freeRegs[a.reg] = true
			} else {
				kept = append(kept, a)
			}
		}
		actives = kept

		reg := -1
		for r := range freeRegs {
			if reg == -1 || r < reg {
				reg = r
			}
		}
		if reg == -1 {
			reg = nextFresh
			nextFresh++
		} else {
			delete(freeRegs, reg)
		}
		res.Reg[iv.val] = reg
		actives = append(actives, active{end: iv.end, reg: reg})
	}

	maxReg := numParams
	for _, r := range res.Reg {
		if r+1 > maxReg {
			maxReg = r + 1
		}
	}
	res.RegisterCount = maxReg
	return res
}

// reversePostorder computes a DFS-based block order starting from the
// entry block (fn.Blocks[0]).
func reversePostorder(fn *ssa.Function) []*ssa.Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	visited := make(map[int]bool, len(fn.Blocks))
	var post []*ssa.Block
	var visit func(b *ssa.Block)
	visit = func(b *ssa.Block) {
		if visited[b.ID] {
			return
		}
		visited[b.ID] = true
		for _, s := range b.Succs() {
			visit(s)
		}
		post = append(post, b)
	}
	visit(fn.Blocks[0])
	// reverse
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// dominance computes the immediate dominator of every block reachable from
// the entry, using the standard iterative data-flow algorithm (Cooper,
// Harvey, Kennedy).
func dominance(order []*ssa.Block) map[int]*ssa.Block {
	idom := map[int]*ssa.Block{}
	if len(order) == 0 {
		return idom
	}
	indexOf := map[int]int{}
	for i, b := range order {
		indexOf[b.ID] = i
	}
	entry := order[0]
	idom[entry.ID] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range order[1:] {
			var newIdom *ssa.Block
			for _, p := range b.Preds {
				if _, ok := idom[p.ID]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, indexOf)
			}
			if newIdom != nil && idom[b.ID] != newIdom {
				idom[b.ID] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(a, b *ssa.Block, idom map[int]*ssa.Block, indexOf map[int]int) *ssa.Block {
	for a.ID != b.ID {
		for indexOf[a.ID] > indexOf[b.ID] {
			a = idom[a.ID]
		}
		for indexOf[b.ID] > indexOf[a.ID] {
			b = idom[b.ID]
		}
	}
	return a
}
