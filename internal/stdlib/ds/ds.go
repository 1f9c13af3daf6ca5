// Package ds implements the opaque-handle data structures of §3
// "Per-domain state": lists, maps, grids, stacks, queues, and priority
// queues, each a plain owned collection reached through bindings, grouped
// the way the teacher's interpreter groups its native-function tables.
package ds

import (
	"sort"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

type handle int32

// Store owns every live data structure, keyed by the opaque handle a script
// sees as a real number — the same encoding GameMaker's ds_* family uses.
type Store struct {
	nextHandle handle
	lists      map[handle][]value.Value
	maps       map[handle]map[string]value.Value
	grids      map[handle]*grid
	stacks     map[handle][]value.Value
	queues     map[handle][]value.Value
	pqueues    map[handle]*pqueue
}

type grid struct {
	w, h int
	cell [][]value.Value
}

type pqItem struct {
	v        value.Value
	priority float64
}

type pqueue struct{ items []pqItem }

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		lists:   make(map[handle][]value.Value),
		maps:    make(map[handle]map[string]value.Value),
		grids:   make(map[handle]*grid),
		stacks:  make(map[handle][]value.Value),
		queues:  make(map[handle][]value.Value),
		pqueues: make(map[handle]*pqueue),
	}
}

func (s *Store) alloc() handle {
	s.nextHandle++
	return s.nextHandle
}

func asHandle(v value.Value) handle { return handle(int32(v.Real)) }
func asKey(v value.Value, in *symbol.Interner) string {
	if v.Tag == value.TagString {
		return in.Name(v.Str)
	}
	return value.ToDisplayString(v, in)
}

// Register installs every ds_* procedure into reg. store backs every
// instance they allocate into, for the lifetime of the host process (or
// until the matching ds_*_destroy call).
func Register(reg *binding.Registry, in *symbol.Interner, store *Store) {
	registerList(reg, in, store)
	registerMap(reg, in, store)
	registerGrid(reg, in, store)
	registerStack(reg, in, store)
	registerQueue(reg, in, store)
	registerPriorityQueue(reg, in, store)
}

func registerList(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_list_create"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		s.lists[h] = nil
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_list_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.lists, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterVariadic(in.Intern("ds_list_add"), func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := asHandle(args[0])
		s.lists[h] = append(s.lists[h], args[1:]...)
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_list_find_value"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		list := s.lists[asHandle(args[0])]
		idx := int(args[1].Real)
		if idx < 0 || idx >= len(list) {
			return value.Real(0), nil
		}
		return list[idx], nil
	})
	reg.RegisterProc(in.Intern("ds_list_size"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.Real(float64(len(s.lists[asHandle(args[0])]))), nil
	})
	reg.RegisterProc(in.Intern("ds_list_clear"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		s.lists[asHandle(args[0])] = nil
		return value.Real(0), nil
	})
}

func registerMap(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_map_create"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		s.maps[h] = make(map[string]value.Value)
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_map_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.maps, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_map_add"), 3, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		s.maps[asHandle(args[0])][asKey(args[1], in)] = args[2]
		return value.Bool(true), nil
	})
	reg.RegisterProc(in.Intern("ds_map_find_value"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return s.maps[asHandle(args[0])][asKey(args[1], in)], nil
	})
	reg.RegisterProc(in.Intern("ds_map_exists"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		_, ok := s.maps[asHandle(args[0])][asKey(args[1], in)]
		return value.Bool(ok), nil
	})
	reg.RegisterProc(in.Intern("ds_map_size"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.Real(float64(len(s.maps[asHandle(args[0])]))), nil
	})
}

func registerGrid(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_grid_create"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		w, ht := int(args[0].Real), int(args[1].Real)
		cell := make([][]value.Value, w)
		for i := range cell {
			cell[i] = make([]value.Value, ht)
		}
		s.grids[h] = &grid{w: w, h: ht, cell: cell}
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_grid_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.grids, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_grid_set"), 4, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		g := s.grids[asHandle(args[0])]
		x, y := int(args[1].Real), int(args[2].Real)
		if g == nil || x < 0 || x >= g.w || y < 0 || y >= g.h {
			return value.Value{}, &value.TypeError{Op: "ds_grid_set: out of bounds"}
		}
		g.cell[x][y] = args[3]
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_grid_get"), 3, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		g := s.grids[asHandle(args[0])]
		x, y := int(args[1].Real), int(args[2].Real)
		if g == nil || x < 0 || x >= g.w || y < 0 || y >= g.h {
			return value.Value{}, &value.TypeError{Op: "ds_grid_get: out of bounds"}
		}
		return g.cell[x][y], nil
	})
}

func registerStack(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_stack_create"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		s.stacks[h] = nil
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_stack_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.stacks, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_stack_push"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := asHandle(args[0])
		s.stacks[h] = append(s.stacks[h], args[1])
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_stack_pop"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := asHandle(args[0])
		stk := s.stacks[h]
		if len(stk) == 0 {
			return value.Real(0), nil
		}
		top := stk[len(stk)-1]
		s.stacks[h] = stk[:len(stk)-1]
		return top, nil
	})
	reg.RegisterProc(in.Intern("ds_stack_empty"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.Bool(len(s.stacks[asHandle(args[0])]) == 0), nil
	})
}

func registerQueue(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_queue_create"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		s.queues[h] = nil
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_queue_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.queues, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_queue_enqueue"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := asHandle(args[0])
		s.queues[h] = append(s.queues[h], args[1])
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_queue_dequeue"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := asHandle(args[0])
		q := s.queues[h]
		if len(q) == 0 {
			return value.Real(0), nil
		}
		front := q[0]
		s.queues[h] = q[1:]
		return front, nil
	})
	reg.RegisterProc(in.Intern("ds_queue_empty"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.Bool(len(s.queues[asHandle(args[0])]) == 0), nil
	})
}

func registerPriorityQueue(reg *binding.Registry, in *symbol.Interner, s *Store) {
	reg.RegisterProc(in.Intern("ds_priority_create"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		h := s.alloc()
		s.pqueues[h] = &pqueue{}
		return value.Real(float64(h)), nil
	})
	reg.RegisterProc(in.Intern("ds_priority_destroy"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		delete(s.pqueues, asHandle(args[0]))
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_priority_add"), 3, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		pq := s.pqueues[asHandle(args[0])]
		pq.items = append(pq.items, pqItem{v: args[1], priority: args[2].Real})
		return value.Real(0), nil
	})
	reg.RegisterProc(in.Intern("ds_priority_find_min"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		pq := s.pqueues[asHandle(args[0])]
		if pq == nil || len(pq.items) == 0 {
			return value.Real(0), nil
		}
		best := pq.items[0]
		for _, it := range pq.items[1:] {
			if it.priority < best.priority {
				best = it
			}
		}
		return best.v, nil
	})
	reg.RegisterProc(in.Intern("ds_priority_delete_min"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		pq := s.pqueues[asHandle(args[0])]
		if pq == nil || len(pq.items) == 0 {
			return value.Real(0), nil
		}
		sort.SliceStable(pq.items, func(i, j int) bool { return pq.items[i].priority < pq.items[j].priority })
		min := pq.items[0]
		pq.items = pq.items[1:]
		return min.v, nil
	})
}
