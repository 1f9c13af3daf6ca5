package world

import (
	"testing"

	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

func TestCreateInstanceAndMembers(t *testing.T) {
	in := symbol.NewInterner()
	xSym := in.Intern("x")
	w := New(nil)

	e := w.CreateInstance(1, 0)
	if !w.IsLive(e) {
		t.Fatal("newly created instance should be live")
	}
	if _, ok := w.GetMember(e, xSym); ok {
		t.Error("invariant 1: a fresh instance's property bag should start empty")
	}
	w.SetMember(e, xSym, value.Real(10))
	if got, ok := w.GetMember(e, xSym); !ok || got.Real != 10 {
		t.Errorf("GetMember(x) = %v, %v, want 10, true", got, ok)
	}
}

func TestGlobalNeverDestroyed(t *testing.T) {
	w := New(nil)
	w.MarkDestroyed(w.Global)
	w.Sweep()
	if !w.IsLive(w.Global) {
		t.Error("invariant 3: GLOBAL must survive MarkDestroyed/Sweep")
	}
}

func TestSweepDeferredRemoval(t *testing.T) {
	w := New(nil)
	e1 := w.CreateInstance(1, 0)
	e2 := w.CreateInstance(2, 0)

	w.MarkDestroyed(e1)
	if !w.IsLive(e1) {
		t.Error("MarkDestroyed should not remove the entity before Sweep")
	}
	if got := w.ObjectsOf(0); len(got) != 2 {
		t.Errorf("ObjectsOf before Sweep = %d entities, want 2 (snapshot stability)", len(got))
	}

	w.Sweep()
	if w.IsLive(e1) {
		t.Error("e1 should be dead after Sweep")
	}
	if !w.IsLive(e2) {
		t.Error("e2 should remain live after Sweep")
	}
	if got := w.ObjectsOf(0); len(got) != 1 || got[0] != e2 {
		t.Errorf("ObjectsOf after Sweep = %v, want [e2]", got)
	}
}

func TestAllInstancesOrder(t *testing.T) {
	w := New(nil)
	e1 := w.CreateInstance(1, 0)
	e2 := w.CreateInstance(2, 0)
	e3 := w.CreateInstance(3, 1)

	got := w.AllInstances()
	want := []value.Entity{e1, e2, e3}
	if len(got) != len(want) {
		t.Fatalf("AllInstances() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllInstances()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandWithTargetObject(t *testing.T) {
	w := New(nil)
	e1 := w.CreateInstance(1, 5)
	e2 := w.CreateInstance(2, 5)
	_ = w.CreateInstance(3, 6)

	got := ExpandWithTarget(w, value.Real(5))
	if len(got) != 2 || got[0] != e1 || got[1] != e2 {
		t.Errorf("ExpandWithTarget(object 5) = %v, want [%v %v]", got, e1, e2)
	}
}

func TestExpandWithTargetAllAndNoone(t *testing.T) {
	w := New(nil)
	e1 := w.CreateInstance(1, 0)
	e2 := w.CreateInstance(2, 0)

	all := ExpandWithTarget(w, value.EntityVal(value.AllEntities))
	if len(all) != 2 || all[0] != e1 || all[1] != e2 {
		t.Errorf("ExpandWithTarget(all) = %v", all)
	}

	noone := ExpandWithTarget(w, value.EntityVal(value.NoEntity))
	if len(noone) != 0 {
		t.Errorf("ExpandWithTarget(noone) = %v, want empty", noone)
	}
}

func TestDestroyAllExceptPersistent(t *testing.T) {
	w := New(nil)
	persistentObj := ObjectID(0)
	e1 := w.CreateInstance(1, persistentObj)
	e2 := w.CreateInstance(2, ObjectID(1))

	w.DestroyAllExcept(map[ObjectID]bool{persistentObj: true})
	w.Sweep()

	if !w.IsLive(e1) {
		t.Error("persistent instance should survive DestroyAllExcept")
	}
	if w.IsLive(e2) {
		t.Error("non-persistent instance should be destroyed")
	}
}

func TestFirstOfObjectAndBroadcastWrite(t *testing.T) {
	in := symbol.NewInterner()
	hp := in.Intern("hp")
	w := New(nil)
	e1 := w.CreateInstance(1, 0)
	e2 := w.CreateInstance(2, 0)

	if _, ok := w.FirstOfObject(0); !ok {
		t.Fatal("FirstOfObject should find the bucket")
	}
	w.SetMemberOfAll(0, hp, value.Real(100))
	for _, e := range []value.Entity{e1, e2} {
		if got, ok := w.GetMember(e, hp); !ok || got.Real != 100 {
			t.Errorf("entity %v hp = %v, %v, want 100, true", e, got, ok)
		}
	}
}
