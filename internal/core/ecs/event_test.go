package ecs

import (
	"slices"
	"testing"

	"github.com/maze-engine/world/internal/core/system"
)

type pingEvent struct{ Value int }

type echoEvent struct{}

func TestProcessEventBroadcast(t *testing.T) {
	w := newTestWorld(t)
	a := spawn(w, &Foo{}, &Bar{})
	spawn(w, &Foo{})
	c := spawn(w, &Bar{})
	w.Update(tick)

	var got []EntityID
	AddEventHandler1(w, "bars", 0, func(ev *pingEvent, e *Entity, _ *Bar) {
		got = append(got, e.ID())
		ev.Value++
	})

	ev := &pingEvent{}
	ProcessEvent(w, ev)
	slices.Sort(got)
	if !slices.Equal(got, []EntityID{a.ID(), c.ID()}) {
		t.Errorf("delivered to %v", got)
	}
	if ev.Value != 2 {
		t.Errorf("handlers must share the event pointer, Value = %d", ev.Value)
	}
}

func TestProcessEventForScopedToSample(t *testing.T) {
	w := newTestWorld(t)
	var ents []*Entity
	for i := 0; i < 5; i++ {
		e := spawn(w, &Foo{})
		if i%2 == 0 {
			CreateComponent[Bar](e)
		}
		ents = append(ents, e)
	}
	w.Update(tick)

	calls := 0
	AddEventHandler1(w, "bars", 0, func(*pingEvent, *Entity, *Bar) { calls++ })

	// Entity 4 has no Bar, so no handler sample contains it.
	ProcessEventFor(w, ents[3].ID(), &pingEvent{})
	if calls != 0 {
		t.Errorf("handler invoked for non-member: %d calls", calls)
	}
	ProcessEventFor(w, ents[4].ID(), &pingEvent{})
	if calls != 1 {
		t.Errorf("expected one call for a member, got %d", calls)
	}
	ProcessEventFor(w, 999, &pingEvent{})
	ProcessEventFor(w, InvalidEntityID, &pingEvent{})
	if calls != 1 {
		t.Error("unknown ids reached a handler")
	}
}

func TestEventHandlerOrder(t *testing.T) {
	w := newTestWorld(t)
	spawn(w, &Foo{})
	w.Update(tick)
	s := RequestInclusiveSample1[Foo](w)

	var order []string
	add := func(name string, o int) {
		AddEventHandler(w, name, system.Order(o), s, func(*pingEvent, *Entity) {
			order = append(order, name)
		})
	}
	add("c", 30)
	add("a", 10)
	add("b1", 20)
	add("b2", 20)

	SendEventImmediate(w, pingEvent{})
	if want := []string{"a", "b1", "b2", "c"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRemoveEventHandler(t *testing.T) {
	w := newTestWorld(t)
	spawn(w, &Foo{})
	w.Update(tick)

	calls := 0
	h := AddEventHandler1(w, "count", 0, func(*pingEvent, *Entity, *Foo) { calls++ })
	SendEventImmediate(w, pingEvent{})
	h.SetEnabled(false)
	SendEventImmediate(w, pingEvent{})
	h.SetEnabled(true)
	if !w.RemoveEventHandler(h) {
		t.Fatal("RemoveEventHandler failed")
	}
	SendEventImmediate(w, pingEvent{})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if w.RemoveEventHandler(h) {
		t.Error("second removal should fail")
	}
}

func TestReentrantDispatchDepthGuard(t *testing.T) {
	w := newTestWorld(t, WithMaxEventDepth(8))
	e := spawn(w, &Foo{})
	w.Update(tick)

	calls := 0
	AddEventHandler1(w, "echo", 0, func(_ *echoEvent, e *Entity, _ *Foo) {
		calls++
		SendEventImmediateTo(w, e.ID(), echoEvent{})
	})

	SendEventImmediateTo(w, e.ID(), echoEvent{})
	if calls != 8 {
		t.Errorf("expected recursion cut at depth 8, got %d calls", calls)
	}

	// The guard unwinds: a fresh dispatch runs again.
	calls = 0
	SendEventImmediateTo(w, e.ID(), echoEvent{})
	if calls != 8 {
		t.Errorf("depth not restored, got %d calls", calls)
	}
}

func TestQueuedEvents(t *testing.T) {
	w := newTestWorld(t)
	a := spawn(w, &Foo{})
	b := spawn(w, &Foo{})
	w.Update(tick)

	var got []int
	AddEventHandler1(w, "log", 0, func(ev *pingEvent, e *Entity, _ *Foo) {
		got = append(got, ev.Value*100+int(e.ID()))
	})

	SendEventTo(w, b.ID(), pingEvent{Value: 1})
	SendEvent(w, pingEvent{Value: 2})
	if len(got) != 0 {
		t.Fatal("queued event delivered before Update")
	}
	if w.Stats().PendingEvents != 2 {
		t.Errorf("expected 2 pending events, got %d", w.Stats().PendingEvents)
	}

	w.Update(tick)
	want := []int{100 + int(b.ID()), 200 + int(a.ID()), 200 + int(b.ID())}
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQueuedEventSentDuringDispatchWaitsATick(t *testing.T) {
	w := newTestWorld(t)
	e := spawn(w, &Foo{})
	w.Update(tick)

	calls := 0
	AddEventHandler1(w, "requeue", 0, func(ev *pingEvent, e *Entity, _ *Foo) {
		calls++
		if ev.Value < 3 {
			SendEventTo(w, e.ID(), pingEvent{Value: ev.Value + 1})
		}
	})

	SendEventTo(w, e.ID(), pingEvent{Value: 1})
	for i := 1; i <= 3; i++ {
		w.Update(tick)
		if calls != i {
			t.Fatalf("after update %d: %d calls", i, calls)
		}
	}
	w.Update(tick)
	if calls != 3 {
		t.Errorf("chain did not stop, %d calls", calls)
	}
}

func TestQueuedEventToRemovedEntityDropped(t *testing.T) {
	w := newTestWorld(t)
	e := spawn(w, &Foo{})
	w.Update(tick)

	calls := 0
	AddEventHandler1(w, "count", 0, func(*pingEvent, *Entity, *Foo) { calls++ })
	SendEventTo(w, e.ID(), pingEvent{})
	e.RemoveFromWorld()
	w.Update(tick)
	if calls != 0 {
		t.Errorf("event reached an entity removed in the same drain, %d calls", calls)
	}
}
