package event

import (
	"slices"
	"testing"
)

type hit struct{ N int }

type miss struct{}

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(h hit) { got = append(got, h.N) })

	Emit(b, hit{1})
	Emit(b, hit{2})
	if b.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", b.Pending())
	}
	if n := b.DispatchAll(); n != 0 || len(got) != 0 {
		t.Fatal("events delivered before swap")
	}

	b.SwapBuffers()
	if b.Pending() != 0 {
		t.Errorf("back buffer not cleared, %d pending", b.Pending())
	}
	if n := b.DispatchAll(); n != 2 {
		t.Errorf("expected 2 delivered, got %d", n)
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("emission order lost: %v", got)
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 0 {
		t.Errorf("front buffer replayed %d events", n)
	}
}

func TestBusEmitDuringDispatch(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(h hit) {
		got = append(got, h.N)
		if h.N < 3 {
			Emit(b, hit{h.N + 1})
		}
	})

	Emit(b, hit{1})
	for i := 0; i < 4; i++ {
		b.SwapBuffers()
		b.DispatchAll()
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestBusDropsUnsubscribed(t *testing.T) {
	b := NewBus()
	calls := 0
	Subscribe(b, func(hit) { calls++ })
	Subscribe(b, func(hit) { calls++ })

	if !HasSubscribers[hit](b) || HasSubscribers[miss](b) {
		t.Fatal("HasSubscribers wrong")
	}

	Emit(b, miss{})
	Emit(b, hit{})
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Errorf("expected 1 delivered, got %d", n)
	}
	if calls != 2 {
		t.Errorf("expected both handlers called, got %d", calls)
	}
}
