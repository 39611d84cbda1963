package system

import (
	"slices"
	"testing"
	"time"
)

type probe struct {
	name  string
	order Order
	log   *[]string
}

func (p *probe) Order() Order { return p.order }

func (p *probe) Update(time.Duration) { *p.log = append(*p.log, p.name) }

func TestRunnerOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	for _, p := range []*probe{
		{"cleanup", OrderCleanup, &log},
		{"input", OrderInput, &log},
		{"update-a", OrderUpdate, &log},
		{"update-b", OrderUpdate, &log},
		{"custom", 1500, &log},
	} {
		r.Register(p)
	}

	r.Tick(time.Millisecond)
	want := []string{"input", "custom", "update-a", "update-b", "cleanup"}
	if !slices.Equal(log, want) {
		t.Errorf("got %v, want %v", log, want)
	}

	log = log[:0]
	r.TickOrder(OrderUpdate, time.Millisecond)
	if !slices.Equal(log, []string{"update-a", "update-b"}) {
		t.Errorf("TickOrder ran %v", log)
	}
}

type mutator struct {
	r     *Runner
	extra System
	log   *[]string
}

func (m *mutator) Order() Order { return OrderInput }

func (m *mutator) Update(time.Duration) {
	*m.log = append(*m.log, "mutator")
	if m.extra != nil {
		m.r.Register(m.extra)
		m.extra = nil
	}
}

func TestRunnerRegisterDuringTick(t *testing.T) {
	var log []string
	r := NewRunner()
	late := &probe{"late", OrderUpdate, &log}
	r.Register(&mutator{r: r, extra: late, log: &log})

	r.Tick(0)
	if !slices.Equal(log, []string{"mutator"}) {
		t.Fatalf("system registered mid-tick ran in the same tick: %v", log)
	}
	log = log[:0]
	r.Tick(0)
	if !slices.Equal(log, []string{"mutator", "late"}) {
		t.Errorf("got %v", log)
	}
}

func TestRunnerRemove(t *testing.T) {
	var log []string
	r := NewRunner()
	a := &probe{"a", 1, &log}
	b := &probe{"b", 2, &log}
	r.Register(a)
	r.Register(b)

	if !r.Remove(a) || r.Remove(a) {
		t.Error("Remove should succeed exactly once")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 system, got %d", r.Len())
	}
	r.Tick(0)
	if !slices.Equal(log, []string{"b"}) {
		t.Errorf("got %v", log)
	}
}
