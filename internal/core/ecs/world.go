package ecs

import (
	"slices"
	"time"

	"github.com/maze-engine/world/internal/core/event"
	"github.com/maze-engine/world/internal/core/system"
	"go.uber.org/zap"
)

// DefaultMaxEventDepth bounds nested immediate event dispatch.
const DefaultMaxEventDepth = 64

// maxHierarchyDepth stops parent walks on malformed (cyclic) hierarchies.
const maxHierarchyDepth = 1 << 12

// World is the top-level ECS container. It owns entity identity, the sample
// and system registries and four deferred queues that are drained at the
// start of every Update, in this order: removals, additions, component
// changes, active changes.
//
// A World is not safe for concurrent use; all calls belong on the
// simulation goroutine.
type World struct {
	log *zap.Logger

	idCounter EntityID
	retired   map[EntityID]struct{} // destroyed or cancelled ids
	entities  map[EntityID]*Entity  // live and pending-remove
	pending   map[EntityID]*Entity  // pending-add

	removeQueue  []*Entity
	addQueue     []*Entity
	changedQueue []*Entity
	activeQueue  []*Entity

	samples      []*Sample
	samplesByKey map[string]*Sample

	runner   *system.Runner
	handlers map[ClassID][]*EventHandler
	bus      *event.Bus
	relays   map[ClassID]struct{}

	eventDepth    int
	maxEventDepth int
	tick          uint64

	// Editor-facing notifications, emitted during drains.
	OnEntityAdded   Signal[*Entity]
	OnEntityChanged Signal[*Entity]
	OnEntityRemoved Signal[*Entity]
}

type Option func(*World)

func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithEntityIDSeed starts id allocation after seed, used when a saved id
// space is restored.
func WithEntityIDSeed(seed EntityID) Option {
	return func(w *World) {
		if seed > InvalidEntityID {
			w.idCounter = seed
		}
	}
}

func WithMaxEventDepth(depth int) Option {
	return func(w *World) {
		if depth > 0 {
			w.maxEventDepth = depth
		}
	}
}

func NewWorld(opts ...Option) *World {
	w := &World{
		log:           zap.NewNop(),
		entities:      make(map[EntityID]*Entity, 1024),
		pending:       make(map[EntityID]*Entity, 64),
		retired:       make(map[EntityID]struct{}, 64),
		removeQueue:   make([]*Entity, 0, 64),
		addQueue:      make([]*Entity, 0, 64),
		changedQueue:  make([]*Entity, 0, 64),
		activeQueue:   make([]*Entity, 0, 64),
		samplesByKey:  make(map[string]*Sample, 16),
		runner:        system.NewRunner(),
		handlers:      make(map[ClassID][]*EventHandler, 16),
		bus:           event.NewBus(),
		relays:        make(map[ClassID]struct{}, 16),
		maxEventDepth: DefaultMaxEventDepth,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Logger() *zap.Logger { return w.log }

// EntityIDCounter returns the last id handed out.
func (w *World) EntityIDCounter() EntityID { return w.idCounter }

// Tick returns the number of completed Update calls.
func (w *World) Tick() uint64 { return w.tick }

// CreateEntity allocates a fresh id and stages a new active entity for
// addition. It becomes visible to samples at the next Update.
func (w *World) CreateEntity() *Entity {
	e := NewEntityWithID(w.nextID())
	w.stageAdd(e)
	return e
}

// AddEntity stages an externally built entity. An entity without an id gets
// a fresh one; an entity with an id keeps it unless the id is in use or was
// retired in this world, in which case AddEntity returns false. Adding an
// entity that is pending removal from this world cancels the removal.
func (w *World) AddEntity(e *Entity) bool {
	if e == nil {
		return false
	}
	if e.world == w && e.state == PendingRemove {
		e.state = Live
		w.log.Debug("entity removal cancelled", zap.Int32("entity", int32(e.id)))
		return true
	}
	if e.world != nil || e.state != Detached {
		return false
	}
	if e.id.Valid() {
		if w.IDInUse(e.id) {
			w.log.Warn("entity id collision", zap.Int32("entity", int32(e.id)))
			return false
		}
		if e.id > w.idCounter {
			w.idCounter = e.id
		}
	} else {
		e.assignID(w.nextID())
	}
	w.stageAdd(e)
	return true
}

// RemoveEntity stages e for removal. Removing a pending-add entity cancels
// the add outright; its id stays consumed.
func (w *World) RemoveEntity(e *Entity) bool {
	if e == nil || e.world != w {
		return false
	}
	switch e.state {
	case PendingAdd:
		delete(w.pending, e.id)
		w.retired[e.id] = struct{}{}
		e.state = Destroyed
		e.world = nil
		return true
	case Live:
		e.state = PendingRemove
		w.removeQueue = append(w.removeQueue, e)
		return true
	case PendingRemove:
		w.log.Warn("entity already pending removal", zap.Int32("entity", int32(e.id)))
	}
	return false
}

// IDInUse reports whether id belongs to a live or pending entity, or to one
// this world already destroyed. Such ids are never handed out again.
func (w *World) IDInUse(id EntityID) bool {
	if w.entities[id] != nil || w.pending[id] != nil {
		return true
	}
	_, ok := w.retired[id]
	return ok
}

// RemoveEntityByID is RemoveEntity for a live id.
func (w *World) RemoveEntityByID(id EntityID) bool {
	return w.RemoveEntity(w.entities[id])
}

// EntityByID returns the live entity with id, or nil. Entities pending
// removal are still returned until the removal drain.
func (w *World) EntityByID(id EntityID) *Entity {
	return w.entities[id]
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int { return len(w.entities) }

// EachEntity visits live entities in ascending id order.
func (w *World) EachEntity(fn func(*Entity)) {
	for _, e := range w.sortedLive() {
		fn(e)
	}
}

// NotifyHierarchyChanged re-stages e after its parent link changed so
// that active-in-hierarchy is recomputed at the next drain.
func (w *World) NotifyHierarchyChanged(e *Entity) {
	w.stageActiveChanged(e)
}

// Update runs one tick: drain removals, additions, component changes and
// active changes, deliver queued events, then run every system in order.
func (w *World) Update(dt time.Duration) {
	w.drainRemovals()
	w.drainAdditions()
	w.drainComponentChanges()
	w.drainActiveChanges()

	w.bus.SwapBuffers()
	if n := w.bus.DispatchAll(); n > 0 {
		w.log.Debug("queued events dispatched", zap.Int("count", n))
	}

	w.runner.Tick(dt)
	w.tick++
}

// RequestCommonSample returns the sample for aspect, creating and
// back-filling it from live entities on first request. Structurally equal
// aspects share one sample.
func (w *World) RequestCommonSample(aspect Aspect) *Sample {
	key := aspect.Key()
	if s, ok := w.samplesByKey[key]; ok {
		return s
	}
	s := newSample(w, aspect)
	w.samplesByKey[key] = s
	w.samples = append(w.samples, s)
	for _, e := range w.sortedLive() {
		s.ProcessEntity(e)
	}
	w.log.Debug("sample created",
		zap.Stringer("aspect", aspect),
		zap.Int("members", s.Len()),
	)
	return s
}

// RequestInclusiveSample returns the sample of active entities carrying
// every class in ids.
func (w *World) RequestInclusiveSample(ids ...ClassID) *Sample {
	return w.RequestCommonSample(HaveAll(ids...))
}

func RequestInclusiveSample1[A any](w *World) *Sample {
	return w.RequestInclusiveSample(ClassOf[A]())
}

func RequestInclusiveSample2[A, B any](w *World) *Sample {
	return w.RequestInclusiveSample(ClassOf[A](), ClassOf[B]())
}

func RequestInclusiveSample3[A, B, C any](w *World) *Sample {
	return w.RequestInclusiveSample(ClassOf[A](), ClassOf[B](), ClassOf[C]())
}

// Samples returns the registered samples in creation order.
func (w *World) Samples() []*Sample {
	return slices.Clone(w.samples)
}

// Stats is a point-in-time summary of the world, for diagnostics.
type Stats struct {
	Tick                    uint64
	Live                    int
	PendingAdd              int
	PendingRemove           int
	PendingComponentChanges int
	PendingActiveChanges    int
	PendingEvents           int
	Samples                 int
	Systems                 int
	EventHandlers           int
}

func (w *World) Stats() Stats {
	handlers := 0
	for _, hs := range w.handlers {
		handlers += len(hs)
	}
	removing := 0
	for _, e := range w.removeQueue {
		if e.state == PendingRemove {
			removing++
		}
	}
	return Stats{
		Tick:                    w.tick,
		Live:                    len(w.entities),
		PendingAdd:              len(w.pending),
		PendingRemove:           removing,
		PendingComponentChanges: len(w.changedQueue),
		PendingActiveChanges:    len(w.activeQueue),
		PendingEvents:           w.bus.Pending(),
		Samples:                 len(w.samples),
		Systems:                 w.runner.Len(),
		EventHandlers:           handlers,
	}
}

func (w *World) nextID() EntityID {
	if w.idCounter >= MaxEntityID {
		w.log.Error("entity id space exhausted", zap.Int32("counter", int32(w.idCounter)))
		panic("ecs: entity id space exhausted")
	}
	w.idCounter++
	return w.idCounter
}

func (w *World) stageAdd(e *Entity) {
	e.world = w
	e.state = PendingAdd
	w.pending[e.id] = e
	w.addQueue = append(w.addQueue, e)
}

func (w *World) stageComponentsChanged(e *Entity) {
	if e.changeQueued {
		return
	}
	e.changeQueued = true
	w.changedQueue = append(w.changedQueue, e)
}

func (w *World) stageActiveChanged(e *Entity) {
	if e.world != w || (e.state != Live && e.state != PendingRemove) {
		return
	}
	if e.activeQueued {
		return
	}
	e.activeQueued = true
	w.activeQueue = append(w.activeQueue, e)
}

func (w *World) drainRemovals() {
	queue := w.removeQueue
	w.removeQueue = make([]*Entity, 0, cap(queue))
	for _, e := range queue {
		if e.state != PendingRemove {
			continue
		}
		for _, s := range w.samples {
			s.remove(e)
		}
		var children []EntityID
		if h := e.Hierarchy(); h != nil {
			children = slices.Clone(h.ChildEntities())
		}
		delete(w.entities, e.id)
		w.retired[e.id] = struct{}{}
		e.state = Destroyed
		for _, c := range e.components {
			if d, ok := c.(Destroyer); ok {
				d.OnDestroy(w, e)
			}
		}
		w.OnEntityRemoved.Emit(e)
		e.world = nil
		// Orphaned children become roots.
		for _, id := range children {
			if child := w.entities[id]; child != nil {
				w.refreshHierarchy(child)
			}
		}
	}
}

func (w *World) drainAdditions() {
	queue := w.addQueue
	w.addQueue = make([]*Entity, 0, cap(queue))
	for _, e := range queue {
		if e.state != PendingAdd {
			continue
		}
		delete(w.pending, e.id)
		w.entities[e.id] = e
		e.state = Live
		e.activeInHierarchy = w.computeActive(e)
		for _, s := range w.samples {
			s.ProcessEntity(e)
		}
		// Children that arrived first were evaluated as roots.
		if h := e.Hierarchy(); h != nil {
			for _, id := range h.ChildEntities() {
				if child := w.entities[id]; child != nil {
					w.refreshHierarchy(child)
				}
			}
		}
		w.OnEntityAdded.Emit(e)
		if !e.awakened {
			e.awakened = true
			for _, c := range e.components {
				if a, ok := c.(Awaker); ok {
					a.OnAwake(w, e)
				}
			}
		}
	}
}

func (w *World) drainComponentChanges() {
	queue := w.changedQueue
	w.changedQueue = make([]*Entity, 0, cap(queue))
	for _, e := range queue {
		e.changeQueued = false
		if e.world != w || (e.state != Live && e.state != PendingRemove) {
			continue
		}
		for _, s := range w.samples {
			s.ProcessEntity(e)
		}
		// A hierarchy component may have been attached or detached.
		w.refreshHierarchy(e)
		w.OnEntityChanged.Emit(e)
	}
}

func (w *World) drainActiveChanges() {
	queue := w.activeQueue
	w.activeQueue = make([]*Entity, 0, cap(queue))
	for _, e := range queue {
		e.activeQueued = false
		if e.world != w || (e.state != Live && e.state != PendingRemove) {
			continue
		}
		w.refreshHierarchy(e)
		w.OnEntityChanged.Emit(e)
	}
}

// refreshHierarchy recomputes active-in-hierarchy for root and all of its
// descendants, re-processing samples for every entity whose flag flipped.
func (w *World) refreshHierarchy(root *Entity) {
	stack := []*Entity{root}
	var visited map[*Entity]struct{}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if want := w.computeActive(e); want != e.activeInHierarchy {
			e.activeInHierarchy = want
			for _, s := range w.samples {
				s.ProcessEntity(e)
			}
		}
		h := e.Hierarchy()
		if h == nil {
			continue
		}
		children := h.ChildEntities()
		if len(children) == 0 {
			continue
		}
		if visited == nil {
			visited = map[*Entity]struct{}{root: {}}
		}
		for _, id := range children {
			child := w.entities[id]
			if child == nil {
				continue
			}
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			stack = append(stack, child)
		}
	}
}

// computeActive walks the parent chain through live and pending entities.
func (w *World) computeActive(e *Entity) bool {
	if !e.activeSelf {
		return false
	}
	h := e.Hierarchy()
	for depth := 0; h != nil; depth++ {
		if depth >= maxHierarchyDepth {
			w.log.Warn("hierarchy too deep or cyclic", zap.Int32("entity", int32(e.id)))
			return true
		}
		parent := w.lookup(h.ParentEntity())
		if parent == nil {
			return true
		}
		if !parent.activeSelf {
			return false
		}
		h = parent.Hierarchy()
	}
	return true
}

func (w *World) lookup(id EntityID) *Entity {
	if !id.Valid() {
		return nil
	}
	if e := w.entities[id]; e != nil {
		return e
	}
	return w.pending[id]
}

func (w *World) sortedLive() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entity) int { return int(a.id) - int(b.id) })
	return out
}
