package scene

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/animation"
	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/core/system"
	"github.com/vellum/scenecore/internal/message"
	"github.com/vellum/scenecore/internal/property"
	"github.com/vellum/scenecore/internal/resource"
)

// node is the update-side scene object.
type node struct {
	owner    *property.Owner
	parent   ecs.EntityID
	children []ecs.EntityID
	onStage  bool
}

// UpdateManager owns the update-side scene graph. Apart from Messages and
// the frame counter, everything here belongs to the update goroutine and
// is reached from the event side through queued messages only.
type UpdateManager struct {
	counter     *buffer.Counter
	world       *ecs.World
	nodes       *ecs.Store[node]
	animations  *ecs.Store[animation.Animation]
	constraints []constraint.Applier
	queue       *message.Queue
	bus         *event.Bus
	runner      *system.Runner
	root        ecs.EntityID
	index       buffer.Index // slot of the frame in progress
	rank        map[ecs.EntityID]int
	log         *zap.Logger
}

// NewUpdateManager builds the update side. resources may be nil when no
// resource loading is wired.
func NewUpdateManager(queue *message.Queue, bus *event.Bus, resources *resource.Manager, log *zap.Logger) *UpdateManager {
	u := &UpdateManager{
		counter:    &buffer.Counter{},
		world:      ecs.NewWorld(),
		nodes:      ecs.NewStore[node](),
		animations: ecs.NewStore[animation.Animation](),
		queue:      queue,
		bus:        bus,
		rank:       make(map[ecs.EntityID]int),
		log:        log,
	}
	reg := u.world.Registry()
	reg.OnDestroy(u.destroyed)
	reg.Register(u.nodes)
	reg.Register(u.animations)

	u.root = u.world.CreateEntity()
	u.addNode(u.root)
	n, _ := u.nodes.Get(u.root)
	n.onStage = true

	u.runner = system.NewRunner(u.counter)
	u.runner.Register(&resetSystem{u: u})
	u.runner.Register(&messageSystem{u: u})
	if resources != nil {
		u.runner.Register(resources)
	}
	u.runner.Register(&animateSystem{u: u})
	u.runner.Register(&constrainSystem{u: u})
	u.runner.Register(&cleanupSystem{u: u})
	return u
}

// Update runs one frame and swaps the buffers. It returns the slot that
// frame wrote, which is the render slot from now on.
func (u *UpdateManager) Update(dt time.Duration) buffer.Index {
	return u.runner.Tick(dt)
}

// Root is the stage root node.
func (u *UpdateManager) Root() ecs.EntityID { return u.root }

func (u *UpdateManager) Counter() *buffer.Counter { return u.counter }

// RenderIndex is the slot the render side reads.
func (u *UpdateManager) RenderIndex() buffer.Index { return u.counter.RenderIndex() }

func (u *UpdateManager) Messages() *message.Queue { return u.queue }

// NewID reserves an id for an object the event side is about to create.
func (u *UpdateManager) NewID() ecs.EntityID { return u.world.CreateEntity() }

// Owner resolves a weak node id.
func (u *UpdateManager) Owner(id ecs.EntityID) (*property.Owner, bool) {
	if !u.world.Alive(id) {
		return nil, false
	}
	n, ok := u.nodes.Get(id)
	if !ok {
		return nil, false
	}
	return n.owner, true
}

func (u *UpdateManager) Parent(id ecs.EntityID) (ecs.EntityID, bool) {
	n, ok := u.nodes.Get(id)
	if !ok || n.parent.IsZero() {
		return 0, false
	}
	return n.parent, true
}

// OnStage reports whether the node is connected to the root.
func (u *UpdateManager) OnStage(id ecs.EntityID) bool {
	n, ok := u.nodes.Get(id)
	return ok && n.onStage
}

// NodeCount returns the number of live nodes, the root included.
func (u *UpdateManager) NodeCount() int { return u.nodes.Len() }

// ConstraintCount returns the number of active constraints.
func (u *UpdateManager) ConstraintCount() int { return len(u.constraints) }

func (u *UpdateManager) AddConstraint(c constraint.Applier) {
	u.constraints = append(u.constraints, c)
}

func (u *UpdateManager) RemoveConstraint(c constraint.Applier, i buffer.Index) {
	if n := slices.Index(u.constraints, c); n >= 0 {
		u.constraints = slices.Delete(u.constraints, n, n+1)
	}
	c.OnRemove(i)
}

// Animation returns a live update-side animation.
func (u *UpdateManager) Animation(id ecs.EntityID) (*animation.Animation, bool) {
	if !u.world.Alive(id) {
		return nil, false
	}
	return u.animations.Get(id)
}

// Value reads a property for slot i. It must not race with Update.
func Value[T property.Value](u *UpdateManager, id ecs.EntityID, idx property.Index, i buffer.Index) (T, bool) {
	var zero T
	o, ok := u.Owner(id)
	if !ok {
		return zero, false
	}
	p, ok := property.Lookup[T](o, idx)
	if !ok {
		return zero, false
	}
	return p.Get(i), true
}

// BaseValue reads the value a property falls back to once nothing drives it.
func BaseValue[T property.Value](u *UpdateManager, id ecs.EntityID, idx property.Index) (T, bool) {
	var zero T
	o, ok := u.Owner(id)
	if !ok {
		return zero, false
	}
	p, ok := property.Lookup[T](o, idx)
	if !ok {
		return zero, false
	}
	return p.BaseValue(), true
}

func (u *UpdateManager) addNode(id ecs.EntityID) {
	o := property.NewOwner(id)
	registerStandard(o)
	u.nodes.Set(id, &node{owner: o})
}

func (u *UpdateManager) addAnimation(a *animation.Animation) {
	u.animations.Set(a.ID(), a)
}

// connect makes child the last child of parent, detaching it from any
// previous parent first.
func (u *UpdateManager) connect(parent, child ecs.EntityID, i buffer.Index) {
	p, ok := u.nodes.Get(parent)
	if !ok || parent == child {
		return
	}
	c, ok := u.nodes.Get(child)
	if !ok {
		return
	}
	if !c.parent.IsZero() {
		u.disconnect(child, i)
	}
	c.parent = parent
	p.children = append(p.children, child)
	if p.onStage {
		u.setStage(child, true, i)
	}
}

func (u *UpdateManager) disconnect(child ecs.EntityID, i buffer.Index) {
	c, ok := u.nodes.Get(child)
	if !ok || c.parent.IsZero() {
		return
	}
	if p, ok := u.nodes.Get(c.parent); ok {
		if n := slices.Index(p.children, child); n >= 0 {
			p.children = slices.Delete(p.children, n, n+1)
		}
	}
	c.parent = 0
	if c.onStage {
		u.setStage(child, false, i)
	}
}

// setStage walks the subtree of id, parents first, and tells every owner
// that it joined or left the stage.
func (u *UpdateManager) setStage(id ecs.EntityID, on bool, i buffer.Index) {
	n, ok := u.nodes.Get(id)
	if !ok || n.onStage == on {
		return
	}
	n.onStage = on
	if on {
		n.owner.NotifyConnected()
	} else {
		n.owner.NotifyDisconnected(i)
	}
	for _, c := range n.children {
		u.setStage(c, on, i)
	}
}

func (u *UpdateManager) markDestroyed(id ecs.EntityID) {
	if id == u.root || !u.world.Alive(id) || u.world.Pending(id) {
		return
	}
	u.world.MarkForDestruction(id)
}

// destroyed runs in the cleanup phase while the components of id still
// exist. A node leaves the stage before its owner is reported destroyed;
// its children stay alive, parentless.
func (u *UpdateManager) destroyed(id ecs.EntityID) {
	if a, ok := u.animations.Get(id); ok {
		a.Clear()
	}
	n, ok := u.nodes.Get(id)
	if !ok {
		return
	}
	for _, c := range slices.Clone(n.children) {
		u.disconnect(c, u.index)
	}
	u.disconnect(id, u.index)
	n.owner.NotifyDestroyed()
	event.Emit(u.bus, event.ObjectDestroyed{EntityID: id})
	u.log.Debug("node destroyed", zap.Stringer("id", id))
}

// treeOrder ranks on-stage nodes depth first, parents before children.
func (u *UpdateManager) treeOrder() {
	clear(u.rank)
	var walk func(id ecs.EntityID)
	walk = func(id ecs.EntityID) {
		u.rank[id] = len(u.rank)
		n, ok := u.nodes.Get(id)
		if !ok {
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(u.root)
}

func (u *UpdateManager) rankOf(id ecs.EntityID) int {
	if r, ok := u.rank[id]; ok {
		return r
	}
	return len(u.rank)
}
