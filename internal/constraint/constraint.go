package constraint

import (
	"fmt"

	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

// Func computes the constrained value from the property's current value and
// the ordered sources.
type Func[T property.Value] func(current T, in Inputs) T

// RemoveAction decides what the target keeps once a constraint is removed.
type RemoveAction int

const (
	// Bake keeps the last computed value.
	Bake RemoveAction = iota
	// Discard reverts to the value the property had without the constraint.
	Discard
)

func (r RemoveAction) String() string {
	if r == Discard {
		return "discard"
	}
	return "bake"
}

// Tag groups constraints so they can be removed together. Zero is untagged.
type Tag uint32

// Applier is an update-side constraint.
type Applier interface {
	property.Observer
	TargetID() ecs.EntityID
	Tag() Tag
	// Apply evaluates the constraint into slot i.
	Apply(i buffer.Index) bool
	// OnRemove applies the remove action to slot i and detaches.
	OnRemove(i buffer.Index)
	Orphaned() bool
}

// applier is the update-side constraint for one property of one owner.
type applier[T property.Value] struct {
	owner    *property.Owner
	targetID ecs.EntityID
	prop     *property.Animatable[T]
	fn       Func[T]
	sources  []Source
	resolver Resolver
	action   RemoveAction
	tag      Tag
	enabled  bool
	applied  bool
	last     T
	scratch  []property.Base
}

func newApplier[T property.Value](r Resolver, target ecs.EntityID, idx property.Index, fn Func[T], sources []Source, action RemoveAction, tag Tag) (*applier[T], error) {
	o, ok := r.Owner(target)
	if !ok {
		return nil, fmt.Errorf("constraint: target %v is gone", target)
	}
	prop, ok := property.Lookup[T](o, idx)
	if !ok {
		return nil, fmt.Errorf("constraint: target %v has no %s property %d", target, property.KindOf[T](), idx)
	}
	a := &applier[T]{
		owner:    o,
		targetID: target,
		prop:     prop,
		fn:       fn,
		sources:  sources,
		resolver: r,
		action:   action,
		tag:      tag,
		enabled:  true,
		scratch:  make([]property.Base, len(sources)),
	}
	o.AddObserver(a)
	return a, nil
}

func (a *applier[T]) TargetID() ecs.EntityID { return a.targetID }
func (a *applier[T]) Tag() Tag               { return a.tag }
func (a *applier[T]) Orphaned() bool         { return a.prop == nil }

func (a *applier[T]) Apply(i buffer.Index) bool {
	if !a.enabled || a.prop == nil {
		return false
	}
	for n, s := range a.sources {
		p, ok := s.resolve(a.resolver, a.targetID)
		if !ok {
			return false // a source is missing this frame
		}
		a.scratch[n] = p
	}
	v := a.fn(a.prop.Get(i), Inputs{index: i, props: a.scratch})
	a.prop.Set(i, v)
	a.last = v
	a.applied = true
	return true
}

func (a *applier[T]) OnRemove(i buffer.Index) {
	if a.prop != nil && a.applied && a.action == Bake {
		a.prop.Bake(i, a.last)
	}
	if a.owner != nil {
		a.owner.RemoveObserver(a)
	}
	a.enabled = false
}

func (a *applier[T]) OwnerConnected(*property.Owner) {
	if a.prop != nil {
		a.enabled = true
	}
}

func (a *applier[T]) OwnerDisconnected(i buffer.Index, _ *property.Owner) {
	if a.prop != nil && a.applied && a.action == Bake {
		a.prop.Bake(i, a.last)
	}
	a.enabled = false
}

func (a *applier[T]) OwnerDestroyed(*property.Owner) {
	a.owner = nil
	a.prop = nil
	a.enabled = false
	clear(a.scratch)
}
