package animation

import (
	"fmt"

	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

// Action decides what happens to animated values when an animation ends,
// or when the animated object leaves the scene mid-animation.
type Action int

const (
	// Bake keeps the value reached at the time of stopping.
	Bake Action = iota
	// BakeFinal keeps the target value, as if the animation had completed.
	BakeFinal
	// Discard lets the property fall back to its base value.
	Discard
)

func (a Action) String() string {
	switch a {
	case Bake:
		return "bake"
	case BakeFinal:
		return "bake_final"
	case Discard:
		return "discard"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// TimePeriod is the active interval of an animator inside its animation,
// in seconds.
type TimePeriod struct {
	Delay    float32
	Duration float32
}

// Animator is the type-erased animator held by an Animation.
type Animator interface {
	property.Observer
	// Update writes the value for progress into slot i, baking it when bake
	// is set. It returns false without touching anything when disabled.
	Update(i buffer.Index, progress float32, bake bool) bool
	Period() TimePeriod
	SetActive(bool)
	IsActive() bool
	IsEnabled() bool
	// Orphaned reports that the target owner was destroyed.
	Orphaned() bool
	SetDisconnectAction(Action)
	// Detach stops observing the owner.
	Detach()
}

// PropertyAnimator animates one property of one owner. It keeps the owner's
// id only; the property accessor is dropped as soon as the owner is
// destroyed.
type PropertyAnimator[T property.Value] struct {
	ownerID  ecs.EntityID
	owner    *property.Owner
	prop     *property.Animatable[T]
	fn       Func[T]
	period   TimePeriod
	alpha    AlphaFunction
	action   Action
	active   bool
	enabled  bool
	progress float32
}

// NewAnimator attaches an animator for property idx of owner.
func NewAnimator[T property.Value](owner *property.Owner, idx property.Index, fn Func[T], alpha AlphaFunction, period TimePeriod) (*PropertyAnimator[T], error) {
	prop, ok := property.Lookup[T](owner, idx)
	if !ok {
		return nil, fmt.Errorf("animator: owner %v has no %s property %d", owner.ID(), property.KindOf[T](), idx)
	}
	if alpha == nil {
		alpha = Default
	}
	a := &PropertyAnimator[T]{
		ownerID: owner.ID(),
		owner:   owner,
		prop:    prop,
		fn:      fn,
		period:  period,
		alpha:   alpha,
		action:  BakeFinal,
		enabled: true,
	}
	owner.AddObserver(a)
	return a, nil
}

func (a *PropertyAnimator[T]) OwnerID() ecs.EntityID { return a.ownerID }

func (a *PropertyAnimator[T]) Period() TimePeriod { return a.period }
func (a *PropertyAnimator[T]) SetActive(v bool)   { a.active = v }
func (a *PropertyAnimator[T]) IsActive() bool     { return a.active }
func (a *PropertyAnimator[T]) IsEnabled() bool    { return a.enabled }
func (a *PropertyAnimator[T]) Orphaned() bool     { return a.prop == nil }

func (a *PropertyAnimator[T]) SetDisconnectAction(act Action) { a.action = act }

func (a *PropertyAnimator[T]) Update(i buffer.Index, progress float32, bake bool) bool {
	if !a.enabled || a.prop == nil {
		return false
	}
	alpha := a.alpha(progress)
	result := a.fn(alpha, a.prop.Get(i))
	if bake {
		a.prop.Bake(i, result)
	} else {
		a.prop.Set(i, result)
	}
	a.progress = progress
	return true
}

func (a *PropertyAnimator[T]) OwnerConnected(*property.Owner) {
	if a.prop != nil {
		a.enabled = true
	}
}

func (a *PropertyAnimator[T]) OwnerDisconnected(i buffer.Index, _ *property.Owner) {
	if a.active && a.action != Discard {
		p := a.progress
		if a.action == BakeFinal {
			p = 1
		}
		a.Update(i, p, true)
	}
	a.active = false
	a.enabled = false
}

func (a *PropertyAnimator[T]) OwnerDestroyed(*property.Owner) {
	a.owner = nil
	a.prop = nil
	a.active = false
	a.enabled = false
}

func (a *PropertyAnimator[T]) Detach() {
	if a.owner != nil {
		a.owner.RemoveObserver(a)
	}
}
