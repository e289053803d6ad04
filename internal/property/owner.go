package property

import (
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
)

// Index identifies a property on an Owner.
type Index int

// InvalidIndex is never registered.
const InvalidIndex Index = -1

// Observer is notified when an owner joins or leaves the scene or is
// destroyed. Animators and constraints implement it; they never keep the
// owner alive.
type Observer interface {
	OwnerConnected(o *Owner)
	OwnerDisconnected(i buffer.Index, o *Owner)
	OwnerDestroyed(o *Owner)
}

// Owner is an update-side object that holds animatable properties.
type Owner struct {
	id        ecs.EntityID
	props     map[Index]Base
	order     []Index
	observers []Observer
}

func NewOwner(id ecs.EntityID) *Owner {
	return &Owner{id: id, props: make(map[Index]Base, 8)}
}

func (o *Owner) ID() ecs.EntityID { return o.id }

// Register installs p under idx, replacing any previous property.
func (o *Owner) Register(idx Index, p Base) {
	if _, ok := o.props[idx]; !ok {
		o.order = append(o.order, idx)
	}
	o.props[idx] = p
}

func (o *Owner) Property(idx Index) (Base, bool) {
	p, ok := o.props[idx]
	return p, ok
}

// Indices returns the registered property indices in registration order.
func (o *Owner) Indices() []Index { return o.order }

// ResetToBaseValues resets every dirty property for slot i.
func (o *Owner) ResetToBaseValues(i buffer.Index) {
	for _, idx := range o.order {
		o.props[idx].ResetToBaseValue(i)
	}
}

func (o *Owner) AddObserver(obs Observer) {
	for _, e := range o.observers {
		if e == obs {
			return
		}
	}
	o.observers = append(o.observers, obs)
}

func (o *Owner) RemoveObserver(obs Observer) {
	for i, e := range o.observers {
		if e == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// NotifyConnected tells every observer that the owner joined the scene.
func (o *Owner) NotifyConnected() {
	for _, obs := range append([]Observer(nil), o.observers...) {
		obs.OwnerConnected(o)
	}
}

// NotifyDisconnected tells every observer that the owner left the scene.
// Observers stay registered; they are dropped on destruction only.
func (o *Owner) NotifyDisconnected(i buffer.Index) {
	for _, obs := range append([]Observer(nil), o.observers...) {
		obs.OwnerDisconnected(i, o)
	}
}

// NotifyDestroyed tells every observer the owner is gone and forgets them.
func (o *Owner) NotifyDestroyed() {
	obs := o.observers
	o.observers = nil
	for _, e := range obs {
		e.OwnerDestroyed(o)
	}
}

// Lookup returns the typed property at idx.
func Lookup[T Value](o *Owner, idx Index) (*Animatable[T], bool) {
	if o == nil {
		return nil, false
	}
	p, ok := o.props[idx].(*Animatable[T])
	return p, ok
}
