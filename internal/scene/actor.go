package scene

import (
	"slices"

	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/message"
	"github.com/vellum/scenecore/internal/property"
)

// Actor is the event-side handle of a scene node. Setters take effect on
// the update side during the next frame.
type Actor struct {
	core        *Core
	id          ecs.EntityID
	parent      *Actor
	children    []*Actor
	constraints []constraint.Handle
	image       *Image
	nextCustom  property.Index
	destroyed   bool
}

// NewActor creates an actor that is not on stage.
func (c *Core) NewActor() *Actor {
	a := &Actor{core: c, id: c.update.NewID(), nextCustom: FirstCustomProperty}
	u, id := c.update, a.id
	c.queue.PushFunc(func(buffer.Index) { u.addNode(id) })
	return a
}

func (a *Actor) ID() ecs.EntityID   { return a.id }
func (a *Actor) Parent() *Actor     { return a.parent }
func (a *Actor) Children() []*Actor { return slices.Clone(a.children) }
func (a *Actor) IsDestroyed() bool  { return a.destroyed }
func (a *Actor) IsStage() bool      { return a == a.core.stage }
func (a *Actor) Constraints() int   { return len(a.constraints) }
func (a *Actor) Image() *Image      { return a.image }

// OnStage reports whether the actor is connected to the stage.
func (a *Actor) OnStage() bool {
	for p := a; p != nil; p = p.parent {
		if p.IsStage() {
			return true
		}
	}
	return false
}

// Add makes child the last child of a, removing it from its previous
// parent first.
func (a *Actor) Add(child *Actor) {
	if child == nil || child == a || child.destroyed || a.destroyed || child.IsStage() {
		return
	}
	for p := a; p != nil; p = p.parent {
		if p == child {
			return // would create a cycle
		}
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	wasOnStage := child.OnStage()
	child.parent = a
	a.children = append(a.children, child)

	u, parent, id := a.core.update, a.id, child.id
	a.core.queue.PushFunc(func(i buffer.Index) { u.connect(parent, id, i) })
	if !wasOnStage && child.OnStage() {
		child.stageChanged(true)
	}
}

// Remove detaches child from a.
func (a *Actor) Remove(child *Actor) {
	if child == nil || child.parent != a {
		return
	}
	wasOnStage := child.OnStage()
	a.removeChild(child)
	u, id := a.core.update, child.id
	a.core.queue.PushFunc(func(i buffer.Index) { u.disconnect(id, i) })
	if wasOnStage {
		child.stageChanged(false)
	}
}

// Unparent removes a from its parent, if any.
func (a *Actor) Unparent() {
	if a.parent != nil {
		a.parent.Remove(a)
	}
}

func (a *Actor) removeChild(child *Actor) {
	if n := slices.Index(a.children, child); n >= 0 {
		a.children = slices.Delete(a.children, n, n+1)
	}
	child.parent = nil
}

func (a *Actor) stageChanged(on bool) {
	if a.image != nil {
		if on {
			a.image.Connect()
		} else {
			a.image.Disconnect()
		}
	}
	for _, c := range a.children {
		c.stageChanged(on)
	}
}

// Destroy removes the actor from the scene. The node is torn down at the
// end of the next frame; children are left parentless.
func (a *Actor) Destroy() {
	if a.destroyed || a.IsStage() {
		return
	}
	if a.OnStage() {
		a.stageChanged(false)
	}
	if a.parent != nil {
		a.parent.removeChild(a)
	}
	for _, c := range slices.Clone(a.children) {
		a.removeChild(c)
	}
	a.SetImage(nil)
	a.constraints = nil
	a.destroyed = true

	u, id := a.core.update, a.id
	a.core.queue.PushFunc(func(buffer.Index) { u.markDestroyed(id) })
}

// SetImage attaches im to the actor. An on-stage actor keeps its image
// connected.
func (a *Actor) SetImage(im *Image) {
	if a.image == im {
		return
	}
	if a.image != nil && a.OnStage() {
		a.image.Disconnect()
	}
	a.image = im
	if im != nil && a.OnStage() {
		im.Connect()
	}
}

func (a *Actor) SetPosition(v property.Vector3)       { SetProperty(a, Position, v) }
func (a *Actor) SetSize(v property.Vector3)           { SetProperty(a, Size, v) }
func (a *Actor) SetScale(v property.Vector3)          { SetProperty(a, Scale, v) }
func (a *Actor) SetOrientation(q property.Quaternion) { SetProperty(a, Orientation, q) }
func (a *Actor) SetColor(v property.Vector4)          { SetProperty(a, Color, v) }
func (a *Actor) SetVisible(v bool)                    { SetProperty(a, Visible, v) }

// SetProperty bakes v into property idx of a.
func SetProperty[T property.Value](a *Actor, idx property.Index, v T) {
	message.BakeProperty(a.core.queue, a.core.update, a.id, idx, v)
}

// SetPropertyForFrame writes v for one frame only; the property falls
// back to its base value afterwards.
func SetPropertyForFrame[T property.Value](a *Actor, idx property.Index, v T) {
	message.SetProperty(a.core.queue, a.core.update, a.id, idx, v)
}

// RegisterProperty adds a custom animatable property to a and returns
// its index.
func RegisterProperty[T property.Value](a *Actor, initial T) property.Index {
	idx := a.nextCustom
	a.nextCustom++
	u, id := a.core.update, a.id
	a.core.queue.PushFunc(func(buffer.Index) {
		if o, ok := u.Owner(id); ok {
			o.Register(idx, property.NewAnimatable(initial))
		}
	})
	return idx
}

// CurrentValue reads the value the last finished frame produced. It must
// not race with Core.Update.
func CurrentValue[T property.Value](a *Actor, idx property.Index) (T, bool) {
	u := a.core.update
	return Value[T](u, a.id, idx, u.RenderIndex())
}

// Constrain defines a constraint on property idx of a, applies it and
// returns its handle.
func Constrain[T property.Value](a *Actor, idx property.Index, fn constraint.Func[T], sources ...constraint.Source) constraint.Handle {
	h := constraint.New(a.core.update, a.id, idx, fn, sources...)
	a.ApplyConstraint(h)
	return h
}

// ApplyConstraint applies h, which must target a, and tracks it for
// RemoveConstraints.
func (a *Actor) ApplyConstraint(h constraint.Handle) {
	if h.TargetObject() != a.id || a.destroyed {
		return
	}
	h.Apply()
	if !slices.Contains(a.constraints, h) {
		a.constraints = append(a.constraints, h)
	}
}

// RemoveConstraint removes one constraint applied through a.
func (a *Actor) RemoveConstraint(h constraint.Handle) {
	if n := slices.Index(a.constraints, h); n >= 0 {
		a.constraints = slices.Delete(a.constraints, n, n+1)
		h.Remove()
	}
}

// RemoveConstraints removes the constraints applied through a with the
// given tag, in the order they were applied.
func (a *Actor) RemoveConstraints(tag constraint.Tag) {
	kept := a.constraints[:0]
	var removed []constraint.Handle
	for _, h := range a.constraints {
		if h.Tag() == tag {
			removed = append(removed, h)
		} else {
			kept = append(kept, h)
		}
	}
	a.constraints = kept
	for _, h := range removed {
		h.Remove()
	}
}

// RemoveAllConstraints removes every constraint applied through a.
func (a *Actor) RemoveAllConstraints() {
	hs := a.constraints
	a.constraints = nil
	for _, h := range hs {
		h.Remove()
	}
}
