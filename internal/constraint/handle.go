package constraint

import (
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/message"
	"github.com/vellum/scenecore/internal/property"
)

// Host is the update manager as seen by constraint handles. Messages run on
// the update goroutine; AddConstraint and RemoveConstraint are called from
// those messages only.
type Host interface {
	Resolver
	Messages() *message.Queue
	AddConstraint(c Applier)
	RemoveConstraint(c Applier, i buffer.Index)
}

type definition interface {
	target() ecs.EntityID
	targetIndex() property.Index
	build(r Resolver, tag Tag, action RemoveAction) (Applier, error)
	clone(target ecs.EntityID) definition
}

type typedDefinition[T property.Value] struct {
	targetID ecs.EntityID
	idx      property.Index
	fn       Func[T]
	sources  []Source
}

func (d *typedDefinition[T]) target() ecs.EntityID        { return d.targetID }
func (d *typedDefinition[T]) targetIndex() property.Index { return d.idx }

func (d *typedDefinition[T]) clone(target ecs.EntityID) definition {
	return &typedDefinition[T]{
		targetID: target,
		idx:      d.idx,
		fn:       d.fn,
		sources:  append([]Source(nil), d.sources...),
	}
}

type state struct {
	host    Host
	def     definition
	tag     Tag
	action  RemoveAction
	applied Applier // update-side instance, touched inside messages only
	active  bool    // event-side view
	onError func(error)
}

// Handle is the event-side constraint. The zero Handle is uninitialized;
// using it is a programming error and panics.
type Handle struct {
	s *state
}

// New defines a constraint on property idx of target. Nothing happens
// until Apply.
func New[T property.Value](host Host, target ecs.EntityID, idx property.Index, fn Func[T], sources ...Source) Handle {
	return Handle{s: &state{
		host: host,
		def: &typedDefinition[T]{
			targetID: target,
			idx:      idx,
			fn:       fn,
			sources:  append([]Source(nil), sources...),
		},
		action: Bake,
	}}
}

func (h Handle) mustState() *state {
	if h.s == nil {
		panic("constraint: use of uninitialized Handle")
	}
	return h.s
}

// Valid reports whether h was created by New or Clone.
func (h Handle) Valid() bool { return h.s != nil }

func (h Handle) TargetObject() ecs.EntityID     { return h.mustState().def.target() }
func (h Handle) TargetProperty() property.Index { return h.mustState().def.targetIndex() }
func (h Handle) Tag() Tag                       { return h.mustState().tag }
func (h Handle) RemoveAction() RemoveAction     { return h.mustState().action }
func (h Handle) IsApplied() bool                { return h.mustState().active }

// SetTag takes effect on the next Apply.
func (h Handle) SetTag(t Tag) { h.mustState().tag = t }

// SetRemoveAction takes effect on the next Apply.
func (h Handle) SetRemoveAction(a RemoveAction) { h.mustState().action = a }

// OnError registers a callback for failures to attach on the update side,
// e.g. a target destroyed before the apply message was processed. It runs
// on the update goroutine and takes effect on the next Apply.
func (h Handle) OnError(fn func(error)) { h.mustState().onError = fn }

// Apply starts evaluating the constraint from the next frame on.
func (h Handle) Apply() {
	s := h.mustState()
	if s.active {
		return
	}
	s.active = true
	def, tag, action, onErr := s.def, s.tag, s.action, s.onError
	s.host.Messages().PushFunc(func(buffer.Index) {
		a, err := def.build(s.host, tag, action)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		s.applied = a
		s.host.AddConstraint(a)
	})
}

// Remove stops the constraint and applies its RemoveAction.
func (h Handle) Remove() {
	s := h.mustState()
	if !s.active {
		return
	}
	s.active = false
	s.host.Messages().PushFunc(func(i buffer.Index) {
		if s.applied == nil {
			return
		}
		s.host.RemoveConstraint(s.applied, i)
		s.applied = nil
	})
}

// Clone copies the function, sources, tag and remove action onto another
// target. The clone is not applied.
func (h Handle) Clone(target ecs.EntityID) Handle {
	s := h.mustState()
	return Handle{s: &state{
		host:   s.host,
		def:    s.def.clone(target),
		tag:    s.tag,
		action: s.action,
	}}
}

func (d *typedDefinition[T]) build(r Resolver, tag Tag, action RemoveAction) (Applier, error) {
	a, err := newApplier(r, d.targetID, d.idx, d.fn, d.sources, action, tag)
	if err != nil {
		return nil, err
	}
	return a, nil
}
