package message

import (
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

// Resolver turns a weak owner id into the live owner, if any.
type Resolver interface {
	Owner(id ecs.EntityID) (*property.Owner, bool)
}

// BakeProperty queues a plain message: the value becomes the property's
// base value and reaches both slots.
func BakeProperty[T property.Value](q *Queue, r Resolver, id ecs.EntityID, idx property.Index, v T) {
	q.PushFunc(func(i buffer.Index) {
		if p, ok := lookup[T](r, id, idx); ok {
			p.Bake(i, v)
		}
	})
}

// SetProperty queues a double-buffered message: the value is written into
// the slot being updated only, so the frame currently rendered is not
// affected and the value is reset once nothing writes it again.
func SetProperty[T property.Value](q *Queue, r Resolver, id ecs.EntityID, idx property.Index, v T) {
	q.PushFunc(func(i buffer.Index) {
		if p, ok := lookup[T](r, id, idx); ok {
			p.Set(i, v)
		}
	})
}

func lookup[T property.Value](r Resolver, id ecs.EntityID, idx property.Index) (*property.Animatable[T], bool) {
	o, ok := r.Owner(id)
	if !ok {
		return nil, false // target destroyed before the drain
	}
	return property.Lookup[T](o, idx)
}
