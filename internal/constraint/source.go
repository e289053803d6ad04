package constraint

import (
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

// SourceKind says where a constraint input is read from.
type SourceKind int

const (
	// LocalSource reads a property of the constrained object itself.
	LocalSource SourceKind = iota
	// ParentSource reads a property of the constrained object's parent.
	ParentSource
	// ObjectSource reads a property of any other object.
	ObjectSource
)

// Source is one declared input of a constraint.
type Source struct {
	Kind   SourceKind
	Object ecs.EntityID // ObjectSource only
	Index  property.Index
}

func Local(idx property.Index) Source  { return Source{Kind: LocalSource, Index: idx} }
func Parent(idx property.Index) Source { return Source{Kind: ParentSource, Index: idx} }

func Object(id ecs.EntityID, idx property.Index) Source {
	return Source{Kind: ObjectSource, Object: id, Index: idx}
}

// Resolver gives update-side access to live owners and the tree.
type Resolver interface {
	Owner(id ecs.EntityID) (*property.Owner, bool)
	Parent(id ecs.EntityID) (ecs.EntityID, bool)
}

func (s Source) resolve(r Resolver, target ecs.EntityID) (property.Base, bool) {
	id := target
	switch s.Kind {
	case ParentSource:
		p, ok := r.Parent(target)
		if !ok {
			return nil, false
		}
		id = p
	case ObjectSource:
		id = s.Object
	}
	o, ok := r.Owner(id)
	if !ok {
		return nil, false
	}
	return o.Property(s.Index)
}

// Inputs is the ordered snapshot of a constraint's sources for one frame.
type Inputs struct {
	index buffer.Index
	props []property.Base
}

func (in Inputs) Len() int { return len(in.props) }

// Input returns source n as T. A source of another kind yields the zero
// value and false.
func Input[T property.Value](in Inputs, n int) (T, bool) {
	var zero T
	if n < 0 || n >= len(in.props) {
		return zero, false
	}
	p, ok := in.props[n].(*property.Animatable[T])
	if !ok {
		return zero, false
	}
	return p.Get(in.index), true
}

func (in Inputs) Float(n int) float32 {
	v, _ := Input[float32](in, n)
	return v
}

func (in Inputs) Int(n int) int {
	v, _ := Input[int](in, n)
	return v
}

func (in Inputs) Bool(n int) bool {
	v, _ := Input[bool](in, n)
	return v
}

func (in Inputs) Vector2(n int) property.Vector2 {
	v, _ := Input[property.Vector2](in, n)
	return v
}

func (in Inputs) Vector3(n int) property.Vector3 {
	v, _ := Input[property.Vector3](in, n)
	return v
}

func (in Inputs) Vector4(n int) property.Vector4 {
	v, _ := Input[property.Vector4](in, n)
	return v
}

func (in Inputs) Quaternion(n int) property.Quaternion {
	v, ok := Input[property.Quaternion](in, n)
	if !ok {
		return property.IdentityQuaternion
	}
	return v
}

// Kind returns the kind of source n.
func (in Inputs) Kind(n int) property.Kind {
	if n < 0 || n >= len(in.props) {
		return property.KindNone
	}
	return in.props[n].Kind()
}
