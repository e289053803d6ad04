package property

import "github.com/vellum/scenecore/internal/core/buffer"

// Dirty flags. A Set value is reset from the base value for two frames so
// both slots return to base; a Baked value needs one frame to copy the new
// base into the other slot.
const (
	cleanFlag uint8 = 0x00
	bakedFlag uint8 = 0x01
	setFlag   uint8 = 0x02
)

// Base is the type-erased view of a property held by an Owner.
type Base interface {
	Kind() Kind
	// ResetToBaseValue copies the base value into slot i when the property
	// was written during the last two frames.
	ResetToBaseValue(i buffer.Index)
	IsClean() bool
}

// Animatable is a double-buffered scene property with a base value.
// Only the update goroutine writes it; the render side reads the slot the
// previous frame finalized.
type Animatable[T Value] struct {
	value buffer.DoubleBuffered[T]
	base  T
	dirty uint8
}

// NewAnimatable returns a property holding v in both slots and as base.
func NewAnimatable[T Value](v T) *Animatable[T] {
	return &Animatable[T]{value: buffer.NewDoubleBuffered(v), base: v}
}

func (p *Animatable[T]) Kind() Kind { return KindOf[T]() }

func (p *Animatable[T]) Get(i buffer.Index) T { return p.value.Get(i) }

// BaseValue returns the value that survives once animators and
// constraints stop writing.
func (p *Animatable[T]) BaseValue() T { return p.base }

// Set writes slot i only. The value is reset to base on later frames
// unless written again.
func (p *Animatable[T]) Set(i buffer.Index, v T) {
	p.value.Set(i, v)
	p.dirty = setFlag
}

// Bake writes slot i and the base value.
func (p *Animatable[T]) Bake(i buffer.Index, v T) {
	p.value.Set(i, v)
	p.base = v
	p.dirty = bakedFlag
}

// SetInitial writes both slots and the base; only valid before the owner
// is visible to the render side.
func (p *Animatable[T]) SetInitial(v T) {
	p.value.Bake(v)
	p.base = v
	p.dirty = cleanFlag
}

func (p *Animatable[T]) ResetToBaseValue(i buffer.Index) {
	if p.dirty == cleanFlag {
		return
	}
	p.value.Set(i, p.base)
	p.dirty >>= 1
}

func (p *Animatable[T]) IsClean() bool { return p.dirty == cleanFlag }
