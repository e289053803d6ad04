package buffer

import "sync/atomic"

// Index selects one of the two slots of every double-buffered value.
// The update goroutine writes Counter.UpdateIndex(), the render side reads
// Counter.RenderIndex(); the two are always different.
type Index uint8

// Other returns the opposite slot.
func (i Index) Other() Index { return 1 - i }

// Counter is the global frame counter. Its parity decides which slot is
// being written this frame. Advancing it is the only synchronization point
// between update and render: the render side never reads the slot that the
// current frame is writing.
type Counter struct {
	frame atomic.Uint64
}

// Frame returns the number of frames completed so far.
func (c *Counter) Frame() uint64 { return c.frame.Load() }

// UpdateIndex returns the slot written by the frame in progress.
func (c *Counter) UpdateIndex() Index { return Index(c.frame.Load() & 1) }

// RenderIndex returns the slot finalized by the previous frame.
func (c *Counter) RenderIndex() Index { return c.UpdateIndex().Other() }

// Swap finishes a frame and hands the written slot to the render side.
// Called by the update loop only, once per processed frame.
func (c *Counter) Swap() uint64 { return c.frame.Add(1) }

// DoubleBuffered holds two copies of a value. It never swaps itself; the
// frame owner does that through Counter.
type DoubleBuffered[T any] struct {
	values [2]T
}

// NewDoubleBuffered returns a value with both slots set to v.
func NewDoubleBuffered[T any](v T) DoubleBuffered[T] {
	return DoubleBuffered[T]{values: [2]T{v, v}}
}

func (d *DoubleBuffered[T]) Get(i Index) T { return d.values[i] }

func (d *DoubleBuffered[T]) Set(i Index, v T) { d.values[i] = v }

// Bake writes v into both slots.
func (d *DoubleBuffered[T]) Bake(v T) {
	d.values[0] = v
	d.values[1] = v
}
