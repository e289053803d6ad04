package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

const (
	idxFloat property.Index = iota
	idxInt
	idxBool
	idxPosition
	idxOrientation
)

func newOwner() *property.Owner {
	o := property.NewOwner(ecs.NewEntityID(1, 1))
	o.Register(idxFloat, property.NewAnimatable[float32](0))
	o.Register(idxInt, property.NewAnimatable(0))
	o.Register(idxBool, property.NewAnimatable(false))
	o.Register(idxPosition, property.NewAnimatable(property.Vector3{}))
	o.Register(idxOrientation, property.NewAnimatable(property.IdentityQuaternion))
	return o
}

func prop[T property.Value](t *testing.T, o *property.Owner, idx property.Index) *property.Animatable[T] {
	p, ok := property.Lookup[T](o, idx)
	require.True(t, ok)
	return p
}

func TestByAndToFunctions(t *testing.T) {
	assert.Equal(t, float32(15), By[float32](10)(0.5, 10))
	assert.Equal(t, float32(15), To[float32](20)(0.5, 10))

	// +0.5 then truncate
	assert.Equal(t, 3, By(5)(0.5, 0))
	assert.Equal(t, 2, By(5)(0.4, 0))
	assert.Equal(t, 8, To(10)(0.75, 0))

	assert.False(t, To(true)(0.99, false))
	assert.True(t, To(true)(1, false))
	assert.True(t, By(true)(1, false))
	assert.False(t, By(false)(1, false))

	assert.Equal(t, property.Vector3{X: 1, Y: 2, Z: 3}, To(property.Vector3{X: 2, Y: 4, Z: 6})(0.5, property.Vector3{}))
	assert.Equal(t, property.Vector2{X: 2, Y: 2}, By(property.Vector2{X: 4, Y: 4})(0.5, property.Vector2{}))
	assert.Equal(t, property.Vector4{W: 1}, To(property.Vector4{W: 2})(0.5, property.Vector4{}))

	target := property.AxisAngle(property.Vector3{Y: 1}, 2)
	mid := To(target)(0.5, property.IdentityQuaternion)
	assert.True(t, mid.ApproxEqual(property.AxisAngle(property.Vector3{Y: 1}, 1), 1e-5))

	rot := RotateBy(property.Vector3{Y: 1}, 2)(0.5, property.IdentityQuaternion)
	assert.True(t, rot.ApproxEqual(property.AxisAngle(property.Vector3{Y: 1}, 1), 1e-5))
}

func TestAnimationRunsToCompletion(t *testing.T) {
	o := newOwner()
	a := New(ecs.NewEntityID(2, 1), 1, BakeFinal, BakeFinal)
	an, err := NewAnimator(o, idxFloat, To[float32](100), Linear, TimePeriod{Duration: 1})
	require.NoError(t, err)
	a.AddAnimator(an)
	a.Play()

	p := prop[float32](t, o, idxFloat)
	var idx buffer.Index
	_, finished := a.Update(idx, 0.25)
	assert.False(t, finished)
	assert.Equal(t, float32(25), p.Get(idx))
	assert.Equal(t, float32(0), p.BaseValue())

	p.ResetToBaseValue(idx.Other())
	_, finished = a.Update(idx.Other(), 1)
	assert.True(t, finished)
	assert.Equal(t, Stopped, a.State())
	assert.Equal(t, float32(100), p.BaseValue())
}

func TestAnimationDelayAndDiscard(t *testing.T) {
	o := newOwner()
	a := New(ecs.NewEntityID(2, 1), 2, Discard, Discard)
	an, err := NewAnimator(o, idxPosition, By(property.Vector3{X: 10}), nil, TimePeriod{Delay: 1, Duration: 1})
	require.NoError(t, err)
	a.AddAnimator(an)
	a.Play()

	p := prop[property.Vector3](t, o, idxPosition)
	a.Update(0, 0.5)
	assert.False(t, an.IsActive())
	assert.Equal(t, property.Vector3{}, p.Get(0))

	a.Update(0, 1)
	assert.True(t, an.IsActive())
	assert.Equal(t, property.Vector3{X: 5}, p.Get(0))

	_, finished := a.Update(0, 1)
	assert.True(t, finished)
	assert.Equal(t, property.Vector3{}, p.BaseValue())
}

func TestAnimationLoops(t *testing.T) {
	o := newOwner()
	a := New(ecs.NewEntityID(2, 1), 1, Bake, Bake)
	a.SetLoopCount(2)
	an, err := NewAnimator(o, idxInt, To(10), Linear, TimePeriod{Duration: 1})
	require.NoError(t, err)
	a.AddAnimator(an)
	a.Play()

	looped, finished := a.Update(0, 1.5)
	assert.True(t, looped)
	assert.False(t, finished)
	assert.InDelta(t, 0.5, a.Elapsed(), 1e-6)

	_, finished = a.Update(0, 1)
	assert.True(t, finished)
	assert.Equal(t, 10, prop[int](t, o, idxInt).BaseValue())
}

func TestStopBakesCurrentValue(t *testing.T) {
	o := newOwner()
	a := New(ecs.NewEntityID(2, 1), 4, Bake, Bake)
	an, err := NewAnimator(o, idxFloat, To[float32](40), Linear, TimePeriod{Duration: 4})
	require.NoError(t, err)
	a.AddAnimator(an)
	a.Play()
	a.Update(0, 1)
	prop[float32](t, o, idxFloat).ResetToBaseValue(0)
	a.Stop(0)
	assert.Equal(t, float32(10), prop[float32](t, o, idxFloat).BaseValue())
}

func TestDisconnectBakesOnceThenDisables(t *testing.T) {
	for _, tc := range []struct {
		action Action
		want   float32
	}{
		{Bake, 50},
		{BakeFinal, 100},
		{Discard, 0},
	} {
		t.Run(tc.action.String(), func(t *testing.T) {
			o := newOwner()
			a := New(ecs.NewEntityID(2, 1), 2, Bake, tc.action)
			an, err := NewAnimator(o, idxFloat, To[float32](100), Linear, TimePeriod{Duration: 2})
			require.NoError(t, err)
			a.AddAnimator(an)
			a.Play()
			a.Update(0, 1)

			// next frame: reset, then the disconnect message
			prop[float32](t, o, idxFloat).ResetToBaseValue(0)
			o.NotifyDisconnected(0)
			assert.False(t, an.IsEnabled())
			assert.False(t, an.IsActive())
			assert.Equal(t, tc.want, prop[float32](t, o, idxFloat).BaseValue())

			// disabled: no further writes
			assert.False(t, an.Update(0, 1, true))
			assert.Equal(t, tc.want, prop[float32](t, o, idxFloat).BaseValue())

			o.NotifyConnected()
			assert.True(t, an.IsEnabled())
		})
	}
}

func TestOwnerDestroyedDropsAnimator(t *testing.T) {
	o := newOwner()
	a := New(ecs.NewEntityID(2, 1), 2, BakeFinal, BakeFinal)
	an, err := NewAnimator(o, idxOrientation, To(property.AxisAngle(property.Vector3{Z: 1}, 1)), Linear, TimePeriod{Duration: 2})
	require.NoError(t, err)
	a.AddAnimator(an)
	a.Play()
	a.Update(0, 1)

	p := prop[property.Quaternion](t, o, idxOrientation)
	o.NotifyDisconnected(0)
	baked := p.BaseValue()
	o.NotifyDestroyed()

	assert.True(t, an.Orphaned())
	assert.False(t, an.Update(0, 1, true))
	assert.False(t, an.IsEnabled())

	a.Update(0, 0.5)
	assert.Equal(t, 0, a.AnimatorCount())
	assert.Equal(t, baked, p.BaseValue())
}

func TestNewAnimatorRejectsWrongKind(t *testing.T) {
	o := newOwner()
	_, err := NewAnimator(o, idxFloat, To(1), Linear, TimePeriod{Duration: 1})
	assert.Error(t, err)
}
