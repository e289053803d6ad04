package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/animation"
	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/property"
	"github.com/vellum/scenecore/internal/resource"
	"github.com/vellum/scenecore/internal/resource/resourcetest"
)

const quarter = 250 * time.Millisecond

func newTestCore() (*Core, *resourcetest.Platform) {
	p := resourcetest.NewPlatform()
	return NewCore(p, Options{}, zap.NewNop()), p
}

// step runs one update frame and then the event side.
func step(c *Core, dt time.Duration) {
	c.Update(dt)
	c.ProcessEvents()
}

func position(t *testing.T, a *Actor) property.Vector3 {
	t.Helper()
	v, ok := CurrentValue[property.Vector3](a, Position)
	require.True(t, ok)
	return v
}

func basePosition(t *testing.T, c *Core, a *Actor) property.Vector3 {
	t.Helper()
	v, ok := BaseValue[property.Vector3](c.UpdateManager(), a.ID(), Position)
	require.True(t, ok)
	return v
}

func TestSetPropertyReachesUpdateSide(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	c.Stage().Add(a)
	a.SetPosition(property.Vector3{X: 1, Y: 2, Z: 3})

	_, ok := CurrentValue[property.Vector3](a, Position)
	assert.False(t, ok, "node does not exist before the first frame")

	step(c, quarter)
	assert.Equal(t, property.Vector3{X: 1, Y: 2, Z: 3}, position(t, a))
	assert.True(t, c.UpdateManager().OnStage(a.ID()))

	step(c, quarter)
	assert.Equal(t, property.Vector3{X: 1, Y: 2, Z: 3}, position(t, a), "baked values persist across swaps")
}

func TestSetPropertyForFrame(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	step(c, quarter)

	SetPropertyForFrame(a, Position, property.Vector3{X: 9})
	step(c, quarter)
	assert.Equal(t, property.Vector3{X: 9}, position(t, a))

	step(c, quarter)
	assert.Equal(t, property.Vector3{}, position(t, a))
}

func TestCustomProperty(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	idx := RegisterProperty[float32](a, 0.5)
	assert.Equal(t, FirstCustomProperty, idx)
	step(c, quarter)

	v, ok := CurrentValue[float32](a, idx)
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)

	SetProperty[float32](a, idx, 2)
	step(c, quarter)
	v, _ = CurrentValue[float32](a, idx)
	assert.Equal(t, float32(2), v)
}

func TestTreeAndStage(t *testing.T) {
	c, _ := newTestCore()
	parent, child := c.NewActor(), c.NewActor()
	parent.Add(child)
	assert.False(t, child.OnStage())

	c.Stage().Add(parent)
	assert.True(t, child.OnStage())
	step(c, quarter)

	u := c.UpdateManager()
	assert.True(t, u.OnStage(child.ID()))
	p, ok := u.Parent(child.ID())
	require.True(t, ok)
	assert.Equal(t, parent.ID(), p)

	child.Add(parent)
	assert.Same(t, parent, child.Parent(), "cycles are refused")

	parent.Unparent()
	step(c, quarter)
	assert.False(t, u.OnStage(child.ID()))
	assert.False(t, child.OnStage())
}

func animateToTen(c *Core, a *Actor, disconnect animation.Action) *Animation {
	an := c.NewAnimation(time.Second)
	an.SetDisconnectAction(disconnect)
	AnimateTo(an, a, Position, property.Vector3{X: 10}, animation.Linear, an.Period())
	an.Play()
	return an
}

func TestAnimationProgress(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	c.Stage().Add(a)
	an := animateToTen(c, a, animation.BakeFinal)

	finished := 0
	an.OnFinished(func(*Animation) { finished++ })

	step(c, quarter)
	step(c, quarter)
	assert.InDelta(t, 5, position(t, a).X, 1e-5)
	assert.Equal(t, property.Vector3{}, basePosition(t, c, a))

	step(c, quarter)
	step(c, quarter)
	assert.InDelta(t, 10, position(t, a).X, 1e-5)
	assert.Equal(t, 1, finished)
	assert.False(t, an.IsPlaying())
	assert.InDelta(t, 10, basePosition(t, c, a).X, 1e-5, "end action bakes")
}

func TestAnimatorDisconnectActions(t *testing.T) {
	tests := []struct {
		action animation.Action
		want   float32
	}{
		{animation.Bake, 5},
		{animation.BakeFinal, 10},
		{animation.Discard, 0},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			c, _ := newTestCore()
			a := c.NewActor()
			c.Stage().Add(a)
			animateToTen(c, a, tt.action)
			step(c, quarter)
			step(c, quarter)

			a.Unparent()
			step(c, quarter)
			step(c, quarter)
			assert.InDelta(t, tt.want, basePosition(t, c, a).X, 1e-5)
			assert.InDelta(t, tt.want, position(t, a).X, 1e-5)
		})
	}
}

func TestDestroyedOwnerStopsAnimator(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	c.Stage().Add(a)
	an := animateToTen(c, a, animation.BakeFinal)
	step(c, quarter)

	u := c.UpdateManager()
	o, ok := u.Owner(a.ID())
	require.True(t, ok)
	prop, ok := property.Lookup[property.Vector3](o, Position)
	require.True(t, ok)

	a.Destroy()
	step(c, quarter)
	_, ok = u.Owner(a.ID())
	assert.False(t, ok)
	assert.InDelta(t, 10, prop.BaseValue().X, 1e-5, "one final bake before the owner goes")

	before := [2]property.Vector3{prop.Get(0), prop.Get(1)}
	step(c, quarter)
	step(c, quarter)
	assert.Equal(t, before, [2]property.Vector3{prop.Get(0), prop.Get(1)}, "no writes after destruction")

	ua, ok := u.Animation(an.ID())
	require.True(t, ok)
	assert.Equal(t, 0, ua.AnimatorCount())
}

func TestDestroyLeavesChildrenParentless(t *testing.T) {
	c, _ := newTestCore()
	parent, child := c.NewActor(), c.NewActor()
	c.Stage().Add(parent)
	parent.Add(child)
	step(c, quarter)

	parent.Destroy()
	assert.Nil(t, child.Parent())
	step(c, quarter)

	u := c.UpdateManager()
	_, ok := u.Parent(child.ID())
	assert.False(t, ok)
	assert.False(t, u.OnStage(child.ID()))
	_, ok = u.Owner(child.ID())
	assert.True(t, ok)
	assert.Equal(t, 2, u.NodeCount())
}

func TestConstraintRemoveActions(t *testing.T) {
	for _, action := range []constraint.RemoveAction{constraint.Bake, constraint.Discard} {
		t.Run(action.String(), func(t *testing.T) {
			c, _ := newTestCore()
			parent, child := c.NewActor(), c.NewActor()
			c.Stage().Add(parent)
			parent.Add(child)
			parent.SetPosition(property.Vector3{X: 10})
			child.SetPosition(property.Vector3{X: 1})

			h := constraint.New(c.UpdateManager(), child.ID(), Position,
				constraint.EqualTo[property.Vector3](), constraint.Parent(Position))
			h.SetRemoveAction(action)
			child.ApplyConstraint(h)
			step(c, quarter)
			assert.Equal(t, property.Vector3{X: 10}, position(t, child))
			assert.Equal(t, property.Vector3{X: 1}, basePosition(t, c, child))

			child.RemoveConstraint(h)
			step(c, quarter)
			want := property.Vector3{X: 10}
			if action == constraint.Discard {
				want = property.Vector3{X: 1}
			}
			assert.Equal(t, want, position(t, child))
			assert.Equal(t, 0, c.UpdateManager().ConstraintCount())
		})
	}
}

func TestConstraintsApplyParentsFirst(t *testing.T) {
	c, _ := newTestCore()
	anchor, parent, child := c.NewActor(), c.NewActor(), c.NewActor()
	c.Stage().Add(anchor)
	c.Stage().Add(parent)
	parent.Add(child)
	anchor.SetPosition(property.Vector3{Y: 50})

	// applied child first on purpose
	Constrain(child, Position, constraint.OffsetBy(property.Vector3{X: 1}), constraint.Parent(Position))
	Constrain(parent, Position, constraint.EqualTo[property.Vector3](), constraint.Object(anchor.ID(), Position))
	step(c, quarter)

	assert.Equal(t, property.Vector3{Y: 50}, position(t, parent))
	assert.Equal(t, property.Vector3{X: 1, Y: 50}, position(t, child))
}

func TestRemoveConstraintsByTag(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	c.Stage().Add(a)

	double := func(v float32, _ constraint.Inputs) float32 { return v * 2 }
	h1 := constraint.New[float32](c.UpdateManager(), a.ID(), FirstCustomProperty, double)
	h1.SetTag(1)
	h2 := h1.Clone(a.ID())
	h2.SetTag(2)
	h2.SetRemoveAction(constraint.Discard)
	RegisterProperty[float32](a, 3)
	a.ApplyConstraint(h1)
	a.ApplyConstraint(h2)
	step(c, quarter)

	v, _ := CurrentValue[float32](a, FirstCustomProperty)
	assert.Equal(t, float32(12), v)
	assert.Equal(t, 2, c.UpdateManager().ConstraintCount())

	a.RemoveConstraints(2)
	step(c, quarter)
	v, _ = CurrentValue[float32](a, FirstCustomProperty)
	assert.Equal(t, float32(6), v)
	assert.Equal(t, 1, a.Constraints())
	assert.True(t, h1.IsApplied())
	assert.False(t, h2.IsApplied())
}

func TestDestroyedTargetDropsConstraint(t *testing.T) {
	c, _ := newTestCore()
	a := c.NewActor()
	c.Stage().Add(a)
	Constrain(a, Position, constraint.OffsetBy(property.Vector3{X: 1}), constraint.Local(Position))
	step(c, quarter)
	require.Equal(t, 1, c.UpdateManager().ConstraintCount())

	a.Destroy()
	step(c, quarter)
	step(c, quarter)
	assert.Equal(t, 0, c.UpdateManager().ConstraintCount())
}

func TestImageImmediateLoad(t *testing.T) {
	c, p := newTestCore()
	p.SetNaturalSize("icon.png", resource.Size{Width: 80, Height: 80})

	im := c.NewImage("icon.png", resource.DefaultAttributes, Immediate, Never)
	require.NotNil(t, im.Ticket())
	assert.Equal(t, uint32(80), im.Width(), "expected size is known before loading")

	finished := 0
	im.OnLoadingFinished(func(*Image) { finished++ })
	step(c, quarter)
	assert.Equal(t, 1, p.LoadCount())

	p.SetBitmapLoaded(im.Ticket().ID(), 80, 80)
	step(c, quarter)
	assert.Equal(t, resource.LoadingSucceeded, im.LoadingState())
	assert.Equal(t, 1, finished)
}

func TestImageOnDemandAndReleaseUnused(t *testing.T) {
	c, p := newTestCore()
	p.SetNaturalSize("a.png", resource.Size{Width: 4, Height: 4})
	im := c.NewImage("a.png", resource.DefaultAttributes, OnDemand, Unused)
	assert.Nil(t, im.Ticket())
	assert.False(t, im.Reload())

	a := c.NewActor()
	a.SetImage(im)
	step(c, quarter)
	assert.Equal(t, 0, p.LoadCount())

	c.Stage().Add(a)
	require.NotNil(t, im.Ticket())
	step(c, quarter)
	assert.Equal(t, 1, p.LoadCount())
	p.SetBitmapLoaded(im.Ticket().ID(), 4, 4)
	step(c, quarter)
	require.Equal(t, 1, c.ResourceManager().Len())

	a.Unparent()
	assert.Nil(t, im.Ticket())
	step(c, quarter)
	assert.Equal(t, 0, c.ResourceManager().Len())
	assert.Equal(t, 0, c.Resources().Len())
}

func TestReloadImagesAfterFileChange(t *testing.T) {
	c, p := newTestCore()
	p.SetNaturalSize("icon.png", resource.Size{Width: 80, Height: 80})
	small := c.NewImage("icon.png", resource.DefaultAttributes, Immediate, Never)
	large := c.NewImage("icon.png", resource.ImageAttributes{Width: 92, Height: 92}, Immediate, Never)
	require.Equal(t, small.Ticket().ID(), large.Ticket().ID())
	step(c, quarter)
	p.SetBitmapLoaded(small.Ticket().ID(), 80, 80)
	step(c, quarter)

	p.SetNaturalSize("icon.png", resource.Size{Width: 512, Height: 512})
	assert.Equal(t, 2, c.ReloadImages("./icon.png"))
	assert.NotEqual(t, small.Ticket().ID(), large.Ticket().ID())
	assert.Equal(t, uint32(92), large.Width())
	assert.Equal(t, uint32(512), small.Width())

	small.Release()
	large.Release()
	assert.Equal(t, 0, c.ImageFactory().Len())
	assert.Equal(t, 0, c.ReloadImages("icon.png"))
}
