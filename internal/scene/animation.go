package scene

import (
	"time"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/animation"
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/property"
)

// Animation is the event-side handle of an update-side animation.
type Animation struct {
	core       *Core
	id         ecs.EntityID
	duration   time.Duration
	playing    bool
	destroyed  bool
	onFinished []func(*Animation)
}

// NewAnimation creates a stopped animation. It bakes the reached values
// when stopped and the final values when an animated actor leaves the
// stage.
func (c *Core) NewAnimation(d time.Duration) *Animation {
	a := &Animation{core: c, id: c.update.NewID(), duration: d}
	c.animations[a.id] = a
	u, id, secs := c.update, a.id, float32(d.Seconds())
	c.queue.PushFunc(func(buffer.Index) {
		u.addAnimation(animation.New(id, secs, animation.Bake, animation.BakeFinal))
	})
	return a
}

func (a *Animation) ID() ecs.EntityID        { return a.id }
func (a *Animation) Duration() time.Duration { return a.duration }

// IsPlaying is the event-side view: true from Play until the finished
// notification, Stop or Pause.
func (a *Animation) IsPlaying() bool { return a.playing }

// OnFinished registers fn to run on the event goroutine when the
// animation completes on its own.
func (a *Animation) OnFinished(fn func(*Animation)) {
	a.onFinished = append(a.onFinished, fn)
}

func (a *Animation) finished() {
	a.playing = false
	for _, fn := range a.onFinished {
		fn(a)
	}
}

// send queues fn against the update-side animation.
func (a *Animation) send(fn func(an *animation.Animation, i buffer.Index)) {
	if a.destroyed {
		return
	}
	u, id := a.core.update, a.id
	a.core.queue.PushFunc(func(i buffer.Index) {
		if an, ok := u.Animation(id); ok {
			fn(an, i)
		}
	})
}

func (a *Animation) SetDuration(d time.Duration) {
	a.duration = d
	secs := float32(d.Seconds())
	a.send(func(an *animation.Animation, _ buffer.Index) { an.SetDuration(secs) })
}

// SetLoopCount sets how many times the animation runs; 0 loops forever.
func (a *Animation) SetLoopCount(n int) {
	a.send(func(an *animation.Animation, _ buffer.Index) { an.SetLoopCount(n) })
}

// SetLooping is SetLoopCount(0) or SetLoopCount(1).
func (a *Animation) SetLooping(loop bool) {
	if loop {
		a.SetLoopCount(0)
	} else {
		a.SetLoopCount(1)
	}
}

func (a *Animation) SetEndAction(act animation.Action) {
	a.send(func(an *animation.Animation, _ buffer.Index) { an.SetEndAction(act) })
}

func (a *Animation) SetDisconnectAction(act animation.Action) {
	a.send(func(an *animation.Animation, _ buffer.Index) { an.SetDisconnectAction(act) })
}

func (a *Animation) Play() {
	a.playing = true
	a.send(func(an *animation.Animation, _ buffer.Index) { an.Play() })
}

func (a *Animation) Pause() {
	a.playing = false
	a.send(func(an *animation.Animation, _ buffer.Index) { an.Pause() })
}

// Stop ends the animation and applies its end action.
func (a *Animation) Stop() {
	a.playing = false
	a.send(func(an *animation.Animation, i buffer.Index) { an.Stop(i) })
}

// Clear removes every animator; the animated values keep their base.
func (a *Animation) Clear() {
	a.playing = false
	a.send(func(an *animation.Animation, _ buffer.Index) { an.Clear() })
}

// Destroy releases the update-side animation at the end of the next frame.
func (a *Animation) Destroy() {
	if a.destroyed {
		return
	}
	a.playing = false
	u, id := a.core.update, a.id
	a.core.queue.PushFunc(func(buffer.Index) { u.markDestroyed(id) })
	a.destroyed = true
}

// AnimateBy animates property idx of target by relative over period.
func AnimateBy[T property.Value](a *Animation, target *Actor, idx property.Index, relative T, alpha animation.AlphaFunction, period animation.TimePeriod) {
	addAnimator(a, target, idx, animation.By(relative), alpha, period)
}

// AnimateTo animates property idx of target to value over period.
func AnimateTo[T property.Value](a *Animation, target *Actor, idx property.Index, value T, alpha animation.AlphaFunction, period animation.TimePeriod) {
	addAnimator(a, target, idx, animation.To(value), alpha, period)
}

// Animate animates property idx of target with fn.
func Animate[T property.Value](a *Animation, target *Actor, idx property.Index, fn animation.Func[T], alpha animation.AlphaFunction, period animation.TimePeriod) {
	addAnimator(a, target, idx, fn, alpha, period)
}

// Period returns the whole-duration period of a.
func (a *Animation) Period() animation.TimePeriod {
	return animation.TimePeriod{Duration: float32(a.duration.Seconds())}
}

func addAnimator[T property.Value](a *Animation, target *Actor, idx property.Index, fn animation.Func[T], alpha animation.AlphaFunction, period animation.TimePeriod) {
	if target == nil || target.destroyed {
		return
	}
	u, log, owner := a.core.update, a.core.log, target.id
	a.send(func(an *animation.Animation, _ buffer.Index) {
		o, ok := u.Owner(owner)
		if !ok {
			return
		}
		pa, err := animation.NewAnimator(o, idx, fn, alpha, period)
		if err != nil {
			log.Warn("animator rejected", zap.Stringer("animation", an.ID()), zap.Error(err))
			return
		}
		an.AddAnimator(pa)
	})
}
