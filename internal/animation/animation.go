package animation

import (
	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
)

// State of an update-side animation.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// Animation drives a set of animators over a shared timeline. It lives on
// the update goroutine; the event side talks to it through messages.
type Animation struct {
	id               ecs.EntityID
	duration         float32
	loopCount        int // 0 loops forever
	currentLoop      int
	elapsed          float32
	endAction        Action
	disconnectAction Action
	state            State
	animators        []Animator
}

// New returns a stopped animation of durationSeconds.
func New(id ecs.EntityID, durationSeconds float32, endAction, disconnectAction Action) *Animation {
	return &Animation{
		id:               id,
		duration:         durationSeconds,
		loopCount:        1,
		endAction:        endAction,
		disconnectAction: disconnectAction,
	}
}

func (a *Animation) ID() ecs.EntityID      { return a.id }
func (a *Animation) State() State          { return a.state }
func (a *Animation) Duration() float32     { return a.duration }
func (a *Animation) Elapsed() float32      { return a.elapsed }
func (a *Animation) EndAction() Action     { return a.endAction }
func (a *Animation) AnimatorCount() int    { return len(a.animators) }
func (a *Animation) SetEndAction(e Action) { a.endAction = e }

func (a *Animation) SetDuration(seconds float32) { a.duration = seconds }

// SetLoopCount sets how many times the timeline runs; 0 loops forever.
func (a *Animation) SetLoopCount(n int) { a.loopCount = n }

func (a *Animation) SetDisconnectAction(act Action) {
	a.disconnectAction = act
	for _, an := range a.animators {
		an.SetDisconnectAction(act)
	}
}

// AddAnimator takes ownership of an animator.
func (a *Animation) AddAnimator(an Animator) {
	an.SetDisconnectAction(a.disconnectAction)
	a.animators = append(a.animators, an)
}

func (a *Animation) Play() {
	if a.state == Stopped {
		a.elapsed = 0
		a.currentLoop = 0
	}
	a.state = Playing
}

func (a *Animation) Pause() {
	if a.state == Playing {
		a.state = Paused
	}
}

// Stop ends the animation early and applies the end action to slot i.
func (a *Animation) Stop(i buffer.Index) {
	if a.state == Stopped {
		return
	}
	a.finish(i)
}

// Clear detaches every animator without applying any end action.
func (a *Animation) Clear() {
	for _, an := range a.animators {
		an.Detach()
	}
	a.animators = nil
	a.state = Stopped
}

// Update advances the timeline by dtSeconds and writes slot i. finished is
// set on the frame the animation completes.
func (a *Animation) Update(i buffer.Index, dtSeconds float32) (looped, finished bool) {
	if a.state != Playing {
		return false, false
	}
	a.elapsed += dtSeconds
	if a.duration > 0 && a.elapsed >= a.duration {
		a.currentLoop++
		if a.loopCount == 0 || a.currentLoop < a.loopCount {
			for a.elapsed >= a.duration {
				a.elapsed -= a.duration
			}
			looped = true
		} else {
			a.elapsed = a.duration
			a.finish(i)
			return looped, true
		}
	}
	a.updateAnimators(i, false, false)
	return looped, false
}

func (a *Animation) finish(i buffer.Index) {
	switch a.endAction {
	case Bake:
		a.updateAnimators(i, true, false)
	case BakeFinal:
		a.updateAnimators(i, true, true)
	case Discard:
		// values fall back to base on the next reset
	}
	for _, an := range a.animators {
		an.SetActive(false)
	}
	a.state = Stopped
}

func (a *Animation) updateAnimators(i buffer.Index, bake, final bool) {
	live := a.animators[:0]
	for _, an := range a.animators {
		if an.Orphaned() {
			continue
		}
		live = append(live, an)
		if !an.IsEnabled() {
			continue
		}
		p := an.Period()
		progressing := a.elapsed >= p.Delay || final
		an.SetActive(progressing)
		if !progressing {
			continue
		}
		progress := float32(1)
		if !final && p.Duration > 0 {
			progress = (a.elapsed - p.Delay) / p.Duration
			if progress > 1 {
				progress = 1
			}
		}
		an.Update(i, progress, bake)
	}
	for j := len(live); j < len(a.animators); j++ {
		a.animators[j] = nil
	}
	a.animators = live
}
