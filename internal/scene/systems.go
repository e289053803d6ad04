package scene

import (
	"slices"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/animation"
	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/core/system"
)

// resetSystem returns every property written last time this slot was
// updated to its base value.
type resetSystem struct{ u *UpdateManager }

func (s *resetSystem) Phase() system.Phase { return system.PhaseReset }

func (s *resetSystem) Update(f system.Frame) {
	s.u.index = f.Index
	s.u.nodes.Each(func(_ ecs.EntityID, n *node) {
		n.owner.ResetToBaseValues(f.Index)
	})
}

// messageSystem applies everything the event side queued since last frame.
type messageSystem struct{ u *UpdateManager }

func (s *messageSystem) Phase() system.Phase { return system.PhaseMessages }

func (s *messageSystem) Update(f system.Frame) {
	s.u.queue.ProcessMessages(f.Index)
}

type animateSystem struct{ u *UpdateManager }

func (s *animateSystem) Phase() system.Phase { return system.PhaseAnimate }

func (s *animateSystem) Update(f system.Frame) {
	dt := float32(f.Delta.Seconds())
	s.u.animations.Each(func(id ecs.EntityID, a *animation.Animation) {
		if _, finished := a.Update(f.Index, dt); finished {
			event.Emit(s.u.bus, event.AnimationFinished{AnimationID: id})
		}
	})
}

// constrainSystem applies constraints after animation, parents before
// children, each node's constraints in the order they were applied.
type constrainSystem struct{ u *UpdateManager }

func (s *constrainSystem) Phase() system.Phase { return system.PhaseConstrain }

func (s *constrainSystem) Update(f system.Frame) {
	u := s.u
	u.constraints = slices.DeleteFunc(u.constraints, constraint.Applier.Orphaned)
	if len(u.constraints) == 0 {
		return
	}
	u.treeOrder()
	slices.SortStableFunc(u.constraints, func(a, b constraint.Applier) int {
		return u.rankOf(a.TargetID()) - u.rankOf(b.TargetID())
	})
	for _, c := range u.constraints {
		c.Apply(f.Index)
	}
}

type cleanupSystem struct{ u *UpdateManager }

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(system.Frame) {
	if n := s.u.world.FlushDestroyQueue(); n > 0 {
		s.u.log.Debug("destroy queue flushed", zap.Int("count", n))
	}
}
