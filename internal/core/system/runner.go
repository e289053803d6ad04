package system

import (
	"sort"
	"time"

	"github.com/vellum/scenecore/internal/core/buffer"
)

// Runner executes systems in phase order each frame and advances the
// frame counter once the frame is complete.
type Runner struct {
	systems []System
	sorted  bool
	counter *buffer.Counter
}

func NewRunner(counter *buffer.Counter) *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		counter: counter,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs one full frame against the current update slot, then swaps.
// Systems registered for the same phase run in registration order.
func (r *Runner) Tick(dt time.Duration) buffer.Index {
	r.ensureSorted()
	f := Frame{Index: r.counter.UpdateIndex(), Delta: dt}
	for _, s := range r.systems {
		s.Update(f)
	}
	r.counter.Swap()
	return f.Index
}

// TickPhase runs only the systems of one phase without finishing the frame.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	f := Frame{Index: r.counter.UpdateIndex(), Delta: dt}
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(f)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
