package system

import (
	"time"

	"github.com/vellum/scenecore/internal/core/buffer"
)

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseReset     Phase = iota // 0: reset dirty properties to their base value
	PhaseMessages               // 1: drain event→update messages
	PhaseResources              // 2: poll the platform, emit resource notifications
	PhaseAnimate                // 3: advance animations
	PhaseConstrain              // 4: apply constraints
	PhaseCleanup                // 5: destroy queued objects
)

func (p Phase) String() string {
	switch p {
	case PhaseReset:
		return "reset"
	case PhaseMessages:
		return "messages"
	case PhaseResources:
		return "resources"
	case PhaseAnimate:
		return "animate"
	case PhaseConstrain:
		return "constrain"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// Frame is what every system sees while a frame is processed.
type Frame struct {
	Index buffer.Index  // slot written this frame
	Delta time.Duration // time since the previous frame
}

// System is the interface every update-side system implements.
type System interface {
	Phase() Phase
	Update(f Frame)
}
