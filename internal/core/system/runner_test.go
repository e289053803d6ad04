package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vellum/scenecore/internal/core/buffer"
)

type recorder struct {
	phase Phase
	name  string
	log   *[]string
	index *[]buffer.Index
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(f Frame) {
	*r.log = append(*r.log, r.name)
	if r.index != nil {
		*r.index = append(*r.index, f.Index)
	}
}

func TestRunnerOrdersByPhase(t *testing.T) {
	var c buffer.Counter
	r := NewRunner(&c)
	var log []string
	var idx []buffer.Index

	r.Register(recorder{PhaseCleanup, "cleanup", &log, nil})
	r.Register(recorder{PhaseAnimate, "animate", &log, &idx})
	r.Register(recorder{PhaseMessages, "messages-a", &log, nil})
	r.Register(recorder{PhaseMessages, "messages-b", &log, nil})

	assert.Equal(t, buffer.Index(0), r.Tick(16*time.Millisecond))
	assert.Equal(t, []string{"messages-a", "messages-b", "animate", "cleanup"}, log)

	r.Tick(16 * time.Millisecond)
	assert.Equal(t, []buffer.Index{0, 1}, idx)
	assert.Equal(t, uint64(2), c.Frame())
}

func TestTickPhaseDoesNotSwap(t *testing.T) {
	var c buffer.Counter
	r := NewRunner(&c)
	var log []string
	r.Register(recorder{PhaseReset, "reset", &log, nil})
	r.Register(recorder{PhaseMessages, "messages", &log, nil})

	r.TickPhase(PhaseMessages, 0)
	assert.Equal(t, []string{"messages"}, log)
	assert.Equal(t, uint64(0), c.Frame())
}
