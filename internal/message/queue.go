package message

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/core/buffer"
)

// Message is a deferred mutation of update-side state. It runs on the
// update goroutine during the message phase, with the slot being written.
type Message interface {
	Process(i buffer.Index)
}

// Func adapts a function to Message.
type Func func(i buffer.Index)

func (f Func) Process(i buffer.Index) { f(i) }

// Queue carries messages from the event goroutine to the update goroutine.
// Push never blocks on the update side; ProcessMessages drains everything
// queued so far, in order, exactly once.
type Queue struct {
	mu         sync.Mutex // protects pending
	pending    []Message
	processing []Message
	log        *zap.Logger
}

func NewQueue(capacity int, log *zap.Logger) *Queue {
	return &Queue{
		pending:    make([]Message, 0, capacity),
		processing: make([]Message, 0, capacity),
		log:        log,
	}
}

// Push appends m. Called from the event goroutine.
func (q *Queue) Push(m Message) {
	if m == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, m)
	q.mu.Unlock()
}

// PushFunc appends fn as a message.
func (q *Queue) PushFunc(fn func(i buffer.Index)) {
	q.Push(Func(fn))
}

// Len reports how many messages wait for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ProcessMessages applies every queued message to slot i in enqueue order.
// Messages pushed while draining wait for the next frame.
func (q *Queue) ProcessMessages(i buffer.Index) int {
	q.mu.Lock()
	q.processing, q.pending = q.pending, q.processing[:0]
	q.mu.Unlock()

	for _, m := range q.processing {
		m.Process(i)
	}
	n := len(q.processing)
	clear(q.processing)
	if n > 0 {
		q.log.Debug("messages processed", zap.Int("count", n), zap.Uint8("buffer", uint8(i)))
	}
	return n
}
