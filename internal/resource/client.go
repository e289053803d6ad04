package resource

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/message"
)

// entry keeps a ticket and its CPU-side bitmap together so both are erased
// in one step when the ticket is discarded.
type entry struct {
	ticket *Ticket
	bitmap *Bitmap
}

// Client is the event-side resource front end. It mints ids, keeps live
// tickets and forwards requests to the update-side Manager as messages.
// None of its methods block on the update goroutine.
type Client struct {
	mu      sync.Mutex // protects nextID and entries
	nextID  ID
	entries map[ID]*entry

	queue   *message.Queue
	manager *Manager
	log     *zap.Logger
}

// NewClient wires a client to its manager. Notifications emitted by the
// manager on bus reach the client when the event goroutine dispatches bus.
func NewClient(queue *message.Queue, manager *Manager, bus *event.Bus, log *zap.Logger) *Client {
	c := &Client{
		entries: make(map[ID]*entry, 64),
		queue:   queue,
		manager: manager,
		log:     log,
	}
	event.Subscribe(bus, func(n loadingNotice) { c.NotifyLoading(n.ID) })
	event.Subscribe(bus, func(n loadingSucceededNotice) {
		if n.Attributes != nil {
			c.UpdateImageTicket(n.ID, *n.Attributes)
		}
		if n.Bitmap != nil {
			c.cacheBitmap(n.ID, n.Bitmap)
		}
		c.NotifyLoadingSucceeded(n.ID)
	})
	event.Subscribe(bus, func(n loadingFailedNotice) { c.NotifyLoadingFailed(n.ID, n.Failure) })
	event.Subscribe(bus, func(n uploadedNotice) { c.NotifyUploaded(n.ID) })
	event.Subscribe(bus, func(n savingSucceededNotice) { c.NotifySavingSucceeded(n.ID) })
	event.Subscribe(bus, func(n savingFailedNotice) { c.NotifySavingFailed(n.ID, n.Failure) })
	return c
}

// RequestResource starts loading typ from path. The returned ticket is in
// Loading and holds one reference owned by the caller.
func (c *Client) RequestResource(typ Type, path string, priority Priority) *Ticket {
	tp := TypePath{Type: typ, Path: path}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	var t *Ticket
	if bt, ok := typ.(BitmapType); ok {
		t = newImageTicket(c, id, tp, bt.Attributes)
	} else {
		t = newTicket(c, id, tp)
	}
	c.entries[id] = &entry{ticket: t}
	c.mu.Unlock()

	c.queue.PushFunc(func(buffer.Index) { c.manager.RequestLoad(id, tp, priority) })
	c.log.Debug("resource requested",
		zap.Uint64("id", uint64(id)),
		zap.Stringer("type", typ.ID()),
		zap.String("path", path))
	return t
}

// LoadShader requests a shader program. Shaders load ahead of bitmaps.
func (c *Client) LoadShader(st ShaderType, path string) *Ticket {
	return c.RequestResource(st, path, PriorityHigh)
}

// ReloadResource reloads a live resource in place: same id, same ticket,
// state back to Loading. It reports false when id is not live.
func (c *Client) ReloadResource(id ID, priority Priority) bool {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	e.ticket.loading()
	tp := e.ticket.TypePath()
	c.queue.PushFunc(func(buffer.Index) { c.manager.RequestReload(id, tp, priority) })
	return true
}

// SaveResource saves the loaded data of t back through the platform.
func (c *Client) SaveResource(t *Ticket) {
	if t == nil || !c.live(t) {
		return
	}
	t.setState(Saving)
	id, tp := t.ID(), t.TypePath()
	c.queue.PushFunc(func(buffer.Index) { c.manager.RequestSave(id, tp) })
}

// RequestResourceTicket returns the live ticket for id with a new reference
// for the caller, or nil once the ticket was discarded.
func (c *Client) RequestResourceTicket(id ID) *Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || !e.ticket.tryRetain() {
		return nil
	}
	return e.ticket
}

// AddBitmapImage registers an in-memory bitmap. The ticket is loaded at
// once and GetBitmap returns b while the ticket lives.
func (c *Client) AddBitmapImage(b *Bitmap) *Ticket {
	attrs := b.Attributes()
	tp := TypePath{Type: BitmapType{Attributes: attrs}}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	t := newImageTicket(c, id, tp, attrs)
	t.setState(LoadingSucceeded)
	c.entries[id] = &entry{ticket: t, bitmap: b}
	c.mu.Unlock()

	c.queue.PushFunc(func(buffer.Index) { c.manager.AddBitmap(id, b) })
	return t
}

// GetBitmap returns the CPU-side bitmap of a live ticket.
func (c *Client) GetBitmap(t *Ticket) (*Bitmap, bool) {
	if t == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[t.ID()]
	if !ok || e.ticket != t || e.bitmap == nil {
		return nil, false
	}
	return e.bitmap, true
}

// UpdateImageTicket records the attributes an image actually loaded with.
func (c *Client) UpdateImageTicket(id ID, attrs ImageAttributes) {
	if t := c.lookup(id); t != nil && t.IsImage() {
		t.setAttributes(attrs)
	}
}

// Len returns the number of live tickets.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) NotifyLoading(id ID) {
	if t := c.lookup(id); t != nil {
		t.loading()
	}
}

func (c *Client) NotifyLoadingSucceeded(id ID) {
	if t := c.lookup(id); t != nil {
		t.loadingSucceeded()
	}
}

func (c *Client) NotifyLoadingFailed(id ID, f Failure) {
	t := c.lookup(id)
	if t == nil {
		return
	}
	c.log.Warn("resource load failed",
		zap.Uint64("id", uint64(id)),
		zap.String("path", t.TypePath().Path),
		zap.Stringer("failure", f))
	t.loadingFailed(f)
}

func (c *Client) NotifyUploaded(id ID) {
	if t := c.lookup(id); t != nil {
		t.uploaded()
	}
}

func (c *Client) NotifySavingSucceeded(id ID) {
	if t := c.lookup(id); t != nil {
		t.savingSucceeded()
	}
}

func (c *Client) NotifySavingFailed(id ID, f Failure) {
	if t := c.lookup(id); t != nil {
		t.savingFailed(f)
	}
}

func (c *Client) lookup(id ID) *Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.ticket
	}
	return nil
}

func (c *Client) live(t *Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[t.ID()]
	return ok && e.ticket == t
}

func (c *Client) cacheBitmap(id ID, b *Bitmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.bitmap = b
	}
}

// ticketDiscarded runs when the last reference to t is released.
func (c *Client) ticketDiscarded(t *Ticket) {
	id := t.ID()
	c.mu.Lock()
	if e, ok := c.entries[id]; ok && e.ticket == t {
		delete(c.entries, id)
	}
	c.mu.Unlock()

	c.queue.PushFunc(func(buffer.Index) { c.manager.RequestDiscard(id) })
	c.log.Debug("resource discarded", zap.Uint64("id", uint64(id)))
}
