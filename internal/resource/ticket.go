package resource

import (
	"sync"
	"sync/atomic"
)

// Observer is told about state changes of a ticket. Callbacks run on the
// event goroutine.
type Observer interface {
	ResourceLoadingSucceeded(t *Ticket)
	ResourceLoadingFailed(t *Ticket)
	ResourceUploaded(t *Ticket)
	ResourceSavingSucceeded(t *Ticket)
	ResourceSavingFailed(t *Ticket)
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	OnLoaded     func(*Ticket)
	OnLoadFailed func(*Ticket)
	OnUploaded   func(*Ticket)
	OnSaved      func(*Ticket)
	OnSaveFailed func(*Ticket)
}

func (o *ObserverFuncs) ResourceLoadingSucceeded(t *Ticket) { call(o.OnLoaded, t) }
func (o *ObserverFuncs) ResourceLoadingFailed(t *Ticket)    { call(o.OnLoadFailed, t) }
func (o *ObserverFuncs) ResourceUploaded(t *Ticket)         { call(o.OnUploaded, t) }
func (o *ObserverFuncs) ResourceSavingSucceeded(t *Ticket)  { call(o.OnSaved, t) }
func (o *ObserverFuncs) ResourceSavingFailed(t *Ticket)     { call(o.OnSaveFailed, t) }

func call(fn func(*Ticket), t *Ticket) {
	if fn != nil {
		fn(t)
	}
}

// Ticket is the shared handle of one resource request. Holders call
// Retain and Release; when the count drops to zero the Client discards
// the resource. Bitmap requests get image tickets, which also carry the
// image attributes.
type Ticket struct {
	id       ID
	typePath TypePath
	client   *Client
	state    atomic.Int32
	failure  atomic.Int32
	refs     atomic.Int32

	mu        sync.Mutex // protects observers and attrs
	observers []Observer
	image     bool
	attrs     ImageAttributes
}

func newTicket(c *Client, id ID, tp TypePath) *Ticket {
	t := &Ticket{id: id, typePath: tp, client: c}
	t.refs.Store(1)
	return t
}

func newImageTicket(c *Client, id ID, tp TypePath, attrs ImageAttributes) *Ticket {
	t := newTicket(c, id, tp)
	t.image = true
	t.attrs = attrs
	return t
}

func (t *Ticket) ID() ID             { return t.id }
func (t *Ticket) TypePath() TypePath { return t.typePath }

func (t *Ticket) LoadingState() LoadingState { return LoadingState(t.state.Load()) }

// Failure is meaningful in LoadingFailed and SavingFailed only.
func (t *Ticket) Failure() Failure { return Failure(t.failure.Load()) }

// IsImage reports whether t is an image ticket.
func (t *Ticket) IsImage() bool { return t.image }

// Attributes returns the image attributes: the expected size while
// loading, the actual size once loaded.
func (t *Ticket) Attributes() ImageAttributes {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attrs
}

func (t *Ticket) Width() uint32  { return t.Attributes().Width }
func (t *Ticket) Height() uint32 { return t.Attributes().Height }

func (t *Ticket) setAttributes(a ImageAttributes) {
	t.mu.Lock()
	t.attrs = a
	t.mu.Unlock()
}

// Retain adds a reference and returns t.
func (t *Ticket) Retain() *Ticket {
	t.refs.Add(1)
	return t
}

// tryRetain adds a reference unless the ticket is already being discarded.
func (t *Ticket) tryRetain() bool {
	for {
		n := t.refs.Load()
		if n <= 0 {
			return false
		}
		if t.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference. The last release discards the resource.
func (t *Ticket) Release() {
	switch n := t.refs.Add(-1); {
	case n == 0:
		if t.client != nil {
			t.client.ticketDiscarded(t)
		}
	case n < 0:
		panic("resource: ticket released more often than retained")
	}
}

// References returns the current reference count.
func (t *Ticket) References() int { return int(t.refs.Load()) }

func (t *Ticket) AddObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *Ticket) RemoveObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.observers {
		if e == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Ticket) snapshotObservers() []Observer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Observer(nil), t.observers...)
}

func (t *Ticket) setState(s LoadingState) { t.state.Store(int32(s)) }

func (t *Ticket) loading() { t.setState(Loading) }

func (t *Ticket) loadingSucceeded() {
	t.setState(LoadingSucceeded)
	for _, o := range t.snapshotObservers() {
		o.ResourceLoadingSucceeded(t)
	}
}

func (t *Ticket) loadingFailed(f Failure) {
	t.failure.Store(int32(f))
	t.setState(LoadingFailed)
	for _, o := range t.snapshotObservers() {
		o.ResourceLoadingFailed(t)
	}
}

func (t *Ticket) uploaded() {
	for _, o := range t.snapshotObservers() {
		o.ResourceUploaded(t)
	}
}

func (t *Ticket) savingSucceeded() {
	t.setState(SavingSucceeded)
	for _, o := range t.snapshotObservers() {
		o.ResourceSavingSucceeded(t)
	}
}

func (t *Ticket) savingFailed(f Failure) {
	t.failure.Store(int32(f))
	t.setState(SavingFailed)
	for _, o := range t.snapshotObservers() {
		o.ResourceSavingFailed(t)
	}
}
