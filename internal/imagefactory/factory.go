// Package imagefactory deduplicates image requests and maps them onto
// shared resource tickets.
package imagefactory

import (
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/resource"
)

// SizeQuerier answers which size a bitmap request would load at.
// resource.Platform satisfies it.
type SizeQuerier interface {
	GetClosestImageSize(path string, attrs resource.ImageAttributes) resource.Size
}

// Factory is the event-side image request cache. It is not safe for
// concurrent use; it lives on the event goroutine with the Client.
type Factory struct {
	client   *resource.Client
	sizes    SizeQuerier
	log      *zap.Logger
	requests map[fingerprint]*Request
	byPath   map[pathHash][]*Request
}

func New(client *resource.Client, sizes SizeQuerier, log *zap.Logger) *Factory {
	return &Factory{
		client:   client,
		sizes:    sizes,
		log:      log,
		requests: make(map[fingerprint]*Request),
		byPath:   make(map[pathHash][]*Request),
	}
}

// RegisterRequest returns the request for (path, attrs), creating it on
// first use. Every call must be matched by ReleaseRequest.
func (f *Factory) RegisterRequest(path string, attrs resource.ImageAttributes) *Request {
	key := fingerprint{path: hashPath(path), attrs: attrs}
	if r, ok := f.requests[key]; ok {
		r.refs++
		return r
	}
	r := &Request{key: key, path: path, attrs: attrs, refs: 1}
	f.requests[key] = r
	f.byPath[key.path] = append(f.byPath[key.path], r)
	return r
}

// ReleaseRequest drops one registration. The request is forgotten once
// unregistered; its resource lives on while tickets are held.
func (f *Factory) ReleaseRequest(r *Request) {
	if r == nil || r.refs == 0 {
		return
	}
	r.refs--
	if r.refs > 0 {
		return
	}
	delete(f.requests, r.key)
	same := f.byPath[r.key.path]
	for i, o := range same {
		if o == r {
			same = append(same[:i], same[i+1:]...)
			break
		}
	}
	if len(same) == 0 {
		delete(f.byPath, r.key.path)
	} else {
		f.byPath[r.key.path] = same
	}
}

// Len returns the number of registered requests.
func (f *Factory) Len() int { return len(f.requests) }

// RequestsFor returns the registered requests naming path.
func (f *Factory) RequestsFor(path string) []*Request {
	return append([]*Request(nil), f.byPath[hashPath(path)]...)
}

// Load resolves r to a ticket and returns it with a reference owned by
// the caller. In order of preference: the ticket r already resolved to,
// a compatible ticket of another request for the same path, a new load at
// the closest size.
func (f *Factory) Load(r *Request) *resource.Ticket {
	if t := f.client.RequestResourceTicket(r.resourceID); t != nil {
		return t
	}
	closest := f.sizes.GetClosestImageSize(r.path, r.attrs)
	if t := f.findCompatible(r, closest); t != nil {
		r.resourceID = t.ID()
		f.log.Debug("image request shares resource",
			zap.String("path", r.path),
			zap.Stringer("size", closest),
			zap.Uint64("id", uint64(t.ID())))
		return t
	}
	return f.issue(r, closest)
}

// Reload refreshes the resource behind r.
//
// A request that was never loaded gets nil and no load is issued. A ticket
// still loading is returned as is. When the closest size has changed since
// the ticket was issued, r is rebound to a compatible ticket of another
// request or to a new load; otherwise the
// resource reloads in place under the same ticket. The returned ticket
// carries a reference owned by the caller.
func (f *Factory) Reload(r *Request) *resource.Ticket {
	if r.resourceID == 0 {
		return nil
	}
	t := f.client.RequestResourceTicket(r.resourceID)
	if t == nil {
		return f.Load(r)
	}
	if t.LoadingState() == resource.Loading {
		return t
	}
	closest := f.sizes.GetClosestImageSize(r.path, r.attrs)
	if closest != t.Attributes().Size() {
		t.Release()
		if c := f.findCompatible(r, closest); c != nil {
			r.resourceID = c.ID()
			f.log.Debug("image size changed, sharing resource",
				zap.String("path", r.path),
				zap.Stringer("size", closest),
				zap.Uint64("id", uint64(c.ID())))
			return c
		}
		f.log.Debug("image size changed, reloading as new resource",
			zap.String("path", r.path),
			zap.Stringer("size", closest))
		return f.issue(r, closest)
	}
	f.client.ReloadResource(t.ID(), resource.PriorityNormal)
	return t
}

func (f *Factory) issue(r *Request, closest resource.Size) *resource.Ticket {
	typ := resource.BitmapType{Attributes: r.attrs.WithSize(closest)}
	t := f.client.RequestResource(typ, r.path, resource.PriorityNormal)
	r.resourceID = t.ID()
	return t
}

// findCompatible looks for a live ticket of another request on the same
// path that already has, or is loading at, size closest.
func (f *Factory) findCompatible(r *Request, closest resource.Size) *resource.Ticket {
	for _, o := range f.byPath[r.key.path] {
		if o == r || o.resourceID == 0 {
			continue
		}
		t := f.client.RequestResourceTicket(o.resourceID)
		if t == nil {
			continue
		}
		if compatible(t, r.attrs, closest) {
			return t
		}
		t.Release()
	}
	return nil
}

func compatible(t *resource.Ticket, attrs resource.ImageAttributes, closest resource.Size) bool {
	if t.LoadingState() == resource.LoadingFailed {
		return false
	}
	if t.Attributes().Size() != closest {
		return false
	}
	if bt, ok := t.TypePath().Type.(resource.BitmapType); ok {
		return bt.Attributes.PixelFormat == attrs.PixelFormat
	}
	return false
}
