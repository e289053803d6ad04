// Package resourcetest provides a scripted resource.Platform for tests.
package resourcetest

import (
	"sync"

	"github.com/vellum/scenecore/internal/resource"
)

type result struct {
	id      resource.ID
	typ     resource.TypeID
	res     resource.Resource
	failure resource.Failure
	failed  bool
	save    bool
}

// Platform records every request and hands back only the results a test
// scripts with SetResourceLoaded and friends.
type Platform struct {
	mu        sync.Mutex
	sizes     map[string]resource.Size
	loads     []resource.Request
	saves     []resource.Request
	cancelled []resource.ID
	pending   []result
}

func NewPlatform() *Platform {
	return &Platform{sizes: make(map[string]resource.Size)}
}

// SetNaturalSize sets the on-disk size GetClosestImageSize answers from.
func (p *Platform) SetNaturalSize(path string, s resource.Size) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes[path] = s
}

func (p *Platform) GetClosestImageSize(path string, attrs resource.ImageAttributes) resource.Size {
	p.mu.Lock()
	n := p.sizes[path]
	p.mu.Unlock()
	return resource.ClosestSize(n, attrs)
}

func (p *Platform) LoadResource(req resource.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads = append(p.loads, req)
}

func (p *Platform) SaveResource(req resource.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, req)
}

func (p *Platform) CancelLoad(id resource.ID, _ resource.TypeID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, id)
}

// GetResources delivers scripted results in the order they were set.
func (p *Platform) GetResources(c resource.Cache) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, r := range pending {
		switch {
		case r.save && r.failed:
			c.SaveFailed(r.id, r.failure)
		case r.save:
			c.SaveComplete(r.id, r.typ)
		case r.failed:
			c.LoadFailed(r.id, r.failure)
		default:
			c.LoadResponse(r.id, r.typ, r.res, resource.LoadComplete)
		}
	}
}

// SetResourceLoaded queues a completed load of res for id.
func (p *Platform) SetResourceLoaded(id resource.ID, res resource.Resource) {
	p.push(result{id: id, typ: res.TypeID(), res: res})
}

// SetBitmapLoaded queues a completed bitmap load of the given size.
func (p *Platform) SetBitmapLoaded(id resource.ID, w, h uint32) {
	p.SetResourceLoaded(id, resource.NewBitmap(w, h, resource.RGBA8888))
}

func (p *Platform) SetResourceFailed(id resource.ID, f resource.Failure) {
	p.push(result{id: id, failed: true, failure: f})
}

func (p *Platform) SetResourceSaved(id resource.ID, t resource.TypeID) {
	p.push(result{id: id, typ: t, save: true})
}

func (p *Platform) SetSaveFailed(id resource.ID, f resource.Failure) {
	p.push(result{id: id, save: true, failed: true, failure: f})
}

func (p *Platform) push(r result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, r)
}

// LoadCount returns the number of LoadResource calls so far.
func (p *Platform) LoadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loads)
}

// LastLoad returns the most recent load request.
func (p *Platform) LastLoad() (resource.Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.loads) == 0 {
		return resource.Request{}, false
	}
	return p.loads[len(p.loads)-1], true
}

func (p *Platform) Loads() []resource.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]resource.Request(nil), p.loads...)
}

func (p *Platform) Saves() []resource.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]resource.Request(nil), p.saves...)
}

func (p *Platform) Cancelled() []resource.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]resource.ID(nil), p.cancelled...)
}

// Reset forgets recorded requests.
func (p *Platform) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads, p.saves, p.cancelled = nil, nil, nil
}
