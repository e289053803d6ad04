// Package loader is the filesystem resource platform: a worker pool that
// decodes images and reads shader and blob files off the update goroutine,
// plus a watcher that reports changed files.
package loader

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vellum/scenecore/internal/persist"
	"github.com/vellum/scenecore/internal/resource"
)

// Store serves "db:" paths. persist.ResourceRepo satisfies it.
type Store interface {
	Load(ctx context.Context, path string) (*persist.ResourceRow, error)
	Save(ctx context.Context, row *persist.ResourceRow) error
}

// Options configure a Platform.
type Options struct {
	Root      string // base directory for relative paths
	Workers   int
	QueueSize int // expected number of queued jobs
}

type jobKind int

const (
	jobLoad jobKind = iota
	jobSave
)

type job struct {
	kind jobKind
	req  resource.Request
}

type result struct {
	kind    jobKind
	id      resource.ID
	typ     resource.TypeID
	res     resource.Resource
	failure resource.Failure
	failed  bool
}

// Platform implements resource.Platform on top of the local filesystem
// and an optional Store. LoadResource, SaveResource and CancelLoad never
// block; results wait until the update goroutine calls GetResources.
type Platform struct {
	root    string
	workers int
	store   Store
	log     *zap.Logger

	mu        sync.Mutex // protects pending, results, inflight, cancelled
	pending   []job
	results   []result
	inflight  map[resource.ID]bool // loads a worker is running
	cancelled map[resource.ID]bool // subset of inflight whose result is dropped
	wake      chan struct{}

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New returns a stopped platform. store may be nil.
func New(opts Options, store Store, log *zap.Logger) *Platform {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	opts.QueueSize = max(opts.QueueSize, 0)
	return &Platform{
		root:      opts.Root,
		workers:   opts.Workers,
		store:     store,
		log:       log,
		pending:   make([]job, 0, opts.QueueSize),
		inflight:  make(map[resource.ID]bool),
		cancelled: make(map[resource.ID]bool),
		wake:      make(chan struct{}, 1),
	}
}

// Start launches the worker pool. Workers stop when ctx is cancelled or
// Close is called.
func (p *Platform) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	p.group = g
	for i := 0; i < p.workers; i++ {
		g.Go(func() error { return p.work(ctx) })
	}
	p.log.Info("resource loader started",
		zap.String("root", p.root),
		zap.Int("workers", p.workers),
		zap.Bool("store", p.store != nil))
}

// Close stops the workers and waits for them. Pending jobs are dropped.
func (p *Platform) Close() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	err := p.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Platform) LoadResource(req resource.Request) {
	p.enqueue(job{kind: jobLoad, req: req})
}

func (p *Platform) SaveResource(req resource.Request) {
	p.enqueue(job{kind: jobSave, req: req})
}

// CancelLoad drops a queued load, a finished load not yet handed over,
// and the result of one in flight.
func (p *Platform) CancelLoad(id resource.ID, _ resource.TypeID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = slices.DeleteFunc(p.pending, func(j job) bool {
		return j.kind == jobLoad && j.req.ID == id
	})
	p.results = slices.DeleteFunc(p.results, func(r result) bool {
		return r.kind == jobLoad && r.id == id
	})
	if p.inflight[id] {
		p.cancelled[id] = true
	}
}

// Cancelled returns how many in-flight loads will be dropped on completion.
func (p *Platform) Cancelled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancelled)
}

// GetResources hands finished work to c in completion order.
func (p *Platform) GetResources(c resource.Cache) {
	p.mu.Lock()
	done := p.results
	p.results = nil
	p.mu.Unlock()

	for _, r := range done {
		switch {
		case r.kind == jobSave && r.failed:
			c.SaveFailed(r.id, r.failure)
		case r.kind == jobSave:
			c.SaveComplete(r.id, r.typ)
		case r.failed:
			c.LoadFailed(r.id, r.failure)
		default:
			c.LoadResponse(r.id, r.typ, r.res, resource.LoadComplete)
		}
	}
}

// Pending returns the number of queued jobs.
func (p *Platform) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Platform) enqueue(j job) {
	p.mu.Lock()
	p.pending = append(p.pending, j)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next pops the most urgent job, or waits for one.
func (p *Platform) next(ctx context.Context) (job, bool) {
	for {
		p.mu.Lock()
		if n := len(p.pending); n > 0 {
			best := 0
			for i := 1; i < n; i++ {
				if rank(p.pending[i].req.Priority) < rank(p.pending[best].req.Priority) {
					best = i
				}
			}
			j := p.pending[best]
			p.pending = append(p.pending[:best], p.pending[best+1:]...)
			if j.kind == jobLoad {
				p.inflight[j.req.ID] = true
			}
			more := len(p.pending) > 0
			p.mu.Unlock()
			if more {
				select {
				case p.wake <- struct{}{}:
				default:
				}
			}
			return j, true
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return job{}, false
		case <-p.wake:
		}
	}
}

func rank(pr resource.Priority) int {
	switch pr {
	case resource.PriorityHigh:
		return 0
	case resource.PriorityLow:
		return 2
	}
	return 1
}

func (p *Platform) work(ctx context.Context) error {
	for {
		j, ok := p.next(ctx)
		if !ok {
			return ctx.Err()
		}
		var r result
		switch j.kind {
		case jobLoad:
			r = p.load(ctx, j.req)
		case jobSave:
			r = p.save(ctx, j.req)
		}
		p.finish(r)
	}
}

func (p *Platform) finish(r result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.kind == jobLoad {
		delete(p.inflight, r.id)
		if p.cancelled[r.id] {
			delete(p.cancelled, r.id)
			return
		}
	}
	p.results = append(p.results, r)
}
