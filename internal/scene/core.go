// Package scene ties the event-side object model (actors, animations,
// images) to the update-side scene graph.
package scene

import (
	"time"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/core/buffer"
	"github.com/vellum/scenecore/internal/core/ecs"
	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/imagefactory"
	"github.com/vellum/scenecore/internal/message"
	"github.com/vellum/scenecore/internal/resource"
)

// Options tune a Core.
type Options struct {
	// QueueCapacity presizes the message queue.
	QueueCapacity int
}

// Core is the entry point. Update belongs to the update goroutine;
// ProcessEvents and every actor, animation and image call belong to the
// event goroutine.
type Core struct {
	log        *zap.Logger
	queue      *message.Queue
	bus        *event.Bus
	update     *UpdateManager
	resources  *resource.Manager
	client     *resource.Client
	images     *imagefactory.Factory
	stage      *Actor
	animations map[ecs.EntityID]*Animation
	imageSet   map[*Image]struct{}
}

// NewCore wires the event and update sides around platform.
func NewCore(platform resource.Platform, opts Options, log *zap.Logger) *Core {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 256
	}
	c := &Core{
		log:        log,
		queue:      message.NewQueue(opts.QueueCapacity, log),
		bus:        event.NewBus(),
		animations: make(map[ecs.EntityID]*Animation),
		imageSet:   make(map[*Image]struct{}),
	}
	c.resources = resource.NewManager(platform, c.bus, log)
	c.client = resource.NewClient(c.queue, c.resources, c.bus, log)
	c.images = imagefactory.New(c.client, platform, log)
	c.update = NewUpdateManager(c.queue, c.bus, c.resources, log)
	c.stage = &Actor{core: c, id: c.update.Root(), nextCustom: FirstCustomProperty}

	event.Subscribe(c.bus, func(e event.AnimationFinished) {
		if a, ok := c.animations[e.AnimationID]; ok {
			a.finished()
		}
	})
	event.Subscribe(c.bus, func(e event.ObjectDestroyed) {
		delete(c.animations, e.EntityID)
	})
	return c
}

// Update processes one frame on the update goroutine.
func (c *Core) Update(dt time.Duration) buffer.Index {
	return c.update.Update(dt)
}

// ProcessEvents delivers the notifications of finished frames on the
// event goroutine. It returns how many were delivered.
func (c *Core) ProcessEvents() int {
	n := c.bus.SwapBuffers()
	c.bus.DispatchAll()
	return n
}

// Stage is the root actor. It is always on stage and cannot be destroyed.
func (c *Core) Stage() *Actor { return c.stage }

func (c *Core) UpdateManager() *UpdateManager       { return c.update }
func (c *Core) Resources() *resource.Client         { return c.client }
func (c *Core) ResourceManager() *resource.Manager  { return c.resources }
func (c *Core) ImageFactory() *imagefactory.Factory { return c.images }
func (c *Core) Messages() *message.Queue            { return c.queue }

// ReloadImages reloads every live image whose path names the same file
// as path. It returns how many images were reloaded.
func (c *Core) ReloadImages(path string) int {
	reqs := make(map[*imagefactory.Request]bool)
	for _, r := range c.images.RequestsFor(path) {
		reqs[r] = true
	}
	n := 0
	for im := range c.imageSet {
		if reqs[im.request] && im.Reload() {
			n++
		}
	}
	if n > 0 {
		c.log.Info("images reloaded", zap.String("path", path), zap.Int("count", n))
	}
	return n
}
