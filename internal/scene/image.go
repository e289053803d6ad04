package scene

import (
	"github.com/vellum/scenecore/internal/imagefactory"
	"github.com/vellum/scenecore/internal/resource"
)

// LoadPolicy decides when an image starts loading.
type LoadPolicy int

const (
	// Immediate loads as soon as the image is created.
	Immediate LoadPolicy = iota
	// OnDemand loads the first time the image is put on stage.
	OnDemand
)

// ReleasePolicy decides when an image lets go of its resource.
type ReleasePolicy int

const (
	// Unused releases the resource once no on-stage actor shows the image.
	Unused ReleasePolicy = iota
	// Never keeps the resource until the image is released.
	Never
)

// Image is an event-side image backed by an image factory request.
type Image struct {
	core        *Core
	request     *imagefactory.Request
	ticket      *resource.Ticket
	load        LoadPolicy
	release     ReleasePolicy
	connections int
	released    bool
	onFinished  []func(*Image)
	observer    *resource.ObserverFuncs
}

// NewImage registers an image request for path.
func (c *Core) NewImage(path string, attrs resource.ImageAttributes, load LoadPolicy, release ReleasePolicy) *Image {
	im := &Image{
		core:    c,
		request: c.images.RegisterRequest(path, attrs),
		load:    load,
		release: release,
	}
	im.observer = &resource.ObserverFuncs{
		OnLoaded:     im.loadFinished,
		OnLoadFailed: im.loadFinished,
	}
	c.imageSet[im] = struct{}{}
	if load == Immediate {
		im.setTicket(c.images.Load(im.request))
	}
	return im
}

func (im *Image) Path() string                 { return im.request.Path() }
func (im *Image) LoadPolicy() LoadPolicy       { return im.load }
func (im *Image) ReleasePolicy() ReleasePolicy { return im.release }

// Ticket is the current resource ticket, nil while nothing is loaded.
func (im *Image) Ticket() *resource.Ticket { return im.ticket }

// LoadingState is Loading until a ticket exists and finished.
func (im *Image) LoadingState() resource.LoadingState {
	if im.ticket == nil {
		return resource.Loading
	}
	return im.ticket.LoadingState()
}

// Width is the loaded width, or the expected width while loading.
func (im *Image) Width() uint32 {
	if im.ticket == nil {
		return im.request.Attributes().Width
	}
	return im.ticket.Width()
}

func (im *Image) Height() uint32 {
	if im.ticket == nil {
		return im.request.Attributes().Height
	}
	return im.ticket.Height()
}

// OnLoadingFinished registers fn for every completed or failed load,
// reloads included.
func (im *Image) OnLoadingFinished(fn func(*Image)) {
	im.onFinished = append(im.onFinished, fn)
}

func (im *Image) loadFinished(*resource.Ticket) {
	for _, fn := range im.onFinished {
		fn(im)
	}
}

// Connect is called when an actor showing the image goes on stage.
func (im *Image) Connect() {
	if im.released {
		return
	}
	im.connections++
	if im.ticket == nil {
		im.setTicket(im.core.images.Load(im.request))
	}
}

// Disconnect is called when an actor showing the image leaves the stage.
func (im *Image) Disconnect() {
	if im.connections == 0 {
		return
	}
	im.connections--
	if im.connections == 0 && im.release == Unused {
		im.setTicket(nil)
	}
}

// Reload refreshes the image from its file. It reports false when the
// image holds no resource and nothing happened.
func (im *Image) Reload() bool {
	if im.released || im.ticket == nil {
		return false
	}
	t := im.core.images.Reload(im.request)
	if t == nil {
		return false
	}
	if t == im.ticket {
		t.Release() // the reference Reload handed out
		return true
	}
	im.setTicket(t)
	return true
}

// Release drops the resource and the request. The image is unusable
// afterwards.
func (im *Image) Release() {
	if im.released {
		return
	}
	im.setTicket(nil)
	im.core.images.ReleaseRequest(im.request)
	delete(im.core.imageSet, im)
	im.released = true
}

// setTicket takes ownership of t, which carries a reference for im.
func (im *Image) setTicket(t *resource.Ticket) {
	if im.ticket != nil {
		im.ticket.RemoveObserver(im.observer)
		im.ticket.Release()
	}
	im.ticket = t
	if t != nil {
		t.AddObserver(im.observer)
	}
}
