package imagefactory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/core/system"
	"github.com/vellum/scenecore/internal/imagefactory"
	"github.com/vellum/scenecore/internal/message"
	"github.com/vellum/scenecore/internal/resource"
	"github.com/vellum/scenecore/internal/resource/resourcetest"
)

type fixture struct {
	platform *resourcetest.Platform
	queue    *message.Queue
	bus      *event.Bus
	manager  *resource.Manager
	factory  *imagefactory.Factory
}

func newFixture() *fixture {
	log := zap.NewNop()
	fx := &fixture{
		platform: resourcetest.NewPlatform(),
		queue:    message.NewQueue(16, log),
		bus:      event.NewBus(),
	}
	fx.manager = resource.NewManager(fx.platform, fx.bus, log)
	client := resource.NewClient(fx.queue, fx.manager, fx.bus, log)
	fx.factory = imagefactory.New(client, fx.platform, log)
	return fx
}

func (fx *fixture) frame() {
	fx.queue.ProcessMessages(0)
	fx.manager.Update(system.Frame{})
	fx.bus.SwapBuffers()
	fx.bus.DispatchAll()
}

// loaded completes the pending load of t at w x h.
func (fx *fixture) loaded(t *resource.Ticket, w, h uint32) {
	fx.frame()
	fx.platform.SetBitmapLoaded(t.ID(), w, h)
	fx.frame()
}

func size(w, h uint32) resource.Size { return resource.Size{Width: w, Height: h} }

func attrs(w, h uint32) resource.ImageAttributes {
	return resource.ImageAttributes{Width: w, Height: h}
}

func TestRegisterRequestDeduplicates(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("img/a.png", size(10, 10))

	r1 := fx.factory.RegisterRequest("img/a.png", attrs(5, 5))
	r2 := fx.factory.RegisterRequest("img/a.png", attrs(5, 5))
	r3 := fx.factory.RegisterRequest("./img//a.png", attrs(5, 5))
	require.Same(t, r1, r2)
	require.Same(t, r1, r3)
	assert.Equal(t, 3, r1.References())
	assert.Equal(t, 1, fx.factory.Len())

	t1 := fx.factory.Load(r1)
	t2 := fx.factory.Load(r2)
	fx.frame()
	assert.Equal(t, t1.ID(), t2.ID())
	assert.Equal(t, 1, fx.platform.LoadCount())

	other := fx.factory.RegisterRequest("img/a.png", attrs(6, 6))
	assert.NotSame(t, r1, other)
}

func TestUnicodeNormalizedPaths(t *testing.T) {
	fx := newFixture()
	composed := "caf\u00e9.png"
	decomposed := "cafe\u0301.png"
	assert.Same(t,
		fx.factory.RegisterRequest(composed, resource.DefaultAttributes),
		fx.factory.RegisterRequest(decomposed, resource.DefaultAttributes))
}

func TestReleaseRequest(t *testing.T) {
	fx := newFixture()
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)

	fx.factory.ReleaseRequest(r)
	assert.Equal(t, 1, fx.factory.Len())
	fx.factory.ReleaseRequest(r)
	assert.Equal(t, 0, fx.factory.Len())
	assert.Empty(t, fx.factory.RequestsFor("a.png"))

	fresh := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	assert.NotSame(t, r, fresh)
}

func TestSizeCompatibleRequestsShareTicket(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(64, 48))

	def := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(def)
	fx.loaded(t1, 64, 48)

	exact := fx.factory.RegisterRequest("a.png", attrs(64, 48))
	larger := fx.factory.RegisterRequest("a.png", attrs(100, 100))
	require.NotSame(t, def, exact)

	t2 := fx.factory.Load(exact)
	t3 := fx.factory.Load(larger)
	fx.frame()
	assert.Equal(t, t1.ID(), t2.ID())
	assert.Equal(t, t1.ID(), t3.ID())
	assert.Equal(t, 1, fx.platform.LoadCount())

	smaller := fx.factory.RegisterRequest("a.png", attrs(32, 24))
	t4 := fx.factory.Load(smaller)
	assert.NotEqual(t, t1.ID(), t4.ID())
	assert.Equal(t, size(32, 24), t4.Attributes().Size())
}

func TestFailedTicketIsNotShared(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(8, 8))
	r1 := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(r1)
	fx.frame()
	fx.platform.SetResourceFailed(t1.ID(), resource.FailureUnknown)
	fx.frame()

	r2 := fx.factory.RegisterRequest("a.png", attrs(8, 8))
	t2 := fx.factory.Load(r2)
	assert.NotEqual(t, t1.ID(), t2.ID())
}

func TestReloadWhileLoadingIsNoop(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(4, 4))
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(r)
	fx.frame()
	require.Equal(t, 1, fx.platform.LoadCount())

	t2 := fx.factory.Reload(r)
	fx.frame()
	assert.Same(t, t1, t2)
	assert.Equal(t, 1, fx.platform.LoadCount())
}

func TestReloadAfterSizeChangeIssuesNewTicket(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(80, 80))
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(r)
	fx.loaded(t1, 80, 80)

	fx.platform.SetNaturalSize("a.png", size(100, 100))
	t2 := fx.factory.Reload(r)
	require.NotNil(t, t2)
	assert.NotEqual(t, t1.ID(), t2.ID())
	assert.Equal(t, t2.ID(), r.ResourceID())

	t3 := fx.factory.Reload(r)
	assert.Equal(t, t2.ID(), t3.ID())

	fx.loaded(t2, 100, 100)
	t4 := fx.factory.Reload(r)
	assert.Equal(t, t2.ID(), t4.ID())
}

func TestReloadAfterSizeChangeSharesCompatibleTicket(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(80, 80))

	def := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	big := fx.factory.RegisterRequest("a.png", attrs(100, 100))
	t1 := fx.factory.Load(def)
	fx.loaded(t1, 80, 80)
	t2 := fx.factory.Load(big)
	require.Equal(t, t1.ID(), t2.ID())

	fx.platform.SetNaturalSize("a.png", size(90, 90))
	defTicket := fx.factory.Reload(def)
	bigTicket := fx.factory.Reload(big)
	fx.frame()

	assert.NotEqual(t, t1.ID(), defTicket.ID())
	assert.Equal(t, defTicket.ID(), bigTicket.ID())
	assert.Equal(t, bigTicket.ID(), big.ResourceID())
	assert.Equal(t, size(90, 90), bigTicket.Attributes().Size())
	assert.Equal(t, 2, fx.platform.LoadCount())
}

func TestReloadInPlace(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(16, 16))
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(r)
	fx.loaded(t1, 16, 16)
	require.Equal(t, resource.LoadingSucceeded, t1.LoadingState())

	t2 := fx.factory.Reload(r)
	assert.Same(t, t1, t2)
	assert.Equal(t, resource.Loading, t1.LoadingState())
	fx.frame()
	assert.Equal(t, 2, fx.platform.LoadCount())
	req, _ := fx.platform.LastLoad()
	assert.Equal(t, t1.ID(), req.ID)
}

func TestReloadNeverLoaded(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(16, 16))
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)

	assert.Nil(t, fx.factory.Reload(r))
	fx.frame()
	assert.Equal(t, 0, fx.platform.LoadCount())
}

func TestReloadAfterTicketDiscarded(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("a.png", size(16, 16))
	r := fx.factory.RegisterRequest("a.png", resource.DefaultAttributes)
	t1 := fx.factory.Load(r)
	fx.loaded(t1, 16, 16)
	t1.Release()

	t2 := fx.factory.Reload(r)
	require.NotNil(t, t2)
	assert.NotEqual(t, t1.ID(), t2.ID())
	fx.frame()
	assert.Equal(t, 2, fx.platform.LoadCount())
}

func TestSharedRequestsDivergeAfterReload(t *testing.T) {
	fx := newFixture()
	fx.platform.SetNaturalSize("icon.png", size(80, 80))

	req1 := fx.factory.RegisterRequest("icon.png", resource.DefaultAttributes)
	ticket1 := fx.factory.Load(req1)
	fx.loaded(ticket1, 80, 80)

	req2 := fx.factory.RegisterRequest("icon.png", attrs(92, 92))
	ticket2 := fx.factory.Load(req2)
	require.NotSame(t, req1, req2)
	require.Equal(t, ticket1.ID(), ticket2.ID())

	fx.platform.SetNaturalSize("icon.png", size(512, 512))
	ticket2 = fx.factory.Reload(req2)
	fx.loaded(ticket2, 92, 92)
	ticket1 = fx.factory.Reload(req1)

	assert.NotEqual(t, ticket1.ID(), ticket2.ID())
	assert.Equal(t, size(92, 92), ticket2.Attributes().Size())
	assert.Equal(t, size(512, 512), ticket1.Attributes().Size())
}
