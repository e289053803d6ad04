package resource

import (
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/core/event"
	"github.com/vellum/scenecore/internal/core/system"
)

type managed struct {
	typePath TypePath
	state    LoadingState
	data     Resource
}

// Manager is the update-side resource owner. Its Request* methods run
// inside messages queued by the Client; Update polls the platform once per
// frame. Every state change is announced to the Client through the bus.
type Manager struct {
	platform  Platform
	bus       *event.Bus
	log       *zap.Logger
	resources map[ID]*managed
}

func NewManager(p Platform, bus *event.Bus, log *zap.Logger) *Manager {
	return &Manager{
		platform:  p,
		bus:       bus,
		log:       log,
		resources: make(map[ID]*managed, 64),
	}
}

func (m *Manager) Phase() system.Phase { return system.PhaseResources }

// Update collects finished loads and saves from the platform.
func (m *Manager) Update(system.Frame) {
	m.platform.GetResources(m)
}

func (m *Manager) RequestLoad(id ID, tp TypePath, priority Priority) {
	m.resources[id] = &managed{typePath: tp, state: Loading}
	m.platform.LoadResource(Request{ID: id, TypePath: tp, Priority: priority})
}

// RequestReload asks the platform for fresh data under the same id. A load
// already in flight is not duplicated.
func (m *Manager) RequestReload(id ID, tp TypePath, priority Priority) {
	r, ok := m.resources[id]
	if !ok {
		m.RequestLoad(id, tp, priority)
		return
	}
	if r.state == Loading {
		return
	}
	r.state = Loading
	m.platform.LoadResource(Request{ID: id, TypePath: tp, Priority: priority})
}

func (m *Manager) RequestSave(id ID, tp TypePath) {
	r, ok := m.resources[id]
	if !ok || r.data == nil {
		event.Emit(m.bus, savingFailedNotice{ID: id, Failure: FailureUnknown})
		return
	}
	m.platform.SaveResource(Request{ID: id, TypePath: tp, Resource: r.data})
}

// RequestDiscard frees the resource. A load in flight is cancelled and its
// late result dropped.
func (m *Manager) RequestDiscard(id ID) {
	r, ok := m.resources[id]
	if !ok {
		return
	}
	if r.state == Loading && r.typePath.Type != nil {
		m.platform.CancelLoad(id, r.typePath.Type.ID())
	}
	delete(m.resources, id)
}

// AddBitmap stores a bitmap that needs no loading.
func (m *Manager) AddBitmap(id ID, b *Bitmap) {
	m.resources[id] = &managed{
		typePath: TypePath{Type: BitmapType{Attributes: b.Attributes()}},
		state:    LoadingSucceeded,
		data:     b,
	}
}

// MarkUploaded is called by the render side once a resource is on the GPU.
func (m *Manager) MarkUploaded(id ID) {
	if _, ok := m.resources[id]; ok {
		event.Emit(m.bus, uploadedNotice{ID: id})
	}
}

// Get returns the loaded data for id.
func (m *Manager) Get(id ID) (Resource, bool) {
	r, ok := m.resources[id]
	if !ok || r.data == nil {
		return nil, false
	}
	return r.data, true
}

// Len returns the number of resources held.
func (m *Manager) Len() int { return len(m.resources) }

func (m *Manager) LoadResponse(id ID, t TypeID, res Resource, status LoadStatus) {
	r, ok := m.resources[id]
	if !ok {
		m.log.Debug("dropping result for discarded resource", zap.Uint64("id", uint64(id)))
		return
	}
	r.data = res
	if status == LoadPartial {
		event.Emit(m.bus, loadingNotice{ID: id})
		return
	}
	r.state = LoadingSucceeded

	n := loadingSucceededNotice{ID: id}
	if b, ok := res.(*Bitmap); ok && t == TypeBitmap {
		var attrs ImageAttributes
		if bt, ok := r.typePath.Type.(BitmapType); ok {
			attrs = bt.Attributes
		}
		attrs = attrs.WithSize(Size{b.Width, b.Height})
		attrs.PixelFormat = b.PixelFormat
		n.Attributes = &attrs
		if len(b.Pixels) > 0 {
			n.Bitmap = b
		}
	}
	event.Emit(m.bus, n)
}

func (m *Manager) LoadFailed(id ID, f Failure) {
	r, ok := m.resources[id]
	if !ok {
		return
	}
	r.state = LoadingFailed
	event.Emit(m.bus, loadingFailedNotice{ID: id, Failure: f})
}

func (m *Manager) SaveComplete(id ID, _ TypeID) {
	if _, ok := m.resources[id]; ok {
		event.Emit(m.bus, savingSucceededNotice{ID: id})
	}
}

func (m *Manager) SaveFailed(id ID, f Failure) {
	if _, ok := m.resources[id]; ok {
		event.Emit(m.bus, savingFailedNotice{ID: id, Failure: f})
	}
}
