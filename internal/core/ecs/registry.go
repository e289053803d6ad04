package ecs

// Registry tracks all component stores and the destroy hooks run before an
// entity's data is dropped.
type Registry struct {
	stores []Removable
	hooks  []func(EntityID)
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 8),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// OnDestroy registers fn to run for every destroyed entity while its
// components are still present.
func (r *Registry) OnDestroy(fn func(EntityID)) {
	r.hooks = append(r.hooks, fn)
}

// RemoveAll runs the destroy hooks, then clears the entity from every
// registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, h := range r.hooks {
		h(id)
	}
	for _, s := range r.stores {
		s.Remove(id)
	}
}
