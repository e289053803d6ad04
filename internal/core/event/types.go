package event

import "github.com/vellum/scenecore/internal/core/ecs"

// Scene-level notifications. Resource notifications live in the resource
// package next to the ids they carry.

type AnimationFinished struct {
	AnimationID ecs.EntityID
}

type ObjectDestroyed struct {
	EntityID ecs.EntityID
}
