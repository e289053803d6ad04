package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/data"
	"github.com/vellum/scenecore/internal/property"
	"github.com/vellum/scenecore/internal/resource"
	"github.com/vellum/scenecore/internal/scene"
	"github.com/vellum/scenecore/internal/scripting"
)

// stage holds what the manifest created. Everything stays alive for the
// lifetime of the process.
type stage struct {
	images  map[string]*scene.Image
	shaders []*resource.Ticket
	actors  map[string]*scene.Actor
}

// buildStage requests the manifest's images and shaders and puts its
// actors on stage. Runs on the event goroutine.
func buildStage(core *scene.Core, m *data.Manifest, engine *scripting.Engine, log *zap.Logger) (*stage, error) {
	st := &stage{
		images: make(map[string]*scene.Image, len(m.Images)),
		actors: make(map[string]*scene.Actor, len(m.Actors)),
	}

	for i := range m.Images {
		e := &m.Images[i]
		load, release := scene.Immediate, scene.Unused
		if e.OnDemand() {
			load = scene.OnDemand
		}
		if e.KeepLoaded() {
			release = scene.Never
		}
		st.images[e.Path] = core.NewImage(e.Path, e.Attributes(), load, release)
	}

	for i := range m.Shaders {
		s := &m.Shaders[i]
		st.shaders = append(st.shaders, core.Resources().LoadShader(s.Type(), s.Binary))
	}

	constrained := 0
	for i := range m.Actors {
		e := &m.Actors[i]
		a := core.NewActor()
		if len(e.Position) == 3 {
			a.SetPosition(property.Vector3{X: e.Position[0], Y: e.Position[1], Z: e.Position[2]})
		}
		if len(e.Size) == 3 {
			a.SetSize(property.Vector3{X: e.Size[0], Y: e.Size[1], Z: e.Size[2]})
		}
		if len(e.Color) == 4 {
			a.SetColor(property.Vector4{X: e.Color[0], Y: e.Color[1], Z: e.Color[2], W: e.Color[3]})
		}

		parent := core.Stage()
		if e.Parent != "" {
			parent = st.actors[e.Parent]
		}
		parent.Add(a)
		if e.Image != "" {
			a.SetImage(st.images[e.Image])
		}

		for _, c := range e.Constraints {
			if err := constrain(a, c, engine); err != nil {
				return nil, fmt.Errorf("actor %s: %w", e.Name, err)
			}
			constrained++
		}
		if e.Name != "" {
			st.actors[e.Name] = a
		}
	}

	log.Info("manifest loaded",
		zap.Int("images", len(st.images)),
		zap.Int("shaders", len(st.shaders)),
		zap.Int("actors", len(m.Actors)),
		zap.Int("constraints", constrained))
	return st, nil
}

var constrainable = map[string]property.Index{
	"position": scene.Position,
	"size":     scene.Size,
	"scale":    scene.Scale,
	"color":    scene.Color,
}

// constrain applies a scripted constraint whose single input is the same
// property on the parent or on the actor itself.
func constrain(a *scene.Actor, c data.ConstraintEntry, engine *scripting.Engine) error {
	if engine == nil {
		return fmt.Errorf("constraint %s: scripting is disabled", c.Script)
	}
	idx := constrainable[c.Property]
	src := constraint.Parent(idx)
	if c.Source == "local" {
		src = constraint.Local(idx)
	}

	if idx == scene.Color {
		fn, err := engine.Vector4Constraint(c.Script)
		if err != nil {
			return err
		}
		scene.Constrain(a, idx, fn, src)
	} else {
		fn, err := engine.Vector3Constraint(c.Script)
		if err != nil {
			return err
		}
		scene.Constrain(a, idx, fn, src)
	}
	return nil
}
