package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/data"
	"github.com/vellum/scenecore/internal/property"
	"github.com/vellum/scenecore/internal/resource"
	"github.com/vellum/scenecore/internal/resource/resourcetest"
	"github.com/vellum/scenecore/internal/scene"
	"github.com/vellum/scenecore/internal/scripting"
)

const manifest = `
images:
  - path: sky.png
  - path: icon.png
    load: on_demand
  - path: unused.png
    load: on_demand
shaders:
  - name: flat
    vertex: "v"
    fragment: "f"
actors:
  - name: panel
    image: sky.png
    position: [10, 20, 0]
  - name: badge
    parent: panel
    image: icon.png
    position: [0, 0, 5]
    constraints:
      - property: position
        script: follow
`

const follow = `
function follow(current, inputs)
  local p = inputs[1]
  return { x = p.x + 1, y = p.y, z = current.z }
end
`

func loadManifest(t *testing.T) *data.Manifest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	m, err := data.LoadManifest(path)
	require.NoError(t, err)
	return m
}

func TestBuildStage(t *testing.T) {
	engine, err := scripting.NewEngineFromString(follow, zap.NewNop())
	require.NoError(t, err)
	defer engine.Close()

	platform := resourcetest.NewPlatform()
	core := scene.NewCore(platform, scene.Options{}, zap.NewNop())

	st, err := buildStage(core, loadManifest(t), engine, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, st.actors, 2)
	require.Len(t, st.shaders, 1)

	core.Update(time.Millisecond)

	// sky is immediate, icon is on demand but shown on stage, unused waits
	assert.Equal(t, 3, platform.LoadCount())
	assert.NotNil(t, st.images["icon.png"].Ticket())
	assert.Nil(t, st.images["unused.png"].Ticket())
	assert.Equal(t, resource.TypeShader, st.shaders[0].TypePath().Type.ID())

	badge := st.actors["badge"]
	assert.Equal(t, st.actors["panel"], badge.Parent())
	got, ok := scene.CurrentValue[property.Vector3](badge, scene.Position)
	require.True(t, ok)
	assert.Equal(t, property.Vector3{X: 11, Y: 20, Z: 5}, got)
}

func TestBuildStageNeedsScripting(t *testing.T) {
	core := scene.NewCore(resourcetest.NewPlatform(), scene.Options{}, zap.NewNop())
	_, err := buildStage(core, loadManifest(t), nil, zap.NewNop())
	assert.ErrorContains(t, err, "scripting is disabled")
}
