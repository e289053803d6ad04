package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/property"
	"github.com/vellum/scenecore/internal/resource/resourcetest"
	"github.com/vellum/scenecore/internal/scene"
)

const src = `
function half(current, inputs)
  return current / 2
end

function follow(current, inputs)
  local p = inputs[1]
  return { x = p.x + 1, y = p.y, z = current.z }
end

function fade(current, inputs)
  return { x = current.x, y = current.y, z = current.z, w = 0.5 }
end

function broken(current, inputs)
  error("boom")
end

function wrong(current, inputs)
  return "nope"
end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngineFromString(src, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestFloatConstraint(t *testing.T) {
	e := newTestEngine(t)
	fn, err := e.FloatConstraint("half")
	require.NoError(t, err)
	assert.Equal(t, float32(2), fn(4, constraint.Inputs{}))
}

func TestVector3Constraint(t *testing.T) {
	e := newTestEngine(t)
	fn, err := e.Vector3Constraint("follow")
	require.NoError(t, err)

	// without sources, inputs[1] is nil and the call fails; current is kept
	cur := property.Vector3{X: 1, Y: 2, Z: 3}
	assert.Equal(t, cur, fn(cur, constraint.Inputs{}))
}

func TestVector4Constraint(t *testing.T) {
	e := newTestEngine(t)
	fn, err := e.Vector4Constraint("fade")
	require.NoError(t, err)
	got := fn(property.Vector4{X: 1, Y: 1, Z: 1, W: 1}, constraint.Inputs{})
	assert.Equal(t, property.Vector4{X: 1, Y: 1, Z: 1, W: 0.5}, got)
}

func TestErrorsKeepCurrentValue(t *testing.T) {
	e := newTestEngine(t)
	broken, err := e.FloatConstraint("broken")
	require.NoError(t, err)
	assert.Equal(t, float32(7), broken(7, constraint.Inputs{}))

	wrong, err := e.FloatConstraint("wrong")
	require.NoError(t, err)
	assert.Equal(t, float32(7), wrong(7, constraint.Inputs{}))
}

func TestMissingFunction(t *testing.T) {
	e := newTestEngine(t)
	assert.True(t, e.Has("half"))
	assert.False(t, e.Has("nothing"))
	_, err := e.FloatConstraint("nothing")
	assert.Error(t, err)
}

func TestNewEngineLoadsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "constraints"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "util.lua"),
		[]byte("function twice(v) return v * 2 end"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "constraints", "grow.lua"),
		[]byte("function grow(current, inputs) return twice(current) end"), 0o644))

	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	fn, err := e.FloatConstraint("grow")
	require.NoError(t, err)
	assert.Equal(t, float32(6), fn(3, constraint.Inputs{}))
}

func TestNewEngineReportsBadScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "constraints"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "constraints", "bad.lua"),
		[]byte("function ("), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestScriptedConstraintInScene(t *testing.T) {
	e := newTestEngine(t)
	fn, err := e.Vector3Constraint("follow")
	require.NoError(t, err)

	c := scene.NewCore(resourcetest.NewPlatform(), scene.Options{}, zap.NewNop())
	parent, child := c.NewActor(), c.NewActor()
	c.Stage().Add(parent)
	parent.Add(child)
	parent.SetPosition(property.Vector3{X: 10, Y: 20})
	child.SetPosition(property.Vector3{Z: 5})
	scene.Constrain(child, scene.Position, fn, constraint.Parent(scene.Position))

	c.Update(time.Millisecond)
	got, ok := scene.CurrentValue[property.Vector3](child, scene.Position)
	require.True(t, ok)
	assert.Equal(t, property.Vector3{X: 11, Y: 20, Z: 5}, got)
}
