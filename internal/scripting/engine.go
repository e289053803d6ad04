package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/vellum/scenecore/internal/constraint"
	"github.com/vellum/scenecore/internal/property"
)

// Engine wraps a single gopher-lua VM holding constraint functions.
// Single-goroutine access only: constraints run on the update goroutine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: shared helpers in lib/ first, then constraints/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, sub := range []string{"lib", "constraints"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromString creates an engine from one chunk of Lua source.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load lua source: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global function called name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// FloatConstraint binds the Lua function name(current, inputs) to a float
// constraint function.
func (e *Engine) FloatConstraint(name string) (constraint.Func[float32], error) {
	fn, err := e.function(name)
	if err != nil {
		return nil, err
	}
	return func(current float32, in constraint.Inputs) float32 {
		ret, ok := e.call(name, fn, lua.LNumber(current), in)
		if !ok {
			return current
		}
		n, ok := ret.(lua.LNumber)
		if !ok {
			e.log.Error("lua constraint returned non-number", zap.String("func", name))
			return current
		}
		return float32(n)
	}, nil
}

// Vector3Constraint binds name(current, inputs) to a Vector3 constraint
// function. Vectors cross the boundary as {x=, y=, z=} tables.
func (e *Engine) Vector3Constraint(name string) (constraint.Func[property.Vector3], error) {
	fn, err := e.function(name)
	if err != nil {
		return nil, err
	}
	return func(current property.Vector3, in constraint.Inputs) property.Vector3 {
		ret, ok := e.call(name, fn, e.vector(current.X, current.Y, current.Z), in)
		if !ok {
			return current
		}
		rt, ok := ret.(*lua.LTable)
		if !ok {
			e.log.Error("lua constraint returned non-table", zap.String("func", name))
			return current
		}
		return property.Vector3{X: lFloat(rt, "x"), Y: lFloat(rt, "y"), Z: lFloat(rt, "z")}
	}, nil
}

// Vector4Constraint binds name(current, inputs) to a Vector4 constraint
// function, typically for colors.
func (e *Engine) Vector4Constraint(name string) (constraint.Func[property.Vector4], error) {
	fn, err := e.function(name)
	if err != nil {
		return nil, err
	}
	return func(current property.Vector4, in constraint.Inputs) property.Vector4 {
		ret, ok := e.call(name, fn, e.vector(current.X, current.Y, current.Z, current.W), in)
		if !ok {
			return current
		}
		rt, ok := ret.(*lua.LTable)
		if !ok {
			e.log.Error("lua constraint returned non-table", zap.String("func", name))
			return current
		}
		return property.Vector4{X: lFloat(rt, "x"), Y: lFloat(rt, "y"), Z: lFloat(rt, "z"), W: lFloat(rt, "w")}
	}, nil
}

func (e *Engine) function(name string) (*lua.LFunction, error) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("lua function %s not found", name)
	}
	return fn, nil
}

// call runs fn(current, inputs) and returns its single result.
func (e *Engine) call(name string, fn *lua.LFunction, current lua.LValue, in constraint.Inputs) (lua.LValue, bool) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, current, e.inputs(in)); err != nil {
		e.log.Error("lua constraint error", zap.String("func", name), zap.Error(err))
		return lua.LNil, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, true
}

// inputs packs the constraint sources into a 1-based Lua array.
func (e *Engine) inputs(in constraint.Inputs) *lua.LTable {
	t := e.vm.CreateTable(in.Len(), 0)
	for n := 0; n < in.Len(); n++ {
		var v lua.LValue = lua.LNil
		switch in.Kind(n) {
		case property.KindBoolean:
			v = lua.LBool(in.Bool(n))
		case property.KindInteger:
			v = lua.LNumber(in.Int(n))
		case property.KindFloat:
			v = lua.LNumber(in.Float(n))
		case property.KindVector2:
			p := in.Vector2(n)
			v = e.vector(p.X, p.Y)
		case property.KindVector3:
			p := in.Vector3(n)
			v = e.vector(p.X, p.Y, p.Z)
		case property.KindVector4:
			p := in.Vector4(n)
			v = e.vector(p.X, p.Y, p.Z, p.W)
		case property.KindRotation:
			q := in.Quaternion(n)
			v = e.vector(q.X, q.Y, q.Z, q.W)
		}
		t.RawSetInt(n+1, v)
	}
	return t
}

var components = [...]string{"x", "y", "z", "w"}

func (e *Engine) vector(c ...float32) *lua.LTable {
	t := e.vm.CreateTable(0, len(c))
	for i, v := range c {
		t.RawSetString(components[i], lua.LNumber(v))
	}
	return t
}

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
