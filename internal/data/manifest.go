// Package data loads the YAML preload manifest: images and shader programs
// requested when the daemon starts.
package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vellum/scenecore/internal/resource"
)

// ImageEntry is one image to preload.
type ImageEntry struct {
	Path        string `yaml:"path"`
	Width       uint32 `yaml:"width"`
	Height      uint32 `yaml:"height"`
	PixelFormat string `yaml:"pixel_format"` // rgba8888 (default), rgb888, l8, a8
	Scaling     string `yaml:"scaling"`      // shrink_to_fit (default), scale_to_fill, fit_width, fit_height
	Load        string `yaml:"load"`         // immediate (default) or on_demand
	Release     string `yaml:"release"`      // unused (default) or never

	attrs resource.ImageAttributes
}

// Attributes are the parsed image attributes.
func (e *ImageEntry) Attributes() resource.ImageAttributes { return e.attrs }

// OnDemand reports whether loading waits until the image is on stage.
func (e *ImageEntry) OnDemand() bool { return e.Load == "on_demand" }

// KeepLoaded reports whether the image keeps its resource while unused.
func (e *ImageEntry) KeepLoaded() bool { return e.Release == "never" }

// ShaderEntry is one shader program. Sources are given inline or as files
// relative to the manifest.
type ShaderEntry struct {
	Name         string `yaml:"name"`
	Vertex       string `yaml:"vertex"`
	Fragment     string `yaml:"fragment"`
	VertexFile   string `yaml:"vertex_file"`
	FragmentFile string `yaml:"fragment_file"`
	Binary       string `yaml:"binary"` // optional precompiled program path
}

// Type returns the shader resource type built from the entry's sources.
func (e *ShaderEntry) Type() resource.ShaderType {
	return resource.NewShaderType(e.Vertex, e.Fragment)
}

// ActorEntry places an actor on stage. Parent names an actor listed
// before it; empty means the stage.
type ActorEntry struct {
	Name        string            `yaml:"name"`
	Parent      string            `yaml:"parent"`
	Image       string            `yaml:"image"`
	Position    []float32         `yaml:"position"`
	Size        []float32         `yaml:"size"`
	Color       []float32         `yaml:"color"`
	Constraints []ConstraintEntry `yaml:"constraints"`
}

// ConstraintEntry binds a scripted function to one actor property.
type ConstraintEntry struct {
	Property string `yaml:"property"` // position, size, scale or color
	Script   string `yaml:"script"`   // Lua function name
	Source   string `yaml:"source"`   // parent (default) or local; same property
}

// Manifest is the parsed preload list.
type Manifest struct {
	Images  []ImageEntry  `yaml:"images"`
	Shaders []ShaderEntry `yaml:"shaders"`
	Actors  []ActorEntry  `yaml:"actors"`

	byPath map[string]*ImageEntry
}

// Image returns the entry for path, or nil.
func (m *Manifest) Image(path string) *ImageEntry { return m.byPath[path] }

// Count returns the number of entries.
func (m *Manifest) Count() int { return len(m.Images) + len(m.Shaders) + len(m.Actors) }

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	m.byPath = make(map[string]*ImageEntry, len(m.Images))
	for i := range m.Images {
		e := &m.Images[i]
		if err := e.parse(); err != nil {
			return nil, fmt.Errorf("manifest: image %d (%s): %w", i, e.Path, err)
		}
		if _, dup := m.byPath[e.Path]; dup {
			return nil, fmt.Errorf("manifest: image %s listed twice", e.Path)
		}
		m.byPath[e.Path] = e
	}

	dir := filepath.Dir(path)
	for i := range m.Shaders {
		s := &m.Shaders[i]
		if err := s.readSources(dir); err != nil {
			return nil, fmt.Errorf("manifest: shader %s: %w", s.Name, err)
		}
	}

	names := make(map[string]bool, len(m.Actors))
	for i := range m.Actors {
		a := &m.Actors[i]
		if err := m.checkActor(a, names); err != nil {
			return nil, fmt.Errorf("manifest: actor %d (%s): %w", i, a.Name, err)
		}
		if a.Name != "" {
			names[a.Name] = true
		}
	}
	return &m, nil
}

func (m *Manifest) checkActor(a *ActorEntry, names map[string]bool) error {
	if a.Name != "" && names[a.Name] {
		return fmt.Errorf("name listed twice")
	}
	if a.Parent != "" && !names[a.Parent] {
		return fmt.Errorf("parent %q not listed before", a.Parent)
	}
	if a.Image != "" && m.byPath[a.Image] == nil {
		return fmt.Errorf("image %q not in images", a.Image)
	}
	for _, v := range []struct {
		field string
		got   []float32
		want  int
	}{
		{"position", a.Position, 3},
		{"size", a.Size, 3},
		{"color", a.Color, 4},
	} {
		if len(v.got) != 0 && len(v.got) != v.want {
			return fmt.Errorf("%s needs %d components, got %d", v.field, v.want, len(v.got))
		}
	}
	for _, c := range a.Constraints {
		switch c.Property {
		case "position", "size", "scale", "color":
		default:
			return fmt.Errorf("cannot constrain %q", c.Property)
		}
		switch c.Source {
		case "", "parent", "local":
		default:
			return fmt.Errorf("unknown constraint source %q", c.Source)
		}
		if c.Script == "" {
			return fmt.Errorf("constraint on %s has no script", c.Property)
		}
	}
	return nil
}

func (e *ImageEntry) parse() error {
	if e.Path == "" {
		return fmt.Errorf("missing path")
	}
	pf, err := lookup(e.PixelFormat, "pixel_format", resource.RGBA8888, resource.RGB888, resource.L8, resource.A8)
	if err != nil {
		return err
	}
	sm, err := lookup(e.Scaling, "scaling", resource.ShrinkToFit, resource.ScaleToFill, resource.FitWidth, resource.FitHeight)
	if err != nil {
		return err
	}
	switch e.Load {
	case "", "immediate", "on_demand":
	default:
		return fmt.Errorf("unknown load policy %q", e.Load)
	}
	switch e.Release {
	case "", "unused", "never":
	default:
		return fmt.Errorf("unknown release policy %q", e.Release)
	}
	e.attrs = resource.ImageAttributes{Width: e.Width, Height: e.Height, PixelFormat: pf, Scaling: sm}
	return nil
}

// lookup maps a name to the value whose String matches. An empty name
// selects the first value.
func lookup[T fmt.Stringer](name, field string, values ...T) (T, error) {
	if name == "" {
		return values[0], nil
	}
	for _, v := range values {
		if v.String() == name {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", field, name)
}

func (s *ShaderEntry) readSources(dir string) error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	for _, f := range []struct {
		file string
		dst  *string
	}{
		{s.VertexFile, &s.Vertex},
		{s.FragmentFile, &s.Fragment},
	} {
		if f.file == "" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, f.file))
		if err != nil {
			return err
		}
		*f.dst = string(src)
	}
	if s.Vertex == "" && s.Fragment == "" && s.Binary == "" {
		return fmt.Errorf("no sources and no binary")
	}
	return nil
}
