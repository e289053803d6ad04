package resource

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ID identifies a resource within one Client. Ids increase strictly and
// are never reused or persisted.
type ID uint64

// LoadingState of a ticket.
type LoadingState int32

const (
	Loading LoadingState = iota
	LoadingSucceeded
	LoadingFailed
	Saving
	SavingSucceeded
	SavingFailed
)

func (s LoadingState) String() string {
	switch s {
	case Loading:
		return "loading"
	case LoadingSucceeded:
		return "loading_succeeded"
	case LoadingFailed:
		return "loading_failed"
	case Saving:
		return "saving"
	case SavingSucceeded:
		return "saving_succeeded"
	case SavingFailed:
		return "saving_failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Failure is the reason a load or save failed. It is a state carried by
// the ticket, never an error crossing goroutines.
type Failure int

const (
	FailureUnknown Failure = iota
	FailureFileNotFound
	FailureInvalidPath
)

func (f Failure) String() string {
	switch f {
	case FailureFileNotFound:
		return "file_not_found"
	case FailureInvalidPath:
		return "invalid_path"
	}
	return "unknown"
}

// Priority hints the loader about ordering.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityLow
)

// TypeID tags the concrete Type.
type TypeID int

const (
	TypeBitmap TypeID = iota
	TypeShader
	TypeMesh
	TypeModel
	TypeText
)

func (t TypeID) String() string {
	switch t {
	case TypeBitmap:
		return "bitmap"
	case TypeShader:
		return "shader"
	case TypeMesh:
		return "mesh"
	case TypeModel:
		return "model"
	case TypeText:
		return "text"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Type describes what is requested. It is a closed set of value types;
// copying a Type copies it fully.
type Type interface {
	ID() TypeID
	isType()
}

type BitmapType struct {
	Attributes ImageAttributes
}

type ShaderType struct {
	Hash           uint64
	VertexSource   string
	FragmentSource string
}

type MeshType struct{}

type ModelType struct{}

type TextType struct {
	Style      string
	Characters string
}

func (BitmapType) ID() TypeID { return TypeBitmap }
func (ShaderType) ID() TypeID { return TypeShader }
func (MeshType) ID() TypeID   { return TypeMesh }
func (ModelType) ID() TypeID  { return TypeModel }
func (TextType) ID() TypeID   { return TypeText }

func (BitmapType) isType() {}
func (ShaderType) isType() {}
func (MeshType) isType()   {}
func (ModelType) isType()  {}
func (TextType) isType()   {}

// NewShaderType hashes the sources so identical programs can be shared.
func NewShaderType(vertex, fragment string) ShaderType {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(vertex))
	h.Write([]byte{0})
	h.Write([]byte(fragment))
	sum := h.Sum(nil)
	return ShaderType{
		Hash:           binary.LittleEndian.Uint64(sum[:8]),
		VertexSource:   vertex,
		FragmentSource: fragment,
	}
}

// TypePath is a resource type plus the path it is loaded from.
type TypePath struct {
	Type Type
	Path string
}

func (tp TypePath) String() string {
	if tp.Type == nil {
		return tp.Path
	}
	return tp.Type.ID().String() + ":" + tp.Path
}
