package scene

import "github.com/vellum/scenecore/internal/property"

// Standard properties every node carries.
const (
	Position    property.Index = iota // Vector3
	Size                              // Vector3
	Scale                             // Vector3
	Orientation                       // Quaternion
	Color                             // Vector4
	Visible                           // bool

	// FirstCustomProperty is the first index handed out by RegisterProperty.
	FirstCustomProperty property.Index = 100
)

func registerStandard(o *property.Owner) {
	o.Register(Position, property.NewAnimatable(property.Vector3{}))
	o.Register(Size, property.NewAnimatable(property.Vector3{}))
	o.Register(Scale, property.NewAnimatable(property.Vector3{X: 1, Y: 1, Z: 1}))
	o.Register(Orientation, property.NewAnimatable(property.IdentityQuaternion))
	o.Register(Color, property.NewAnimatable(property.Vector4{X: 1, Y: 1, Z: 1, W: 1}))
	o.Register(Visible, property.NewAnimatable(true))
}
