package constraint

import "github.com/vellum/scenecore/internal/property"

// EqualTo copies the first source.
func EqualTo[T property.Value]() Func[T] {
	return func(current T, in Inputs) T {
		v, ok := Input[T](in, 0)
		if !ok {
			return current
		}
		return v
	}
}

// RelativeTo scales the first Vector3 source component-wise.
func RelativeTo(scale property.Vector3) Func[property.Vector3] {
	return func(_ property.Vector3, in Inputs) property.Vector3 {
		return in.Vector3(0).Mul(scale)
	}
}

// OffsetBy adds offset to the first Vector3 source.
func OffsetBy(offset property.Vector3) Func[property.Vector3] {
	return func(_ property.Vector3, in Inputs) property.Vector3 {
		return in.Vector3(0).Add(offset)
	}
}
