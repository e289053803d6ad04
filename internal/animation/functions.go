package animation

import "github.com/vellum/scenecore/internal/property"

// Func computes the new property value from the blend factor and the
// property's current value for this frame.
type Func[T property.Value] func(alpha float32, current T) T

// By returns a function adding relative×alpha to the current value.
// Integers round with +0.5 then truncate; booleans only change once alpha
// reaches 1.
func By[T property.Value](relative T) Func[T] {
	var f any
	switch r := any(relative).(type) {
	case float32:
		f = Func[float32](func(a float32, c float32) float32 { return c + r*a })
	case int:
		f = Func[int](func(a float32, c int) int { return int(float32(c) + float32(r)*a + 0.5) })
	case bool:
		f = Func[bool](func(a float32, c bool) bool {
			if a >= 1 {
				return c || r
			}
			return c
		})
	case property.Vector2:
		f = Func[property.Vector2](func(a float32, c property.Vector2) property.Vector2 { return c.Add(r.MulScalar(a)) })
	case property.Vector3:
		f = Func[property.Vector3](func(a float32, c property.Vector3) property.Vector3 { return c.Add(r.MulScalar(a)) })
	case property.Vector4:
		f = Func[property.Vector4](func(a float32, c property.Vector4) property.Vector4 { return c.Add(r.MulScalar(a)) })
	case property.Quaternion:
		// relative rotation, scaled by alpha along the shortest arc
		f = Func[property.Quaternion](func(a float32, c property.Quaternion) property.Quaternion {
			return property.IdentityQuaternion.Slerp(r, a).Mul(c)
		})
	}
	return f.(Func[T])
}

// To returns a function moving the current value towards target.
// Rotations use spherical interpolation.
func To[T property.Value](target T) Func[T] {
	var f any
	switch t := any(target).(type) {
	case float32:
		f = Func[float32](func(a float32, c float32) float32 { return c + (t-c)*a })
	case int:
		f = Func[int](func(a float32, c int) int { return int(float32(c) + float32(t-c)*a + 0.5) })
	case bool:
		f = Func[bool](func(a float32, c bool) bool {
			if a >= 1 {
				return t
			}
			return c
		})
	case property.Vector2:
		f = Func[property.Vector2](func(a float32, c property.Vector2) property.Vector2 { return c.Add(t.Sub(c).MulScalar(a)) })
	case property.Vector3:
		f = Func[property.Vector3](func(a float32, c property.Vector3) property.Vector3 { return c.Add(t.Sub(c).MulScalar(a)) })
	case property.Vector4:
		f = Func[property.Vector4](func(a float32, c property.Vector4) property.Vector4 { return c.Add(t.Sub(c).MulScalar(a)) })
	case property.Quaternion:
		f = Func[property.Quaternion](func(a float32, c property.Quaternion) property.Quaternion { return c.Slerp(t, a) })
	}
	return f.(Func[T])
}

// RotateBy rotates by angle radians around axis, scaled by alpha.
func RotateBy(axis property.Vector3, angle float32) Func[property.Quaternion] {
	return func(a float32, c property.Quaternion) property.Quaternion {
		return property.AxisAngle(axis, angle*a).Mul(c)
	}
}
