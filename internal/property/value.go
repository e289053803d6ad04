package property

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Kind identifies the value type stored by a property.
type Kind int

const (
	KindNone Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindVector2
	KindVector3
	KindVector4
	KindRotation
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindVector2:
		return "vector2"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindRotation:
		return "rotation"
	}
	return "none"
}

// Value is the set of types a scene property can hold.
type Value interface {
	bool | int | float32 | Vector2 | Vector3 | Vector4 | Quaternion
}

// KindOf returns the Kind for T.
func KindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBoolean
	case int:
		return KindInteger
	case float32:
		return KindFloat
	case Vector2:
		return KindVector2
	case Vector3:
		return KindVector3
	case Vector4:
		return KindVector4
	case Quaternion:
		return KindRotation
	}
	return KindNone
}

type Vector2 struct{ X, Y float32 }

func (v Vector2) Add(o Vector2) Vector2       { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2       { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) MulScalar(s float32) Vector2 { return Vector2{v.X * s, v.Y * s} }

type Vector3 struct{ X, Y, Z float32 }

func (v Vector3) Add(o Vector3) Vector3       { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3       { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Mul(o Vector3) Vector3       { return Vector3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vector3) MulScalar(s float32) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vector3) String() string { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }

type Vector4 struct{ X, Y, Z, W float32 }

func (v Vector4) Add(o Vector4) Vector4 { return Vector4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W} }
func (v Vector4) Sub(o Vector4) Vector4 { return Vector4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W} }
func (v Vector4) Mul(o Vector4) Vector4 { return Vector4{v.X * o.X, v.Y * o.Y, v.Z * o.Z, v.W * o.W} }

func (v Vector4) MulScalar(s float32) Vector4 {
	return Vector4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Quaternion is a rotation with X,Y,Z vector part and W scalar part.
type Quaternion struct{ X, Y, Z, W float32 }

// IdentityQuaternion is the zero rotation.
var IdentityQuaternion = Quaternion{W: 1}

// AxisAngle returns the rotation of angle radians around axis.
func AxisAngle(axis Vector3, angle float32) Quaternion {
	l := axis.Length()
	if l == 0 {
		return IdentityQuaternion
	}
	s := math32.Sin(angle/2) / l
	return Quaternion{axis.X * s, axis.Y * s, axis.Z * s, math32.Cos(angle / 2)}
}

// Mul returns q*o, i.e. o applied first, then q.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quaternion) Length() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

func (q Quaternion) Normalize() Quaternion {
	l := q.Length()
	if l == 0 {
		return IdentityQuaternion
	}
	return Quaternion{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Slerp spherically interpolates from q towards o by t in [0,1],
// taking the shortest arc.
func (q Quaternion) Slerp(o Quaternion, t float32) Quaternion {
	if t <= 0 {
		return q
	}
	if t >= 1 {
		return o
	}
	cosHalfTheta := q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
	if cosHalfTheta < 0 {
		o = Quaternion{-o.X, -o.Y, -o.Z, -o.W}
		cosHalfTheta = -cosHalfTheta
	}
	if cosHalfTheta >= 1 {
		return q
	}

	sqrSinHalfTheta := 1 - cosHalfTheta*cosHalfTheta
	if sqrSinHalfTheta < 0.001 {
		s := 1 - t
		return Quaternion{
			s*q.X + t*o.X,
			s*q.Y + t*o.Y,
			s*q.Z + t*o.Z,
			s*q.W + t*o.W,
		}.Normalize()
	}

	sinHalfTheta := math32.Sqrt(sqrSinHalfTheta)
	halfTheta := math32.Atan2(sinHalfTheta, cosHalfTheta)
	a := math32.Sin((1-t)*halfTheta) / sinHalfTheta
	b := math32.Sin(t*halfTheta) / sinHalfTheta
	return Quaternion{
		q.X*a + o.X*b,
		q.Y*a + o.Y*b,
		q.Z*a + o.Z*b,
		q.W*a + o.W*b,
	}
}

// ApproxEqual compares two rotations component-wise, treating q and -q
// as the same rotation.
func (q Quaternion) ApproxEqual(o Quaternion, eps float32) bool {
	d := q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
	return math32.Abs(math32.Abs(d)-1) <= eps
}
