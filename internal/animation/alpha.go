package animation

import "github.com/chewxy/math32"

// AlphaFunction maps linear progress in [0,1] to the blend factor fed to
// animator functions.
type AlphaFunction func(progress float32) float32

func Linear(p float32) float32 { return p }

func Reverse(p float32) float32 { return 1 - p }

func EaseIn(p float32) float32 { return p * p * p }

func EaseOut(p float32) float32 {
	p -= 1
	return p*p*p + 1
}

func EaseInOut(p float32) float32 {
	return (math32.Sin(p*math32.Pi-math32.Pi/2) + 1) / 2
}

func Sin(p float32) float32 {
	return 0.5 - math32.Cos(p*2*math32.Pi)*0.5
}

// Bounce rises to 1 at half time and falls back to 0.
func Bounce(p float32) float32 {
	return math32.Sin(p * math32.Pi)
}

// Default is the alpha function used when none is given.
var Default AlphaFunction = Linear

// ByName resolves alpha function names used in manifests and scripts.
func ByName(name string) (AlphaFunction, bool) {
	switch name {
	case "", "default", "linear":
		return Linear, true
	case "reverse":
		return Reverse, true
	case "ease_in":
		return EaseIn, true
	case "ease_out":
		return EaseOut, true
	case "ease_in_out":
		return EaseInOut, true
	case "sin":
		return Sin, true
	case "bounce":
		return Bounce, true
	}
	return nil, false
}
