package resource

import "fmt"

// PixelFormat of a decoded bitmap.
type PixelFormat int

const (
	RGBA8888 PixelFormat = iota
	RGB888
	L8
	A8
)

func (p PixelFormat) String() string {
	switch p {
	case RGBA8888:
		return "rgba8888"
	case RGB888:
		return "rgb888"
	case L8:
		return "l8"
	case A8:
		return "a8"
	}
	return fmt.Sprintf("pixel_format(%d)", int(p))
}

// BytesPerPixel returns the storage size of one pixel.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case RGB888:
		return 3
	case L8, A8:
		return 1
	}
	return 4
}

// ScalingMode decides how a requested size maps onto the natural size.
type ScalingMode int

const (
	ShrinkToFit ScalingMode = iota
	ScaleToFill
	FitWidth
	FitHeight
)

func (s ScalingMode) String() string {
	switch s {
	case ShrinkToFit:
		return "shrink_to_fit"
	case ScaleToFill:
		return "scale_to_fill"
	case FitWidth:
		return "fit_width"
	case FitHeight:
		return "fit_height"
	}
	return fmt.Sprintf("scaling(%d)", int(s))
}

// Size in pixels.
type Size struct {
	Width, Height uint32
}

func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// ImageAttributes are the requested (or, on a loaded ticket, the actual)
// properties of a bitmap. A 0x0 size means natural size.
type ImageAttributes struct {
	Width       uint32
	Height      uint32
	PixelFormat PixelFormat
	Scaling     ScalingMode
}

// DefaultAttributes requests the natural size.
var DefaultAttributes = ImageAttributes{}

func (a ImageAttributes) Size() Size { return Size{a.Width, a.Height} }

func (a ImageAttributes) WithSize(s Size) ImageAttributes {
	a.Width, a.Height = s.Width, s.Height
	return a
}

// ClosestSize returns the size a loader produces for a request with
// attributes a on an image of natural size n. Missing dimensions follow
// the aspect ratio; ShrinkToFit never scales up.
func ClosestSize(n Size, a ImageAttributes) Size {
	if n.Width == 0 || n.Height == 0 {
		return a.Size()
	}
	req := a.Size()
	switch {
	case req.IsZero():
		return n
	case req.Width == 0:
		req.Width = scale(n.Width, req.Height, n.Height)
	case req.Height == 0:
		req.Height = scale(n.Height, req.Width, n.Width)
	}

	switch a.Scaling {
	case ScaleToFill:
		return req
	case FitWidth:
		return Size{req.Width, scale(n.Height, req.Width, n.Width)}
	case FitHeight:
		return Size{scale(n.Width, req.Height, n.Height), req.Height}
	}

	// ShrinkToFit
	if req.Width >= n.Width && req.Height >= n.Height {
		return n
	}
	// fit inside req preserving aspect
	w := scale(n.Width, req.Height, n.Height)
	if w <= req.Width {
		return Size{max(w, 1), req.Height}
	}
	return Size{req.Width, max(scale(n.Height, req.Width, n.Width), 1)}
}

// scale returns v*num/den rounded to nearest.
func scale(v, num, den uint32) uint32 {
	if den == 0 {
		return v
	}
	return uint32((uint64(v)*uint64(num) + uint64(den)/2) / uint64(den))
}
