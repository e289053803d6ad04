package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosestSize(t *testing.T) {
	n := Size{Width: 200, Height: 100}
	tests := []struct {
		name  string
		attrs ImageAttributes
		want  Size
	}{
		{"natural", DefaultAttributes, n},
		{"shrink never upscales", ImageAttributes{Width: 400, Height: 400}, n},
		{"shrink keeps aspect", ImageAttributes{Width: 100, Height: 100}, Size{100, 50}},
		{"width only", ImageAttributes{Width: 100}, Size{100, 50}},
		{"height only", ImageAttributes{Height: 50}, Size{100, 50}},
		{"fill", ImageAttributes{Width: 30, Height: 40, Scaling: ScaleToFill}, Size{30, 40}},
		{"fit width", ImageAttributes{Width: 400, Height: 10, Scaling: FitWidth}, Size{400, 200}},
		{"fit height", ImageAttributes{Width: 10, Height: 50, Scaling: FitHeight}, Size{100, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClosestSize(n, tt.attrs))
		})
	}
}

func TestClosestSizeUnknownImage(t *testing.T) {
	a := ImageAttributes{Width: 10, Height: 20}
	assert.Equal(t, Size{10, 20}, ClosestSize(Size{}, a))
}
