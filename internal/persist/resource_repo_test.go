package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("pixels"))
	assert.Len(t, a, 32)
	assert.Equal(t, a, Checksum([]byte("pixels")))
	assert.NotEqual(t, a, Checksum([]byte("pixelz")))
}

func TestTrimPrefix(t *testing.T) {
	key, ok := TrimPrefix("db:icons/app.png")
	assert.True(t, ok)
	assert.Equal(t, "icons/app.png", key)

	key, ok = TrimPrefix("icons/app.png")
	assert.False(t, ok)
	assert.Equal(t, "icons/app.png", key)
}
