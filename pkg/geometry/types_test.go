package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectFromCorners(t *testing.T) {
	want := NewRectInt(2, 3, 8, 4)
	assert.Equal(t, want, RectFromCorners(NewPointInt(2, 3), NewPointInt(10, 7)))
	assert.Equal(t, want, RectFromCorners(NewPointInt(10, 7), NewPointInt(2, 3)))
	assert.Equal(t, want, RectFromCorners(NewPointInt(2, 7), NewPointInt(10, 3)))
}

func TestRectInt(t *testing.T) {
	r := NewRectInt(10, 20, 30, 40)
	assert.Equal(t, 1200, r.Area())
	assert.True(t, r.Contains(NewPointInt(10, 20)))
	assert.False(t, r.Contains(NewPointInt(40, 20)), "right edge is exclusive")
	assert.Equal(t, "(10,20,30,40)", r.String())
	assert.Equal(t, image.Rect(10, 20, 40, 60), r.ToImage())
	assert.Equal(t, r, FromImageRect(r.ToImage()))

	assert.Equal(t, 0, NewRectInt(0, 0, -5, 5).Area())
	assert.True(t, RectInt{}.Empty())
}

func TestIntersect(t *testing.T) {
	frame := NewRectInt(0, 0, 100, 50)
	assert.Equal(t, NewRectInt(90, 40, 10, 10), NewRectInt(90, 40, 30, 30).Intersect(frame))
	assert.True(t, NewRectInt(200, 200, 5, 5).Intersect(frame).Empty())
}
