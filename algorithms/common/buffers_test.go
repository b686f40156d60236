package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircularBufferLatest(t *testing.T) {
	cb := NewCircularBuffer(4)
	cb.Write([]float64{1, 2})

	dst := make([]float64, 4)
	assert.Equal(t, 2, cb.Latest(dst))
	assert.Equal(t, []float64{1, 2}, dst[:2])
	assert.False(t, cb.IsFull())

	cb.Write([]float64{3, 4, 5, 6})
	assert.True(t, cb.IsFull())
	assert.Equal(t, 4, cb.Latest(dst))
	assert.Equal(t, []float64{3, 4, 5, 6}, dst)

	last := make([]float64, 2)
	cb.Latest(last)
	assert.Equal(t, []float64{5, 6}, last)

	cb.Clear()
	assert.Zero(t, cb.Available())
}
