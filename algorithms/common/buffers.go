package common

// CircularBuffer keeps the most recent samples of a stream. Writes past
// capacity overwrite the oldest data.
type CircularBuffer struct {
	buffer   []float64
	size     int
	writePos int
	count    int
}

// NewCircularBuffer creates a new circular buffer
func NewCircularBuffer(size int) *CircularBuffer {
	return &CircularBuffer{
		buffer: make([]float64, size),
		size:   size,
	}
}

// Write appends data, dropping the oldest samples once full. It returns the
// number of samples written.
func (cb *CircularBuffer) Write(data []float64) int {
	for _, sample := range data {
		cb.buffer[cb.writePos] = sample
		cb.writePos = (cb.writePos + 1) % cb.size
		if cb.count < cb.size {
			cb.count++
		}
	}
	return len(data)
}

// Latest copies the newest len(dst) samples into dst, oldest first, without
// consuming them. It returns how many were copied (less than len(dst) while
// the buffer is still filling).
func (cb *CircularBuffer) Latest(dst []float64) int {
	n := min(len(dst), cb.count)
	start := (cb.writePos - n + cb.size) % cb.size
	for i := range n {
		dst[i] = cb.buffer[(start+i)%cb.size]
	}
	return n
}

// Available returns number of samples available for reading
func (cb *CircularBuffer) Available() int {
	return cb.count
}

// Clear empties the buffer
func (cb *CircularBuffer) Clear() {
	cb.writePos = 0
	cb.count = 0
}

// IsFull returns true if buffer is full
func (cb *CircularBuffer) IsFull() bool {
	return cb.count == cb.size
}
