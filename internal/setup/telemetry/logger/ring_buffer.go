package logger

// RingBuffer keeps the most recent log lines and counts how many arrived
// since the last rotation.
type RingBuffer struct {
	lines    []string
	capacity int
	head     int // next write position
	size     int
	pending  int // lines written since the file was last rewritten
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Add appends a line, overwriting the oldest one when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.head] = line

	rb.head = (rb.head + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}

	rb.pending++
}

// Len returns the number of buffered lines.
func (rb *RingBuffer) Len() int {
	return rb.size
}

// Lines returns all buffered lines in chronological order.
func (rb *RingBuffer) Lines() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + rb.capacity) % rb.capacity

	for i := range rb.size {
		result[i] = rb.lines[(start+i)%rb.capacity]
	}

	return result
}

// Overflowing reports whether the file holds twice the capacity and should
// be rewritten from the buffer.
func (rb *RingBuffer) Overflowing() bool {
	return rb.pending >= rb.capacity*2
}

// Rotated resets the pending count to the lines the rewritten file holds.
func (rb *RingBuffer) Rotated() {
	rb.pending = rb.size
}
