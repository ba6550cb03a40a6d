package bridge

import "io"

// minFree is the least free space offered to a single read.
const minFree = 512

// carryBuffer accumulates input whose tail may not be decodable yet.
// Consume drops a decoded prefix and keeps the rest for the next read.
type carryBuffer struct {
	data []byte
	n    int
}

func newCarryBuffer(size int) *carryBuffer {
	if size < minFree {
		size = minFree
	}
	return &carryBuffer{data: make([]byte, size)}
}

// Fill performs one Read from r into the free space after the
// retained bytes, growing the buffer if the free space is too small.
func (c *carryBuffer) Fill(r io.Reader) (int, error) {
	if len(c.data)-c.n < minFree {
		grown := make([]byte, 2*len(c.data))
		copy(grown, c.data[:c.n])
		c.data = grown
	}
	n, err := r.Read(c.data[c.n:])
	c.n += n
	return n, err
}

// Bytes returns the retained bytes. The slice is valid until the next
// Fill or Consume.
func (c *carryBuffer) Bytes() []byte {
	return c.data[:c.n]
}

// Len returns the number of retained bytes.
func (c *carryBuffer) Len() int {
	return c.n
}

// Consume drops the first n retained bytes and moves the rest to the front.
func (c *carryBuffer) Consume(n int) {
	if n >= c.n {
		c.n = 0
		return
	}
	copy(c.data, c.data[n:c.n])
	c.n -= n
}
