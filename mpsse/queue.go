package mpsse

// Queue is the command bytes of one USB round trip.
//
// It is rebuilt for every transaction and must not be shared between
// goroutines.
type Queue struct {
	buf []byte
}

// Reset empties the queue, keeping its capacity.
func (q *Queue) Reset() {
	q.buf = q.buf[:0]
}

// Byte appends a single byte.
func (q *Queue) Byte(b byte) {
	q.buf = append(q.buf, b)
}

// Bytes appends b.
func (q *Queue) Bytes(b ...byte) {
	q.buf = append(q.buf, b...)
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	return len(q.buf)
}

// Raw returns the queued bytes. The slice is only valid until the next call
// to a mutating method.
func (q *Queue) Raw() []byte {
	return q.buf
}

// gpio queues a GPIO group write.
func (q *Queue) gpio(op byte, g pinGroup) {
	q.Bytes(op, g.value, g.direction)
}

// shiftBits queues a short shift of n bits, 1 <= n <= 8.
func (q *Queue) shiftBits(op byte, n int, w ...byte) {
	q.Bytes(op|dataBit, byte(n-1))
	q.Bytes(w...)
}

// shiftBytes queues a long shift of n bytes, 1 <= n <= 65536.
func (q *Queue) shiftBytes(op byte, n int, w []byte) {
	q.Bytes(op, byte(n-1), byte((n-1)>>8))
	q.Bytes(w...)
}
