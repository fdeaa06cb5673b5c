package lighting

type lightEntry struct {
	x, y, z int
	light   uint8
}

// fifo is a growable ring buffer. It keeps its backing array between solves
// so steady-state edits do not allocate.
type fifo struct {
	buf  []lightEntry
	head int
	n    int
}

func (q *fifo) Len() int { return q.n }

func (q *fifo) push(e lightEntry) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = e
	q.n++
}

func (q *fifo) pop() lightEntry {
	e := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	if q.n == 0 {
		q.head = 0
	}
	return e
}

func (q *fifo) grow() {
	size := 2 * len(q.buf)
	if size < 256 {
		size = 256
	}
	next := make([]lightEntry, size)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
