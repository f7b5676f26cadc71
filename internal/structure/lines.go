package structure

// lineQueue feeds lines to the accumulator with one-line lookahead and
// pushback, so heading continuation can re-inject an unconsumed remainder
// without mutating the underlying slice.
type lineQueue struct {
	lines  []string
	pos    int
	pushed []string
}

func newLineQueue(lines []string) *lineQueue {
	return &lineQueue{lines: lines}
}

// Next consumes and returns the next line.
func (q *lineQueue) Next() (string, bool) {
	if n := len(q.pushed); n > 0 {
		line := q.pushed[n-1]
		q.pushed = q.pushed[:n-1]
		return line, true
	}
	if q.pos >= len(q.lines) {
		return "", false
	}
	line := q.lines[q.pos]
	q.pos++
	return line, true
}

// Peek returns the next line without consuming it.
func (q *lineQueue) Peek() (string, bool) {
	if n := len(q.pushed); n > 0 {
		return q.pushed[n-1], true
	}
	if q.pos >= len(q.lines) {
		return "", false
	}
	return q.lines[q.pos], true
}

// PushBack re-injects a line so it is returned by the next call to Next.
func (q *lineQueue) PushBack(line string) {
	q.pushed = append(q.pushed, line)
}
