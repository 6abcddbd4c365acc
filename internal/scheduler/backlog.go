package scheduler

import "time"

// entry is a request waiting for a capacity slot.
type entry struct {
	priority   int
	seq        uint64
	index      int
	enqueuedAt time.Time
	// ready is closed by drain once the slot has been handed to this entry.
	ready    chan struct{}
	admitted bool
}

// backlog implements heap.Interface: higher priority first, then lower seq.
type backlog []*entry

func (b backlog) Len() int { return len(b) }

func (b backlog) Less(i, j int) bool {
	if b[i].priority != b[j].priority {
		return b[i].priority > b[j].priority
	}
	return b[i].seq < b[j].seq
}

func (b backlog) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
	b[i].index = i
	b[j].index = j
}

func (b *backlog) Push(x any) {
	e := x.(*entry)
	e.index = len(*b)
	*b = append(*b, e)
}

func (b *backlog) Pop() any {
	old := *b
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*b = old[:n-1]
	return e
}
