package channel

import (
	"sync"
	"sync/atomic"
)

// Writer is the producer side of the event channel. Both the in-process
// Queue and the cross-process Encoder satisfy it, so the worker entry point
// does not care which side of the process boundary it runs on.
type Writer interface {
	Put(Message)
}

var sentinelSeq atomic.Uint64

// entry wraps a message or a drain sentinel. token is non-zero only for
// sentinels.
type entry struct {
	msg   Message
	token uint64
}

// Queue is a FIFO multi-producer/single-consumer queue of channel messages.
// Producers block only on the mutex; the consumer drains without ever
// waiting on production.
type Queue struct {
	mu    sync.Mutex
	items []entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Put appends a message. Safe for concurrent producers.
func (q *Queue) Put(m Message) {
	q.mu.Lock()
	q.items = append(q.items, entry{msg: m})
	q.mu.Unlock()
}

// TryGet pops the oldest message without blocking. The second return is
// false when the queue is empty.
func (q *Queue) TryGet() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) > 0 {
		e := q.items[0]
		q.items = q.items[1:]
		if e.token != 0 {
			// Leftover sentinel from an abandoned drain.
			continue
		}
		return e.msg, true
	}
	return Message{}, false
}

// Drain pops everything currently queued, in FIFO order. It appends a unique
// sentinel first and stops when it pops it back, so the loop terminates even
// while producers keep writing.
func (q *Queue) Drain() []Message {
	token := sentinelSeq.Add(1)
	q.mu.Lock()
	q.items = append(q.items, entry{token: token})
	q.mu.Unlock()

	var out []Message
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			// Cannot happen single-consumer; stop rather than spin.
			q.mu.Unlock()
			return out
		}
		e := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if e.token == token {
			return out
		}
		if e.token != 0 {
			continue
		}
		out = append(out, e.msg)
	}
}

// Len reports the number of queued messages, excluding sentinels.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.items {
		if e.token == 0 {
			n++
		}
	}
	return n
}
