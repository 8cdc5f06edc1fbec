package channel

import (
	"bufio"
	"io"
	"sync"

	json "github.com/goccy/go-json"
)

// Encoder writes messages as newline-delimited JSON frames onto the worker's
// stdout pipe. It satisfies Writer; write failures are sticky and readable
// via Err, since the worker has nowhere else to report them.
type Encoder struct {
	mu  sync.Mutex
	w   *bufio.Writer
	err error
}

// NewEncoder wraps the write side of the worker pipe.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Put frames and flushes one message.
func (e *Encoder) Put(m Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		e.err = err
		return
	}
	if _, err := e.w.Write(append(data, '\n')); err != nil {
		e.err = err
		return
	}
	e.err = e.w.Flush()
}

// Err returns the first write or encode failure, if any.
func (e *Encoder) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// maxFrameSize bounds a single frame; plot snapshots dominate.
const maxFrameSize = 16 << 20

// Pump decodes frames from the worker pipe into the queue until the pipe
// closes. Intended to run on its own goroutine; the returned error is the
// scan failure, or nil on clean EOF. Undecodable lines are skipped so one
// stray print from native code cannot wedge the run.
func Pump(r io.Reader, q *Queue) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxFrameSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		q.Put(m)
	}
	return sc.Err()
}
