package bus

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribePublish(t *testing.T) {
	b := New(100)
	var got []Message
	b.Subscribe(MsgRunEvent, func(msg Message) { got = append(got, msg) })
	b.Subscribe(MsgRunFinished, func(msg Message) { t.Error("wrong type delivered") })

	b.Publish(Message{Type: MsgRunEvent, RunID: "run-1", Time: time.Now()})

	if len(got) != 1 {
		t.Fatalf("received %d messages, want 1", len(got))
	}
	if got[0].RunID != "run-1" {
		t.Errorf("RunID = %q", got[0].RunID)
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New(100)
	count := 0
	b.SubscribeAll(func(Message) { count++ })

	b.Publish(Message{Type: MsgRunStarted})
	b.Publish(Message{Type: MsgRunErrored})
	b.Publish(Message{Type: MsgRunInterrupted})

	if count != 3 {
		t.Errorf("wildcard received %d messages, want 3", count)
	}
}

func TestHistoryBounded(t *testing.T) {
	b := New(5)
	for i := 0; i < 10; i++ {
		b.Publish(Message{Type: MsgRunEvent})
	}
	if got := len(b.History(100)); got != 5 {
		t.Errorf("history holds %d messages, want 5", got)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := New(1000)
	var mu sync.Mutex
	count := 0
	b.Subscribe(MsgRunEvent, func(Message) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(Message{Type: MsgRunEvent})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 500 {
		t.Errorf("delivered %d messages, want 500", count)
	}
}
