package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/galaxyeye/pioneer/cmn"
)

func TestScheduleRunsAllTasks(t *testing.T) {
	p := New(4, 0)
	defer p.Clear()

	var n int64
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		if err := p.Schedule(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	if got := atomic.LoadInt64(&n); got != 100 {
		t.Fatalf("ran %d tasks, want 100", got)
	}
}

func TestBoundedQueueRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})
	p := New(1, 1)
	defer func() {
		close(block)
		p.Clear()
	}()

	if err := p.Schedule(func() { <-block }); err != nil {
		t.Fatalf("schedule 1: %v", err)
	}
	// give the one worker a chance to pick up the blocking task
	deadline := time.Now().Add(time.Second)
	for p.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := p.Schedule(func() {}); err != nil {
		t.Fatalf("schedule 2 (fills queue): %v", err)
	}
	if err := p.Schedule(func() {}); err != cmn.ErrBadRequest {
		t.Fatalf("schedule 3 (queue full): got %v, want ErrBadRequest", err)
	}
}

func TestClearWaitsForRunningTask(t *testing.T) {
	p := New(1, 0)
	started := make(chan struct{})
	var finished int32
	_ = p.Schedule(func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	<-started
	p.Clear()
	if atomic.LoadInt32(&finished) != 1 {
		t.Fatal("Clear returned before the running task finished")
	}
}

func TestScheduleAfterClearFails(t *testing.T) {
	p := New(2, 0)
	p.Clear()
	if err := p.Schedule(func() {}); err != cmn.ErrShuttingDown {
		t.Fatalf("got %v, want ErrShuttingDown", err)
	}
}
