package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func runLoop(t *testing.T, l *Loop) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-errc:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("loop did not stop")
		}
	}
}

func TestPostRunsInOrder(t *testing.T) {
	l := New(0)
	stop := runLoop(t, l)
	defer stop()

	got := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		if !l.Post(func() { got <- i }) {
			t.Fatal("Post refused")
		}
	}
	for want := 1; want <= 3; want++ {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("task %d ran, want %d", v, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}
}

func TestFramesAndCancel(t *testing.T) {
	l := New(0)
	ran := make(chan string, 2)
	done := make(chan struct{})

	// Request and cancel from the loop goroutine, as an overlay would.
	stop := runLoop(t, l)
	defer stop()
	l.Post(func() {
		id := l.RequestFrame(func() { ran <- "cancelled" })
		l.CancelFrame(id)
		l.RequestFrame(func() { ran <- "kept"; close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame did not run")
	}
	if v := <-ran; v != "kept" {
		t.Errorf("first frame to run = %q", v)
	}
	if l.PendingFrames() != 0 {
		t.Errorf("%d frames left", l.PendingFrames())
	}
}

func TestPostAfterStop(t *testing.T) {
	l := New(DefaultFPS)
	stop := runLoop(t, l)
	stop()
	<-l.Done()
	if l.Post(func() {}) {
		t.Error("Post should fail after the loop stopped")
	}
}
