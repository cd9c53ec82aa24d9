package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestShutdownWaitsForTasks(t *testing.T) {
	bg := New(logrus.New())

	var done int32
	bg.Go("slow", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := bg.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if atomic.LoadInt32(&done) != 1 {
		t.Fatal("shutdown returned before the task finished")
	}
}

func TestShutdownTimesOut(t *testing.T) {
	bg := New(logrus.New())

	release := make(chan struct{})
	bg.Go("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := bg.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestTaskPanicIsContained(t *testing.T) {
	log := logrus.New()
	bg := New(log)

	bg.Go("panicky", func(ctx context.Context) error {
		panic("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := bg.Shutdown(ctx); err != nil {
		t.Fatalf("a panicking task must not wedge shutdown: %v", err)
	}
}
