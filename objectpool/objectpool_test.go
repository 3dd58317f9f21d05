package objectpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPullInitsWhenStashEmpty(t *testing.T) {
	var constructed int32
	p := New(
		func(ctx context.Context) (int, error) {
			return int(atomic.AddInt32(&constructed, 1)), nil
		},
		nil,
		nil,
	)

	r, err := p.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Item() != 1 {
		t.Fatalf("Item() = %d, want 1", r.Item())
	}
	if constructed != 1 {
		t.Fatalf("constructed = %d, want 1", constructed)
	}
}

func TestPutThenPullReusesWithoutInit(t *testing.T) {
	var constructed, resetCount int32
	p := New(
		func(ctx context.Context) (int, error) {
			return int(atomic.AddInt32(&constructed, 1)), nil
		},
		func(ctx context.Context, item int) error {
			atomic.AddInt32(&resetCount, 1)
			return nil
		},
		nil,
	)

	r1, _ := p.Pull(context.Background())
	r1.Put()

	r2, err := p.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if constructed != 1 {
		t.Fatalf("constructed = %d, want 1 (reuse should skip init)", constructed)
	}
	if resetCount != 1 {
		t.Fatalf("resetCount = %d, want 1", resetCount)
	}
	_ = r2
}

func TestPullDestroysOnResetFailure(t *testing.T) {
	var destroyed []int
	p := New(
		func(ctx context.Context) (int, error) { return 42, nil },
		func(ctx context.Context, item int) error { return errors.New("dirty") },
		func(item int) { destroyed = append(destroyed, item) },
	)

	r1, _ := p.Pull(context.Background())
	r1.Put()

	_, err := p.Pull(context.Background())
	if err == nil {
		t.Fatal("expected reset failure to propagate")
	}
	if len(destroyed) != 1 || destroyed[0] != 42 {
		t.Fatalf("expected failed-reset item to be destroyed, got %v", destroyed)
	}
	if p.Len() != 0 {
		t.Fatalf("stash should be empty after destroying the only item, got %d", p.Len())
	}
}

func TestInitFailurePropagatesAndPushesNothing(t *testing.T) {
	p := New(
		func(ctx context.Context) (int, error) { return 0, errors.New("unreachable") },
		nil,
		nil,
	)

	_, err := p.Pull(context.Background())
	if err == nil {
		t.Fatal("expected init error")
	}
	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
}

func TestDiscardDoesNotRestash(t *testing.T) {
	var destroyed int32
	p := New(
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context, item int) error { return nil },
		func(item int) { atomic.AddInt32(&destroyed, 1) },
	)

	r, _ := p.Pull(context.Background())
	r.Discard()

	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
	if destroyed != 1 {
		t.Fatalf("destroyed = %d, want 1", destroyed)
	}
}

func TestDrainDestroysEverythingStashed(t *testing.T) {
	var destroyed int32
	p := New(
		func(ctx context.Context) (int, error) { return 1, nil },
		nil,
		func(item int) { atomic.AddInt32(&destroyed, 1) },
	)

	for i := 0; i < 5; i++ {
		r, _ := p.Pull(context.Background())
		r.Put()
	}
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (sequential pull/put reuses one slot)", p.Len())
	}

	p.Drain()
	if p.Len() != 0 {
		t.Fatalf("Len() = %d after Drain, want 0", p.Len())
	}
	if destroyed != 1 {
		t.Fatalf("destroyed = %d after Drain, want 1", destroyed)
	}
}

func TestConcurrentPullPut(t *testing.T) {
	var constructed int32
	p := New(
		func(ctx context.Context) (int, error) {
			return int(atomic.AddInt32(&constructed, 1)), nil
		},
		func(ctx context.Context, item int) error { return nil },
		nil,
	)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := p.Pull(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			r.Put()
		}()
	}
	wg.Wait()

	// Every borrow returned a value; the stash now holds at most as many
	// items as were ever simultaneously outstanding.
	if p.Len() < 1 {
		t.Fatal("expected at least one item to have been stashed")
	}
}
