package dbpool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/blubskye/dbpool/poolid"
)

// fakeEngine is a LifecycleEngine[int] stub: the restricted pool type is an
// incrementing int, so tests can tell distinct databases apart without a
// live server.
type fakeEngine struct {
	mu          sync.Mutex
	nextPool    int
	created     []poolid.ID
	cleaned     []poolid.ID
	dropped     []poolid.ID
	initCalls   int
	cleanErr    error
	createErr   error
	initErr     error
}

var _ LifecycleEngine[int] = (*fakeEngine)(nil)

func (e *fakeEngine) Init(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initCalls++
	return e.initErr
}

func (e *fakeEngine) Create(_ context.Context, id poolid.ID, _ bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createErr != nil {
		return 0, e.createErr
	}
	e.nextPool++
	e.created = append(e.created, id)
	return e.nextPool, nil
}

func (e *fakeEngine) Clean(_ context.Context, id poolid.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleaned = append(e.cleaned, id)
	return e.cleanErr
}

func (e *fakeEngine) Drop(_ context.Context, id poolid.ID, _ bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropped = append(e.dropped, id)
	return nil
}

func TestNewCallsInitOnce(t *testing.T) {
	eng := &fakeEngine{}
	if _, err := New[int](context.Background(), eng); err != nil {
		t.Fatalf("New: %v", err)
	}
	if eng.initCalls != 1 {
		t.Fatalf("expected Init called exactly once, got %d", eng.initCalls)
	}
}

func TestNewPropagatesInitFailure(t *testing.T) {
	wantErr := errors.New("boom")
	eng := &fakeEngine{initErr: wantErr}
	if _, err := New[int](context.Background(), eng); !errors.Is(err, wantErr) {
		t.Fatalf("expected init error to propagate, got %v", err)
	}
}

func TestPullImmutableThenReleaseReusesSlot(t *testing.T) {
	eng := &fakeEngine{}
	dp, err := New[int](context.Background(), eng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h1, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	first := h1.Unwrap()
	h1.Release()

	h2, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	if h2.Unwrap() != first {
		t.Fatalf("expected the second pull to reuse the same restricted pool, got %d vs %d", h2.Unwrap(), first)
	}
	if len(eng.cleaned) != 1 {
		t.Fatalf("expected exactly one Clean call on reuse, got %d", len(eng.cleaned))
	}
	if len(eng.created) != 1 {
		t.Fatalf("expected exactly one Create call across both pulls, got %d", len(eng.created))
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	dp, _ := New[int](context.Background(), eng)

	h, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	h.Release()
	h.Release() // must not panic or double-stash

	h2, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	if h2.Unwrap() != h.Unwrap() {
		t.Fatalf("double release should not have created a second stash entry")
	}
}

func TestCreateMutableBypassesStash(t *testing.T) {
	eng := &fakeEngine{}
	dp, _ := New[int](context.Background(), eng)

	h, err := dp.CreateMutable(context.Background())
	if err != nil {
		t.Fatalf("CreateMutable: %v", err)
	}
	h.Release()

	if len(eng.dropped) != 1 {
		t.Fatalf("expected the single-use database to be dropped on release, got %d drops", len(eng.dropped))
	}
	if len(eng.cleaned) != 0 {
		t.Fatal("single-use databases must never be cleaned")
	}
}

func TestCloseDrainsStashedDatabases(t *testing.T) {
	eng := &fakeEngine{}
	dp, _ := New[int](context.Background(), eng)

	h, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	h.Release()

	dp.Close()

	if len(eng.dropped) != 1 {
		t.Fatalf("expected Close to drop every stashed database, got %d", len(eng.dropped))
	}
}

func TestPoolOrReusableUnwrapsBothShapes(t *testing.T) {
	plain := FromPool(42)
	if plain.Unwrap() != 42 {
		t.Fatal("expected FromPool to unwrap to the plain pool")
	}

	eng := &fakeEngine{}
	dp, _ := New[int](context.Background(), eng)
	h, err := dp.PullImmutable(context.Background())
	if err != nil {
		t.Fatalf("PullImmutable: %v", err)
	}
	defer h.Release()

	wrapped := FromReusable(h)
	if wrapped.Unwrap() != h.Unwrap() {
		t.Fatal("expected FromReusable to unwrap to the handle's pool")
	}
}
