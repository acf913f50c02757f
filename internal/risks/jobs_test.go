package risks

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeStateStore records every state written for one entity.
type fakeStateStore struct {
	mu      sync.Mutex
	state   State
	history []State
	readErr error
}

func (f *fakeStateStore) State(ctx context.Context, id uint) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.state, nil
}

func (f *fakeStateStore) SetState(ctx context.Context, id uint, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.history = append(f.history, state)
	return nil
}

func (f *fakeStateStore) snapshot() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.history...)
}

func TestScheduler_SuccessfulRun(t *testing.T) {
	store := &fakeStateStore{state: StateReady}
	s := NewScheduler(store)

	token, err := s.Schedule(context.Background(), "test-job", 1, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	want := []State{StateQueued, StateProcessing, StateReady}
	got := store.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, got)
		}
	}

	job, ok := s.Lookup(token)
	if !ok {
		t.Fatal("job missing from registry")
	}
	if job.Status != StateReady || job.FinishedAt == nil {
		t.Errorf("unexpected job record: %+v", job)
	}
}

// An entity in error is reset to queued by a new schedule, processed, and
// lands back in error on failure without ever passing through ready.
func TestScheduler_ErrorRunFromErrorState(t *testing.T) {
	store := &fakeStateStore{state: StateError}
	s := NewScheduler(store)

	token, err := s.Schedule(context.Background(), "failing-job", 1, func(ctx context.Context) error {
		return errors.New("workbook missing")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	got := store.snapshot()
	want := []State{StateQueued, StateProcessing, StateError}
	if len(got) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, got)
		}
	}
	for _, state := range got {
		if state == StateReady {
			t.Fatal("ready observed during a failing run")
		}
	}

	job, _ := s.Lookup(token)
	if job.Status != StateError || job.Error != "workbook missing" {
		t.Errorf("unexpected job record: %+v", job)
	}
}

func TestScheduler_UnknownEntity(t *testing.T) {
	store := &fakeStateStore{readErr: &NotFoundError{Kind: "analysis", Key: "id=9"}}
	s := NewScheduler(store)

	_, err := s.Schedule(context.Background(), "test-job", 9, func(ctx context.Context) error {
		t.Error("work must not run when the entity cannot be resolved")
		return nil
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	s.Wait()
}

func TestScheduler_LookupUnknownToken(t *testing.T) {
	s := NewScheduler(&fakeStateStore{})
	if _, ok := s.Lookup("nope"); ok {
		t.Error("expected lookup miss for unknown token")
	}
}
