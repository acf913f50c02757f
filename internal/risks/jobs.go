package risks

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateStore persists lifecycle state for a schedulable entity. SetState
// implementations must re-read the current row before writing so a state
// flip never resurrects stale sibling columns.
type StateStore interface {
	State(ctx context.Context, id uint) (State, error)
	SetState(ctx context.Context, id uint, state State) error
}

// JobFunc is one background unit of work. It runs with the entity already in
// the processing state; a nil return moves the entity to ready, an error to
// error.
type JobFunc func(ctx context.Context) error

// Job is the observable record of one dispatched unit of work.
type Job struct {
	Token      string     `json:"token"`
	Name       string     `json:"name"`
	EntityID   uint       `json:"entity_id"`
	Status     State      `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Scheduler dispatches fire-and-forget background jobs and tracks them in
// an in-memory registry keyed by idempotency token. Concurrent schedules of
// the same entity race; the last writer to the state row wins.
type Scheduler struct {
	store StateStore

	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

func NewScheduler(store StateStore) *Scheduler {
	return &Scheduler{store: store, jobs: make(map[string]*Job)}
}

// Schedule forces the entity back to queued, then dispatches work in the
// background. It returns the job's idempotency token immediately; callers
// observe progress through Lookup or the entity's own state column.
func (s *Scheduler) Schedule(ctx context.Context, name string, entityID uint, work JobFunc) (string, error) {
	if _, err := s.store.State(ctx, entityID); err != nil {
		return "", err
	}
	if err := s.store.SetState(ctx, entityID, StateQueued); err != nil {
		return "", err
	}

	token := uuid.New().String()
	job := &Job{Token: token, Name: name, EntityID: entityID, Status: StateQueued, StartedAt: time.Now()}
	s.mu.Lock()
	s.jobs[token] = job
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job, work)
	}()
	return token, nil
}

func (s *Scheduler) run(job *Job, work JobFunc) {
	ctx := context.Background()

	if err := s.transition(ctx, job, StateProcessing); err != nil {
		s.finish(job, StateError, err)
		return
	}
	log.Printf("[scheduler] job %s (%s) processing entity %d", job.Token, job.Name, job.EntityID)

	if err := work(ctx); err != nil {
		if serr := s.transition(ctx, job, StateError); serr != nil {
			log.Printf("[scheduler] job %s: could not mark entity %d as error: %v", job.Token, job.EntityID, serr)
		}
		s.finish(job, StateError, err)
		return
	}

	if err := s.transition(ctx, job, StateReady); err != nil {
		s.finish(job, StateError, err)
		return
	}
	s.finish(job, StateReady, nil)
}

// transition re-reads the entity before writing the new state.
func (s *Scheduler) transition(ctx context.Context, job *Job, state State) error {
	if _, err := s.store.State(ctx, job.EntityID); err != nil {
		return fmt.Errorf("refresh entity %d: %w", job.EntityID, err)
	}
	if err := s.store.SetState(ctx, job.EntityID, state); err != nil {
		return err
	}
	s.mu.Lock()
	job.Status = state
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) finish(job *Job, status State, err error) {
	now := time.Now()
	s.mu.Lock()
	job.Status = status
	job.FinishedAt = &now
	if err != nil {
		job.Error = err.Error()
		log.Printf("[scheduler] job %s (%s) failed: %v", job.Token, job.Name, err)
	} else {
		log.Printf("[scheduler] job %s (%s) done in %s", job.Token, job.Name, now.Sub(job.StartedAt).Round(time.Millisecond))
	}
	s.mu.Unlock()
}

// Lookup returns a copy of the job record for a token.
func (s *Scheduler) Lookup(token string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[token]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until every dispatched job has finished. Serving code never
// calls this; it exists for shutdown and tests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
