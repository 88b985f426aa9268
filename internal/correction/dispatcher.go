package correction

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

type Outcome string

const (
	// OutcomeApplied means feedback was received and handed to apply.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means no request was made: the instance is already
	// answered or a request is in flight.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDiscarded means the instance was disposed while the request was
	// in flight and the response was dropped.
	OutcomeDiscarded Outcome = "discarded"
	OutcomeFailed    Outcome = "failed"
)

// Submission is everything the dispatcher needs to correct one answer.
type Submission struct {
	Exercise   models.Exercise
	QuestionID string
	Payload    any
	Answer     *models.AnswerSnapshot
}

// Dispatcher gates correction requests for a single exercise instance: at
// most one request in flight, none after the instance is answered, and no
// feedback applied once the instance is disposed.
type Dispatcher struct {
	client Client

	mu         sync.Mutex
	generation uint64
	pending    bool
	answered   bool
	disposed   bool
	cancel     context.CancelFunc
}

func NewDispatcher(client Client, answered bool) *Dispatcher {
	return &Dispatcher{client: client, answered: answered}
}

func (d *Dispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Dispatcher) Answered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.answered
}

func (d *Dispatcher) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// Submit sends the answer to the Correction Service. On success apply is
// called exactly once with the decoded feedback, outside the dispatcher lock.
// Failures leave the instance unanswered and return a retryable error.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission, apply func(*models.Feedback)) (Outcome, error) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return OutcomeSkipped, ErrDisposed
	}
	if d.answered || d.pending {
		d.mu.Unlock()
		return OutcomeSkipped, nil
	}
	d.pending = true
	gen := d.generation
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()

	body, err := d.client.Correct(ctx, sub.Exercise.Type(), sub.Payload)
	var fb *models.Feedback
	if err == nil {
		fb, err = Decode(sub.Exercise, sub.Answer, body)
	}

	d.mu.Lock()
	d.pending = false
	d.cancel = nil
	if d.disposed || d.generation != gen {
		d.mu.Unlock()
		return OutcomeDiscarded, nil
	}
	if err != nil {
		d.mu.Unlock()
		return OutcomeFailed, err
	}
	d.answered = true
	d.mu.Unlock()

	if apply != nil {
		apply(fb)
	}
	return OutcomeApplied, nil
}

// Dispose invalidates any in-flight request. It is safe to call more than
// once.
func (d *Dispatcher) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	d.disposed = true
	d.generation++
	if d.cancel != nil {
		d.cancel()
	}
}
