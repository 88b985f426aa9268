package correction

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   int
	body    json.RawMessage
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeClient) Correct(ctx context.Context, _ models.ExerciseType, _ any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	body, err := f.body, f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, &NetworkError{Op: "post", Err: ctx.Err()}
		}
	}
	return body, err
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeClient) set(body string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = json.RawMessage(body)
	f.err = err
}

func choiceSubmission() Submission {
	ex := &models.ChoiceModel{Kind: models.MultipleChoice, Alternatives: []models.Alternative{{ID: "A"}, {ID: "B"}}}
	return Submission{
		Exercise:   ex,
		QuestionID: "q1",
		Payload:    models.ChoiceRequest{QuestionID: "q1", Resposta: "B"},
		Answer:     &models.AnswerSnapshot{Type: models.MultipleChoice, Choice: "B"},
	}
}

func TestDispatcher_AppliesOnceThenSkips(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{body: json.RawMessage(`{"acertou": true}`)}
	d := NewDispatcher(client, false)

	var applied []*models.Feedback
	apply := func(fb *models.Feedback) { applied = append(applied, fb) }

	outcome, err := d.Submit(context.Background(), choiceSubmission(), apply)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Correct)
	assert.Equal(t, models.VerdictCorrect, applied[0].Verdict("B"))
	assert.True(t, d.Answered())

	outcome, err = d.Submit(context.Background(), choiceSubmission(), apply)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 1, client.Calls())
	assert.Len(t, applied, 1)
}

func TestDispatcher_SecondSubmitWhilePendingIsSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{
		body:    json.RawMessage(`{"acertou": false}`),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	d := NewDispatcher(client, false)

	var wg sync.WaitGroup
	var first Outcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, _ = d.Submit(context.Background(), choiceSubmission(), nil)
	}()

	<-client.started
	assert.True(t, d.Pending())

	for i := 0; i < 5; i++ {
		outcome, err := d.Submit(context.Background(), choiceSubmission(), nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	}

	close(client.release)
	wg.Wait()

	assert.Equal(t, OutcomeApplied, first)
	assert.Equal(t, 1, client.Calls())
	assert.False(t, d.Pending())
}

func TestDispatcher_FailureLeavesInstanceOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{err: &NetworkError{Op: "post", Err: errors.New("connection reset")}}
	d := NewDispatcher(client, false)

	applied := false
	outcome, err := d.Submit(context.Background(), choiceSubmission(), func(*models.Feedback) { applied = true })
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.True(t, IsRetryable(err))
	assert.False(t, applied)
	assert.False(t, d.Answered())
	assert.False(t, d.Pending())

	client.set(`{"acertou": true}`, nil)
	outcome, err = d.Submit(context.Background(), choiceSubmission(), func(*models.Feedback) { applied = true })
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, applied)
	assert.Equal(t, 2, client.Calls())
}

func TestDispatcher_InvalidResponseIsRetryable(t *testing.T) {
	client := &fakeClient{body: json.RawMessage(`<html>`)}
	d := NewDispatcher(client, false)

	outcome, err := d.Submit(context.Background(), choiceSubmission(), nil)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.True(t, IsRetryable(err))
	assert.False(t, d.Answered())
}

func TestDispatcher_DisposeDiscardsLateResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{
		body:    json.RawMessage(`{"acertou": true}`),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	defer close(client.release)
	d := NewDispatcher(client, false)

	done := make(chan Outcome, 1)
	applied := false
	go func() {
		outcome, _ := d.Submit(context.Background(), choiceSubmission(), func(*models.Feedback) { applied = true })
		done <- outcome
	}()

	<-client.started
	before := d.Generation()
	d.Dispose()
	d.Dispose()

	assert.Equal(t, OutcomeDiscarded, <-done)
	assert.False(t, applied)
	assert.Equal(t, before+1, d.Generation())

	outcome, err := d.Submit(context.Background(), choiceSubmission(), nil)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Equal(t, 1, client.Calls())
}

func TestDispatcher_RestoredAnsweredNeverCalls(t *testing.T) {
	client := &fakeClient{body: json.RawMessage(`{"acertou": true}`)}
	d := NewDispatcher(client, true)

	outcome, err := d.Submit(context.Background(), choiceSubmission(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Zero(t, client.Calls())
}
