package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exercise-engine/internal/answer"
	"github.com/SAP-F-2025/exercise-engine/internal/correction"
	"github.com/SAP-F-2025/exercise-engine/internal/events"
	"github.com/SAP-F-2025/exercise-engine/internal/feedback"
	"github.com/SAP-F-2025/exercise-engine/internal/grid"
	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/normalizer"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"github.com/SAP-F-2025/exercise-engine/internal/validator"
)

// ExerciseService runs exercise instances. Each instance is addressed by the
// id returned from Start and owns its own answer state, feedback and
// correction dispatcher.
type ExerciseService interface {
	Start(ctx context.Context, req *models.StartInstanceRequest) (*InstanceResponse, error)
	Get(ctx context.Context, instanceID string) (*InstanceResponse, error)
	Detail(ctx context.Context, instanceID string) (*InstanceDetail, error)
	Dispose(ctx context.Context, instanceID string) error

	// Answer operations
	SelectAlternative(ctx context.Context, instanceID string, req *models.SelectAlternativeRequest) (*InstanceResponse, error)
	ToggleSelection(ctx context.Context, instanceID string, req *models.SelectionRequest) (*InstanceResponse, error)
	SetText(ctx context.Context, instanceID string, req *models.SetTextRequest) (*InstanceResponse, error)
	SetBlank(ctx context.Context, instanceID string, req *models.BlankRequest) (*InstanceResponse, error)
	SetMatch(ctx context.Context, instanceID string, req *models.MatchRequest) (*InstanceResponse, error)
	SetCell(ctx context.Context, instanceID string, req *models.CellRequest) (*InstanceResponse, error)

	// Word bank operations
	AssignWordToSlot(ctx context.Context, instanceID string, req *models.BankAssignRequest) (*InstanceResponse, error)
	ClearSlot(ctx context.Context, instanceID string, req *models.BankClearRequest) (*InstanceResponse, error)
	MoveBetweenSlots(ctx context.Context, instanceID string, req *models.BankMoveRequest) (*InstanceResponse, error)
	TapToken(ctx context.Context, instanceID string, req *models.BankTapRequest) (*InstanceResponse, error)

	Submit(ctx context.Context, instanceID string) (*SubmitResponse, error)

	// Grid analysis
	Slots(ctx context.Context, instanceID string) (*grid.Analysis, error)
	AnalyzeGrid(ctx context.Context, req *models.AnalyzeGridRequest) (*grid.Analysis, error)

	ActiveInstances() int
}

// ===== RESPONSES =====

type InstanceResponse struct {
	InstanceID string              `json:"instance_id"`
	QuestionID string              `json:"question_id"`
	Type       models.ExerciseType `json:"type"`
	StateKey   string              `json:"state_key,omitempty"`
	Restored   bool                `json:"restored"`
	Pending    bool                `json:"pending"`
	Render     models.RenderState  `json:"render"`
}

type SubmitResponse struct {
	Outcome  correction.Outcome `json:"outcome"`
	Instance *InstanceResponse  `json:"instance"`
}

// InstanceDetail is a point-in-time copy of an instance for reporting
type InstanceDetail struct {
	InstanceID string
	QuestionID string
	Exercise   models.Exercise
	Answer     *models.AnswerSnapshot
	Render     models.RenderState
	Analysis   *grid.Analysis
}

// ===== INSTANCE RECORD =====

type instanceRecord struct {
	id         string
	questionID string
	stateKey   string
	restored   bool

	mu         sync.Mutex
	manager    *answer.Manager
	dispatcher *correction.Dispatcher
	analysis   *grid.Analysis
	submitting bool
	disposed   bool

	lastBankChange *answer.BankChange
	unsubscribe    func()
}

func (r *instanceRecord) exerciseType() models.ExerciseType {
	return r.manager.Exercise().Type()
}

// ===== SERVICE =====

// ExerciseServiceConfig wires the collaborators of the exercise service
type ExerciseServiceConfig struct {
	Snapshots repositories.SnapshotRepository
	Client    correction.Client
	Publisher events.EventPublisher
	Validator *validator.Validator
	Logger    *slog.Logger
	// NewRand seeds the per-instance shuffles; nil uses the global source
	NewRand func() *rand.Rand
}

type exerciseService struct {
	snapshots repositories.SnapshotRepository
	client    correction.Client
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	opLogger  *ServiceLogger
	newRand   func() *rand.Rand

	mu        sync.RWMutex
	instances map[string]*instanceRecord
	loads     singleflight.Group
}

func NewExerciseService(cfg ExerciseServiceConfig) ExerciseService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}
	return &exerciseService{
		snapshots: cfg.Snapshots,
		client:    cfg.Client,
		publisher: cfg.Publisher,
		validator: v,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "exercise-engine", Component: "exercise_service"}),
		newRand:   cfg.NewRand,
		instances: make(map[string]*instanceRecord),
	}
}

// ===== LIFECYCLE =====

func (s *exerciseService) Start(ctx context.Context, req *models.StartInstanceRequest) (resp *InstanceResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "start", "")
	op.SetExerciseType(req.Type)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ex, err := s.normalize(ctx, req)
	if err != nil {
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx, req.StateKey)
	if err != nil {
		return nil, err
	}
	if snap != nil && snap.Type != ex.Type() {
		s.logger.Warn("Ignoring snapshot of another exercise type",
			"state_key", req.StateKey,
			"snapshot_type", snap.Type,
			"exercise_type", ex.Type())
		snap = nil
	}

	var rng *rand.Rand
	if s.newRand != nil {
		rng = s.newRand()
	}
	manager, err := answer.New(ex, snap, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build answer state: %w", err)
	}

	rec := &instanceRecord{
		id:         uuid.NewString(),
		questionID: req.QuestionID,
		stateKey:   req.StateKey,
		restored:   snap != nil,
		manager:    manager,
		dispatcher: correction.NewDispatcher(s.client, manager.Respondido()),
	}
	if cw, ok := ex.(*models.CrosswordModel); ok {
		rec.analysis = grid.Analyze(cw.ActivationMask, cw.Clues)
	}
	if bank, ok := manager.Bank(); ok {
		// called synchronously inside bank operations, with rec.mu held
		rec.unsubscribe = bank.OnChange(func(change answer.BankChange) {
			rec.lastBankChange = &change
		})
	}
	op.SetInstanceID(rec.id)

	s.mu.Lock()
	s.instances[rec.id] = rec
	s.mu.Unlock()

	rec.mu.Lock()
	resp = s.view(rec)
	rec.mu.Unlock()

	s.publish(ctx, events.EventInstanceStarted, events.InstanceStartedEvent{
		InstanceID:   rec.id,
		StateKey:     rec.stateKey,
		QuestionID:   rec.questionID,
		ExerciseType: ex.Type(),
		Restored:     rec.restored,
		Respondido:   manager.Respondido(),
	})
	return resp, nil
}

// normalize turns authored content into a model. A panic in the normalizer
// is reported as unavailable content.
func (s *exerciseService) normalize(ctx context.Context, req *models.StartInstanceRequest) (ex models.Exercise, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.opLogger.LogRecovery(ctx, "normalize", "", r, debug.Stack())
			ex, err = nil, fmt.Errorf("%w: %v", ErrContentUnavailable, r)
		}
	}()

	ex, err = normalizer.Normalize(req.Type, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	return ex, nil
}

// loadSnapshot fetches the persisted answer for stateKey. Concurrent starts
// with the same key share one repository read.
func (s *exerciseService) loadSnapshot(ctx context.Context, stateKey string) (*models.AnswerSnapshot, error) {
	if stateKey == "" || s.snapshots == nil {
		return nil, nil
	}

	v, err, _ := s.loads.Do(stateKey, func() (interface{}, error) {
		return s.snapshots.Get(ctx, stateKey)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", stateKey, err)
	}

	row := v.(*models.InstanceSnapshot)
	var snap models.AnswerSnapshot
	if err := json.Unmarshal(row.Answer, &snap); err != nil {
		s.logger.Warn("Discarding unreadable snapshot", "state_key", stateKey, "error", err)
		return nil, nil
	}
	snap.Respondido = snap.Respondido || row.Respondido
	return &snap, nil
}

func (s *exerciseService) Get(ctx context.Context, instanceID string) (*InstanceResponse, error) {
	rec, err := s.lookup(instanceID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.disposed {
		return nil, ErrInstanceDisposed
	}
	return s.view(rec), nil
}

func (s *exerciseService) Detail(ctx context.Context, instanceID string) (*InstanceDetail, error) {
	rec, err := s.lookup(instanceID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.disposed {
		return nil, ErrInstanceDisposed
	}
	snap := rec.manager.Snapshot()
	return &InstanceDetail{
		InstanceID: rec.id,
		QuestionID: rec.questionID,
		Exercise:   rec.manager.Exercise(),
		Answer:     snap,
		Render:     feedback.Project(rec.manager.Exercise(), snap, rec.manager.Feedback(), rec.analysis),
		Analysis:   rec.analysis,
	}, nil
}

// Dispose tears the instance down. A correction response still in flight is
// discarded when it arrives.
func (s *exerciseService) Dispose(ctx context.Context, instanceID string) (err error) {
	op := s.opLogger.WithOperation(ctx, "dispose", instanceID)
	defer func() { op.LogResult(err) }()

	s.mu.Lock()
	rec, ok := s.instances[instanceID]
	delete(s.instances, instanceID)
	s.mu.Unlock()
	if !ok {
		return ErrInstanceNotFound
	}
	op.SetExerciseType(rec.exerciseType())

	rec.mu.Lock()
	pending := rec.submitting
	rec.disposed = true
	rec.dispatcher.Dispose()
	if rec.unsubscribe != nil {
		rec.unsubscribe()
	}
	rec.mu.Unlock()

	s.publish(ctx, events.EventInstanceDisposed, events.InstanceDisposedEvent{
		InstanceID: instanceID,
		Pending:    pending,
		DisposedAt: time.Now().UTC(),
	})
	return nil
}

func (s *exerciseService) ActiveInstances() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

// ===== ANSWER OPERATIONS =====

func (s *exerciseService) SelectAlternative(ctx context.Context, instanceID string, req *models.SelectAlternativeRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "select_alternative", req, func(m *answer.Manager) error {
		return m.SelectAlternative(req.AlternativeID)
	})
}

func (s *exerciseService) ToggleSelection(ctx context.Context, instanceID string, req *models.SelectionRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "toggle_selection", req, func(m *answer.Manager) error {
		return m.ToggleSelection(req.ItemID)
	})
}

func (s *exerciseService) SetText(ctx context.Context, instanceID string, req *models.SetTextRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "set_text", req, func(m *answer.Manager) error {
		return m.SetText(req.Text)
	})
}

func (s *exerciseService) SetBlank(ctx context.Context, instanceID string, req *models.BlankRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "set_blank", req, func(m *answer.Manager) error {
		return m.SetBlank(*req.Index, req.Value)
	})
}

func (s *exerciseService) SetMatch(ctx context.Context, instanceID string, req *models.MatchRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "set_match", req, func(m *answer.Manager) error {
		return m.SetMatch(*req.RightIndex, req.Value)
	})
}

func (s *exerciseService) SetCell(ctx context.Context, instanceID string, req *models.CellRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "set_cell", req, func(m *answer.Manager) error {
		return m.SetCell(models.Position{Row: *req.Row, Col: *req.Col}, req.Value)
	})
}

func (s *exerciseService) AssignWordToSlot(ctx context.Context, instanceID string, req *models.BankAssignRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "assign_word", req, func(m *answer.Manager) error {
		return m.AssignWordToSlot(req.SlotID, req.TokenID)
	})
}

func (s *exerciseService) ClearSlot(ctx context.Context, instanceID string, req *models.BankClearRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "clear_slot", req, func(m *answer.Manager) error {
		return m.ClearSlot(req.SlotID)
	})
}

func (s *exerciseService) MoveBetweenSlots(ctx context.Context, instanceID string, req *models.BankMoveRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "move_word", req, func(m *answer.Manager) error {
		return m.MoveBetweenSlots(req.FromSlotID, req.ToSlotID)
	})
}

func (s *exerciseService) TapToken(ctx context.Context, instanceID string, req *models.BankTapRequest) (*InstanceResponse, error) {
	return s.mutate(ctx, instanceID, "tap_token", req, func(m *answer.Manager) error {
		_, err := m.TapToken(req.TokenID)
		return err
	})
}

// mutate runs one answer operation under the instance lock, persists the new
// snapshot and emits answer.changed.
func (s *exerciseService) mutate(ctx context.Context, instanceID, operation string, req interface{}, fn func(*answer.Manager) error) (resp *InstanceResponse, err error) {
	op := s.opLogger.WithOperation(ctx, operation, instanceID)
	defer func() { op.LogResult(err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	rec, err := s.lookup(instanceID)
	if err != nil {
		return nil, err
	}
	op.SetExerciseType(rec.exerciseType())

	rec.mu.Lock()
	if rec.disposed {
		rec.mu.Unlock()
		return nil, ErrInstanceDisposed
	}
	if rec.submitting || rec.dispatcher.Pending() {
		rec.mu.Unlock()
		return nil, ErrSubmissionPending
	}
	rec.lastBankChange = nil
	if err := fn(rec.manager); err != nil {
		rec.mu.Unlock()
		return nil, translateAnswerError(err, map[string]interface{}{"operation": operation})
	}
	change := rec.lastBankChange
	rec.lastBankChange = nil
	s.persist(ctx, rec)
	resp = s.view(rec)
	rec.mu.Unlock()

	// Operations that changed nothing, such as re-assigning a token to its
	// own slot, emit no event.
	if _, isBank := rec.manager.Exercise().(*models.WordBankFillModel); isBank && change == nil {
		return resp, nil
	}
	data := events.AnswerChangedEvent{
		InstanceID:   rec.id,
		ExerciseType: rec.exerciseType(),
		Operation:    operation,
		ChangedAt:    time.Now().UTC(),
	}
	if change != nil {
		data.SlotID = change.SlotID
		data.TokenID = change.TokenID
	}
	s.publish(ctx, events.EventAnswerChanged, data)
	return resp, nil
}

// ===== SUBMISSION =====

// Submit validates the answer and sends it to the Correction Service. A
// submission while another is in flight, or after the instance is answered,
// returns OutcomeSkipped without a request.
func (s *exerciseService) Submit(ctx context.Context, instanceID string) (resp *SubmitResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "submit", instanceID)
	defer func() { op.LogResult(err) }()

	rec, err := s.lookup(instanceID)
	if err != nil {
		return nil, err
	}
	exerciseType := rec.exerciseType()
	op.SetExerciseType(exerciseType)

	rec.mu.Lock()
	if rec.disposed {
		rec.mu.Unlock()
		return nil, ErrInstanceDisposed
	}
	if rec.manager.Respondido() || rec.submitting || rec.dispatcher.Pending() {
		resp = &SubmitResponse{Outcome: correction.OutcomeSkipped, Instance: s.view(rec)}
		rec.mu.Unlock()
		return resp, nil
	}
	if err := rec.manager.Validate(); err != nil {
		rec.mu.Unlock()
		return nil, err
	}
	sub := correction.Submission{
		Exercise:   rec.manager.Exercise(),
		QuestionID: rec.questionID,
		Payload:    rec.manager.Payload(rec.questionID),
		Answer:     rec.manager.Snapshot(),
	}
	rec.submitting = true
	rec.mu.Unlock()

	s.publish(ctx, events.EventCorrectionRequested, events.CorrectionRequestedEvent{
		InstanceID:   rec.id,
		QuestionID:   rec.questionID,
		ExerciseType: exerciseType,
		RequestedAt:  time.Now().UTC(),
	})

	var applied *models.Feedback
	outcome, err := rec.dispatcher.Submit(ctx, sub, func(fb *models.Feedback) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if rec.disposed {
			return
		}
		rec.manager.Freeze(fb)
		s.persist(ctx, rec)
		applied = fb
	})

	rec.mu.Lock()
	rec.submitting = false
	disposed := rec.disposed
	var view *InstanceResponse
	if !disposed {
		view = s.view(rec)
	}
	rec.mu.Unlock()

	switch {
	case outcome == correction.OutcomeDiscarded || disposed:
		return nil, fmt.Errorf("%w: correction response discarded", ErrInstanceDisposed)
	case err != nil:
		s.publish(ctx, events.EventCorrectionFailed, events.CorrectionFailedEvent{
			InstanceID:   rec.id,
			QuestionID:   rec.questionID,
			ExerciseType: exerciseType,
			Error:        err.Error(),
			Retryable:    correction.IsRetryable(err),
			FailedAt:     time.Now().UTC(),
		})
		return nil, fmt.Errorf("correction failed: %w", err)
	}

	if applied != nil {
		s.publish(ctx, events.EventCorrectionCompleted, events.CorrectionCompletedEvent{
			InstanceID:   rec.id,
			QuestionID:   rec.questionID,
			ExerciseType: exerciseType,
			Correct:      applied.Correct,
			Score:        applied.Score,
			CompletedAt:  time.Now().UTC(),
		})
	}
	return &SubmitResponse{Outcome: outcome, Instance: view}, nil
}

// ===== GRID ANALYSIS =====

func (s *exerciseService) Slots(ctx context.Context, instanceID string) (*grid.Analysis, error) {
	rec, err := s.lookup(instanceID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.disposed {
		return nil, ErrInstanceDisposed
	}
	if rec.analysis == nil {
		return nil, fmt.Errorf("%w: slots are only defined for crosswords", ErrUnsupportedOperation)
	}
	return rec.analysis, nil
}

func (s *exerciseService) AnalyzeGrid(ctx context.Context, req *models.AnalyzeGridRequest) (*grid.Analysis, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return grid.Analyze(req.Mask, req.Clues), nil
}

// ===== HELPERS =====

func (s *exerciseService) lookup(instanceID string) (*instanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.instances[instanceID]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return rec, nil
}

// view projects the record for the host. Callers hold rec.mu.
func (s *exerciseService) view(rec *instanceRecord) *InstanceResponse {
	snap := rec.manager.Snapshot()
	return &InstanceResponse{
		InstanceID: rec.id,
		QuestionID: rec.questionID,
		Type:       rec.exerciseType(),
		StateKey:   rec.stateKey,
		Restored:   rec.restored,
		Pending:    rec.submitting,
		Render:     feedback.Project(rec.manager.Exercise(), snap, rec.manager.Feedback(), rec.analysis),
	}
}

// persist saves the current snapshot under the record's state key. Storage
// failures are logged; the in-memory state stays authoritative. Callers hold
// rec.mu so saves for one instance are never reordered.
func (s *exerciseService) persist(ctx context.Context, rec *instanceRecord) {
	if rec.stateKey == "" || s.snapshots == nil {
		return
	}
	snap := rec.manager.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("Failed to encode snapshot", "instance_id", rec.id, "error", err)
		return
	}
	row := &models.InstanceSnapshot{
		StateKey:     rec.stateKey,
		ExerciseType: snap.Type,
		QuestionID:   rec.questionID,
		Respondido:   snap.Respondido,
		Answer:       datatypes.JSON(data),
	}
	if err := s.snapshots.Save(ctx, row); err != nil {
		s.logger.Error("Failed to persist snapshot",
			"instance_id", rec.id,
			"state_key", rec.stateKey,
			"error", err)
	}
}

// publish emits an event. Publishing failures never fail the operation.
func (s *exerciseService) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExerciseEvent(ctx, events.NewExerciseEvent(eventType, data)); err != nil {
		s.logger.Warn("Failed to publish exercise event", "event_type", eventType, "error", err)
	}
}
