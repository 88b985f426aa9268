package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
)

// AnalyticsService summarizes the persisted answers of a question
type AnalyticsService interface {
	GetQuestionAnalytics(ctx context.Context, questionID string) (*QuestionAnalytics, error)
}

type analyticsService struct {
	snapshots repositories.SnapshotRepository
	logger    *slog.Logger
	pageSize  int
}

func NewAnalyticsService(snapshots repositories.SnapshotRepository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		snapshots: snapshots,
		logger:    logger,
		pageSize:  500,
	}
}

// ===== DATA STRUCTURES =====

type QuestionAnalytics struct {
	QuestionID       string                             `json:"question_id"`
	TotalAnswers     int                                `json:"total_answers"`
	SubmittedAnswers int                                `json:"submitted_answers"`
	CorrectAnswers   int                                `json:"correct_answers"`
	IncorrectAnswers int                                `json:"incorrect_answers"`
	CorrectRate      float64                            `json:"correct_rate"`
	AverageScore     *float64                           `json:"average_score,omitempty"`
	ByType           map[models.ExerciseType]*TypeStats `json:"by_type"`
	GeneratedAt      time.Time                          `json:"generated_at"`
}

type TypeStats struct {
	TotalAnswers     int `json:"total_answers"`
	SubmittedAnswers int `json:"submitted_answers"`
	CorrectAnswers   int `json:"correct_answers"`
}

// ===== QUESTION ANALYTICS =====

func (s *analyticsService) GetQuestionAnalytics(ctx context.Context, questionID string) (*QuestionAnalytics, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("%w: snapshot storage is not configured", ErrBadRequest)
	}

	analytics := &QuestionAnalytics{
		QuestionID:  questionID,
		ByType:      make(map[models.ExerciseType]*TypeStats),
		GeneratedAt: time.Now(),
	}

	var (
		scoreSum   float64
		scoreCount int
	)
	filters := repositories.SnapshotFilters{Limit: s.pageSize}
	for {
		page, total, err := s.snapshots.ListByQuestion(ctx, questionID, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, row := range page {
			stats := analytics.ByType[row.ExerciseType]
			if stats == nil {
				stats = &TypeStats{}
				analytics.ByType[row.ExerciseType] = stats
			}
			analytics.TotalAnswers++
			stats.TotalAnswers++
			if !row.Respondido {
				continue
			}
			analytics.SubmittedAnswers++
			stats.SubmittedAnswers++

			var snap models.AnswerSnapshot
			if err := json.Unmarshal(row.Answer, &snap); err != nil {
				s.logger.Warn("Skipping unreadable snapshot", "state_key", row.StateKey, "error", err)
				continue
			}
			switch snap.Feedback.Overall() {
			case models.VerdictCorrect:
				analytics.CorrectAnswers++
				stats.CorrectAnswers++
			case models.VerdictIncorrect:
				analytics.IncorrectAnswers++
			}
			if snap.Feedback != nil && snap.Feedback.Score != nil {
				scoreSum += *snap.Feedback.Score
				scoreCount++
			}
		}

		filters.Offset += len(page)
		if len(page) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	if analytics.SubmittedAnswers > 0 {
		analytics.CorrectRate = float64(analytics.CorrectAnswers) / float64(analytics.SubmittedAnswers)
	}
	if scoreCount > 0 {
		avg := scoreSum / float64(scoreCount)
		analytics.AverageScore = &avg
	}

	s.logger.Info("Question analytics generated",
		"question_id", questionID,
		"total_answers", analytics.TotalAnswers,
		"submitted_answers", analytics.SubmittedAnswers)
	return analytics, nil
}
