package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories/memory"
)

func saveSnapshot(t *testing.T, repo *memory.SnapshotMemory, key string, typ models.ExerciseType, fb *models.Feedback) {
	t.Helper()
	snap := models.AnswerSnapshot{Type: typ, Respondido: fb != nil, Feedback: fb}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), &models.InstanceSnapshot{
		StateKey:     key,
		ExerciseType: typ,
		QuestionID:   "q1",
		Respondido:   snap.Respondido,
		Answer:       raw,
	}))
}

func TestAnalyticsService_GetQuestionAnalytics(t *testing.T) {
	repo := memory.NewSnapshotMemory()
	ten, six := 10.0, 6.0

	saveSnapshot(t, repo, "s1", models.MultipleChoice, &models.Feedback{Correct: true, Score: &ten})
	saveSnapshot(t, repo, "s2", models.MultipleChoice, &models.Feedback{Correct: false, Score: &six})
	saveSnapshot(t, repo, "s3", models.MultipleChoice, nil)
	for i := 0; i < 3; i++ {
		saveSnapshot(t, repo, fmt.Sprintf("wb-%d", i), models.FillBlankWordBank, &models.Feedback{Correct: true})
	}

	svc := NewAnalyticsService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))).(*analyticsService)
	svc.pageSize = 2

	got, err := svc.GetQuestionAnalytics(context.Background(), "q1")
	require.NoError(t, err)

	assert.Equal(t, 6, got.TotalAnswers)
	assert.Equal(t, 5, got.SubmittedAnswers)
	assert.Equal(t, 4, got.CorrectAnswers)
	assert.Equal(t, 1, got.IncorrectAnswers)
	assert.InDelta(t, 0.8, got.CorrectRate, 1e-9)
	require.NotNil(t, got.AverageScore)
	assert.InDelta(t, 8.0, *got.AverageScore, 1e-9)

	require.Contains(t, got.ByType, models.MultipleChoice)
	assert.Equal(t, &TypeStats{TotalAnswers: 3, SubmittedAnswers: 2, CorrectAnswers: 1}, got.ByType[models.MultipleChoice])
	assert.Equal(t, &TypeStats{TotalAnswers: 3, SubmittedAnswers: 3, CorrectAnswers: 3}, got.ByType[models.FillBlankWordBank])
}

func TestAnalyticsService_EmptyQuestion(t *testing.T) {
	svc := NewAnalyticsService(memory.NewSnapshotMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := svc.GetQuestionAnalytics(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Zero(t, got.TotalAnswers)
	assert.Zero(t, got.CorrectRate)
	assert.Nil(t, got.AverageScore)
	assert.Empty(t, got.ByType)
}
