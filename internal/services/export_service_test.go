package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExportService_CrosswordInstance(t *testing.T) {
	env := newTestEnv(new(MockCorrectionClient))
	exporter := NewExportService(env.svc, env.snapshots, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	cw := start(t, env.svc, models.Table, crosswordContent, "")
	row, col := 0, 1
	_, err := env.svc.SetCell(ctx, cw.InstanceID, &models.CellRequest{Row: &row, Col: &col, Value: "o"})
	require.NoError(t, err)

	data, err := exporter.ExportInstance(ctx, cw.InstanceID)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Summary", "Grid", "Slots"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Instance", cw.InstanceID}, summary[0])
	assert.Equal(t, []string{"Type", "table"}, summary[2])

	slots, err := f.GetRows("Slots")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "Number", slots[0][0])
	assert.Equal(t, "1", slots[1][0])
	assert.Equal(t, "horizontal", slots[1][1])
	assert.Equal(t, "Astro rei", slots[1][5])
	assert.Equal(t, "SO_", slots[1][6])
	assert.Equal(t, "unknown", slots[1][7])
	assert.Equal(t, "vertical", slots[2][1])
}

func TestExportService_AnswersSheet(t *testing.T) {
	env := newTestEnv(new(MockCorrectionClient))
	exporter := NewExportService(env.svc, env.snapshots, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	inst := start(t, env.svc, models.FillBlankWordBank, wordBankContent, "")
	assign(t, env.svc, inst.InstanceID, "lacuna-1", "palavra-2")

	data, err := exporter.ExportInstance(ctx, inst.InstanceID)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows("Answers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "items", rows[1][0])
	assert.Equal(t, "lacuna-1", rows[1][1])
	assert.Equal(t, "cão", rows[1][3])

	_, err = exporter.ExportInstance(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestExportService_QuestionSnapshots(t *testing.T) {
	client := new(MockCorrectionClient)
	env := newTestEnv(client)
	exporter := NewExportService(env.svc, env.snapshots, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	inst := start(t, env.svc, models.FillBlankWordBank, wordBankContent, "aluno-7")
	assign(t, env.svc, inst.InstanceID, "lacuna-1", "palavra-1")
	client.On("Correct", mock.Anything, models.FillBlankWordBank, mock.Anything).
		Return(json.RawMessage(wordBankCorrect), nil).Once()
	_, err := env.svc.Submit(ctx, inst.InstanceID)
	require.NoError(t, err)

	data, err := exporter.ExportQuestionSnapshots(ctx, "q1", repositories.SnapshotFilters{})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows("Snapshots")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "aluno-7", rows[1][0])
	assert.Equal(t, "fill_blank_word_bank", rows[1][1])
	assert.Equal(t, "correct", rows[1][3])
}
