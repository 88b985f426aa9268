package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exercise-engine/internal/models"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
)

// ExportService renders exercise answers as xlsx reports
type ExportService interface {
	// ExportInstance writes the current answer and feedback of one instance
	ExportInstance(ctx context.Context, instanceID string) ([]byte, error)
	// ExportQuestionSnapshots writes every persisted answer for a question
	ExportQuestionSnapshots(ctx context.Context, questionID string, filters repositories.SnapshotFilters) ([]byte, error)
}

type exportService struct {
	exercises ExerciseService
	snapshots repositories.SnapshotRepository
	logger    *slog.Logger
}

func NewExportService(exercises ExerciseService, snapshots repositories.SnapshotRepository, logger *slog.Logger) ExportService {
	return &exportService{
		exercises: exercises,
		snapshots: snapshots,
		logger:    logger,
	}
}

const (
	summarySheet   = "Summary"
	answersSheet   = "Answers"
	gridSheet      = "Grid"
	slotsSheet     = "Slots"
	snapshotsSheet = "Snapshots"
)

func (s *exportService) ExportInstance(ctx context.Context, instanceID string) ([]byte, error) {
	detail, err := s.exercises.Detail(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Exporting instance", "instance_id", instanceID, "exercise_type", detail.Render.Type)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	render := detail.Render
	score := ""
	if render.Score != nil {
		score = fmt.Sprintf("%g", *render.Score)
	}
	summary := [][]interface{}{
		{"Instance", detail.InstanceID},
		{"Question", detail.QuestionID},
		{"Type", string(render.Type)},
		{"Answered", render.Respondido},
		{"Overall", string(render.Overall)},
		{"Score", score},
		{"Justification", render.Justification},
		{"Suggestion", render.Suggestion},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	if len(render.Items) > 0 || len(render.Left) > 0 {
		if err := s.writeAnswers(f, render); err != nil {
			return nil, err
		}
	}
	if render.Grid != nil {
		if err := s.writeGrid(f, render.Grid); err != nil {
			return nil, err
		}
	}
	if detail.Analysis != nil {
		if err := s.writeSlots(f, detail); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) writeAnswers(f *excelize.File, render models.RenderState) error {
	if _, err := f.NewSheet(answersSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"Column", "Key", "Label", "Value", "Selected", "Verdict", "Expected"}}
	for _, item := range render.Left {
		rows = append(rows, itemRow("left", item))
	}
	column := "items"
	if len(render.Left) > 0 {
		column = "right"
	}
	for _, item := range render.Items {
		rows = append(rows, itemRow(column, item))
	}
	return writeRows(f, answersSheet, rows)
}

func itemRow(column string, item models.RenderItem) []interface{} {
	label := item.Label
	if item.Before != "" || item.After != "" {
		label = strings.TrimSpace(item.Before + " ___ " + item.After)
	}
	return []interface{}{column, item.Key, label, item.Value, item.Selected, string(item.Verdict), item.Expected}
}

func (s *exportService) writeGrid(f *excelize.File, g *models.RenderGrid) error {
	if _, err := f.NewSheet(gridSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"Row", "Col", "Active", "Fixed", "Value", "Verdict"}}
	for _, line := range g.Cells {
		for _, cell := range line {
			if !cell.Active {
				continue
			}
			rows = append(rows, []interface{}{cell.Row, cell.Col, cell.Active, cell.Fixed, cell.Value, string(cell.Verdict)})
		}
	}
	return writeRows(f, gridSheet, rows)
}

// writeSlots lists each crossword slot with the word the student wrote
func (s *exportService) writeSlots(f *excelize.File, detail *InstanceDetail) error {
	if _, err := f.NewSheet(slotsSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"Number", "Direction", "Row", "Col", "Length", "Clue", "Answer", "Verdict"}}
	for _, slot := range detail.Analysis.Slots {
		clue := ""
		if slot.Clue != nil {
			clue = slot.Clue.Text
		}
		var word strings.Builder
		for _, p := range slot.Cells {
			letter := ""
			if p.Row < len(detail.Answer.Cells) && p.Col < len(detail.Answer.Cells[p.Row]) {
				letter = detail.Answer.Cells[p.Row][p.Col]
			}
			if letter == "" {
				letter = "_"
			}
			word.WriteString(letter)
		}
		verdict := detail.Answer.Feedback.Verdict(models.SlotKey(slot.Number))
		rows = append(rows, []interface{}{
			slot.Number, string(slot.Direction), slot.AnchorRow, slot.AnchorCol, slot.Len(), clue, word.String(), string(verdict),
		})
	}
	return writeRows(f, slotsSheet, rows)
}

func (s *exportService) ExportQuestionSnapshots(ctx context.Context, questionID string, filters repositories.SnapshotFilters) ([]byte, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("%w: snapshot storage is not configured", ErrBadRequest)
	}
	snapshots, total, err := s.snapshots.ListByQuestion(ctx, questionID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	s.logger.Info("Exporting question snapshots", "question_id", questionID, "total", total)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", snapshotsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"State Key", "Type", "Answered", "Correct", "Score", "Updated At"}}
	for _, row := range snapshots {
		correct, score := "", ""
		var snap models.AnswerSnapshot
		if err := json.Unmarshal(row.Answer, &snap); err == nil && snap.Feedback != nil {
			correct = string(snap.Feedback.Overall())
			if snap.Feedback.Score != nil {
				score = fmt.Sprintf("%g", *snap.Feedback.Score)
			}
		}
		rows = append(rows, []interface{}{
			row.StateKey,
			string(row.ExerciseType),
			row.Respondido,
			correct,
			score,
			row.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeRows(f, snapshotsSheet, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
