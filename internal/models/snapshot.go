package models

import (
	"time"

	"gorm.io/datatypes"
)

// InstanceSnapshot persists the answer state of one exercise instance under
// the host-provided state key so a later instance can restore it.
type InstanceSnapshot struct {
	StateKey     string         `json:"state_key" gorm:"primaryKey;size:255"`
	ExerciseType ExerciseType   `json:"exercise_type" gorm:"not null;index;size:50"`
	QuestionID   string         `json:"question_id" gorm:"not null;index;size:255"`
	Respondido   bool           `json:"respondido" gorm:"default:false;index"`
	Answer       datatypes.JSON `json:"answer" gorm:"type:jsonb"` // AnswerSnapshot

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InstanceSnapshot) TableName() string {
	return "exercise_snapshots"
}
