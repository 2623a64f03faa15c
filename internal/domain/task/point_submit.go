package task

import (
	"ecoleta/client/internal/domain"

	"github.com/google/uuid"
)

const PointSubmitTaskType = "PointSubmitTask"

type PointSubmitTask struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	Point        domain.NewPoint `json:"point"`
	Attempt      int             `json:"attempt"` // Attempts already made
	Error        string          `json:"error"`   // Error message from the last failure
}

func (t *PointSubmitTask) TaskType() string {
	return PointSubmitTaskType
}

func (t *PointSubmitTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
