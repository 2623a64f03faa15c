package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

func (s SubmissionStatus) String() string {
	return string(s)
}

const (
	SubmissionCreated SubmissionStatus = "created" // Accepted by the backend
	SubmissionQueued  SubmissionStatus = "queued"  // Waiting in the retry stream
	SubmissionFailed  SubmissionStatus = "failed"  // Gave up
)

// Submission tracks one POST points attempt chain
type Submission struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	UF        string           `json:"uf"`
	City      string           `json:"city"`
	Items     []CategoryID     `json:"items"`
	Status    SubmissionStatus `json:"status"`
	Attempts  int              `json:"attempts"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewSubmission(p NewPoint) *Submission {
	return &Submission{
		ID:        uuid.New(),
		Name:      p.Name,
		UF:        p.UF,
		City:      p.City,
		Items:     append([]CategoryID(nil), p.Items...),
		UpdatedAt: time.Now().UTC(),
	}
}
