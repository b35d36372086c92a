package career

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pathways/core"
)

// Mock interview kinds
const (
	InterviewBehavioral = "behavioral"
	InterviewTechnical  = "technical"
	InterviewCase       = "case"
)

type MockInterview struct {
	Meta
	InterviewerID string    `json:"interviewer_id" db:"interviewer_id"`
	HeldAt        time.Time `json:"held_at" db:"held_at" validate:"required"`
	Kind          string    `json:"kind" db:"kind" validate:"required,oneof=behavioral technical case"`
	Rating        null.Int  `json:"rating" db:"rating" validate:"omitempty,min=1,max=5"`
	Feedback      string    `json:"feedback" db:"feedback" validate:"max=10000"`
}

type NewMockInterview struct {
	InterviewerID string    `json:"interviewer_id"` // defaults to the authenticated user
	HeldAt        time.Time `json:"held_at"`
	Kind          string    `json:"kind"`
	Rating        *int      `json:"rating"`
	Feedback      string    `json:"feedback"`
}

func (ni NewMockInterview) Build(meta Meta) MockInterview {
	return MockInterview{
		Meta:          meta,
		InterviewerID: core.CleanString(ni.InterviewerID, true /* lower */),
		HeldAt:        ni.HeldAt.UTC(),
		Kind:          orDefault(core.CleanString(ni.Kind, true /* lower */), InterviewBehavioral),
		Rating:        null.IntFromPtr(ni.Rating),
		Feedback:      core.CleanString(ni.Feedback),
	}
}

type UpdateMockInterview struct {
	InterviewerID *string    `json:"interviewer_id"`
	HeldAt        *time.Time `json:"held_at"`
	Kind          *string    `json:"kind"`
	Rating        *int       `json:"rating"`
	Feedback      *string    `json:"feedback"`
}

func (ui UpdateMockInterview) Apply(mi MockInterview, updatedAt time.Time) MockInterview {
	patchString(&mi.InterviewerID, ui.InterviewerID, true /* lower */)
	patchTime(&mi.HeldAt, ui.HeldAt)
	patchString(&mi.Kind, ui.Kind, true /* lower */)
	if ui.Rating != nil {
		mi.Rating = null.IntFrom(*ui.Rating)
	}
	patchString(&mi.Feedback, ui.Feedback)
	mi.UpdatedAt = updatedAt
	return mi
}
