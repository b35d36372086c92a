package career

import (
	"time"

	"github.com/trezcool/pathways/core"
)

// Workshop records a student's registration to (and attendance of) a career workshop.
type Workshop struct {
	Meta
	Title    string    `json:"title" db:"title" validate:"required,max=200"`
	HeldAt   time.Time `json:"held_at" db:"held_at" validate:"required"`
	Attended bool      `json:"attended" db:"attended"`
	Feedback string    `json:"feedback" db:"feedback" validate:"max=10000"`
}

type NewWorkshop struct {
	Title    string    `json:"title"`
	HeldAt   time.Time `json:"held_at"`
	Attended bool      `json:"attended"`
	Feedback string    `json:"feedback"`
}

func (nw NewWorkshop) Build(meta Meta) Workshop {
	return Workshop{
		Meta:     meta,
		Title:    core.CleanString(nw.Title),
		HeldAt:   nw.HeldAt.UTC(),
		Attended: nw.Attended,
		Feedback: core.CleanString(nw.Feedback),
	}
}

type UpdateWorkshop struct {
	Title    *string    `json:"title"`
	HeldAt   *time.Time `json:"held_at"`
	Attended *bool      `json:"attended"`
	Feedback *string    `json:"feedback"`
}

func (uw UpdateWorkshop) Apply(w Workshop, updatedAt time.Time) Workshop {
	patchString(&w.Title, uw.Title)
	patchTime(&w.HeldAt, uw.HeldAt)
	if uw.Attended != nil {
		w.Attended = *uw.Attended
	}
	patchString(&w.Feedback, uw.Feedback)
	w.UpdatedAt = updatedAt
	return w
}
