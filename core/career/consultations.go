package career

import (
	"time"

	"github.com/trezcool/pathways/core"
)

// Consultation modes
const (
	ModeInPerson = "in_person"
	ModeVirtual  = "virtual"
	ModePhone    = "phone"
)

// Consultation statuses
const (
	ConsultationScheduled = "scheduled"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
	ConsultationNoShow    = "no_show"
)

const defaultConsultationMinutes = 30

type Consultation struct {
	Meta
	AdvisorID       string    `json:"advisor_id" db:"advisor_id"`
	ScheduledAt     time.Time `json:"scheduled_at" db:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes" validate:"min=1,max=480"`
	Mode            string    `json:"mode" db:"mode" validate:"required,oneof=in_person virtual phone"`
	Status          string    `json:"status" db:"status" validate:"required,oneof=scheduled completed cancelled no_show"`
	Topic           string    `json:"topic" db:"topic" validate:"required,max=200"`
	Summary         string    `json:"summary" db:"summary" validate:"max=10000"`
}

// Ends returns the time the consultation is scheduled to end.
func (c Consultation) Ends() time.Time {
	return c.ScheduledAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

type NewConsultation struct {
	AdvisorID       string    `json:"advisor_id"` // defaults to the authenticated user
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Mode            string    `json:"mode"`
	Status          string    `json:"status"`
	Topic           string    `json:"topic"`
	Summary         string    `json:"summary"`
}

func (nc NewConsultation) Build(meta Meta) Consultation {
	c := Consultation{
		Meta:            meta,
		AdvisorID:       core.CleanString(nc.AdvisorID, true /* lower */),
		ScheduledAt:     nc.ScheduledAt.UTC(),
		DurationMinutes: nc.DurationMinutes,
		Mode:            orDefault(core.CleanString(nc.Mode, true /* lower */), ModeInPerson),
		Status:          orDefault(core.CleanString(nc.Status, true /* lower */), ConsultationScheduled),
		Topic:           core.CleanString(nc.Topic),
		Summary:         core.CleanString(nc.Summary),
	}
	if c.DurationMinutes == 0 {
		c.DurationMinutes = defaultConsultationMinutes
	}
	return c
}

type UpdateConsultation struct {
	AdvisorID       *string    `json:"advisor_id"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	Mode            *string    `json:"mode"`
	Status          *string    `json:"status"`
	Topic           *string    `json:"topic"`
	Summary         *string    `json:"summary"`
}

func (uc UpdateConsultation) Apply(c Consultation, updatedAt time.Time) Consultation {
	patchString(&c.AdvisorID, uc.AdvisorID, true /* lower */)
	patchTime(&c.ScheduledAt, uc.ScheduledAt)
	if uc.DurationMinutes != nil {
		c.DurationMinutes = *uc.DurationMinutes
	}
	patchString(&c.Mode, uc.Mode, true /* lower */)
	patchString(&c.Status, uc.Status, true /* lower */)
	patchString(&c.Topic, uc.Topic)
	patchString(&c.Summary, uc.Summary)
	c.UpdatedAt = updatedAt
	return c
}
