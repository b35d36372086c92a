package career

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pathways/core"
)

// Application statuses
const (
	ApplicationDraft        = "draft"
	ApplicationApplied      = "applied"
	ApplicationInterviewing = "interviewing"
	ApplicationOffer        = "offer"
	ApplicationAccepted     = "accepted"
	ApplicationRejected     = "rejected"
	ApplicationWithdrawn    = "withdrawn"
)

type Application struct {
	Meta
	Company   string    `json:"company" db:"company" validate:"required,max=200"`
	Position  string    `json:"position" db:"position" validate:"required,max=200"`
	Status    string    `json:"status" db:"status" validate:"required,oneof=draft applied interviewing offer accepted rejected withdrawn"`
	AppliedAt null.Time `json:"applied_at" db:"applied_at"`
	URL       string    `json:"url" db:"url" validate:"omitempty,url"`
	Notes     string    `json:"notes" db:"notes" validate:"max=10000"`
}

// stampApplied sets AppliedAt once the application leaves the draft status.
func (a *Application) stampApplied(at time.Time) {
	if a.Status != ApplicationDraft && !a.AppliedAt.Valid {
		a.AppliedAt = null.TimeFrom(at)
	}
}

type NewApplication struct {
	Company   string     `json:"company"`
	Position  string     `json:"position"`
	Status    string     `json:"status"`
	AppliedAt *time.Time `json:"applied_at"`
	URL       string     `json:"url"`
	Notes     string     `json:"notes"`
}

func (na NewApplication) Build(meta Meta) Application {
	a := Application{
		Meta:      meta,
		Company:   core.CleanString(na.Company),
		Position:  core.CleanString(na.Position),
		Status:    orDefault(core.CleanString(na.Status, true /* lower */), ApplicationDraft),
		AppliedAt: nullTimeFromPtr(na.AppliedAt),
		URL:       core.CleanString(na.URL),
		Notes:     core.CleanString(na.Notes),
	}
	a.stampApplied(meta.CreatedAt)
	return a
}

type UpdateApplication struct {
	Company   *string    `json:"company"`
	Position  *string    `json:"position"`
	Status    *string    `json:"status"`
	AppliedAt *time.Time `json:"applied_at"`
	URL       *string    `json:"url"`
	Notes     *string    `json:"notes"`
}

func (ua UpdateApplication) Apply(a Application, updatedAt time.Time) Application {
	patchString(&a.Company, ua.Company)
	patchString(&a.Position, ua.Position)
	patchString(&a.Status, ua.Status, true /* lower */)
	if ua.AppliedAt != nil {
		a.AppliedAt = nullTimeFromPtr(ua.AppliedAt)
	}
	patchString(&a.URL, ua.URL)
	patchString(&a.Notes, ua.Notes)
	a.stampApplied(updatedAt)
	a.UpdatedAt = updatedAt
	return a
}
