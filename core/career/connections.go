package career

import (
	"time"

	"github.com/trezcool/pathways/core"
)

// Employer connection statuses
const (
	ConnectionContacted = "contacted"
	ConnectionEngaged   = "engaged"
	ConnectionReferred  = "referred"
	ConnectionHired     = "hired"
	ConnectionClosed    = "closed"
)

// EmployerConnection links a student to an employer contact made on their behalf.
type EmployerConnection struct {
	Meta
	Employer     string `json:"employer" db:"employer" validate:"required,max=200"`
	ContactName  string `json:"contact_name" db:"contact_name" validate:"max=200"`
	ContactEmail string `json:"contact_email" db:"contact_email" validate:"omitempty,email"`
	Status       string `json:"status" db:"status" validate:"required,oneof=contacted engaged referred hired closed"`
	Notes        string `json:"notes" db:"notes" validate:"max=10000"`
}

type NewEmployerConnection struct {
	Employer     string `json:"employer"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
}

func (nc NewEmployerConnection) Build(meta Meta) EmployerConnection {
	return EmployerConnection{
		Meta:         meta,
		Employer:     core.CleanString(nc.Employer),
		ContactName:  core.CleanString(nc.ContactName),
		ContactEmail: core.CleanString(nc.ContactEmail, true /* lower */),
		Status:       orDefault(core.CleanString(nc.Status, true /* lower */), ConnectionContacted),
		Notes:        core.CleanString(nc.Notes),
	}
}

type UpdateEmployerConnection struct {
	Employer     *string `json:"employer"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	Status       *string `json:"status"`
	Notes        *string `json:"notes"`
}

func (uc UpdateEmployerConnection) Apply(ec EmployerConnection, updatedAt time.Time) EmployerConnection {
	patchString(&ec.Employer, uc.Employer)
	patchString(&ec.ContactName, uc.ContactName)
	patchString(&ec.ContactEmail, uc.ContactEmail, true /* lower */)
	patchString(&ec.Status, uc.Status, true /* lower */)
	patchString(&ec.Notes, uc.Notes)
	ec.UpdatedAt = updatedAt
	return ec
}
