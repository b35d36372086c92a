package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pathways/core"
)

// Statuses
const (
	StatusProspective = "prospective"
	StatusActive      = "active"
	StatusAlumni      = "alumni"
	StatusInactive    = "inactive"
)

var (
	Statuses = []string{StatusProspective, StatusActive, StatusAlumni, StatusInactive}

	// OrderingFields are the fields students can be ordered by.
	OrderingFields = []string{
		"first_name", "last_name", "email", "program", "graduation_year", "status", "created_at", "updated_at",
	}
)

type Student struct {
	ID              string      `json:"id"`
	FirstName       string      `json:"first_name" validate:"required,max=100"`
	LastName        string      `json:"last_name" validate:"required,max=100"`
	Email           string      `json:"email" validate:"required,email"`
	Phone           string      `json:"phone" validate:"omitempty,phone"`
	StudentNumber   string      `json:"student_number" validate:"max=50"`
	Program         string      `json:"program" validate:"max=200"`
	GraduationYear  null.Int    `json:"graduation_year" validate:"omitempty,min=1900,max=2100"`
	Status          string      `json:"status" validate:"required,oneof=prospective active alumni inactive"`
	CareerInterests []string    `json:"career_interests" validate:"max=20,dive,max=100"`
	AdvisorID       null.String `json:"advisor_id" validate:"omitempty,uuid"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	StudentNumber   string   `json:"student_number"`
	Program         string   `json:"program"`
	GraduationYear  *int     `json:"graduation_year"`
	Status          string   `json:"status"`
	CareerInterests []string `json:"career_interests"`
	AdvisorID       string   `json:"advisor_id"`
}

func (ns NewStudent) build(id string, now time.Time) Student {
	s := Student{
		ID:              id,
		FirstName:       core.CleanString(ns.FirstName),
		LastName:        core.CleanString(ns.LastName),
		Email:           core.CleanString(ns.Email, true /* lower */),
		Phone:           core.CleanString(ns.Phone),
		StudentNumber:   core.CleanString(ns.StudentNumber),
		Program:         core.CleanString(ns.Program),
		GraduationYear:  null.IntFromPtr(ns.GraduationYear),
		Status:          core.CleanString(ns.Status, true /* lower */),
		CareerInterests: core.CleanStrings(ns.CareerInterests),
		AdvisorID:       nullString(core.CleanString(ns.AdvisorID, true /* lower */)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.CareerInterests == nil {
		s.CareerInterests = []string{}
	}
	return s
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// nil fields are left unchanged; an empty AdvisorID unassigns the advisor and a GraduationYear of 0 clears it.
type UpdateStudent struct {
	FirstName       *string   `json:"first_name"`
	LastName        *string   `json:"last_name"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	StudentNumber   *string   `json:"student_number"`
	Program         *string   `json:"program"`
	GraduationYear  *int      `json:"graduation_year"`
	Status          *string   `json:"status"`
	CareerInterests *[]string `json:"career_interests"`
	AdvisorID       *string   `json:"advisor_id"`
}

func (us UpdateStudent) apply(s Student, now time.Time) Student {
	if us.FirstName != nil {
		s.FirstName = core.CleanString(*us.FirstName)
	}
	if us.LastName != nil {
		s.LastName = core.CleanString(*us.LastName)
	}
	if us.Email != nil {
		s.Email = core.CleanString(*us.Email, true /* lower */)
	}
	if us.Phone != nil {
		s.Phone = core.CleanString(*us.Phone)
	}
	if us.StudentNumber != nil {
		s.StudentNumber = core.CleanString(*us.StudentNumber)
	}
	if us.Program != nil {
		s.Program = core.CleanString(*us.Program)
	}
	if us.GraduationYear != nil {
		if *us.GraduationYear == 0 {
			s.GraduationYear = null.Int{}
		} else {
			s.GraduationYear = null.IntFrom(*us.GraduationYear)
		}
	}
	if us.Status != nil {
		s.Status = core.CleanString(*us.Status, true /* lower */)
	}
	if us.CareerInterests != nil {
		s.CareerInterests = core.CleanStrings(*us.CareerInterests)
		if s.CareerInterests == nil {
			s.CareerInterests = []string{}
		}
	}
	if us.AdvisorID != nil {
		s.AdvisorID = nullString(core.CleanString(*us.AdvisorID, true /* lower */))
	}
	s.UpdatedAt = now
	return s
}

type QueryFilter struct {
	Search         string   `query:"search"` // case-insensitive match on name, email or student number
	Statuses       []string `query:"status"`
	Program        string   `query:"program"`
	GraduationYear int      `query:"graduation_year"`
	AdvisorID      string   `query:"advisor_id"`
	Limit          int      `query:"limit"`
	Offset         int      `query:"offset"`
}

const maxQueryLimit = 500

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Statuses = core.CleanStrings(qf.Statuses, true /* lower */)
	qf.Program = core.CleanString(qf.Program)
	qf.AdvisorID = core.CleanString(qf.AdvisorID, true /* lower */)
	if qf.Limit <= 0 || qf.Limit > maxQueryLimit {
		qf.Limit = maxQueryLimit
	}
	if qf.Offset < 0 {
		qf.Offset = 0
	}
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
