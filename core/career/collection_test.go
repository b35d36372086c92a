package career_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	inmemdb "github.com/trezcool/pathways/storage/database/inmem"
	"github.com/trezcool/pathways/tests"
)

func newService(t *testing.T) (*career.Service, *student.Service) {
	t.Helper()
	db := inmemdb.Open()
	validate, _ := testutil.NewValidator()
	students := student.NewService(inmemdb.NewStudentRepository(db), validate)
	return career.NewService(db.CareerRepositories(), students, validate), students
}

func TestCollection(t *testing.T) {
	ctx := context.Background()
	svc, students := newService(t)
	ada := testutil.CreateStudent(t, students, "Ada", "Lovelace", "ada@test.cd")
	grace := testutil.CreateStudent(t, students, "Grace", "Hopper", "grace@test.cd")

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.Workshops.Create(ctx, "5f6ef2a4-5d3e-4b8a-9d6b-3c0f6a0e9b11", career.NewWorkshop{Title: "CV clinic"})
		assert.True(t, core.IsNotFound(err))

		_, err = svc.Workshops.QueryByStudent(ctx, "nope")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("invalid record", func(t *testing.T) {
		_, err := svc.EmployerConnections.Create(ctx, ada.ID, career.NewEmployerConnection{ContactEmail: "nope"})
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		fields := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
		assert.ElementsMatch(t, []string{"employer", "contact_email"}, fields)

		recs, err := svc.EmployerConnections.QueryByStudent(ctx, ada.ID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	conn, err := svc.EmployerConnections.Create(ctx, ada.ID, career.NewEmployerConnection{Employer: "Analytical Engines"})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, conn.StudentID)
	assert.Equal(t, conn.CreatedAt, conn.UpdatedAt)

	t.Run("scoped to the student", func(t *testing.T) {
		_, err := svc.EmployerConnections.Get(ctx, grace.ID, conn.ID)
		assert.Equal(t, career.ErrNotFound, err)

		_, err = svc.EmployerConnections.Update(ctx, grace.ID, conn.ID, career.UpdateEmployerConnection{})
		assert.Equal(t, career.ErrNotFound, err)

		assert.Equal(t, career.ErrNotFound, svc.EmployerConnections.Delete(ctx, grace.ID, conn.ID))

		recs, err := svc.EmployerConnections.QueryByStudent(ctx, grace.ID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("update keeps identity", func(t *testing.T) {
		status := "Engaged"
		got, err := svc.EmployerConnections.Update(ctx, ada.ID, conn.ID, career.UpdateEmployerConnection{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, "engaged", got.Status)
		assert.Equal(t, conn.ID, got.ID)
		assert.Equal(t, conn.CreatedAt, got.CreatedAt)
		assert.False(t, got.UpdatedAt.Before(conn.UpdatedAt))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.EmployerConnections.Delete(ctx, ada.ID, conn.ID))
		_, err := svc.EmployerConnections.Get(ctx, ada.ID, conn.ID)
		assert.Equal(t, career.ErrNotFound, err)
	})

	t.Run("student deletion cascades", func(t *testing.T) {
		_, err := svc.Notes.Create(ctx, grace.ID, career.NewNote{Content: "COBOL"})
		require.NoError(t, err)
		_, err = svc.Documents.Create(ctx, grace.ID, career.NewDocument{Title: "CV", URL: "https://files.test/cv.pdf"})
		require.NoError(t, err)

		n, err := students.Delete(ctx, grace.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = svc.Notes.QueryByStudent(ctx, grace.ID)
		assert.True(t, core.IsNotFound(err))
		_, err = svc.Documents.QueryByStudent(ctx, grace.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestCollection_ranges(t *testing.T) {
	ctx := context.Background()
	svc, students := newService(t)
	ada := testutil.CreateStudent(t, students, "Ada", "Lovelace", "ada@test.cd")
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rating := func(r int) *int { return &r }

	fieldsOf := func(err error) []string {
		if err == nil {
			return nil
		}
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		fields := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
		return fields
	}

	tests := []struct {
		name       string
		create     func() error
		wantFields []string
	}{
		{
			name: "rating unset",
			create: func() error {
				_, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at})
				return err
			},
		},
		{
			name: "rating zero",
			create: func() error {
				_, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Rating: rating(0)})
				return err
			},
			wantFields: []string{"rating"},
		},
		{
			name: "rating above 5",
			create: func() error {
				_, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Rating: rating(6)})
				return err
			},
			wantFields: []string{"rating"},
		},
		{
			name: "rating bounds",
			create: func() error {
				if _, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Rating: rating(1)}); err != nil {
					return err
				}
				_, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Rating: rating(5)})
				return err
			},
		},
		{
			name: "interview kind",
			create: func() error {
				_, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Kind: "panel"})
				return err
			},
			wantFields: []string{"kind"},
		},
		{
			name: "duration default",
			create: func() error {
				_, err := svc.Consultations.Create(ctx, ada.ID, career.NewConsultation{ScheduledAt: at, Topic: "CV"})
				return err
			},
		},
		{
			name: "duration negative",
			create: func() error {
				_, err := svc.Consultations.Create(ctx, ada.ID, career.NewConsultation{ScheduledAt: at, Topic: "CV", DurationMinutes: -5})
				return err
			},
			wantFields: []string{"duration_minutes"},
		},
		{
			name: "duration above 480",
			create: func() error {
				_, err := svc.Consultations.Create(ctx, ada.ID, career.NewConsultation{ScheduledAt: at, Topic: "CV", DurationMinutes: 481})
				return err
			},
			wantFields: []string{"duration_minutes"},
		},
		{
			name: "consultation mode",
			create: func() error {
				_, err := svc.Consultations.Create(ctx, ada.ID, career.NewConsultation{ScheduledAt: at, Topic: "CV", Mode: "pigeon"})
				return err
			},
			wantFields: []string{"mode"},
		},
		{
			name: "contact email",
			create: func() error {
				_, err := svc.EmployerConnections.Create(ctx, ada.ID, career.NewEmployerConnection{Employer: "IBM", ContactEmail: "hr@"})
				return err
			},
			wantFields: []string{"contact_email"},
		},
		{
			name: "workshop without date",
			create: func() error {
				_, err := svc.Workshops.Create(ctx, ada.ID, career.NewWorkshop{Title: "CV clinic"})
				return err
			},
			wantFields: []string{"held_at"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFields, fieldsOf(tt.create()))
		})
	}

	t.Run("rating update", func(t *testing.T) {
		mi, err := svc.MockInterviews.Create(ctx, ada.ID, career.NewMockInterview{HeldAt: at, Rating: rating(3)})
		require.NoError(t, err)

		_, err = svc.MockInterviews.Update(ctx, ada.ID, mi.ID, career.UpdateMockInterview{Rating: rating(0)})
		assert.Equal(t, []string{"rating"}, fieldsOf(err))

		got, err := svc.MockInterviews.Get(ctx, ada.ID, mi.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Rating.Int)
	})
}
