// Package career holds the records advisors keep about a student's career journey:
// notes, consultations, applications, workshops, mock interviews, documents and employer connections.
//
// Every record kind is owned by one student and managed through a Collection.
package career

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/student"
)

var ErrNotFound = core.NewNotFoundError("record not found")

// Meta is embedded in every career record.
type Meta struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (m Meta) Metadata() Meta { return m }

type (
	Record interface {
		Metadata() Meta
	}

	// Builder builds a new record from client data.
	Builder[R Record] interface {
		Build(meta Meta) R
	}

	// Patcher applies client data to an existing record.
	Patcher[R Record] interface {
		Apply(orig R, updatedAt time.Time) R
	}

	Repository[R Record] interface {
		Create(ctx context.Context, rec R) (R, error)
		Get(ctx context.Context, id string) (R, error)
		// QueryByStudent returns the student's records, newest first.
		QueryByStudent(ctx context.Context, studentID string) ([]R, error)
		Update(ctx context.Context, rec R) (R, error)
		Delete(ctx context.Context, ids ...string) (int, error)
	}

	// StudentFinder is the part of the student service a Collection needs.
	StudentFinder interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
	}
)

// Collection manages one kind of record for every student.
// All operations are scoped to a student: records of another student are not found.
type Collection[R Record] struct {
	repo     Repository[R]
	students StudentFinder
	validate *validator.Validate
}

func NewCollection[R Record](repo Repository[R], students StudentFinder, validate *validator.Validate) *Collection[R] {
	return &Collection[R]{
		repo:     repo,
		students: students,
		validate: validate,
	}
}

func (c *Collection[R]) checkStudent(ctx context.Context, studentID string) error {
	if _, err := c.students.GetByID(ctx, studentID); err != nil {
		return errors.Wrap(err, "finding student")
	}
	return nil
}

func (c *Collection[R]) Create(ctx context.Context, studentID string, b Builder[R]) (R, error) {
	var zero R
	if err := c.checkStudent(ctx, studentID); err != nil {
		return zero, err
	}

	now := time.Now().UTC()
	rec := b.Build(Meta{
		ID:        uuid.New().String(),
		StudentID: studentID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := c.validate.Struct(rec); err != nil {
		return zero, err
	}
	return c.repo.Create(ctx, rec)
}

func (c *Collection[R]) Get(ctx context.Context, studentID, id string) (R, error) {
	var zero R
	if _, err := uuid.Parse(id); err != nil {
		return zero, ErrNotFound
	}
	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if rec.Metadata().StudentID != studentID {
		return zero, ErrNotFound
	}
	return rec, nil
}

func (c *Collection[R]) QueryByStudent(ctx context.Context, studentID string) ([]R, error) {
	if err := c.checkStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return c.repo.QueryByStudent(ctx, studentID)
}

func (c *Collection[R]) Update(ctx context.Context, studentID, id string, p Patcher[R]) (R, error) {
	var zero R
	orig, err := c.Get(ctx, studentID, id)
	if err != nil {
		return zero, err
	}
	rec := p.Apply(orig, time.Now().UTC())
	if err = c.validate.Struct(rec); err != nil {
		return zero, err
	}
	return c.repo.Update(ctx, rec)
}

func (c *Collection[R]) Delete(ctx context.Context, studentID, id string) error {
	if _, err := c.Get(ctx, studentID, id); err != nil {
		return err
	}
	if _, err := c.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return nil
}
