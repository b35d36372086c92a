package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/student"
)

const studentColumns = `id, first_name, last_name, email, phone, student_number, program, graduation_year,
	status, career_interests, advisor_id, created_at, updated_at`

type studentRow struct {
	ID              string         `db:"id"`
	FirstName       string         `db:"first_name"`
	LastName        string         `db:"last_name"`
	Email           string         `db:"email"`
	Phone           string         `db:"phone"`
	StudentNumber   string         `db:"student_number"`
	Program         string         `db:"program"`
	GraduationYear  null.Int       `db:"graduation_year"`
	Status          string         `db:"status"`
	CareerInterests pq.StringArray `db:"career_interests"`
	AdvisorID       null.String    `db:"advisor_id"`
	CreatedAt       null.Time      `db:"created_at"`
	UpdatedAt       null.Time      `db:"updated_at"`
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo studentRepository) boil(s student.Student) studentRow {
	interests := pq.StringArray(s.CareerInterests)
	if interests == nil {
		interests = pq.StringArray{}
	}
	return studentRow{
		ID:              s.ID,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Email:           s.Email,
		Phone:           s.Phone,
		StudentNumber:   s.StudentNumber,
		Program:         s.Program,
		GraduationYear:  s.GraduationYear,
		Status:          s.Status,
		CareerInterests: interests,
		AdvisorID:       s.AdvisorID,
		CreatedAt:       null.NewTime(s.CreatedAt.UTC(), !s.CreatedAt.IsZero()),
		UpdatedAt:       null.NewTime(s.UpdatedAt.UTC(), !s.UpdatedAt.IsZero()),
	}
}

func (repo studentRepository) unboil(row studentRow) student.Student {
	interests := []string(row.CareerInterests)
	if interests == nil {
		interests = []string{}
	}
	return student.Student{
		ID:              row.ID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		Phone:           row.Phone,
		StudentNumber:   row.StudentNumber,
		Program:         row.Program,
		GraduationYear:  row.GraduationYear,
		Status:          row.Status,
		CareerInterests: interests,
		AdvisorID:       row.AdvisorID,
		CreatedAt:       row.CreatedAt.Time.UTC(),
		UpdatedAt:       row.UpdatedAt.Time.UTC(),
	}
}

func (repo studentRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := `SELECT EXISTS (SELECT 1 FROM student WHERE email = $1`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		q += ` AND NOT (id = ANY($2))`
		args = append(args, pq.StringArray(excludedIDs))
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q+")", args...); err != nil {
		return errors.Wrap(err, "checking student email uniqueness")
	}
	if exists {
		return student.ErrEmailExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row := repo.boil(s)
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :first_name, :last_name, :email, :phone, :student_number, :program, :graduation_year,
			:status, :career_interests, :advisor_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.unboil(row), nil
}

// likeEscaper escapes the LIKE wildcards of a user supplied keyword.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// studentsQuery returns the SELECT of the students matching filter, sorted by ordering.
func studentsQuery(filter *student.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var limit, offset int
	if filter != nil {
		// students with name, email or student number matching the search keyword
		if filter.Search != "" {
			p := arg("%" + likeEscaper.Replace(filter.Search) + "%")
			conds = append(conds, fmt.Sprintf(
				"(first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR (first_name || ' ' || last_name) ILIKE %[1]s"+
					" OR email ILIKE %[1]s OR student_number ILIKE %[1]s)", p))
		}
		if len(filter.Statuses) > 0 {
			conds = append(conds, "status = ANY("+arg(pq.StringArray(filter.Statuses))+")")
		}
		if filter.Program != "" {
			conds = append(conds, "lower(program) = lower("+arg(filter.Program)+")")
		}
		if filter.GraduationYear != 0 {
			conds = append(conds, "graduation_year = "+arg(filter.GraduationYear))
		}
		if filter.AdvisorID != "" {
			conds = append(conds, "advisor_id::text = "+arg(filter.AdvisorID))
		}
		limit, offset = filter.Limit, filter.Offset
	}

	q := `SELECT ` + studentColumns + ` FROM student`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering)+1)
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(append(orderList, "id"), ", ")
	} else {
		q += " ORDER BY created_at DESC, id"
	}
	if limit > 0 {
		q += " LIMIT " + arg(limit)
	}
	if offset > 0 {
		q += " OFFSET " + arg(offset)
	}
	return q, args
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q, args := studentsQuery(filter, ordering)

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.unboil(row))
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return repo.unboil(row), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row := repo.boil(s)
	q := `UPDATE student SET
		first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
		student_number = :student_number, program = :program, graduation_year = :graduation_year,
		status = :status, career_interests = :career_interests, advisor_id = :advisor_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.unboil(row), nil
}

// DeleteStudentsByID relies on ON DELETE CASCADE to remove the students' career records.
func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	return int(n), nil
}
