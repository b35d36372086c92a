package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core/career"
)

var metaColumns = []string{"id", "student_id", "created_at", "updated_at"}

// recordRepository stores one career record kind in table.
// columns are the kind's own columns; the Meta columns are implied.
type recordRepository[R career.Record] struct {
	db      *sqlx.DB
	table   string
	columns []string
}

func newRecordRepository[R career.Record](db *sqlx.DB, table string, columns ...string) *recordRepository[R] {
	return &recordRepository[R]{db: db, table: table, columns: columns}
}

// NewCareerRepositories returns the repositories of every career record kind.
func NewCareerRepositories(db *sqlx.DB) career.Repositories {
	return career.Repositories{
		Notes: newRecordRepository[career.Note](db, "note",
			"author_id", "content", "category"),
		Consultations: newRecordRepository[career.Consultation](db, "consultation",
			"advisor_id", "scheduled_at", "duration_minutes", "mode", "status", "topic", "summary"),
		Applications: newRecordRepository[career.Application](db, "application",
			"company", "position", "status", "applied_at", "url", "notes"),
		Workshops: newRecordRepository[career.Workshop](db, "workshop",
			"title", "held_at", "attended", "feedback"),
		MockInterviews: newRecordRepository[career.MockInterview](db, "mock_interview",
			"interviewer_id", "held_at", "kind", "rating", "feedback"),
		Documents: newRecordRepository[career.Document](db, "career_document",
			"title", "kind", "url", "version"),
		EmployerConnections: newRecordRepository[career.EmployerConnection](db, "employer_connection",
			"employer", "contact_name", "contact_email", "status", "notes"),
	}
}

func (repo *recordRepository[R]) allColumns() []string {
	return append(append([]string{}, metaColumns...), repo.columns...)
}

func (repo *recordRepository[R]) selectQuery(where string) string {
	return "SELECT " + strings.Join(repo.allColumns(), ", ") + " FROM " + repo.table + " WHERE " + where
}

func (repo *recordRepository[R]) Create(ctx context.Context, rec R) (R, error) {
	cols := repo.allColumns()
	q := "INSERT INTO " + repo.table + " (" + strings.Join(cols, ", ") + ") VALUES (:" + strings.Join(cols, ", :") + ")"
	if _, err := repo.db.NamedExecContext(ctx, q, rec); err != nil {
		var zero R
		return zero, errors.Wrapf(err, "inserting %s", repo.table)
	}
	return rec, nil
}

func (repo *recordRepository[R]) Get(ctx context.Context, id string) (R, error) {
	var rec R
	if err := repo.db.GetContext(ctx, &rec, repo.selectQuery("id = $1"), id); err != nil {
		var zero R
		return zero, trapNoRowsErr(err, career.ErrNotFound, "finding "+repo.table)
	}
	return rec, nil
}

func (repo *recordRepository[R]) QueryByStudent(ctx context.Context, studentID string) ([]R, error) {
	recs := make([]R, 0)
	q := repo.selectQuery("student_id = $1") + " ORDER BY created_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &recs, q, studentID); err != nil {
		return nil, errors.Wrapf(err, "querying %s", repo.table)
	}
	return recs, nil
}

func (repo *recordRepository[R]) Update(ctx context.Context, rec R) (R, error) {
	sets := make([]string, 0, len(repo.columns)+1)
	for _, col := range append([]string{"updated_at"}, repo.columns...) {
		sets = append(sets, col+" = :"+col)
	}
	q := "UPDATE " + repo.table + " SET " + strings.Join(sets, ", ") + " WHERE id = :id"

	var zero R
	res, err := repo.db.NamedExecContext(ctx, q, rec)
	if err != nil {
		return zero, errors.Wrapf(err, "updating %s", repo.table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return zero, career.ErrNotFound
	}
	return rec, nil
}

func (repo *recordRepository[R]) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("DELETE FROM "+repo.table+" WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", repo.table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", repo.table)
	}
	return int(n), nil
}
