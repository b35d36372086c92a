package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	tbl := repo.db.student
	tbl.RLock()
	defer tbl.RUnlock()

	for _, s := range tbl.table {
		if s.Email == email && !contains(excludedIDs, s.ID) {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	tbl := repo.db.student
	tbl.Lock()
	defer tbl.Unlock()

	s.CareerInterests = append([]string{}, s.CareerInterests...)
	tbl.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	tbl := repo.db.student
	tbl.RLock()
	defer tbl.RUnlock()

	students := make([]student.Student, 0, len(tbl.table))
	for _, s := range tbl.table {
		if filter == nil || matches(s, filter) {
			students = append(students, *s)
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return students[i].ID < students[j].ID
	})

	if filter != nil {
		if filter.Offset >= len(students) {
			return []student.Student{}, nil
		}
		students = students[filter.Offset:]
		if filter.Limit > 0 && filter.Limit < len(students) {
			students = students[:filter.Limit]
		}
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	tbl := repo.db.student
	tbl.RLock()
	defer tbl.RUnlock()

	if s, ok := tbl.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	tbl := repo.db.student
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	tbl.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) (int, error) {
	tbl := repo.db.student
	tbl.Lock()
	deleted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := tbl.table[id]; ok {
			delete(tbl.table, id)
			deleted[id] = true
		}
	}
	tbl.Unlock()

	for _, rt := range repo.db.recordTables() {
		rt.deleteByStudent(deleted)
	}
	return len(deleted), nil
}

func matches(s *student.Student, f *student.QueryFilter) bool {
	if f.Search != "" {
		kw := strings.ToLower(f.Search)
		found := false
		for _, v := range []string{s.FirstName, s.LastName, s.FullName(), s.Email, s.StudentNumber} {
			if strings.Contains(strings.ToLower(v), kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, s.Status) {
		return false
	}
	if f.Program != "" && !strings.EqualFold(s.Program, f.Program) {
		return false
	}
	if f.GraduationYear != 0 && (!s.GraduationYear.Valid || s.GraduationYear.Int != f.GraduationYear) {
		return false
	}
	if f.AdvisorID != "" && s.AdvisorID.String != f.AdvisorID {
		return false
	}
	return true
}

func compareField(a, b student.Student, field string) int {
	switch field {
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "program":
		return strings.Compare(a.Program, b.Program)
	case "status":
		return strings.Compare(a.Status, b.Status)
	case "graduation_year":
		return a.GraduationYear.Int - b.GraduationYear.Int
	case "updated_at":
		return compareTime(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
	default:
		return compareTime(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	}
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
