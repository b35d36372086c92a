package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/trezcool/pathways/core/career"
)

type recordTable[R career.Record] struct {
	sync.RWMutex
	table map[string]R
}

func newRecordTable[R career.Record]() *recordTable[R] {
	return &recordTable[R]{table: make(map[string]R)}
}

func (t *recordTable[R]) deleteByStudent(studentIDs map[string]bool) {
	t.Lock()
	defer t.Unlock()
	for id, rec := range t.table {
		if studentIDs[rec.Metadata().StudentID] {
			delete(t.table, id)
		}
	}
}

type recordRepository[R career.Record] struct {
	db *recordTable[R]
}

func (repo *recordRepository[R]) Create(_ context.Context, rec R) (R, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[rec.Metadata().ID] = rec
	return rec, nil
}

func (repo *recordRepository[R]) Get(_ context.Context, id string) (R, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if rec, ok := repo.db.table[id]; ok {
		return rec, nil
	}
	var zero R
	return zero, career.ErrNotFound
}

func (repo *recordRepository[R]) QueryByStudent(_ context.Context, studentID string) ([]R, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]R, 0)
	for _, rec := range repo.db.table {
		if rec.Metadata().StudentID == studentID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		mi, mj := recs[i].Metadata(), recs[j].Metadata()
		if mi.CreatedAt.Equal(mj.CreatedAt) {
			return mi.ID > mj.ID
		}
		return mi.CreatedAt.After(mj.CreatedAt)
	})
	return recs, nil
}

func (repo *recordRepository[R]) Update(_ context.Context, rec R) (R, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	id := rec.Metadata().ID
	if _, ok := repo.db.table[id]; !ok {
		var zero R
		return zero, career.ErrNotFound
	}
	repo.db.table[id] = rec
	return rec, nil
}

func (repo *recordRepository[R]) Delete(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
