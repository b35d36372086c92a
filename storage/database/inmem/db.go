// Package inmemdb implements every repository in memory. It backs the test suites and the "memory" DB engine.
package inmemdb

import (
	"sync"

	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	"github.com/trezcool/pathways/core/user"
)

type (
	DB struct {
		user    *userTable
		student *studentTable

		notes               *recordTable[career.Note]
		consultations       *recordTable[career.Consultation]
		applications        *recordTable[career.Application]
		workshops           *recordTable[career.Workshop]
		mockInterviews      *recordTable[career.MockInterview]
		documents           *recordTable[career.Document]
		employerConnections *recordTable[career.EmployerConnection]
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	// cascader is implemented by the tables of records owned by a student.
	cascader interface {
		deleteByStudent(studentIDs map[string]bool)
	}
)

func Open() *DB {
	return &DB{
		user:                &userTable{table: make(map[string]*user.User)},
		student:             &studentTable{table: make(map[string]*student.Student)},
		notes:               newRecordTable[career.Note](),
		consultations:       newRecordTable[career.Consultation](),
		applications:        newRecordTable[career.Application](),
		workshops:           newRecordTable[career.Workshop](),
		mockInterviews:      newRecordTable[career.MockInterview](),
		documents:           newRecordTable[career.Document](),
		employerConnections: newRecordTable[career.EmployerConnection](),
	}
}

func (db *DB) recordTables() []cascader {
	return []cascader{
		db.notes, db.consultations, db.applications, db.workshops,
		db.mockInterviews, db.documents, db.employerConnections,
	}
}

// CareerRepositories returns the repositories of every career record kind.
func (db *DB) CareerRepositories() career.Repositories {
	return career.Repositories{
		Notes:               &recordRepository[career.Note]{db: db.notes},
		Consultations:       &recordRepository[career.Consultation]{db: db.consultations},
		Applications:        &recordRepository[career.Application]{db: db.applications},
		Workshops:           &recordRepository[career.Workshop]{db: db.workshops},
		MockInterviews:      &recordRepository[career.MockInterview]{db: db.mockInterviews},
		Documents:           &recordRepository[career.Document]{db: db.documents},
		EmployerConnections: &recordRepository[career.EmployerConnection]{db: db.employerConnections},
	}
}
