// Package storage opens the repositories of the configured database engine.
package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	"github.com/trezcool/pathways/core/user"
	"github.com/trezcool/pathways/storage/database"
	inmemdb "github.com/trezcool/pathways/storage/database/inmem"
	sqlxrepos "github.com/trezcool/pathways/storage/database/sqlx"
)

// Database engines
const (
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

type Repositories struct {
	DB       *sqlx.DB // nil with the memory engine
	Users    user.Repository
	Students student.Repository
	Career   career.Repositories
}

func Open(conf *core.Config) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		db := inmemdb.Open()
		return &Repositories{
			Users:    inmemdb.NewUserRepository(db),
			Students: inmemdb.NewStudentRepository(db),
			Career:   db.CareerRepositories(),
		}, nil
	case EnginePostgres:
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		return &Repositories{
			DB:       db,
			Users:    sqlxrepos.NewUserRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
			Career:   sqlxrepos.NewCareerRepositories(db),
		}, nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
