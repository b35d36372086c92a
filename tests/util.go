// Package testutil sets up the app with in-memory storage for the tests of every layer.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/pathways/apps/api/echo"
	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	"github.com/trezcool/pathways/core/user"
	appfs "github.com/trezcool/pathways/fs"
	emailsvc "github.com/trezcool/pathways/services/email"
	logsvc "github.com/trezcool/pathways/services/logger"
	inmemdb "github.com/trezcool/pathways/storage/database/inmem"
)

// App is the whole backend wired on an in-memory DB.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB
	Mail       *emailsvc.ConsoleServiceMock

	UserRepo    user.Repository
	StudentRepo student.Repository

	UserSvc    *user.Service
	StudentSvc *student.Service
	CareerSvc  *career.Service
	Server     *echoapi.Server
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewApp(t *testing.T) *App {
	t.Helper()

	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	validate, translator := NewValidator()
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger, true /* strict */)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswordsFile, logger)

	db := inmemdb.Open()
	mail := emailsvc.NewConsoleServiceMock(conf)
	app := &App{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		DB:          db,
		Mail:        mail,
		UserRepo:    inmemdb.NewUserRepository(db),
		StudentRepo: inmemdb.NewStudentRepository(db),
	}
	app.UserSvc = user.NewService(app.UserRepo, mail, validate, conf)
	app.StudentSvc = student.NewService(app.StudentRepo, validate)
	app.CareerSvc = career.NewService(db.CareerRepositories(), app.StudentSvc, validate)
	app.Server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        app.UserSvc,
		StudentSvc:     app.StudentSvc,
		CareerSvc:      app.CareerSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return app
}

// Token returns a valid JWT for usr.
func (app *App) Token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.Server.Auth().GenerateToken(app.Server.Auth().UserClaims(usr))
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student through svc.
func CreateStudent(t *testing.T, svc student.ServiceInterface, first, last, email string, mods ...func(ns *student.NewStudent)) student.Student {
	t.Helper()
	ns := student.NewStudent{FirstName: first, LastName: last, Email: email}
	for _, mod := range mods {
		mod(&ns)
	}
	s, err := svc.Create(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}
