package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/user"
	appfs "github.com/trezcool/pathways/fs"
	emailsvc "github.com/trezcool/pathways/services/email"
	logsvc "github.com/trezcool/pathways/services/logger"
	"github.com/trezcool/pathways/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := storage.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswordsFile, logger)

	// start CLI
	cli := newCommandLine(conf, logger, repos, user.NewService(
		repos.Users,
		emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags)),
		validate,
		conf,
	))
	err = cli.run(os.Args)
	if cErr := repos.Close(); cErr != nil {
		logger.Error("closing storage", cErr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
