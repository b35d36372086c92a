package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/user"
	"github.com/trezcool/pathways/services/apiclient"
	"github.com/trezcool/pathways/storage"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	db     *sql.DB // nil with the memory engine
	usrSvc *user.Service
	out    io.Writer
}

func newCommandLine(conf *core.Config, logger core.Logger, repos *storage.Repositories, usrSvc *user.Service) *commandLine {
	cli := &commandLine{
		conf:   conf,
		logger: logger,
		usrSvc: usrSvc,
		out:    os.Stdout,
	}
	if repos.DB != nil {
		cli.db = repos.DB.DB
	}
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-admin | -role ROLE] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix")
	fmt.Println("  overview -username USERNAME -student ID - print a student's career records, fetched from the API")
}

// promptPassword reads a password from the terminal; fs.Usage is printed if none is given.
func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name; defaults to the username.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Make the user an admin.")
	addUserRole := addUserCmd.String("role", "", "The user's role: viewer:, advisor:, admin: or admin:owner.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	overviewCmd := flag.NewFlagSet("overview", flag.ContinueOnError)
	overviewUname := overviewCmd.String("username", "", "The staff username or email to log in with. The password will be prompted next.")
	overviewStudent := overviewCmd.String("student", "", "The student's ID.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" || (*addUserAdmin && *addUserRole != "") {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		var roles []string
		switch {
		case *addUserAdmin:
			roles = []string{user.RoleAdmin}
		case *addUserRole != "":
			roles = []string{*addUserRole}
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, roles)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "overview":
		if err := overviewCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *overviewUname == "" || *overviewStudent == "" {
			overviewCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(overviewCmd)
		if err != nil {
			return err
		}
		return cli.overview(*overviewUname, pwd, *overviewStudent, apiclient.OptionsFromConfig(cli.conf, cli.logger))

	default:
		cli.printUsage()
		return errHelp
	}
}
