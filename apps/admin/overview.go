package main

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/pathways/services/apiclient"
)

// overview logs in to the API and prints the student with all their career records as JSON.
func (cli *commandLine) overview(uname, pwd, studentID string, opts apiclient.Options) error {
	client, err := apiclient.New(opts)
	if err != nil {
		return errors.Wrap(err, "setting up api client")
	}

	ctx := context.Background()
	if err = client.Login(ctx, uname, pwd); err != nil {
		return err
	}
	ov, err := client.StudentOverview(ctx, studentID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(ov)
}
