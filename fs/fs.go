// Package appfs embeds the files the binaries need at runtime: database migrations and email templates.
package appfs

import "embed"

const (
	MigrationsDir       = "migrations"
	EmailTemplatesDir   = "assets/templates/email"
	CommonPasswordsFile = "assets/common-passwords.txt"
)

// all: keeps the "_" prefixed template bases.
//go:embed migrations all:assets
var FS embed.FS
