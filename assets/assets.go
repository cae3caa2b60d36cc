// Package assets provides access to embedded files: SQL migrations and message catalogs.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql locales/*.toml
var embedFS embed.FS

// Migrations returns the schema migrations, one numbered .sql file each.
func Migrations() fs.FS {
	return sub("migrations")
}

// Locales returns the bot message catalogs, one active.<lang>.toml file each.
func Locales() fs.FS {
	return sub("locales")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(embedFS, dir)
	if err != nil {
		// dir is one of the embed patterns above
		panic(err)
	}
	return f
}
