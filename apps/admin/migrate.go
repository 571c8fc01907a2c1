package main

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/storage/database"
)

var gooseRunFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	return gooseRunFunc(db, args[0], args[1:]...)
}
