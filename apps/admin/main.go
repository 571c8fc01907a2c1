package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	loc, err := conf.Location()
	errAndDie(err)

	// start CLI
	cli := commandLine{
		conf:   conf,
		out:    os.Stdout,
		clock:  core.SystemClock{},
		loc:    loc,
		openDB: func() (*sql.DB, error) { return openDB(conf) },
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func openDB(conf *core.Config) (*sql.DB, error) {
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	return db.DB, nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
