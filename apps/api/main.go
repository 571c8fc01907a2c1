package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"
	"time"

	echoapi "github.com/trezcool/tutoria/apps/api/echo"
	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	emailsvc "github.com/trezcool/tutoria/services/email"
	logsvc "github.com/trezcool/tutoria/services/logger"
	remindersvc "github.com/trezcool/tutoria/services/reminder"
	"github.com/trezcool/tutoria/storage/database"
	inmemdb "github.com/trezcool/tutoria/storage/database/inmem"
	sqlxrepos "github.com/trezcool/tutoria/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	loc, err := conf.Location()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading timezone: %v", err), err)
	}

	// set up DB
	groupRepo, closeDB, err := setUpGroupRepository(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	clock := core.SystemClock{}
	groupSvc := group.NewService(groupRepo, clock)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	group.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("timezone").Set(loc.String())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Reminders

	if conf.Reminder.Enabled {
		job := remindersvc.NewJob(groupSvc, mailSvc, clock, loc, logger)
		scheduler, err := remindersvc.NewScheduler(conf.Reminder.Schedule, job, loc, logger.With(map[string]interface{}{"component": "reminders"}))
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up reminders: %v", err), err)
		}
		scheduler.Start()
		defer func() {
			select {
			case <-scheduler.Stop().Done():
			case <-time.After(conf.Server.ShutdownTimeout):
				logger.Warn("reminders still running at shutdown")
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Clock:      clock,
			Location:   loc,
			GroupSvc:   groupSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setUpGroupRepository returns the configured group storage along with what closes it.
func setUpGroupRepository(conf *core.Config) (group.Repository, io.Closer, error) {
	if conf.Database.InMemory {
		return inmemdb.NewGroupRepository(inmemdb.Open()), nopCloser{}, nil
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewGroupRepository(db), db, nil
}
