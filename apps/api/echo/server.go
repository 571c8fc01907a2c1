package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Clock      core.Clock
		Location   *time.Location // the timezone class schedules are expressed in
		GroupSvc   *group.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps      ServerDeps
		app       *echo.Echo
		jwtConfig middleware.JWTConfig
		errors    chan error
		shutdown  chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	s := &Server{
		deps:      deps,
		app:       echo.New(),
		jwtConfig: newJWTConfig(deps.Conf.SecretKey),
		errors:    make(chan error, 1),
		shutdown:  make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConfig)

	registerScheduleAPI(v1, s.deps)
	registerGroupAPI(v1, jwt, s.deps)
}

// Start listens on the configured address. Listen errors are sent on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// signalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

// now is the reference instant of a request, on the wall clock of the schedules.
func (s ServerDeps) now() time.Time {
	return s.Clock.Now().In(s.Location)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
