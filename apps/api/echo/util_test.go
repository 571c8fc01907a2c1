package echoapi_test

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/tutoria/apps/api/echo"
	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/services/logger"
	"github.com/trezcool/tutoria/storage/database/inmem"
)

// ref is Wednesday 2024-03-06 18:00 UTC.
var ref = time.Date(2024, time.March, 6, 18, 0, 0, 0, time.UTC)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func testConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Tutoria",
		SecretKey: "test-secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
}

func setup(t *testing.T) (*Server, group.Repository, *bytes.Buffer) {
	t.Helper()
	repo := inmemdb.NewGroupRepository(inmemdb.Open())
	srv, logs := setupWithRepo(t, repo)
	return srv, repo, logs
}

func setupWithRepo(t *testing.T, repo group.Repository) (*Server, *bytes.Buffer) {
	t.Helper()
	conf := testConfig()

	var logs bytes.Buffer
	logger := logsvc.NewRollbarLogger(log.New(&logs, "", 0), conf)
	logger.Enable(false)

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	group.InitValidators(validate, translator)

	clock := core.FixedClock{T: ref}
	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Clock:      clock,
		Location:   time.UTC,
		GroupSvc:   group.NewService(repo, clock),
		Validate:   validate,
		Translator: translator,
	})
	return srv, &logs
}

// getToken signs a token valid from the actual current time, as checked by the JWT middleware.
func getToken(t *testing.T, roles ...string) string {
	t.Helper()
	conf := testConfig()
	claims := NewClaims(conf, "42", "ada", "ada@test.cd", roles, time.Now())
	token, err := GenerateToken(conf.SecretKey, claims)
	require.NoError(t, err)
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func run(t *testing.T, srv *Server, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	srv.ServeHTTP(rec, req)
	return rec
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
