package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutoria/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	logger := NewRollbarLogger(log.New(buf, "", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	person := core.Person{ID: "42", Username: "ada"}
	logger.Error("querying groups", errors.New("boom"), person)
	logger.Info("started")

	assert.Equal(t, "ERROR: querying groups person=42\nboom\nINFO: started\n", buf.String())
}

func TestRollbarLogger_fields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(map[string]interface{}{"component": "reminders"})

	logger.Warn("reminders sent", map[string]interface{}{"sent": 2, "component": "cron"}, errors.New("1 skipped"))
	logger.With(map[string]interface{}{"group": "MAT-101"}).Info("reminded")

	assert.Equal(t,
		"WARN: reminders sent component=cron sent=2\n1 skipped\nINFO: reminded component=reminders group=MAT-101\n",
		buf.String())
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := newTestLogger(new(bytes.Buffer)).With(map[string]interface{}{"component": "api"})
	err := errors.New("boom")

	got := logger.prepare("msg", []interface{}{err, core.Person{ID: "1"}, core.Person{ID: "2"}, map[string]interface{}{"path": "/v1/groups"}})
	assert.Equal(t, []interface{}{"msg", err, map[string]interface{}{"component": "api", "path": "/v1/groups"}}, got)

	// With does not leak into its parent
	assert.Equal(t, []interface{}{"msg"}, newTestLogger(new(bytes.Buffer)).prepare("msg", nil))
}
