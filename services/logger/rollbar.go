package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/tutoria/core"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a std logger.
// Map args are merged into the entry's fields, sent to Rollbar as extras and
// printed as sorted key=value pairs.
type RollbarLogger struct {
	std    *log.Logger
	fields map[string]interface{} // attached to every entry
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// With returns a logger attaching fields to every entry, e.g. {"component": "reminders"}.
func (l RollbarLogger) With(fields map[string]interface{}) *RollbarLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &RollbarLogger{std: l.std, fields: merged}
}

type entry struct {
	args   []interface{} // errors and anything else, in order
	fields map[string]interface{}
	person *core.Person
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) collect(args []interface{}) entry {
	e := entry{fields: make(map[string]interface{}, len(l.fields))}
	for k, v := range l.fields {
		e.fields[k] = v
	}
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Person:
			if e.person == nil && a.ID != "" { // only set one Person
				p := a
				e.person = &p
			}
		case map[string]interface{}:
			for k, v := range a {
				e.fields[k] = v
			}
		default:
			e.args = append(e.args, arg)
		}
	}
	return e
}

func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	e := l.collect(args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}

	prepared := make([]interface{}, 0, len(e.args)+2)
	prepared = append(prepared, msg)
	prepared = append(prepared, e.args...)
	if len(e.fields) > 0 {
		prepared = append(prepared, e.fields)
	}
	return prepared
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	e := l.collect(args)

	line := new(strings.Builder)
	_, _ = fmt.Fprintf(line, "%s: %s", level, msg)
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(line, " %s=%v", k, e.fields[k])
	}
	if e.person != nil {
		_, _ = fmt.Fprintf(line, " person=%s", e.person.ID)
	}
	l.std.Println(line.String())

	for _, arg := range e.args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
