package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/tutoria/apps/api/echo"
	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/schedule"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	clock  core.Clock
	loc    *time.Location
	openDB func() (*sql.DB, error) // only migrations need a database
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                      - run a goose migration command (up, down, status...)")
	_, _ = fmt.Fprintln(cli.out, "  token -subject ID [-admin] [-teacher]          - print a signed API token")
	_, _ = fmt.Fprintln(cli.out, "  nextclass -day DAY -time HH:MM [-at RFC3339]   - print the next session of a weekly class")
	_, _ = fmt.Fprintln(cli.out, "  duration -start HH:MM -end HH:MM               - print the minutes between two times")
	_, _ = fmt.Fprintln(cli.out, "  timetable -horario TEXT [-at RFC3339]          - print the next session of a free-text timetable")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := cli.newFlagSet("token")
	tokenSubject := tokenCmd.String("subject", "", "The ID of the token's holder.")
	tokenUsername := tokenCmd.String("username", "", "The holder's username.")
	tokenEmail := tokenCmd.String("email", "", "The holder's email.")
	tokenAdmin := tokenCmd.Bool("admin", false, "Grant the admin role.")
	tokenTeacher := tokenCmd.Bool("teacher", false, "Grant the teacher role.")

	nextCmd := cli.newFlagSet("nextclass")
	nextDay := nextCmd.String("day", "", "The day of week of the class (english or spanish).")
	nextTime := nextCmd.String("time", "", "The start time of the class, HH:MM.")
	nextAt := nextCmd.String("at", "", "The reference instant, RFC3339 (default now).")

	durationCmd := cli.newFlagSet("duration")
	durationStart := durationCmd.String("start", "", "The start time, HH:MM.")
	durationEnd := durationCmd.String("end", "", "The end time, HH:MM.")

	timetableCmd := cli.newFlagSet("timetable")
	timetableText := timetableCmd.String("horario", "", "The timetable, e.g. \"Lun y Mie 19:00\".")
	timetableAt := timetableCmd.String("at", "", "The reference instant, RFC3339 (default now).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		var roles []string
		if *tokenAdmin {
			roles = append(roles, core.RoleAdmin)
		}
		if *tokenTeacher {
			roles = append(roles, core.RoleTeacher)
		}
		return cli.token(*tokenSubject, *tokenUsername, *tokenEmail, roles)
	case "nextclass":
		if err := nextCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *nextDay == "" || *nextTime == "" {
			nextCmd.Usage()
			return errHelp
		}
		return cli.nextClass(*nextDay, *nextTime, *nextAt)
	case "duration":
		if err := durationCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *durationStart == "" || *durationEnd == "" {
			durationCmd.Usage()
			return errHelp
		}
		mins, err := schedule.DurationMinutes(*durationStart, *durationEnd)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cli.out, mins)
		return err
	case "timetable":
		if err := timetableCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*timetableText) == "" {
			timetableCmd.Usage()
			return errHelp
		}
		return cli.timetable(*timetableText, *timetableAt)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) token(subject, username, email string, roles []string) error {
	claims := echoapi.NewClaims(cli.conf, subject, username, email, roles, cli.clock.Now())
	token, err := echoapi.GenerateToken(cli.conf.SecretKey, claims)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}

// refTime returns the reference instant: at when given, now on the schedules' wall clock otherwise.
func (cli *commandLine) refTime(at string) (time.Time, error) {
	if at == "" {
		return cli.clock.Now().In(cli.loc), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	return t, errors.Wrap(err, "parsing -at")
}

func (cli *commandLine) nextClass(day, at, ref string) error {
	d, err := schedule.ParseWeekday(day)
	if err != nil {
		return err
	}
	tod, err := schedule.ParseTimeOfDay(at)
	if err != nil {
		return err
	}
	now, err := cli.refTime(ref)
	if err != nil {
		return err
	}
	return cli.printJSON(schedule.NextOccurrence(d, tod, now))
}

func (cli *commandLine) timetable(text, ref string) error {
	tt, err := schedule.ParseTimetable(text)
	if err != nil {
		return err
	}
	now, err := cli.refTime(ref)
	if err != nil {
		return err
	}
	occ, ok := tt.Next(now, nil)
	if !ok {
		return errors.Errorf("%s has no upcoming session", tt)
	}
	return cli.printJSON(occ)
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding output")
}
