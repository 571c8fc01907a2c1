// Package remindersvc emails teachers shortly before their classes start.
package remindersvc

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/core/schedule"
)

// standard 5-field cron (minute hour day month weekday)
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type ImminentLister interface {
	Imminent(ctx context.Context, ref time.Time) ([]group.Group, error)
}

// Job sends one reminder per group and class date.
type Job struct {
	groups  ImminentLister
	mailSvc core.EmailService
	clock   core.Clock
	loc     *time.Location
	logger  core.Logger

	mu   sync.Mutex
	sent map[string]schedule.Date // "<group id>/<date>" -> class date
}

func NewJob(groups ImminentLister, mailSvc core.EmailService, clock core.Clock, loc *time.Location, logger core.Logger) *Job {
	return &Job{
		groups:  groups,
		mailSvc: mailSvc,
		clock:   clock,
		loc:     loc,
		logger:  logger,
		sent:    make(map[string]schedule.Date),
	}
}

// Run reminds the teachers of every imminent group not reminded yet and returns how many were sent.
func (j *Job) Run(ctx context.Context) (int, error) {
	ref := j.clock.Now().In(j.loc)
	today := schedule.DateOf(ref)

	groups, err := j.groups.Imminent(ctx, ref)
	if err != nil {
		return 0, errors.Wrap(err, "listing imminent groups")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// forget past class dates
	for key, d := range j.sent {
		if d.Before(today) {
			delete(j.sent, key)
		}
	}

	messages := make([]*core.EmailMessage, 0, len(groups))
	for _, grp := range groups {
		if grp.TeacherEmail == "" {
			continue
		}
		key := grp.ID.String() + "/" + today.String()
		if _, ok := j.sent[key]; ok {
			continue
		}
		j.sent[key] = today
		messages = append(messages, newReminder(grp, ref))
	}
	if len(messages) > 0 {
		j.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}

func newReminder(grp group.Group, ref time.Time) *core.EmailMessage {
	mins := schedule.MinutesUntil(grp.StartTime, ref)
	when := fmt.Sprintf("starts in %d minutes", mins)
	switch {
	case mins == 0:
		when = "starts now"
	case mins < 0:
		when = fmt.Sprintf("started %d minutes ago", -mins)
	}

	text := new(strings.Builder)
	_, _ = fmt.Fprintf(text, "Hi %s,\n\n", grp.TeacherName)
	_, _ = fmt.Fprintf(text, "%s (%s) %s, from %s to %s.\n", grp.Name, grp.Code, when, grp.StartTime, grp.EndTime)
	if grp.MeetLink != "" {
		_, _ = fmt.Fprintf(text, "Meeting link: %s\n", grp.MeetLink)
	}

	return &core.EmailMessage{
		To:          []mail.Address{{Name: grp.TeacherName, Address: grp.TeacherEmail}},
		Subject:     fmt.Sprintf("%s starts at %s", grp.Code, grp.StartTime),
		TextContent: text.String(),
	}
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler schedules job with spec, e.g. "*/5 * * * *", evaluated in loc.
func NewScheduler(spec string, job *Job, loc *time.Location, logger core.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		cnt, err := job.Run(context.Background())
		if err != nil {
			logger.Error("sending class reminders", err, map[string]interface{}{"schedule": spec})
			return
		}
		if cnt > 0 {
			logger.Info("sent class reminders", map[string]interface{}{"schedule": spec, "sent": cnt})
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling reminders with %q", spec)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and returns a context done once the running job completes.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }
