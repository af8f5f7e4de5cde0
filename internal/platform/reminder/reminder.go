// Package reminder periodically reports patients registered today who have
// not been served yet.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bidan/registry/internal/platform/locale"
)

// DefaultSchedule runs every two hours from 08:00 to 16:00, Monday to
// Saturday.
const DefaultSchedule = "0 8-16/2 * * 1-6"

const unnamedPatient = "Pasien"

// Pending is one unserved patient.
type Pending struct {
	Row                int
	RegistrationNumber string
	FullName           string
}

// Source lists today's unserved patients.
type Source interface {
	Pending(ctx context.Context) ([]Pending, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Pending, error)

// Pending calls f.
func (f SourceFunc) Pending(ctx context.Context) ([]Pending, error) {
	return f(ctx)
}

// Recorder receives the outcome of every run.
type Recorder interface {
	ReminderRun(unserved int, err error)
}

// Notifier forwards a run that found unserved patients, e.g. to a webhook.
type Notifier interface {
	Notify(ctx context.Context, res Result) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, res Result) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, res Result) error {
	return f(ctx, res)
}

// Result is the outcome of one run.
type Result struct {
	Count   int      `json:"count"`
	Names   []string `json:"names"`
	Message string   `json:"message"`
}

// Reminder runs the check, on demand or on a cron schedule.
type Reminder struct {
	source    Source
	loc       *locale.Localizer
	recorder  Recorder
	logger    zerolog.Logger
	timeout   time.Duration
	cron      *cron.Cron
	notifiers []Notifier
}

// New creates a Reminder. recorder may be nil.
func New(source Source, loc *locale.Localizer, recorder Recorder, logger zerolog.Logger) *Reminder {
	return &Reminder{
		source:   source,
		loc:      loc,
		recorder: recorder,
		logger:   logger.With().Str("component", "reminder").Logger(),
		timeout:  time.Minute,
	}
}

// AddNotifier registers n for runs that find unserved patients.
// Notification failures are logged and do not fail the run.
func (r *Reminder) AddNotifier(n Notifier) {
	r.notifiers = append(r.notifiers, n)
}

// Run performs one check and logs the result.
func (r *Reminder) Run(ctx context.Context) (Result, error) {
	pending, err := r.source.Pending(ctx)
	if r.recorder != nil {
		r.recorder.ReminderRun(len(pending), err)
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("reminder check failed")
		return Result{}, fmt.Errorf("list unserved patients: %w", err)
	}

	res := Result{Count: len(pending), Names: make([]string, 0, len(pending))}
	for _, p := range pending {
		name := strings.TrimSpace(p.FullName)
		if name == "" {
			name = unnamedPatient
		}
		res.Names = append(res.Names, name)
	}

	if res.Count == 0 {
		res.Message = r.loc.T(locale.ReminderNone)
		r.logger.Info().Int("unserved", 0).Msg(res.Message)
		return res, nil
	}
	res.Message = r.loc.TCount(locale.ReminderUnserved, res.Count, nil)
	r.logger.Warn().
		Int("unserved", res.Count).
		Str("patients", strings.Join(res.Names, ", ")).
		Msg(res.Message)

	for _, n := range r.notifiers {
		if err := n.Notify(ctx, res); err != nil {
			r.logger.Error().Err(err).Msg("reminder notification failed")
		}
	}
	return res, nil
}

// Start schedules Run on a standard five-field cron expression evaluated in
// tz. An empty schedule disables the job and returns nil.
func (r *Reminder) Start(schedule string, tz *time.Location) error {
	if strings.TrimSpace(schedule) == "" {
		r.logger.Info().Msg("reminder disabled")
		return nil
	}
	if tz == nil {
		tz = time.Local
	}

	c := cron.New(
		cron.WithLocation(tz),
		cron.WithLogger(cronLogger{r.logger}),
		cron.WithChain(cron.Recover(cronLogger{r.logger}), cron.SkipIfStillRunning(cronLogger{r.logger})),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		_, _ = r.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	r.cron = c
	c.Start()
	r.logger.Info().Str("schedule", schedule).Str("timezone", tz.String()).Msg("reminder scheduled")
	return nil
}

// Stop halts the schedule and waits for a running check to finish or ctx
// to expire.
func (r *Reminder) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// ValidateSchedule reports whether schedule is a valid five-field
// expression. Empty is valid.
func ValidateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("cron expression is invalid: %w", err)
	}
	return nil
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
