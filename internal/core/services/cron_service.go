package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService executes due maintenance schedules on a cron spec. Each run is
// an ordinary synchronous ExecuteDue call; overlapping runs are skipped.
type CronService struct {
	cron      *cron.Cron
	schedules DueScheduleRunner
	log       logrus.FieldLogger
	timeout   time.Duration
	entry     cron.EntryID
}

// NewCronService creates a cron runner for spec (e.g. "@every 15m").
func NewCronService(schedules DueScheduleRunner, spec string, log logrus.FieldLogger) (*CronService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cl := cronLogger{log: log}
	s := &CronService{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		schedules: schedules,
		log:       log,
		timeout:   5 * time.Minute,
	}
	id, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid schedule cron spec %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins firing in the background
func (s *CronService) Start() {
	s.cron.Start()
	s.log.WithField("next_run", s.cron.Entry(s.entry).Next).Info("schedule runner started")
}

// Stop stops firing and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("schedule runner stopped")
}

// RunOnce executes the due schedules once and returns the report.
func (s *CronService) RunOnce(ctx context.Context) *ExecutionReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.schedules.ExecuteDue(ctx)
	if err != nil {
		s.log.WithError(err).Error("executing due schedules")
	}
	return report
}

// cronLogger routes cron's own logging through logrus.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(pairs(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func pairs(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
