// Package jobs runs the background work of `murmur serve` on cron schedules:
// purging expired admin sessions and posting the Slack insight digest.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/ops"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// Job names as reported by Scheduler.Jobs.
const (
	JobPurgeSessions = "purge_sessions"
	JobDigest        = "digest"
)

// Purger deletes expired sessions. *auth.Authenticator implements it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Poster delivers a Slack message. *slack.Client implements it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Options holds the dependencies of the scheduled jobs.
type Options struct {
	DB        *sql.DB
	Config    *config.Config
	Sessions  Purger
	Generator ops.Generator
	// Poster defaults to a Slack client built from Config.SlackBotToken.
	Poster Poster
	Logger *zap.Logger
}

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	cron   *cron.Cron
	opts   Options
	logger *zap.Logger
	jobs   []string
}

// New registers every job enabled by the configuration.
// A scheduler with no jobs is valid.
func New(opts Options) (*Scheduler, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLog := cronLogger{logger.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		opts:   opts,
		logger: logger,
	}

	cfg := opts.Config
	if schedule := strings.TrimSpace(cfg.SessionPurgeSchedule); schedule != "" && opts.Sessions != nil {
		if err := s.add(JobPurgeSessions, schedule, s.PurgeSessions); err != nil {
			return nil, err
		}
	}

	if cfg.DigestEnabled() {
		if s.opts.Poster == nil {
			s.opts.Poster = slack.New(cfg.SlackBotToken)
		}
		if err := s.add(JobDigest, strings.TrimSpace(cfg.DigestSchedule), s.PostDigest); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(cfg.DigestSchedule) != "" {
		logger.Warn("digest_schedule set but slack_bot_token or digest_channel_id missing; digest disabled")
	}

	return s, nil
}

func (s *Scheduler) add(name, schedule string, run func(context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, schedule, err)
	}
	s.jobs = append(s.jobs, name)
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Jobs returns the names of the registered jobs in registration order.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.jobs...)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("jobs still running at shutdown")
	}
}

// PurgeSessions deletes expired admin sessions.
func (s *Scheduler) PurgeSessions(ctx context.Context) error {
	n, err := s.opts.Sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", zap.Int("count", n))
	}
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
