// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/timeoff/internal/auth/domain"
	"github.com/smallbiznis/timeoff/internal/clock"
	"github.com/smallbiznis/timeoff/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config Config `optional:"true"`
	// Locker keeps replicas from running the same job at once.
	Locker *ratelimit.Locker `optional:"true"`
}

type Scheduler struct {
	db     *gorm.DB
	log    *zap.Logger
	cfg    Config
	genID  *snowflake.Node
	clock  clock.Clock
	locker *ratelimit.Locker
}

type job struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context, run *jobRun) error
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:     p.DB,
		log:    p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    p.Config.withDefaults(),
		genID:  p.GenID,
		clock:  p.Clock,
		locker: p.Locker,
	}, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: "purge_sessions", timeout: 30 * time.Second, run: s.PurgeSessionsJob},
	}
}

func (s *Scheduler) runJob(parent context.Context, j job) error {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	ctx, run := s.newJobRun(ctx, j.name, s.cfg.BatchSize)

	if s.locker != nil {
		key := "timeoff:scheduler:" + j.name
		token, acquired, err := s.locker.TryLock(ctx, key, j.timeout)
		if err != nil {
			return fmt.Errorf("%s: lock: %w", j.name, err)
		}
		if !acquired {
			s.logger(ctx).Debug("job held by another replica", zap.String("job", j.name))
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.Background(), key, token); err != nil {
				s.logger(ctx).Warn("release job lock failed", zap.String("job", j.name), zap.Error(err))
			}
		}()
	}

	s.logJobStart(ctx, run)

	err := j.run(ctx, run)
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	// A deadline only means the batch loop did not finish; the next tick
	// picks up the rest.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out", zap.String("job", j.name), zap.Duration("timeout", j.timeout))
		return nil
	}
	return fmt.Errorf("%s: %w", j.name, err)
}

// RunOnce runs every job once and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var err error
	for _, j := range s.jobs() {
		err = errors.Join(err, s.runJob(ctx, j))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PurgeSessionsJob deletes sessions that expired or were revoked before the
// retention window, one batch at a time.
func (s *Scheduler) PurgeSessionsJob(ctx context.Context, run *jobRun) error {
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var ids []snowflake.ID
		err := s.db.WithContext(ctx).
			Model(&authdomain.Session{}).
			Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
			Order("id").
			Limit(s.cfg.BatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&authdomain.Session{}).Error; err != nil {
			return err
		}
		run.AddProcessed(len(ids))

		if len(ids) < s.cfg.BatchSize {
			return nil
		}
	}
}
