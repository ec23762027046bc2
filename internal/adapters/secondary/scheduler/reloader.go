// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reloader is the job target; the directory service implements it.
type Reloader interface {
	Reload(ctx context.Context) error
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// DirectoryReloader refreshes the reference directory on a schedule.
type DirectoryReloader struct {
	cron    *cron.Cron
	target  Reloader
	timeout time.Duration
	logger  *zap.Logger
}

// NewDirectoryReloader parses spec (standard cron, optional seconds field or
// a descriptor such as "@every 10m") and registers the reload job.
func NewDirectoryReloader(target Reloader, spec string, loc *time.Location, timeout time.Duration, logger *zap.Logger) (*DirectoryReloader, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	r := &DirectoryReloader{
		cron:    cron.New(cron.WithLocation(loc)),
		target:  target,
		timeout: timeout,
		logger:  logger.Named("directory_reloader"),
	}
	r.cron.Schedule(schedule, cron.FuncJob(r.run))
	return r, nil
}

// Start begins running the schedule in its own goroutine.
func (r *DirectoryReloader) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running reload, up to ctx.
func (r *DirectoryReloader) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("reload still running at shutdown")
	}
}

func (r *DirectoryReloader) run() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := r.target.Reload(ctx); err != nil {
		// The directory service already logged the cause and kept its snapshot.
		r.logger.Debug("scheduled reload failed", zap.Error(err))
		return
	}
	r.logger.Debug("scheduled reload finished", zap.Duration("took", time.Since(start)))
}
