package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/service"
)

// AutoSaveJobName is the name of the quote auto-save job
const AutoSaveJobName = "quote_autosave"

// DefaultAutoSaveTimeout bounds one save when no timeout is configured
const DefaultAutoSaveTimeout = 30 * time.Second

// QuoteSaver writes the current quote to durable storage
type QuoteSaver interface {
	Save(ctx context.Context) error
}

// AutoSaveJob periodically backs up the session's quote. Failures are
// logged and never stop the schedule.
type AutoSaveJob struct {
	saver   QuoteSaver
	logger  *zap.Logger
	timeout time.Duration
}

// NewAutoSaveJob creates a new auto-save job
func NewAutoSaveJob(saver QuoteSaver, logger *zap.Logger, timeout time.Duration) *AutoSaveJob {
	if timeout <= 0 {
		timeout = DefaultAutoSaveTimeout
	}
	return &AutoSaveJob{
		saver:   saver,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one auto-save
func (j *AutoSaveJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.saver.Save(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNothingToSave):
		j.logger.Debug("auto-save skipped, quote is empty")
	default:
		j.logger.Error("auto-save failed", zap.Error(err))
	}
}

// RegisterAutoSaveJob adds the auto-save job to the scheduler
func RegisterAutoSaveJob(s *Scheduler, saver QuoteSaver, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewAutoSaveJob(saver, logger.Named(AutoSaveJobName), timeout)
	return s.AddJob(AutoSaveJobName, cronExpr, job.Run)
}
