package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultRetentionBatch  = 1000
)

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxPruner
	// RetentionDays is how long published rows are kept. Zero means 30.
	RetentionDays int
	BatchSize     int
}

// NewOutboxRetentionJob prunes published outbox rows in bounded batches, one
// transaction per batch, so a large backlog never holds a long delete lock.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	var err error
	if params.Logger == nil {
		err = multierr.Append(err, errors.New("logger required"))
	}
	if params.DB == nil {
		err = multierr.Append(err, errors.New("db runner required"))
	}
	if params.Repository == nil {
		err = multierr.Append(err, errors.New("outbox repository required"))
	}
	if err != nil {
		return nil, err
	}

	keep := defaultOutboxRetention
	if params.RetentionDays > 0 {
		keep = time.Duration(params.RetentionDays) * 24 * time.Hour
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRetentionBatch
	}
	return &outboxRetentionJob{
		logg:   params.Logger,
		db:     params.DB,
		pruner: params.Repository,
		keep:   keep,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg   *logger.Logger
	db     txRunner
	pruner outboxPruner
	keep   time.Duration
	batch  int
	now    func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.keep)
	var total int64
	rounds := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = j.pruner.DeletePublishedBefore(ctx, tx, cutoff, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("outbox retention after %d rows: %w", total, err)
		}
		total += n
		rounds++
		if n < int64(j.batch) {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": total,
		"batches":      rounds,
	}), "outbox retention cleanup complete")
	return nil
}
