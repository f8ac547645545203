package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

type EventFinalizeJobParams struct {
	Logger *logger.Logger
	Events eventFinisher
}

type eventFinisher interface {
	FinishEnded(ctx context.Context, now time.Time) (int64, error)
}

// NewEventFinalizeJob marks published events whose end passed as finished.
func NewEventFinalizeJob(params EventFinalizeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("events repository required")
	}
	return &eventFinalizeJob{
		logg:   params.Logger,
		events: params.Events,
		now:    time.Now,
	}, nil
}

type eventFinalizeJob struct {
	logg   *logger.Logger
	events eventFinisher
	now    func() time.Time
}

func (j *eventFinalizeJob) Name() string { return "event-finalize" }

func (j *eventFinalizeJob) Run(ctx context.Context) error {
	n, err := j.events.FinishEnded(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("finish ended events: %w", err)
	}
	if n > 0 {
		j.logg.Info(j.logg.WithField(ctx, "finished", n), "ended events finalized")
	}
	return nil
}
