package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

const (
	heartbeatInterval   = 30 * time.Second
	defaultReadyTimeout = 30 * time.Second
	readyBackoff        = 500 * time.Millisecond
)

var errConsumerStopped = errors.New("consumer returned without cancellation")

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type dependency struct {
	name  string
	check pinger
}

type ServiceParams struct {
	Logger       *logger.Logger
	Redis        pinger
	PubSub       pinger
	Consumer     runner
	ReadyTimeout time.Duration
}

// Service runs the notification consumer once its dependencies answer.
type Service struct {
	logg         *logger.Logger
	deps         []dependency
	consumer     runner
	readyTimeout time.Duration
	heartbeat    time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	timeout := params.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	return &Service{
		logg: params.Logger,
		deps: []dependency{
			{name: "redis", check: params.Redis},
			{name: "pubsub", check: params.PubSub},
		},
		consumer:     params.Consumer,
		readyTimeout: timeout,
		heartbeat:    heartbeatInterval,
		now:          time.Now,
	}, nil
}

// awaitReady pings every dependency, retrying with backoff until the ready
// timeout. Pub/Sub emulators and Redis sidecars often start after the worker.
func (s *Service) awaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	for _, dep := range s.deps {
		wait := readyBackoff
		for attempt := 1; ; attempt++ {
			err := dep.check.Ping(ctx)
			if err == nil {
				break
			}
			logCtx := s.logg.WithFields(ctx, map[string]any{"dependency": dep.name, "attempt": attempt})
			s.logg.Warn(logCtx, "dependency not ready")

			select {
			case <-ctx.Done():
				return fmt.Errorf("%s ping failed: %w", dep.name, err)
			case <-time.After(wait):
			}
			wait = min(wait*2, 4*time.Second)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is cancelled or the consumer exits.
func (s *Service) Run(ctx context.Context) error {
	if err := s.awaitReady(ctx); err != nil {
		return err
	}

	started := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.consumer.Run(gctx)
		if err == nil && gctx.Err() == nil {
			err = errConsumerStopped
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				uptime := s.now().Sub(started).Round(time.Second)
				s.logg.Debug(s.logg.WithField(gctx, "uptime", uptime.String()), "worker.heartbeat")
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	}
	return err
}
