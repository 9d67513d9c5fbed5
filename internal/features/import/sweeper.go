package import_feature

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SessionSweeper periodically closes abandoned import sessions.
type SessionSweeper struct {
	cron    *cron.Cron
	service ImportService
	maxIdle time.Duration
	logger  *zap.Logger
}

func NewSessionSweeper(service ImportService, schedule string, maxIdle time.Duration, logger *zap.Logger) (*SessionSweeper, error) {
	s := &SessionSweeper{
		cron:    cron.New(),
		service: service,
		maxIdle: maxIdle,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SessionSweeper) Sweep() {
	closed := s.service.SweepIdle(s.maxIdle)
	s.logger.Debug("Session sweep finished", zap.Int("closed", closed))
}

func (s *SessionSweeper) Start() {
	s.logger.Info("Starting import session sweeper")
	s.cron.Start()
}

func (s *SessionSweeper) Stop() context.Context {
	s.logger.Info("Stopping import session sweeper")
	return s.cron.Stop()
}

// RegisterSweeper ties the sweeper to the application lifecycle.
func RegisterSweeper(lc fx.Lifecycle, sweeper *SessionSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-sweeper.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}
