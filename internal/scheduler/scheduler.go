package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/config"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/alerts"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/forecast"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/ledger"
)

// FarmLister discovers the farms the daily run iterates over.
type FarmLister interface {
	FarmIDs(ctx context.Context) ([]string, error)
}

// Scheduler is the host-side trigger: it invokes the ledger job and the
// alert evaluation on a daily schedule. The engine components themselves
// know nothing about cron; they can equally be triggered over HTTP.
type Scheduler struct {
	cron       *cron.Cron
	farms      FarmLister
	job        *ledger.Job
	engine     *forecast.Engine
	evaluator  *alerts.Evaluator
	dispatcher *alerts.Dispatcher
	cfg        config.Config
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance. dispatcher may be nil
// when outbound alerts are not configured.
func NewScheduler(
	cfg config.Config,
	farms FarmLister,
	job *ledger.Job,
	engine *forecast.Engine,
	evaluator *alerts.Evaluator,
	dispatcher *alerts.Dispatcher,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:       cron.New(),
		farms:      farms,
		job:        job,
		engine:     engine,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start registers the daily run and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Ledger.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.Ledger.CronSchedule, s.runAllFarms)
	if err != nil {
		s.logger.Error("failed to schedule daily ledger run", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runAllFarms() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	farms, err := s.farms.FarmIDs(ctx)
	if err != nil {
		s.logger.Error("failed listing farms for daily run", zap.Error(err))
		return
	}

	s.logger.Info("daily ledger run starting", zap.Int("farms", len(farms)))
	for _, farmID := range farms {
		s.runFarm(ctx, farmID)
	}
}

func (s *Scheduler) runFarm(ctx context.Context, farmID string) {
	report, err := s.job.RunDaily(ctx, farmID)
	if err != nil {
		s.logger.Error("ledger run failed", zap.String("farm_id", farmID), zap.Error(err))
		return
	}
	if report.Status == ledger.StatusPartiallyFailed {
		s.logger.Warn("ledger run incomplete, will retry on next trigger",
			zap.String("farm_id", farmID), zap.String("day", report.Day))
	}

	overview, err := s.engine.Overview(ctx, farmID)
	if err != nil {
		s.logger.Error("stock overview failed", zap.String("farm_id", farmID), zap.Error(err))
		return
	}

	eval := s.evaluator.Evaluate(ctx, overview)
	if s.dispatcher == nil {
		return
	}
	if _, err := s.dispatcher.MaybeDispatch(ctx, eval); err != nil {
		s.logger.Error("alert dispatch failed", zap.String("farm_id", farmID), zap.Error(err))
	}
}
