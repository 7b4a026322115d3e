package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/notify"
	"github.com/tazehal/batching-engine/internal/observability"
	"github.com/tazehal/batching-engine/internal/repository"
)

// BatchConfirmer is the confirmation entry point the scheduler drives.
// Satisfied by *BatchLifecycle.
type BatchConfirmer interface {
	Confirm(ctx context.Context, batchID string, actor *string, generateBills bool) (*ConfirmResult, error)
	ExpireStale(ctx context.Context, before time.Time) (int, error)
}

// Scheduler runs the daily batch jobs in the business timezone: the
// auto-confirmation of the first batch at its cutoff, and the midday
// housekeeping pass that pre-creates next-day windows and expires stale
// batches.
type Scheduler struct {
	cron     *cron.Cron
	policy   *domain.AssignmentPolicy
	batches  repository.BatchRepository
	confirm  BatchConfirmer
	metrics  *observability.Metrics
	notifier notify.Notifier
	logger   *zap.Logger

	firstCutoffHour  int
	secondCutoffHour int

	now func() time.Time
}

func NewScheduler(
	policy *domain.AssignmentPolicy,
	batches repository.BatchRepository,
	confirm BatchConfirmer,
	firstCutoffHour, secondCutoffHour int,
	metrics *observability.Metrics,
	notifier notify.Notifier,
	logger *zap.Logger,
) (*Scheduler, error) {
	if policy == nil {
		return nil, fmt.Errorf("assignment policy is required")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if confirm == nil {
		return nil, fmt.Errorf("batch confirmer is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:             cron.New(cron.WithLocation(policy.Resolver().Location())),
		policy:           policy,
		batches:          batches,
		confirm:          confirm,
		metrics:          metrics,
		notifier:         notifier,
		logger:           logger,
		firstCutoffHour:  firstCutoffHour,
		secondCutoffHour: secondCutoffHour,
		now:              func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start registers the cron entries and begins scheduling. Stop must be
// called on shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	autoConfirmSpec := fmt.Sprintf("0 %d * * *", s.firstCutoffHour)
	if _, err := s.cron.AddFunc(autoConfirmSpec, func() {
		s.runJob(ctx, "auto_confirm_first_batch", s.autoConfirmFirstBatch)
	}); err != nil {
		return fmt.Errorf("registering auto-confirm job: %w", err)
	}

	housekeepingSpec := fmt.Sprintf("15 %d * * *", s.secondCutoffHour)
	if _, err := s.cron.AddFunc(housekeepingSpec, func() {
		s.runJob(ctx, "daily_housekeeping", s.dailyHousekeeping)
	}); err != nil {
		return fmt.Errorf("registering housekeeping job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("auto_confirm_spec", autoConfirmSpec),
		zap.String("housekeeping_spec", housekeepingSpec),
		zap.String("location", s.policy.Resolver().Location().String()))

	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, name string, job func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in scheduled job: %v", r)
			s.metrics.IncSchedulerJobRun(name, err)
			s.logger.Error("scheduled job panicked", zap.String("job", name), zap.Any("panic", r))
			s.notifier.Alert(ctx, "scheduler_job_panic", err, map[string]string{"job": name})
		}
	}()

	err := job(ctx)
	s.metrics.IncSchedulerJobRun(name, err)
	if err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		s.notifier.Alert(ctx, "scheduler_job_failed", err, map[string]string{"job": name})
		return
	}

	s.logger.Info("scheduled job completed", zap.String("job", name))
}

// autoConfirmFirstBatch confirms today's first batch at its cutoff. A missing
// batch means no orders arrived for the window, which is a no-op. A state
// conflict means an operator confirmed it first, which is also a no-op.
func (s *Scheduler) autoConfirmFirstBatch(ctx context.Context) error {
	date := s.policy.Resolver().LocalMidnight(s.now())

	batch, err := s.batches.FindOpenByWindow(ctx, date, domain.BatchTypeFirst)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("no open first batch to auto-confirm",
			zap.Time("date", date))
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding first batch for %s: %w", date.Format("2006-01-02"), err)
	}

	result, err := s.confirm.Confirm(ctx, batch.ID, nil, true)
	if errors.Is(err, domain.ErrStateConflict) {
		s.logger.Info("first batch already settled", zap.String("batch_id", batch.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("auto-confirming batch %s: %w", batch.BatchNumber, err)
	}

	s.logger.Info("first batch auto-confirmed",
		zap.String("batch_number", batch.BatchNumber),
		zap.Int64("orders_confirmed", result.OrdersConfirmed),
		zap.Int("bills_generated", result.BillsGenerated))

	if len(result.BillErrors) > 0 {
		s.notifier.Alert(ctx, "auto_confirm_bill_errors", nil, map[string]string{
			"batch_number": batch.BatchNumber,
			"bill_errors":  fmt.Sprintf("%d", len(result.BillErrors)),
		})
	}

	return nil
}

// dailyHousekeeping pre-creates tomorrow's batch shells so intake never races
// batch creation at midnight, then expires open batches whose cutoff passed
// more than a day ago.
func (s *Scheduler) dailyHousekeeping(ctx context.Context) error {
	now := s.now()
	tomorrow := s.policy.Resolver().LocalMidnight(now).AddDate(0, 0, 1)

	for _, bt := range []domain.BatchType{domain.BatchTypeFirst, domain.BatchTypeSecond} {
		window := s.policy.WindowFor(tomorrow, bt)
		if _, err := s.batches.FindOrCreate(ctx, window); err != nil {
			return fmt.Errorf("pre-creating batch %s: %w", window.Number, err)
		}
	}

	expired, err := s.confirm.ExpireStale(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.Warn("expired stale batches", zap.Int("count", expired))
	}

	return nil
}
