/**
 * @description
 * Scheduled job implementations: reminder dispatch and billing-date rollover.
 */
package app

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/subtrack/subtrack-backend/internal/config"
	"github.com/subtrack/subtrack-backend/internal/domain"
)

// ReminderRepository defines database operations needed by the jobs.
type ReminderRepository interface {
	ListReminderCandidates(ctx context.Context, now time.Time) ([]domain.Subscription, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	ListLapsedBillingDates(ctx context.Context, now time.Time) ([]domain.Subscription, error)
	UpdateNextBillingDate(ctx context.Context, id uuid.UUID, next time.Time) error
}

// EventPublisher hands events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo      ReminderRepository
	publisher EventPublisher
	logger    *slog.Logger
	config    config.Config
	clock     domain.Clock
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo ReminderRepository, publisher EventPublisher, logger *slog.Logger, cfg config.Config, clock domain.Clock) *Jobs {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Jobs{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
		clock:     clock,
	}
}

// DispatchDueReminders publishes a reminder event for every subscription whose
// reminder is due and records the send only after the broker accepted it.
func (j *Jobs) DispatchDueReminders() {
	j.logger.Info("starting reminder dispatch job")
	ctx := context.Background()
	now := j.clock()

	subs, err := j.repo.ListReminderCandidates(ctx, now)
	if err != nil {
		j.logger.Error("failed to load reminder candidates", "error", err)
		return
	}

	sent := 0
	for _, sub := range subs {
		if !domain.IsReminderDue(sub, now) {
			continue
		}

		event := domain.ReminderDueEvent{
			SubscriptionID:  sub.ID,
			UserID:          sub.UserID,
			Name:            sub.Name,
			Cost:            sub.Cost.StringFixed(2),
			BillingCycle:    string(sub.BillingCycle),
			NextBillingDate: sub.NextBillingDate,
			DaysUntil:       int(math.Ceil(sub.NextBillingDate.Sub(now).Hours() / 24)),
			EvaluatedAt:     now,
		}
		if err := j.publisher.Publish(ctx, j.config.ReminderExchange, j.config.ReminderRoutingKey, event); err != nil {
			j.logger.Error("failed to publish reminder", "subscription_id", sub.ID, "user_id", sub.UserID, "error", err)
			continue
		}

		if err := j.repo.MarkReminderSent(ctx, sub.ID, now); err != nil {
			j.logger.Error("reminder published but not recorded", "subscription_id", sub.ID, "error", err)
			continue
		}
		sent++
	}

	j.logger.Info("reminder dispatch job finished", "candidates", len(subs), "sent", sent)
}

// RollOverBillingDates advances lapsed next billing dates of active
// subscriptions to their next future occurrence.
func (j *Jobs) RollOverBillingDates() {
	j.logger.Info("starting billing date rollover job")
	ctx := context.Background()
	now := j.clock()

	subs, err := j.repo.ListLapsedBillingDates(ctx, now)
	if err != nil {
		j.logger.Error("failed to load lapsed billing dates", "error", err)
		return
	}

	for _, sub := range subs {
		next := domain.AdvancePastDate(sub.NextBillingDate, sub.BillingCycle, now)
		if err := j.repo.UpdateNextBillingDate(ctx, sub.ID, next); err != nil {
			j.logger.Error("failed to roll over billing date", "subscription_id", sub.ID, "error", err)
			continue
		}
		j.logger.Info("rolled over billing date", "subscription_id", sub.ID, "next_billing_date", next)
	}

	j.logger.Info("billing date rollover job finished", "count", len(subs))
}
