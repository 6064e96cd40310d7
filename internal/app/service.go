/**
 * @description
 * This file contains the business logic for managing a user's tracked
 * subscriptions. The Service layer loads records through the repository,
 * applies creation defaults and edits, and hands collections to the pure
 * aggregation functions.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack-backend/internal/domain"
	"github.com/subtrack/subtrack-backend/internal/store"
)

// SubscriptionRepository defines the storage operations the service needs.
// Every lookup is scoped by owner.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, id uuid.UUID) error
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error)
}

// CreateSubscriptionInput carries already-parsed creation fields. Nil pointers
// take the documented defaults.
type CreateSubscriptionInput struct {
	Name               string
	Description        string
	Cost               decimal.Decimal
	BillingCycle       domain.BillingCycle
	Category           domain.Category
	StartDate          *time.Time
	NextBillingDate    *time.Time
	Status             domain.Status
	ReminderEnabled    *bool
	ReminderDaysBefore *int
	Website            string
}

// UpdateSubscriptionInput is a partial edit; nil fields are left unchanged.
// Changing BillingCycle does not recompute NextBillingDate.
type UpdateSubscriptionInput struct {
	Name               *string
	Description        *string
	Cost               *decimal.Decimal
	BillingCycle       *domain.BillingCycle
	Category           *domain.Category
	StartDate          *time.Time
	NextBillingDate    *time.Time
	Status             *domain.Status
	ReminderEnabled    *bool
	ReminderDaysBefore *int
	Website            *string
}

// SubscriptionService provides subscription management for one owner at a time.
type SubscriptionService struct {
	repo   SubscriptionRepository
	logger *slog.Logger
	clock  domain.Clock
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo SubscriptionRepository, logger *slog.Logger, clock domain.Clock) *SubscriptionService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &SubscriptionService{repo: repo, logger: logger, clock: clock}
}

// Create stores a new subscription for userID, deriving the next billing date
// when none was supplied.
func (s *SubscriptionService) Create(ctx context.Context, userID uuid.UUID, input CreateSubscriptionInput) (*domain.Subscription, error) {
	sub := domain.Subscription{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Cost:            input.Cost,
		BillingCycle:    input.BillingCycle,
		Category:        input.Category,
		Status:          input.Status,
		ReminderEnabled: true,
		Website:         strings.TrimSpace(input.Website),
	}
	// An explicit zero is kept so Validate rejects it.
	sub.ReminderDaysBefore = domain.DefaultReminderDaysBefore
	if input.StartDate != nil {
		sub.StartDate = *input.StartDate
	}
	if input.NextBillingDate != nil {
		sub.NextBillingDate = *input.NextBillingDate
	}
	if input.ReminderEnabled != nil {
		sub.ReminderEnabled = *input.ReminderEnabled
	}
	if input.ReminderDaysBefore != nil {
		sub.ReminderDaysBefore = *input.ReminderDaysBefore
	}

	// Cycle must be valid before deriving dates from it.
	if _, err := domain.ParseBillingCycle(string(sub.BillingCycle)); err != nil {
		return nil, err
	}
	domain.PrepareForCreate(&sub, s.clock())
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateSubscription(ctx, &sub)
	if err != nil {
		s.logger.Error("failed to create subscription", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("subscription created", "user_id", userID, "subscription_id", created.ID)
	return created, nil
}

// Get returns one of userID's subscriptions.
func (s *SubscriptionService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID, id)
	if err != nil {
		if !errors.Is(err, store.ErrSubscriptionNotFound) {
			s.logger.Error("failed to get subscription", "user_id", userID, "subscription_id", id, "error", err)
		}
		return nil, err
	}
	return sub, nil
}

// Update applies a partial edit to one of userID's subscriptions.
func (s *SubscriptionService) Update(ctx context.Context, userID, id uuid.UUID, input UpdateSubscriptionInput) (*domain.Subscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(sub, input)
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSubscription(ctx, sub)
	if err != nil {
		if !errors.Is(err, store.ErrSubscriptionNotFound) {
			s.logger.Error("failed to update subscription", "user_id", userID, "subscription_id", id, "error", err)
		}
		return nil, err
	}
	return updated, nil
}

func applyUpdate(sub *domain.Subscription, input UpdateSubscriptionInput) {
	if input.Name != nil {
		sub.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		sub.Description = strings.TrimSpace(*input.Description)
	}
	if input.Cost != nil {
		sub.Cost = *input.Cost
	}
	if input.BillingCycle != nil {
		sub.BillingCycle = *input.BillingCycle
	}
	if input.Category != nil {
		sub.Category = *input.Category
	}
	if input.StartDate != nil {
		sub.StartDate = *input.StartDate
	}
	if input.NextBillingDate != nil {
		sub.NextBillingDate = *input.NextBillingDate
	}
	if input.Status != nil {
		sub.Status = *input.Status
	}
	if input.ReminderEnabled != nil {
		sub.ReminderEnabled = *input.ReminderEnabled
	}
	if input.ReminderDaysBefore != nil {
		sub.ReminderDaysBefore = *input.ReminderDaysBefore
	}
	if input.Website != nil {
		sub.Website = strings.TrimSpace(*input.Website)
	}
}

// Delete permanently removes one of userID's subscriptions.
func (s *SubscriptionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeleteSubscription(ctx, userID, id); err != nil {
		if !errors.Is(err, store.ErrSubscriptionNotFound) {
			s.logger.Error("failed to delete subscription", "user_id", userID, "subscription_id", id, "error", err)
		}
		return err
	}
	s.logger.Info("subscription deleted", "user_id", userID, "subscription_id", id)
	return nil
}

// List returns userID's subscriptions filtered and sorted for display.
func (s *SubscriptionService) List(ctx context.Context, userID uuid.UUID, filter ListFilter, key SortKey) ([]domain.Subscription, error) {
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list subscriptions", "user_id", userID, "error", err)
		return nil, err
	}
	return ListAndSort(subs, filter, key), nil
}

// Stats summarizes userID's subscriptions at the service clock's now.
func (s *SubscriptionService) Stats(ctx context.Context, userID uuid.UUID) (Summary, error) {
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load subscriptions for stats", "user_id", userID, "error", err)
		return Summary{}, err
	}
	return Summarize(subs, s.clock()), nil
}

// Snapshot returns every subscription of userID together with its summary,
// as used by exports and reports.
func (s *SubscriptionService) Snapshot(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, Summary, error) {
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load subscriptions for snapshot", "user_id", userID, "error", err)
		return nil, Summary{}, err
	}
	return ListAndSort(subs, ListFilter{}, SortDefault), Summarize(subs, s.clock()), nil
}
