package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/subtrack/subtrack-backend/internal/domain"
)

const subscriptionColumns = `
    id, user_id, name, description, cost, billing_cycle, category,
    start_date, next_billing_date, status, reminder_enabled,
    reminder_days_before, last_reminder_sent, website, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.Description,
		&sub.Cost,
		&sub.BillingCycle,
		&sub.Category,
		&sub.StartDate,
		&sub.NextBillingDate,
		&sub.Status,
		&sub.ReminderEnabled,
		&sub.ReminderDaysBefore,
		&sub.LastReminderSent,
		&sub.Website,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// CreateSubscription inserts a prepared subscription record.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions (
            id, user_id, name, description, cost, billing_cycle, category,
            start_date, next_billing_date, status, reminder_enabled,
            reminder_days_before, website
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING ` + subscriptionColumns
	return scanSubscription(r.db.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.Description,
		sub.Cost,
		string(sub.BillingCycle),
		string(sub.Category),
		sub.StartDate,
		sub.NextBillingDate,
		string(sub.Status),
		sub.ReminderEnabled,
		sub.ReminderDaysBefore,
		sub.Website,
	))
}

// GetSubscription returns a subscription only when it belongs to userID.
func (r *Repository) GetSubscription(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND user_id = $2`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// UpdateSubscription overwrites the editable fields of an owned subscription.
func (r *Repository) UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET name = $3,
            description = $4,
            cost = $5,
            billing_cycle = $6,
            category = $7,
            start_date = $8,
            next_billing_date = $9,
            status = $10,
            reminder_enabled = $11,
            reminder_days_before = $12,
            website = $13,
            updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING ` + subscriptionColumns
	updated, err := scanSubscription(r.db.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.Description,
		sub.Cost,
		string(sub.BillingCycle),
		string(sub.Category),
		sub.StartDate,
		sub.NextBillingDate,
		string(sub.Status),
		sub.ReminderEnabled,
		sub.ReminderDaysBefore,
		sub.Website,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteSubscription removes an owned subscription permanently.
func (r *Repository) DeleteSubscription(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ListSubscriptionsByUser returns all of a user's subscriptions in insertion order.
func (r *Repository) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// ListReminderCandidates fetches active, reminder-enabled subscriptions billing
// within the next 31 days. The final due decision is made in Go.
func (r *Repository) ListReminderCandidates(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE status = 'active'
          AND reminder_enabled = TRUE
          AND next_billing_date > $1::timestamptz
          AND next_billing_date <= $1::timestamptz + INTERVAL '31 days'
        ORDER BY next_billing_date
    `
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// MarkReminderSent records a successful reminder dispatch.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE subscriptions SET last_reminder_sent = $1, updated_at = NOW() WHERE id = $2`, sentAt, id)
	return err
}

// ListLapsedBillingDates fetches active subscriptions whose next billing date is not in the future.
func (r *Repository) ListLapsedBillingDates(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	query := `
        SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE status = 'active'
          AND next_billing_date <= $1
    `
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// UpdateNextBillingDate moves a subscription's next charge date.
func (r *Repository) UpdateNextBillingDate(ctx context.Context, id uuid.UUID, next time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE subscriptions SET next_billing_date = $1, updated_at = NOW() WHERE id = $2`, next, id)
	return err
}
