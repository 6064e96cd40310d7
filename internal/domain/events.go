/**
 * @description
 * Events published by the subscription tracker to the message broker.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderDueEvent is published when a subscription enters its reminder window.
// Delivery (email, push) is owned by whoever consumes the exchange.
type ReminderDueEvent struct {
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Cost            string    `json:"cost"`
	BillingCycle    string    `json:"billing_cycle"`
	NextBillingDate time.Time `json:"next_billing_date"`
	DaysUntil       int       `json:"days_until"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}
