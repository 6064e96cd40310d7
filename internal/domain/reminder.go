package domain

import "time"

// ReminderDebounce is the minimum gap between two reminders for one subscription.
const ReminderDebounce = 24 * time.Hour

// IsReminderDue decides whether a renewal reminder should go out at now.
// A billing date that has already passed is never due; there is no catch-up.
// Evaluation never touches LastReminderSent, the dispatcher sets it after a
// successful send.
func IsReminderDue(sub Subscription, now time.Time) bool {
	if sub.Status != StatusActive || !sub.ReminderEnabled {
		return false
	}
	if sub.LastReminderSent != nil && now.Sub(*sub.LastReminderSent) < ReminderDebounce {
		return false
	}

	daysUntilBilling := sub.NextBillingDate.Sub(now).Hours() / 24
	return daysUntilBilling > 0 && daysUntilBilling <= float64(sub.ReminderDaysBefore)
}
