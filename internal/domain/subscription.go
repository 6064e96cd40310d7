/**
 * @description
 * This file defines the core domain models for the subscription tracker.
 * A Subscription holds the raw billing facts of one recurring payment; every
 * money figure shown to users (monthly, yearly) is derived from it on demand.
 */
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrValidation is wrapped by every input validation failure so the API layer
// can map them to 400 responses.
var ErrValidation = errors.New("validation failed")

// BillingCycle is the recurrence period of a charge.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// BillingCycles lists the supported cycles in display order.
var BillingCycles = []BillingCycle{CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly}

// ParseBillingCycle validates raw input from the outside world.
func ParseBillingCycle(raw string) (BillingCycle, error) {
	cycle := BillingCycle(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range BillingCycles {
		if c == cycle {
			return cycle, nil
		}
	}
	return "", fmt.Errorf("%w: unknown billing cycle %q", ErrValidation, raw)
}

// Status is the lifecycle state of a tracked subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"
)

var Statuses = []Status{StatusActive, StatusCancelled, StatusPaused}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Statuses {
		if s == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
}

// Category groups subscriptions on the dashboard.
type Category string

const (
	CategoryEntertainment Category = "Entertainment"
	CategorySoftware      Category = "Software"
	CategoryFitness       Category = "Fitness"
	CategoryEducation     Category = "Education"
	CategoryCloudStorage  Category = "Cloud Storage"
	CategoryNewsMedia     Category = "News & Media"
	CategoryGaming        Category = "Gaming"
	CategoryUtilities     Category = "Utilities"
	CategoryOther         Category = "Other"
)

var Categories = []Category{
	CategoryEntertainment,
	CategorySoftware,
	CategoryFitness,
	CategoryEducation,
	CategoryCloudStorage,
	CategoryNewsMedia,
	CategoryGaming,
	CategoryUtilities,
	CategoryOther,
}

// ParseCategory matches case-insensitively but returns the canonical spelling.
func ParseCategory(raw string) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, raw)
}

const (
	MinReminderDaysBefore     = 1
	MaxReminderDaysBefore     = 30
	DefaultReminderDaysBefore = 3
	MaxNameLength             = 100
	// CostScale matches the NUMERIC(12, 2) cost column.
	CostScale = 2
)

var maxCost = decimal.New(1, 12-CostScale)

// Subscription represents a user's tracked recurring payment as stored.
type Subscription struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"userId"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Cost               decimal.Decimal `json:"cost"`
	BillingCycle       BillingCycle    `json:"billingCycle"`
	Category           Category        `json:"category"`
	StartDate          time.Time       `json:"startDate"`
	NextBillingDate    time.Time       `json:"nextBillingDate"`
	Status             Status          `json:"status"`
	ReminderEnabled    bool            `json:"reminderEnabled"`
	ReminderDaysBefore int             `json:"reminderDaysBefore"`
	LastReminderSent   *time.Time      `json:"lastReminderSent,omitempty"`
	Website            string          `json:"website,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// MonthlyCost is the subscription's cost normalized to a per-month rate.
func (s Subscription) MonthlyCost() decimal.Decimal {
	return NormalizeCost(s.Cost, s.BillingCycle).Monthly
}

// YearlyCost is always MonthlyCost * 12.
func (s Subscription) YearlyCost() decimal.Decimal {
	return NormalizeCost(s.Cost, s.BillingCycle).Yearly
}

// IsActive reports whether the subscription counts toward totals.
func (s Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Validate checks the rules a stored record must satisfy.
func (s Subscription) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	}
	if s.Cost.IsNegative() {
		return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
	}
	if !s.Cost.Equal(s.Cost.Round(CostScale)) {
		return fmt.Errorf("%w: cost must have at most %d decimal places", ErrValidation, CostScale)
	}
	if s.Cost.GreaterThanOrEqual(maxCost) {
		return fmt.Errorf("%w: cost must be less than %s", ErrValidation, maxCost.String())
	}
	if _, err := ParseBillingCycle(string(s.BillingCycle)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return err
	}
	if _, err := ParseCategory(string(s.Category)); err != nil {
		return err
	}
	if s.ReminderDaysBefore < MinReminderDaysBefore || s.ReminderDaysBefore > MaxReminderDaysBefore {
		return fmt.Errorf("%w: reminderDaysBefore must be between %d and %d", ErrValidation, MinReminderDaysBefore, MaxReminderDaysBefore)
	}
	return nil
}

// PrepareForCreate fills the creation defaults: start date falls back to now,
// and a missing next billing date is derived from start date and cycle.
func PrepareForCreate(sub *Subscription, now time.Time) {
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
	if sub.NextBillingDate.IsZero() {
		sub.NextBillingDate = NextBillingDate(sub.StartDate, sub.BillingCycle)
	}
	if sub.Status == "" {
		sub.Status = StatusActive
	}
	if sub.Category == "" {
		sub.Category = CategoryOther
	}
	sub.LastReminderSent = nil
}
