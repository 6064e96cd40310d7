/**
 * @description
 * Pure aggregation over one owner's subscriptions: the dashboard summary and
 * the filtered, sorted listing. Nothing here performs I/O; callers pass the
 * records and the current time in.
 */
package app

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack-backend/internal/domain"
)

// RenewalWindow is how far ahead the dashboard looks for renewals.
const RenewalWindow = 30 * 24 * time.Hour

// Summary is the dashboard view of a user's subscriptions.
type Summary struct {
	TotalSubscriptions int                               `json:"totalSubscriptions"`
	TotalMonthly       string                            `json:"totalMonthly"`
	TotalYearly        string                            `json:"totalYearly"`
	ByCategory         map[domain.Category]CategoryTotal `json:"byCategory"`
	UpcomingRenewals   []UpcomingRenewal                 `json:"upcomingRenewals"`
}

// CategoryTotal is the per-category slice of the summary.
type CategoryTotal struct {
	Count        int    `json:"count"`
	TotalMonthly string `json:"totalMonthly"`
}

// UpcomingRenewal is a projection of a subscription renewing soon.
type UpcomingRenewal struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Cost            decimal.Decimal `json:"cost"`
	NextBillingDate time.Time       `json:"nextBillingDate"`
	DaysUntil       int             `json:"daysUntil"`
}

// Summarize computes totals over active subscriptions only. Cancelled and
// paused records never contribute to any figure or to the renewals list.
func Summarize(records []domain.Subscription, now time.Time) Summary {
	totalMonthly := decimal.Zero
	categoryMonthly := map[domain.Category]decimal.Decimal{}
	categoryCount := map[domain.Category]int{}
	upcoming := []UpcomingRenewal{}
	count := 0

	windowEnd := now.Add(RenewalWindow)
	for _, sub := range records {
		if !sub.IsActive() {
			continue
		}
		count++

		monthly := sub.MonthlyCost()
		totalMonthly = totalMonthly.Add(monthly)
		categoryMonthly[sub.Category] = categoryMonthly[sub.Category].Add(monthly)
		categoryCount[sub.Category]++

		if !sub.NextBillingDate.Before(now) && !sub.NextBillingDate.After(windowEnd) {
			upcoming = append(upcoming, UpcomingRenewal{
				ID:              sub.ID,
				Name:            sub.Name,
				Cost:            sub.Cost,
				NextBillingDate: sub.NextBillingDate,
				DaysUntil:       daysUntil(sub.NextBillingDate, now),
			})
		}
	}

	slices.SortStableFunc(upcoming, func(a, b UpcomingRenewal) int {
		return a.NextBillingDate.Compare(b.NextBillingDate)
	})

	byCategory := make(map[domain.Category]CategoryTotal, len(categoryCount))
	for category, n := range categoryCount {
		byCategory[category] = CategoryTotal{
			Count:        n,
			TotalMonthly: formatMoney(categoryMonthly[category]),
		}
	}

	return Summary{
		TotalSubscriptions: count,
		TotalMonthly:       formatMoney(totalMonthly),
		TotalYearly:        formatMoney(totalMonthly.Mul(decimal.NewFromInt(12))),
		ByCategory:         byCategory,
		UpcomingRenewals:   upcoming,
	}
}

func daysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FilterAll disables a listing filter.
const FilterAll = "all"

// ListFilter narrows a listing by exact status and category match. Empty or
// "all" means no filtering on that field.
type ListFilter struct {
	Status   string
	Category string
}

// SortKey selects the listing order.
type SortKey string

const (
	SortDefault    SortKey = ""
	SortCostHigh   SortKey = "cost-high"
	SortCostLow    SortKey = "cost-low"
	SortDateNewest SortKey = "date-newest"
	SortDateOldest SortKey = "date-oldest"
)

// ParseSortKey accepts the known keys; anything else falls back to the default order.
func ParseSortKey(raw string) SortKey {
	switch key := SortKey(raw); key {
	case SortCostHigh, SortCostLow, SortDateNewest, SortDateOldest:
		return key
	default:
		return SortDefault
	}
}

// ListAndSort filters and orders records without modifying the input slice.
// The sort is stable so equal keys keep their original relative order.
func ListAndSort(records []domain.Subscription, filter ListFilter, key SortKey) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(records))
	for _, sub := range records {
		if !matchesFilter(filter.Status, string(sub.Status)) || !matchesFilter(filter.Category, string(sub.Category)) {
			continue
		}
		out = append(out, sub)
	}

	var compare func(a, b domain.Subscription) int
	switch key {
	case SortCostHigh:
		compare = func(a, b domain.Subscription) int { return b.Cost.Cmp(a.Cost) }
	case SortCostLow:
		compare = func(a, b domain.Subscription) int { return a.Cost.Cmp(b.Cost) }
	case SortDateNewest:
		compare = func(a, b domain.Subscription) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortDateOldest:
		compare = func(a, b domain.Subscription) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		compare = func(a, b domain.Subscription) int { return a.NextBillingDate.Compare(b.NextBillingDate) }
	}
	slices.SortStableFunc(out, compare)

	return out
}

func matchesFilter(want, got string) bool {
	return want == "" || want == FilterAll || want == got
}
