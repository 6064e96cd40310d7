package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Average weeks per month used for weekly subscriptions.
var weeksPerMonth = decimal.RequireFromString("4.33")

var (
	three  = decimal.NewFromInt(3)
	twelve = decimal.NewFromInt(12)
)

// NormalizedCost is a cost expressed as monthly and yearly equivalents.
type NormalizedCost struct {
	Monthly decimal.Decimal
	Yearly  decimal.Decimal
}

// NormalizeCost converts a cost charged every cycle into its monthly and
// yearly equivalents. It panics on an unknown cycle.
func NormalizeCost(cost decimal.Decimal, cycle BillingCycle) NormalizedCost {
	var monthly decimal.Decimal
	switch cycle {
	case CycleWeekly:
		monthly = cost.Mul(weeksPerMonth)
	case CycleMonthly:
		monthly = cost
	case CycleQuarterly:
		monthly = cost.Div(three)
	case CycleYearly:
		monthly = cost.Div(twelve)
	default:
		panic(fmt.Sprintf("domain: unknown billing cycle %q", cycle))
	}
	return NormalizedCost{Monthly: monthly, Yearly: monthly.Mul(twelve)}
}

// Clock supplies the current time; injected so derivations stay deterministic.
type Clock func() time.Time

// SystemClock returns the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// NextBillingDate advances from by exactly one billing cycle. Month-based
// cycles keep the day of month and clamp to the last day of shorter months,
// so Jan 31 + 1 month is Feb 28 (or 29) rather than early March.
func NextBillingDate(from time.Time, cycle BillingCycle) time.Time {
	switch cycle {
	case CycleWeekly:
		return from.AddDate(0, 0, 7)
	case CycleMonthly:
		return addMonthsClamped(from, 1)
	case CycleQuarterly:
		return addMonthsClamped(from, 3)
	case CycleYearly:
		return addMonthsClamped(from, 12)
	default:
		panic(fmt.Sprintf("domain: unknown billing cycle %q", cycle))
	}
}

// NextBillingDateFromNow is NextBillingDate anchored at the clock's now.
func NextBillingDateFromNow(clock Clock, cycle BillingCycle) time.Time {
	return NextBillingDate(clock(), cycle)
}

// AdvancePastDate rolls a billing date forward whole cycles until it is
// strictly after now. The anchor day is kept from the original date so a
// Jan 31 anchor does not drift to the 28th after passing February.
func AdvancePastDate(next time.Time, cycle BillingCycle, now time.Time) time.Time {
	if next.After(now) {
		return next
	}
	for periods := 1; ; periods++ {
		var candidate time.Time
		switch cycle {
		case CycleWeekly:
			candidate = next.AddDate(0, 0, 7*periods)
		case CycleMonthly:
			candidate = addMonthsClamped(next, periods)
		case CycleQuarterly:
			candidate = addMonthsClamped(next, 3*periods)
		case CycleYearly:
			candidate = addMonthsClamped(next, 12*periods)
		default:
			panic(fmt.Sprintf("domain: unknown billing cycle %q", cycle))
		}
		if candidate.After(now) {
			return candidate
		}
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Normalize through the first of the target month so time.Date never overflows.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
