package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack-backend/internal/domain"
	"github.com/subtrack/subtrack-backend/internal/store"
)

type subscriptionRepoStub struct {
	subs    map[uuid.UUID]domain.Subscription
	order   []uuid.UUID
	listErr error
}

func newSubscriptionRepoStub() *subscriptionRepoStub {
	return &subscriptionRepoStub{subs: map[uuid.UUID]domain.Subscription{}}
}

func (s *subscriptionRepoStub) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	created := *sub
	created.CreatedAt = testNow
	created.UpdatedAt = testNow
	s.subs[created.ID] = created
	s.order = append(s.order, created.ID)
	return &created, nil
}

func (s *subscriptionRepoStub) GetSubscription(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return nil, store.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *subscriptionRepoStub) UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	existing, ok := s.subs[sub.ID]
	if !ok || existing.UserID != sub.UserID {
		return nil, store.ErrSubscriptionNotFound
	}
	updated := *sub
	s.subs[sub.ID] = updated
	return &updated, nil
}

func (s *subscriptionRepoStub) DeleteSubscription(ctx context.Context, userID, id uuid.UUID) error {
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return store.ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *subscriptionRepoStub) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []domain.Subscription{}
	for _, id := range s.order {
		if sub, ok := s.subs[id]; ok && sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func newTestService(repo SubscriptionRepository) *SubscriptionService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSubscriptionService(repo, logger, func() time.Time { return testNow })
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newTestService(newSubscriptionRepoStub())
	userID := uuid.New()

	sub, err := svc.Create(context.Background(), userID, CreateSubscriptionInput{
		Name:         "  Netflix ",
		Cost:         decimal.RequireFromString("15.99"),
		BillingCycle: domain.CycleMonthly,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if sub.Name != "Netflix" {
		t.Fatalf("name not trimmed: %q", sub.Name)
	}
	if sub.UserID != userID {
		t.Fatal("owner not set")
	}
	if !sub.StartDate.Equal(testNow) {
		t.Fatalf("StartDate = %v, want %v", sub.StartDate, testNow)
	}
	if want := testNow.AddDate(0, 1, 0); !sub.NextBillingDate.Equal(want) {
		t.Fatalf("NextBillingDate = %v, want %v", sub.NextBillingDate, want)
	}
	if sub.Status != domain.StatusActive || sub.Category != domain.CategoryOther {
		t.Fatalf("unexpected status/category: %s / %s", sub.Status, sub.Category)
	}
	if !sub.ReminderEnabled || sub.ReminderDaysBefore != domain.DefaultReminderDaysBefore {
		t.Fatalf("unexpected reminder defaults: %v / %d", sub.ReminderEnabled, sub.ReminderDaysBefore)
	}
	if sub.LastReminderSent != nil {
		t.Fatal("LastReminderSent must start empty")
	}
}

func TestCreateDerivesFromSuppliedStartDate(t *testing.T) {
	svc := newTestService(newSubscriptionRepoStub())
	start := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
	disabled := false

	sub, err := svc.Create(context.Background(), uuid.New(), CreateSubscriptionInput{
		Name:            "Gym",
		Cost:            decimal.NewFromInt(40),
		BillingCycle:    domain.CycleMonthly,
		StartDate:       &start,
		ReminderEnabled: &disabled,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if want := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC); !sub.NextBillingDate.Equal(want) {
		t.Fatalf("NextBillingDate = %v, want %v", sub.NextBillingDate, want)
	}
	if sub.ReminderEnabled {
		t.Fatal("explicit reminderEnabled=false was overridden")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tooMany := 45
	zero := 0
	tests := []struct {
		name  string
		input CreateSubscriptionInput
	}{
		{name: "missing cycle", input: CreateSubscriptionInput{Name: "X", Cost: decimal.NewFromInt(1)}},
		{name: "unknown cycle", input: CreateSubscriptionInput{Name: "X", Cost: decimal.NewFromInt(1), BillingCycle: "daily"}},
		{name: "blank name", input: CreateSubscriptionInput{Name: "   ", Cost: decimal.NewFromInt(1), BillingCycle: domain.CycleMonthly}},
		{name: "negative cost", input: CreateSubscriptionInput{Name: "X", Cost: decimal.NewFromInt(-1), BillingCycle: domain.CycleMonthly}},
		{name: "reminder days", input: CreateSubscriptionInput{Name: "X", Cost: decimal.NewFromInt(1), BillingCycle: domain.CycleMonthly, ReminderDaysBefore: &tooMany}},
		{name: "explicit zero reminder days", input: CreateSubscriptionInput{Name: "X", Cost: decimal.NewFromInt(1), BillingCycle: domain.CycleMonthly, ReminderDaysBefore: &zero}},
		{name: "sub-cent cost", input: CreateSubscriptionInput{Name: "X", Cost: decimal.RequireFromString("9.999"), BillingCycle: domain.CycleMonthly}},
		{name: "cost overflows column", input: CreateSubscriptionInput{Name: "X", Cost: decimal.RequireFromString("10000000000"), BillingCycle: domain.CycleMonthly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newSubscriptionRepoStub()
			_, err := newTestService(repo).Create(context.Background(), uuid.New(), tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.subs) != 0 {
				t.Fatal("invalid subscription must not be stored")
			}
		})
	}
}

func TestUpdateIsPartialAndKeepsBillingDate(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := newTestService(repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, CreateSubscriptionInput{
		Name:         "Spotify",
		Cost:         decimal.RequireFromString("9.99"),
		BillingCycle: domain.CycleMonthly,
		Category:     domain.CategoryEntertainment,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	yearly := domain.CycleYearly
	cost := decimal.RequireFromString("99.00")
	updated, err := svc.Update(context.Background(), userID, created.ID, UpdateSubscriptionInput{
		BillingCycle: &yearly,
		Cost:         &cost,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.BillingCycle != domain.CycleYearly || !updated.Cost.Equal(cost) {
		t.Fatalf("edit not applied: %+v", updated)
	}
	if updated.Name != "Spotify" || updated.Category != domain.CategoryEntertainment {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.NextBillingDate.Equal(created.NextBillingDate) {
		t.Fatalf("NextBillingDate recomputed: %v, want %v", updated.NextBillingDate, created.NextBillingDate)
	}
}

func TestUpdateRejectsInvalidEdit(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := newTestService(repo)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, CreateSubscriptionInput{
		Name:         "Cloud",
		Cost:         decimal.NewFromInt(2),
		BillingCycle: domain.CycleMonthly,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	blank := ""
	if _, err := svc.Update(context.Background(), userID, created.ID, UpdateSubscriptionInput{Name: &blank}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.subs[created.ID].Name != "Cloud" {
		t.Fatal("rejected edit must not be stored")
	}
}

func TestOwnershipScoping(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := newTestService(repo)
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateSubscriptionInput{
		Name:         "Private",
		Cost:         decimal.NewFromInt(5),
		BillingCycle: domain.CycleWeekly,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(context.Background(), stranger, created.ID); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("Get by stranger: expected not found, got %v", err)
	}
	name := "Hijacked"
	if _, err := svc.Update(context.Background(), stranger, created.ID, UpdateSubscriptionInput{Name: &name}); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("Update by stranger: expected not found, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, created.ID); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("Delete by stranger: expected not found, got %v", err)
	}

	if err := svc.Delete(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("Delete by owner: %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, created.ID); !errors.Is(err, store.ErrSubscriptionNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestStatsAndList(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := newTestService(repo)
	userID := uuid.New()

	for _, in := range []CreateSubscriptionInput{
		{Name: "A", Cost: decimal.NewFromInt(10), BillingCycle: domain.CycleMonthly},
		{Name: "B", Cost: decimal.NewFromInt(120), BillingCycle: domain.CycleYearly},
		{Name: "C", Cost: decimal.NewFromInt(30), BillingCycle: domain.CycleQuarterly, Status: domain.StatusPaused},
	} {
		if _, err := svc.Create(context.Background(), userID, in); err != nil {
			t.Fatalf("Create %s: %v", in.Name, err)
		}
	}
	if _, err := svc.Create(context.Background(), uuid.New(), CreateSubscriptionInput{
		Name: "Other user", Cost: decimal.NewFromInt(500), BillingCycle: domain.CycleMonthly,
	}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	stats, err := svc.Stats(context.Background(), userID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalSubscriptions != 2 || stats.TotalMonthly != "20.00" || stats.TotalYearly != "240.00" {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	list, err := svc.List(context.Background(), userID, ListFilter{Status: "paused"}, SortDefault)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "C" {
		t.Fatalf("unexpected list: %+v", list)
	}

	repo.listErr = errors.New("db down")
	if _, err := svc.Stats(context.Background(), userID); err == nil {
		t.Fatal("expected repository error to surface")
	}
}
