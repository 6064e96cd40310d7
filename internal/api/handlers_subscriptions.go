package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/domain"
	"github.com/subtrack/subtrack-backend/internal/export"
)

// dateValue accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
type dateValue struct {
	time.Time
}

func (d *dateValue) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: dates must be strings", domain.ErrValidation)
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: invalid date %q", domain.ErrValidation, raw)
}

func (d *dateValue) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// subscriptionRequest is the create/update body. Absent fields are nil.
type subscriptionRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	Cost               *decimal.Decimal `json:"cost"`
	BillingCycle       *string          `json:"billingCycle"`
	Category           *string          `json:"category"`
	StartDate          *dateValue       `json:"startDate"`
	NextBillingDate    *dateValue       `json:"nextBillingDate"`
	Status             *string          `json:"status"`
	ReminderEnabled    *bool            `json:"reminderEnabled"`
	ReminderDaysBefore *int             `json:"reminderDaysBefore"`
	Website            *string          `json:"website"`
}

func (req subscriptionRequest) toCreateInput() (app.CreateSubscriptionInput, error) {
	var input app.CreateSubscriptionInput

	if req.Name == nil {
		return input, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if req.Cost == nil {
		return input, fmt.Errorf("%w: cost is required", domain.ErrValidation)
	}
	if req.BillingCycle == nil {
		return input, fmt.Errorf("%w: billingCycle is required", domain.ErrValidation)
	}

	cycle, err := domain.ParseBillingCycle(*req.BillingCycle)
	if err != nil {
		return input, err
	}
	input.Name = *req.Name
	input.Cost = *req.Cost
	input.BillingCycle = cycle

	if req.Category != nil {
		if input.Category, err = domain.ParseCategory(*req.Category); err != nil {
			return input, err
		}
	}
	if req.Status != nil {
		if input.Status, err = domain.ParseStatus(*req.Status); err != nil {
			return input, err
		}
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Website != nil {
		input.Website = *req.Website
	}
	input.StartDate = req.StartDate.ptr()
	input.NextBillingDate = req.NextBillingDate.ptr()
	input.ReminderEnabled = req.ReminderEnabled
	input.ReminderDaysBefore = req.ReminderDaysBefore

	return input, nil
}

func (req subscriptionRequest) toUpdateInput() (app.UpdateSubscriptionInput, error) {
	input := app.UpdateSubscriptionInput{
		Name:               req.Name,
		Description:        req.Description,
		Cost:               req.Cost,
		StartDate:          req.StartDate.ptr(),
		NextBillingDate:    req.NextBillingDate.ptr(),
		ReminderEnabled:    req.ReminderEnabled,
		ReminderDaysBefore: req.ReminderDaysBefore,
		Website:            req.Website,
	}

	if req.BillingCycle != nil {
		cycle, err := domain.ParseBillingCycle(*req.BillingCycle)
		if err != nil {
			return input, err
		}
		input.BillingCycle = &cycle
	}
	if req.Category != nil {
		category, err := domain.ParseCategory(*req.Category)
		if err != nil {
			return input, err
		}
		input.Category = &category
	}
	if req.Status != nil {
		status, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return input, err
		}
		input.Status = &status
	}

	return input, nil
}

// subscriptionResponse adds the derived costs to the stored record.
type subscriptionResponse struct {
	domain.Subscription
	MonthlyCost string `json:"monthlyCost"`
	YearlyCost  string `json:"yearlyCost"`
}

func newSubscriptionResponse(sub domain.Subscription) subscriptionResponse {
	return subscriptionResponse{
		Subscription: sub,
		MonthlyCost:  sub.MonthlyCost().StringFixed(2),
		YearlyCost:   sub.YearlyCost().StringFixed(2),
	}
}

func decodeSubscriptionRequest(r *http.Request) (subscriptionRequest, error) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request payload.")
}

func (h *Handler) ListSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	filter := app.ListFilter{
		Status:   strings.TrimSpace(query.Get("status")),
		Category: strings.TrimSpace(query.Get("category")),
	}
	key := app.ParseSortKey(strings.TrimSpace(query.Get("sort")))

	subs, err := h.subscriptions.List(r.Context(), userID, filter, key)
	if err != nil {
		h.handleServiceError(w, err, "list_subscriptions")
		return
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, newSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	req, err := decodeSubscriptionRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	input, err := req.toCreateInput()
	if err != nil {
		h.handleServiceError(w, err, "create_subscription")
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), userID, input)
	if err != nil {
		h.handleServiceError(w, err, "create_subscription")
		return
	}

	writeJSON(w, http.StatusCreated, newSubscriptionResponse(*sub))
}

func (h *Handler) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveOwnedID(w, r)
	if !ok {
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err, "get_subscription")
		return
	}

	writeJSON(w, http.StatusOK, newSubscriptionResponse(*sub))
}

func (h *Handler) UpdateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveOwnedID(w, r)
	if !ok {
		return
	}

	req, err := decodeSubscriptionRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	input, err := req.toUpdateInput()
	if err != nil {
		h.handleServiceError(w, err, "update_subscription")
		return
	}

	sub, err := h.subscriptions.Update(r.Context(), userID, id, input)
	if err != nil {
		h.handleServiceError(w, err, "update_subscription")
		return
	}

	writeJSON(w, http.StatusOK, newSubscriptionResponse(*sub))
}

func (h *Handler) DeleteSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.resolveOwnedID(w, r)
	if !ok {
		return
	}

	if err := h.subscriptions.Delete(r.Context(), userID, id); err != nil {
		h.handleServiceError(w, err, "delete_subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.subscriptions.Stats(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "stats")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Categories)
}

// ExportHandler streams the caller's subscriptions as an XLSX workbook.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subs, summary, err := h.subscriptions.Snapshot(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "export")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, subs, summary); err != nil {
		h.handleServiceError(w, err, "export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) resolveOwnedID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid subscription ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
