package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
)

func (h *Handler) GenerateWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	var req struct {
		WeekStart              string `json:"weekStart" validate:"required"`
		ConsiderFairness       *bool  `json:"considerFairness"`
		PrioritizePreferences  bool   `json:"prioritizePreferences"`
		AllowPartialGeneration *bool  `json:"allowPartialGeneration"`
		NotifyParticipants     bool   `json:"notifyParticipants"`
		DryRun                 bool   `json:"dryRun"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		h.errorResponse(w, r, "Invalid week start date")
		return
	}

	opts := scheduling.GenerateScheduleOptions{
		GroupID:                group.ID,
		WeekStartDate:          weekStart,
		GeneratedBy:            myInfo.ID,
		ConsiderFairness:       true,
		PrioritizePreferences:  req.PrioritizePreferences,
		AllowPartialGeneration: true,
		NotifyParticipants:     req.NotifyParticipants,
		DryRun:                 req.DryRun,
	}
	if req.ConsiderFairness != nil {
		opts.ConsiderFairness = *req.ConsiderFairness
	}
	if req.AllowPartialGeneration != nil {
		opts.AllowPartialGeneration = *req.AllowPartialGeneration
	}

	writeResult(h, w, r, h.scheduler.GenerateWeeklySchedule(opts))
}

func (h *Handler) GetGroupSchedules(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	query := scheduling.ScheduleQuery{GroupID: &group.ID}

	if raw := r.URL.Query().Get("week"); raw != "" {
		week, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.errorResponse(w, r, "Invalid week query parameter")
			return
		}
		query.WeekStart = &week
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ScheduleStatus(raw)
		query.Status = &status
	}

	writeResult(h, w, r, h.scheduler.GetSchedules(query))
}

func (h *Handler) GetFairnessMetrics(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)
	writeResult(h, w, r, h.scheduler.CalculateFairnessMetrics(group.ID))
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	writeResult(h, w, r, h.scheduler.GetSchedule(chi.URLParam(r, "id")))
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status *string `json:"status" validate:"omitempty,oneof=draft published archived"`
		Notes  *string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	update := scheduling.UpdateScheduleRequest{
		ID:    chi.URLParam(r, "id"),
		Notes: req.Notes,
	}
	if req.Status != nil {
		status := domain.ScheduleStatus(*req.Status)
		update.Status = &status
	}

	writeResult(h, w, r, h.scheduler.UpdateSchedule(update))
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	writeResult(h, w, r, h.scheduler.DeleteSchedule(chi.URLParam(r, "id")))
}

func (h *Handler) GetGroupTrips(w http.ResponseWriter, r *http.Request) {
	group := r.Context().Value(GroupCtx).(*domain.Group)

	trips, err := h.repository.GetTripsByGroupID(group.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Trips fetched", trips)
}

func (h *Handler) GetScheduleTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.repository.GetTripsByScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Trips fetched", trips)
}
