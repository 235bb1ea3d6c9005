package handler

import (
	"net/http"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
)

// parseWeekQuery reads the ?week=YYYY-MM-DD query parameter, defaulting to
// the current week.
func parseWeekQuery(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return time.Now().UTC(), true
	}

	week, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return week, true
}

func (h *Handler) SubmitWeeklyPreferences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	var req struct {
		WeekStart   string                          `json:"weekStart" validate:"required"`
		Preferences map[string]domain.DayPreference `json:"preferences" validate:"required"`
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

	res := h.scheduler.SubmitWeeklyPreferences(scheduling.SubmitPreferencesRequest{
		UserID:    myInfo.ID,
		GroupID:   group.ID,
		WeekStart: weekStart,
		Days:      req.Preferences,
	})

	writeResult(h, w, r, res)
}

func (h *Handler) GetMyWeeklyPreferences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	week, ok := parseWeekQuery(r)
	if !ok {
		h.errorResponse(w, r, "Invalid week query parameter")
		return
	}

	writeResult(h, w, r, h.scheduler.GetWeeklyPreferences(myInfo.ID, group.ID, week))
}

func (h *Handler) UpdateWeeklyPreferences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	var req struct {
		WeekStart   string                          `json:"weekStart" validate:"required"`
		Preferences map[string]domain.DayPreference `json:"preferences" validate:"required"`
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

	res := h.scheduler.UpdateWeeklyPreferences(scheduling.SubmitPreferencesRequest{
		UserID:    myInfo.ID,
		GroupID:   group.ID,
		WeekStart: weekStart,
		Days:      req.Preferences,
	})

	writeResult(h, w, r, res)
}

func (h *Handler) GetPreferenceStatus(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	week, ok := parseWeekQuery(r)
	if !ok {
		h.errorResponse(w, r, "Invalid week query parameter")
		return
	}

	writeResult(h, w, r, h.scheduler.GetPreferenceStatus(group.ID, week, myInfo.ID))
}

func (h *Handler) SendPreferenceReminders(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	group := r.Context().Value(GroupCtx).(*domain.Group)

	var req struct {
		WeekStart string `json:"weekStart" validate:"required"`
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

	writeResult(h, w, r, h.scheduler.SendPreferenceReminders(group.ID, weekStart, myInfo.ID))
}
