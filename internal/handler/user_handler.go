package handler

import (
	"net/http"

	"money-manager/internal/model"
	"money-manager/internal/service"
)

// UserHandler serves the authenticated user's own account and insights.
type UserHandler struct {
	profile  *service.ProfileService
	insights *service.InsightsService
	reports  *service.ReportService
}

func NewUserHandler(profile *service.ProfileService, insights *service.InsightsService, reports *service.ReportService) *UserHandler {
	return &UserHandler{profile: profile, insights: insights, reports: reports}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	user, err := h.profile.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.UpdateProfileRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profile.UpdateProfile(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profile.ChangePassword(r.Context(), claims.UserID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Password changed successfully"}, nil)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.DeleteAccountRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profile.DeleteAccount(r.Context(), claims.UserID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Account deleted successfully"}, nil)
}

func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	dashboard, err := h.insights.Dashboard(r.Context(), claims.UserID, r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, dashboard, nil)
}

func (h *UserHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	stats, err := h.insights.Statistics(r.Context(), claims.UserID,
		firstQuery(r, "date_from", "start_date"),
		firstQuery(r, "date_to", "end_date"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *UserHandler) CategoryChart(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	chart, err := h.insights.CategoryChart(r.Context(), claims.UserID,
		firstQuery(r, "type"),
		firstQuery(r, "date_from", "start_date"),
		firstQuery(r, "date_to", "end_date"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, chart, nil)
}

func (h *UserHandler) MonthlyTrend(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	chart, err := h.insights.MonthlyTrend(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, chart, nil)
}

func (h *UserHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.UserReportRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	file, err := h.reports.GenerateUserReport(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, file)
}
