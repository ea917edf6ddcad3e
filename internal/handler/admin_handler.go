package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"money-manager/internal/model"
	"money-manager/internal/service"
)

type AdminHandler struct {
	service *service.AdminService
	reports *service.ReportService
}

func NewAdminHandler(service *service.AdminService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{service: service, reports: reports}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, meta, err := h.service.ListUsers(r.Context(), model.UserQuery{
		Search:  firstQuery(r, "search"),
		Page:    parseIntOrDefault(firstQuery(r, "page"), 1),
		PerPage: parseIntOrDefault(firstQuery(r, "per_page", "limit"), 20),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UserList{Users: users}, &meta)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AdminHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleStatus(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "User deleted successfully"}, nil)
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.UserID = firstQuery(r, "user_id")
	filter.PerPage = parseIntOrDefault(firstQuery(r, "per_page", "limit"), 20)

	items, meta, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TransactionList{Transactions: items}, &meta)
}

func (h *AdminHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.UserID = firstQuery(r, "user_id")

	file, err := h.reports.ExportAllTransactions(r.Context(), filter, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, file)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *AdminHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var payload model.SystemReportRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	file, err := h.reports.GenerateSystemReport(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, file)
}
