package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"money-manager/internal/model"
	"money-manager/internal/service"
	"money-manager/pkg/apierror"
)

type TransactionHandler struct {
	service *service.TransactionService
	reports *service.ReportService
}

func NewTransactionHandler(service *service.TransactionService, reports *service.ReportService) *TransactionHandler {
	return &TransactionHandler{service: service, reports: reports}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.CreateTransactionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	transaction, err := h.service.Create(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":        "Transaction created successfully",
		"transaction_id": transaction.ID,
	}, nil)
}

// List serves both the plain listing and /search; they share one filter set.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.UserID = claims.UserID

	items, meta, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TransactionList{Transactions: items}, &meta)
}

func (h *TransactionHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	suggestions, err := h.service.Suggestions(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, suggestions, nil)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	transaction, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transaction, nil)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.UpdateTransactionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	transaction, err := h.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transaction, nil)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Transaction deleted successfully"}, nil)
}

func (h *TransactionHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.BulkDeleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.BulkDelete(r.Context(), claims.UserID, payload.TransactionIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *TransactionHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	clone, err := h.service.Duplicate(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":        "Transaction duplicated successfully",
		"transaction_id": clone.ID,
		"transaction":    clone,
	}, nil)
}

func (h *TransactionHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	file, err := h.reports.ExportTransactions(r.Context(), claims.UserID, filter, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeFile(w, file)
}

// parseTransactionFilter reads the listing query string. Date and amount
// bounds accept both naming schemes used by clients.
func parseTransactionFilter(r *http.Request) (model.TransactionFilter, error) {
	from, to, err := service.ParseDateRange(
		firstQuery(r, "date_from", "start_date"),
		firstQuery(r, "date_to", "end_date"),
	)
	if err != nil {
		return model.TransactionFilter{}, err
	}

	amountMin, err := parseOptionalAmount(firstQuery(r, "amount_min", "min_amount"), "amount_min")
	if err != nil {
		return model.TransactionFilter{}, err
	}
	amountMax, err := parseOptionalAmount(firstQuery(r, "amount_max", "max_amount"), "amount_max")
	if err != nil {
		return model.TransactionFilter{}, err
	}

	return model.TransactionFilter{
		Search:     firstQuery(r, "search", "q"),
		Type:       firstQuery(r, "type"),
		CategoryID: firstQuery(r, "category_id"),
		DateFrom:   from,
		DateTo:     to,
		AmountMin:  amountMin,
		AmountMax:  amountMax,
		Page:       parseIntOrDefault(firstQuery(r, "page"), 1),
		PerPage:    parseIntOrDefault(firstQuery(r, "per_page", "limit"), 10),
		SortBy:     firstQuery(r, "sort_by"),
		SortOrder:  firstQuery(r, "sort_order"),
	}, nil
}

func parseOptionalAmount(raw string, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, apierror.BadRequest("invalid "+field, raw)
	}
	return &value, nil
}
