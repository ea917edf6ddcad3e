package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"money-manager/internal/model"
	"money-manager/internal/service"
)

type CategoryHandler struct {
	service *service.CategoryService
}

func NewCategoryHandler(service *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.CreateCategoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.Create(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":     "Category created successfully",
		"category_id": category.ID,
		"category":    category,
	}, nil)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	categories, err := h.service.List(r.Context(), claims.UserID, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.CategoryList{Categories: categories}, nil)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	category, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.UpdateCategoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Category deleted successfully"}, nil)
}
