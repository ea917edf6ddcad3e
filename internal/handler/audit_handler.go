package handler

import (
	"net/http"

	"money-manager/internal/model"
	"money-manager/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.service.Query(r.Context(), model.AuditQuery{
		Action:   firstQuery(r, "action"),
		ActorID:  firstQuery(r, "actor_id"),
		Status:   firstQuery(r, "status"),
		Resource: firstQuery(r, "resource"),
		From:     firstQuery(r, "from"),
		To:       firstQuery(r, "to"),
		Page:     parseIntOrDefault(firstQuery(r, "page"), 1),
		Limit:    parseIntOrDefault(firstQuery(r, "limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
