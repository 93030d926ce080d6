package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"adaptivequiz/internal/model"
	"adaptivequiz/internal/service"
	"adaptivequiz/internal/transport/rest/middleware"
)

// SelectionHandler exposes the adaptive selection engine
type SelectionHandler struct {
	selectionSvc *service.SelectionService
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(selectionSvc *service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selectionSvc: selectionSvc}
}

// NextQuestions handles POST /v1/adaptive/next-questions. Engine fallbacks
// are successful responses carrying the diagnostic in "error".
func (h *SelectionHandler) NextQuestions(w http.ResponseWriter, r *http.Request) {
	var req model.NextQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondentID := middleware.GetRespondentID(r.Context())
	result, err := h.selectionSvc.NextQuestions(r.Context(), respondentID, req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.NextQuestionsResponse{
		NextQuestions: result.NextQuestions,
		IsAdaptive:    result.UsedAdaptiveLogic,
		Success:       true,
		Error:         result.DiagnosticError,
	})
}
