package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"adaptivequiz/internal/model"
	"adaptivequiz/internal/service"
	"adaptivequiz/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// ResultHandler handles completed tests and history
type ResultHandler struct {
	resultSvc *service.ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(resultSvc *service.ResultService) *ResultHandler {
	return &ResultHandler{resultSvc: resultSvc}
}

// Complete handles POST /v1/results
func (h *ResultHandler) Complete(w http.ResponseWriter, r *http.Request) {
	respondentID := middleware.GetRespondentID(r.Context())
	if respondentID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CompleteTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.resultSvc.Complete(r.Context(), respondentID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNoAnswers) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Recent handles GET /v1/results/recent
func (h *ResultHandler) Recent(w http.ResponseWriter, r *http.Request) {
	respondentID := middleware.GetRespondentID(r.Context())
	if respondentID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	results, err := h.resultSvc.Recent(r.Context(), respondentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// Get handles GET /v1/results/{id}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondentID := middleware.GetRespondentID(r.Context())
	if respondentID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.resultSvc.Get(r.Context(), respondentID, mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
