package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidall28/trocasequebras/internal/evidence"
	"github.com/vidall28/trocasequebras/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

type failureResponse struct {
	ItemID string `json:"item_id"`
	Ref    string `json:"ref"`
	Error  string `json:"error"`
}

func failuresResponse(failures []model.FetchFailure) []failureResponse {
	out := make([]failureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureResponse{ItemID: f.ItemID, Ref: f.Ref, Error: f.Err.Error()})
	}
	return out
}

// writeError maps domain errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalid    *model.ValidationError
		transition *model.InvalidTransitionError
		empty      *model.EmptyExportWarning
		corrupted  *model.StoreCorruptedError
	)

	switch {
	case errors.As(err, &invalid):
		jsonError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, "not permitted")
	case errors.Is(err, model.ErrNotFound), errors.Is(err, evidence.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.As(err, &transition):
		jsonError(w, http.StatusConflict, transition.Error())
	case errors.As(err, &empty):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    empty.Error(),
			"failures": failuresResponse(empty.Failures),
		})
	case errors.As(err, &corrupted):
		slog.Error("store corrupted", "error", err)
		jsonError(w, http.StatusInternalServerError, "stored data is corrupted")
	case errors.Is(err, context.Canceled):
		slog.Warn("request cancelled", "error", err)
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
