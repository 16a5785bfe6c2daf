package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeBrickError maps the brick error taxonomy onto HTTP status codes.
func writeBrickError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case brick.IsInvalidOperation(err), brick.IsConstruction(err):
		return http.StatusBadRequest
	case brick.IsResource(err), brick.IsKeyNotFound(err):
		return http.StatusNotFound
	case brick.IsCancelled(err):
		return http.StatusRequestTimeout
	case brick.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case brick.IsInvocation(err), brick.IsServerStart(err), brick.IsServerStop(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
