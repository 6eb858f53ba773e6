package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/logger"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindValidation, domain.KindInvalidTransition:
		return http.StatusBadRequest
	case domain.KindInvalidState, domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	msg := "internal server error"
	var de *domain.Error
	if errors.As(err, &de) && kind != domain.KindInternal {
		msg = de.Message
	}
	writeJSON(w, statusFor(kind), envelope{Success: false, Message: msg, Kind: string(kind)})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Validation("invalid request body: %v", err)
	}
	return nil
}
