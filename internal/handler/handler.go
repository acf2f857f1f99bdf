package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"shipsync/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: errorCodeForStatus(status), Message: message})
}

// writeDomainError maps a service error onto an HTTP response. Domain errors
// carry their own code and message; anything else becomes a 500 with the
// fallback message.
func writeDomainError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := statusForCode(domainErr.Code)
		logger.Error().Str("error", domainErr.Message).Int("status", status).Msg("handler error")
		writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message})
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: model.ErrCodeInternalError, Message: fallback})
}

// statusForCode maps domain error codes onto HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeSourceNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateOrder, model.ErrCodeDuplicateSource:
		return http.StatusConflict
	case model.ErrCodeMissingField, model.ErrCodeMissingCredentials,
		model.ErrCodeMissingIdentifier, model.ErrCodeInvalidState,
		model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeMalformedResponse:
		return http.StatusBadGateway
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func errorCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return model.ErrCodeBadRequest
	case http.StatusNotFound:
		return model.ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return model.ErrCodeMethodNotAllowed
	case http.StatusUnauthorized:
		return model.ErrCodeUnauthorised
	}
	return model.ErrCodeInternalError
}
