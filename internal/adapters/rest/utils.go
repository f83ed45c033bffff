package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"net/http"
	"strconv"
)

const maxRequestBodyBytes = 32 << 20

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}

// statusForError: сначала конкретная причина, потом общий откат транзакции
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSlug):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeDomainError переводит доменную ошибку в HTTP-ответ. Текст внутренних ошибок наружу не уходит.
func writeDomainError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", err, nil)
	} else {
		logger.Warn("Request rejected", port.Fields{"status_code": status, "error": err.Error()})
	}

	switch status {
	case http.StatusNotFound:
		WriteJSONError(w, status, "Property not found")
	case http.StatusConflict:
		WriteJSONError(w, status, "Slug is already taken")
	case http.StatusUnprocessableEntity:
		resp := ErrorResponse{Error: "Validation failed"}
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			resp.Field = vErr.Field
			resp.Reason = vErr.Reason
		}
		RespondWithJSON(w, status, resp)
	default:
		if errors.Is(err, domain.ErrTransactionAborted) {
			WriteJSONError(w, status, "Transaction aborted")
			return
		}
		WriteJSONError(w, status, "Internal server error")
	}
}

// parseIDParam - положительный int64 из URL
func parseIDParam(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// getLimitOrDefault читает ?limit=, пустое значение - def, допускается 1..domain.MaxPerPage
func getLimitOrDefault(r *http.Request, def int) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > domain.MaxPerPage {
		return 0, domain.NewValidationError("limit", fmt.Sprintf("must be an integer between 1 and %d", domain.MaxPerPage))
	}
	return limit, nil
}
