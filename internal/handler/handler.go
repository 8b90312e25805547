package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	msgUserNotFound     = "User not found"
	msgInternal         = "Internal server error"
	msgInvalidBody      = "Invalid request body"
	msgNotAuthorized    = "Not authorized, no token"
	msgTokenFailed      = "Not authorized, token failed"
	msgForbidden        = "You do not have permission to perform this action"
	msgQRCodeFailed     = "Failed to generate QR code"
	msgInvalidLogin     = "Invalid email or password"
	msgEmailInUse       = "Email already in use"
	msgRegNumberInUse   = "Registration number already in use"
	msgRouteNotFound    = "Route not found"
	msgMethodNotAllowed = "Method not allowed"
)

// envelope - общий формат всех ответов API.
type envelope struct {
	Success     bool   `json:"success"`
	Token       string `json:"token,omitempty"`
	Count       *int64 `json:"count,omitempty"`
	TotalPages  *int   `json:"totalPages,omitempty"`
	CurrentPage *int   `json:"currentPage,omitempty"`
	Message     string `json:"message,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// respondWithJSON - отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError - отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, envelope{Success: false, Message: message}, logger)
}

// respondWithData - успешный ответ с данными.
func respondWithData(w http.ResponseWriter, code int, data any, logger *slog.Logger) {
	respondWithJSON(w, code, envelope{Success: true, Data: data}, logger)
}

// respondWithDomainError переводит ошибку бизнес-логики в HTTP-статус.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	code, message := classifyError(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	respondWithError(w, code, message, logger)
}

func classifyError(err error) (int, string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, domain.ErrEmailInUse):
		return http.StatusBadRequest, msgEmailInUse
	case errors.Is(err, domain.ErrDuplicateRegistrationNumber):
		return http.StatusBadRequest, msgRegNumberInUse
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidLogin
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, msgTokenFailed
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, domain.ErrQRGenerationFailed):
		return http.StatusInternalServerError, msgQRCodeFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// decodeJSON читает тело запроса; ошибки формата дат возвращаются как есть.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return validationErr
		}
		return domain.NewValidationError(msgInvalidBody)
	}
	return nil
}

// userIDParam разбирает {id}. Некорректный UUID не может соответствовать
// ни одному пользователю, поэтому это ErrUserNotFound.
func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrUserNotFound
	}
	return id, nil
}
