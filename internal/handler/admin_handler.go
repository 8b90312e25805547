package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
)

// AdminHandler - обработчик администрирования пользователей.
type AdminHandler struct {
	adminUseCase usecase.AdminUseCase
	logger       *slog.Logger
}

// NewAdminHandler создаёт новый экземпляр AdminHandler.
func NewAdminHandler(uc usecase.AdminUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{adminUseCase: uc, logger: logger}
}

type updateUserRequest struct {
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	DateOfBirth domain.Date `json:"dateOfBirth"`
	Role        string      `json:"role"`
}

// ListUsers - GET /api/admin/users?page=&limit=.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = usecase.DefaultPage
	}
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		limitParam = r.URL.Query().Get("pageSize")
	}
	limit, _ := strconv.Atoi(limitParam)
	if limit <= 0 {
		limit = usecase.DefaultPageSize
	}

	h.logger.Info("processing request",
		"endpoint", "ListUsers",
		"page", page,
		"limit", limit,
	)

	result, err := h.adminUseCase.ListUsers(r.Context(), page, limit)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{
		Success:     true,
		Count:       &result.TotalCount,
		TotalPages:  &result.TotalPages,
		CurrentPage: &result.CurrentPage,
		Data:        result.Items,
	}, h.logger)
}

// GetUser - GET /api/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	user, err := h.adminUseCase.GetUser(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithData(w, http.StatusOK, user, h.logger)
}

// UpdateUser - PUT /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("processing request", "endpoint", "UpdateUser", "user_id", id)

	user, err := h.adminUseCase.UpdateUser(r.Context(), id, usecase.UpdateUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Role:        req.Role,
	})
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithData(w, http.StatusOK, user, h.logger)
}

// DeleteUser - DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	if err := h.adminUseCase.DeleteUser(r.Context(), id); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("user deleted by admin", "user_id", id)
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Message: "User deleted successfully"}, h.logger)
}

// RegenerateQRCode - POST /api/admin/users/{id}/qrcode.
func (h *AdminHandler) RegenerateQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	code, err := h.adminUseCase.RegenerateQRCode(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithData(w, http.StatusOK, qrCodeResponse{QRCode: code}, h.logger)
}
