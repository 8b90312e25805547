package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
)

// AuthHandler - обработчик регистрации, входа и профиля.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, logger: logger}
}

type registerRequest struct {
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DateOfBirth domain.Date `json:"dateOfBirth"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type qrCodeResponse struct {
	QRCode string `json:"qrCode"`
}

// Register - POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("processing request", "endpoint", "Register", "email", req.Email)

	res, err := h.authUseCase.Register(r.Context(), usecase.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, envelope{Success: true, Token: res.Token, Data: res.User}, h.logger)
}

// Login - POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	res, err := h.authUseCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	h.logger.Info("user logged in", "user_id", res.User.ID)
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Token: res.Token, Data: res.User}, h.logger)
}

// GetProfile - GET /api/profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, msgNotAuthorized, h.logger)
		return
	}

	user, err := h.authUseCase.GetProfile(r.Context(), current.ID)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithData(w, http.StatusOK, user, h.logger)
}

// RegenerateQRCode - POST /api/profile/qrcode.
func (h *AuthHandler) RegenerateQRCode(w http.ResponseWriter, r *http.Request) {
	current, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, msgNotAuthorized, h.logger)
		return
	}

	code, err := h.authUseCase.RegenerateOwnQRCode(r.Context(), current.ID)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithData(w, http.StatusOK, qrCodeResponse{QRCode: code}, h.logger)
}

// ChangePassword - PUT /api/profile/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	current, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, msgNotAuthorized, h.logger)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	err := h.authUseCase.ChangePassword(r.Context(), current.ID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		respondWithError(w, http.StatusUnauthorized, "Current password is incorrect", h.logger)
		return
	}
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, envelope{Success: true, Message: "Password updated successfully"}, h.logger)
}
