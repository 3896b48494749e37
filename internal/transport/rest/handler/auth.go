package handler

import (
	"encoding/json"
	"errors"
	"hugoquiz/internal/model"
	"hugoquiz/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// AuthHandler handles operator authentication
type AuthHandler struct {
	authSvc *service.AuthService
	log     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.Warn("operator login rejected", zap.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("operator logged in", zap.String("operator_id", resp.OperatorID))
	writeJSON(w, http.StatusOK, resp)
}
