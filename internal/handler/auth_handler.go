package handler

import (
	"fmt"
	"net/http"

	"github.com/AndreiDascalu/ANL2024/internal/auth"
)

// AuthHandler issues API tokens.
type AuthHandler struct {
	jwtMgr *auth.JWTManager
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(jwtMgr *auth.JWTManager) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr}
}

// Login handles POST /auth/login — issues a token pair for a named client.
// There is no user database; any client name gets a token. The endpoint
// exists so the API surface can still be locked behind a shared secret.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(fmt.Sprintf("client-%s", req.Name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /auth/refresh — exchanges a refresh token for a new pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
