package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/auth"
	"github.com/seqlabs/genoportal/internal/session"
	"github.com/seqlabs/genoportal/internal/store"
	"github.com/seqlabs/genoportal/pkg/models"
)

// NewRegisterHandler returns an http.HandlerFunc for POST /api/v1/auth/register.
func NewRegisterHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username        string `json:"username"`
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Username == "" || req.Email == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "username and email are required", nil)
			return
		}
		if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "passwords do not match", nil)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		user := &models.User{
			ID:           uuid.New(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}
		if err := st.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "ALREADY_EXISTS", "Username or email already registered", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", nil)
			return
		}

		response.Created(w, map[string]any{
			"id":       user.ID,
			"username": user.Username,
		})
	}
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
// A successful login issues an opaque bearer session token.
func NewLoginHandler(st store.Store, sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Username == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required", nil)
			return
		}

		user, err := st.GetUserByUsername(r.Context(), req.Username)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to look up user", nil)
			return
		}
		// Same response for unknown user and wrong password.
		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Usuario o contraseña incorrectos", nil)
			return
		}

		sess, err := sessions.Create(r.Context(), user.ID, user.Username)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session", nil)
			return
		}

		response.JSON(w, map[string]any{
			"token":    sess.Token,
			"username": sess.Username,
		})
	}
}

// NewLogoutHandler returns an http.HandlerFunc for POST /api/v1/auth/logout.
func NewLogoutHandler(sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}
		if err := sessions.Delete(r.Context(), sess.Token); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to end session", nil)
			return
		}
		response.JSON(w, map[string]any{"mensaje": "Has cerrado sesión"})
	}
}
