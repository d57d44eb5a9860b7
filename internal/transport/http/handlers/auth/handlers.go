package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"punchclock/internal/domain/audit"
	"punchclock/internal/domain/auth"
	"punchclock/internal/platform/config"
	"punchclock/internal/requestctx"
	"punchclock/internal/transport/http/api"
	"punchclock/internal/transport/http/middleware"
	"punchclock/internal/transport/http/shared"
)

const tokenTTL = 7 * 24 * time.Hour

type Handler struct {
	Store  *auth.Store
	Cfg    config.Config
	Mailer auth.Mailer
	Audit  *audit.Service
}

func NewHandler(store *auth.Store, cfg config.Config, mailer auth.Mailer, auditLog *audit.Service) *Handler {
	return &Handler{Store: store, Cfg: cfg, Mailer: mailer, Audit: auditLog}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Post("/reset", h.HandleResetPassword)
		r.Post("/change-password", h.HandleChangePassword)
		r.Post("/mfa/setup", h.HandleMFASetup)
		r.Post("/mfa/enable", h.HandleMFAEnable)
		r.Post("/mfa/disable", h.HandleMFADisable)
	})
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if !h.Cfg.AllowSelfSignup {
		api.Fail(w, http.StatusForbidden, "signup_disabled", "self signup is disabled", requestID)
		return
	}

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if payload.Password != "" && len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if payload.Email != "" && !strings.Contains(payload.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if v.Reject(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to create account", requestID)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	var user auth.User
	for attempt := 0; attempt < 3; attempt++ {
		number, err := auth.NewEmployeeNumber()
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "signup_failed", "failed to create account", requestID)
			return
		}
		user, err = h.Store.CreateUser(r.Context(), strings.TrimSpace(payload.Name), email, hash, number, strings.TrimSpace(payload.Department), auth.RoleEmployee)
		if errors.Is(err, auth.ErrEmployeeNumberTaken) {
			continue
		}
		if errors.Is(err, auth.ErrEmailTaken) {
			api.Fail(w, http.StatusConflict, "email_taken", "email is already registered", requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "signup_failed", "failed to create account", requestID)
			return
		}
		break
	}
	if user.ID == "" {
		api.Fail(w, http.StatusInternalServerError, "signup_failed", "failed to create account", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.ID, "auth.register", "user", user.ID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "auth.register", "err", err)
	}

	token, err := auth.GenerateToken(h.Cfg.JWTSecret, auth.Claims{UserID: user.ID, Role: user.Role}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Created(w, map[string]any{
		"token": token,
		"user":  user,
	}, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := h.Store.FindActiveByEmail(r.Context(), email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
			return
		}
		if user.MFASecret == "" || !totp.Validate(payload.MFACode, user.MFASecret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
			return
		}
	}

	token, err := auth.GenerateToken(h.Cfg.JWTSecret, auth.Claims{UserID: user.ID, Role: user.Role}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "role": user.Role},
	}, requestID)
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "new password must be at least 8 characters", requestID)
		return
	}

	hash, err := h.Store.PasswordHash(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := auth.CheckPassword(hash, payload.CurrentPassword); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", requestID)
		return
	}

	newHash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to update password", requestID)
		return
	}
	if err := h.Store.UpdatePassword(r.Context(), user.UserID, newHash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "auth.change_password", "user", user.UserID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "auth.change_password", "err", err)
	}
	api.Success(w, map[string]string{"status": "password_changed"}, requestID)
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	userID, err := h.Store.UserIDByEmail(r.Context(), email)
	if err == nil {
		token, err := generateToken()
		if err != nil {
			slog.Warn("password reset token generation failed", "userId", userID, "err", err)
			api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
			return
		}
		expires := time.Now().Add(2 * time.Hour)
		if err := h.Store.CreatePasswordReset(r.Context(), userID, auth.HashToken(token), expires); err != nil {
			slog.Warn("password reset insert failed", "userId", userID, "err", err)
		} else if err := h.Mailer.Send(r.Context(), h.Cfg.EmailFrom, email,
			"Password reset",
			"Use this token to reset your password: "+token+"\nIt expires in 2 hours.",
		); err != nil {
			slog.Warn("password reset email failed", "userId", userID, "err", err)
		}
	}

	// The response never reveals whether the email exists.
	api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "new password must be at least 8 characters", requestID)
		return
	}

	hashed := auth.HashToken(payload.Token)
	userID, err := h.Store.PasswordResetUserID(r.Context(), hashed)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired token", requestID)
		return
	}

	newHash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to update password", requestID)
		return
	}
	if err := h.Store.UpdatePassword(r.Context(), userID, newHash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", requestID)
		return
	}
	if err := h.Store.MarkPasswordResetUsed(r.Context(), hashed); err != nil {
		slog.Warn("password reset mark used failed", "err", err)
	}

	if err := h.Audit.Record(r.Context(), userID, "auth.reset_password", "user", userID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "auth.reset_password", "err", err)
	}
	api.Success(w, map[string]string{"status": "password_reset"}, requestID)
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "PunchClock",
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestID)
		return
	}
	secret := key.Secret()
	if err := h.Store.SetMFASecret(r.Context(), user.UserID, secret); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestID)
		return
	}

	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": key.URL()}, requestID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	secret, err := h.Store.MFASecret(r.Context(), user.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
		return
	}

	if err := h.Store.SetMFAEnabled(r.Context(), user.UserID, true); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_enable_failed", "failed to enable mfa", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "auth.mfa_enabled", "user", user.UserID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "auth.mfa_enabled", "err", err)
	}
	api.Success(w, map[string]string{"status": "enabled"}, requestID)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	secret, err := h.Store.MFASecret(r.Context(), user.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
		return
	}

	if err := h.Store.SetMFAEnabled(r.Context(), user.UserID, false); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_disable_failed", "failed to disable mfa", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "auth.mfa_disabled", "user", user.UserID, requestID); err != nil {
		slog.Warn("audit record failed", "action", "auth.mfa_disabled", "err", err)
	}
	api.Success(w, map[string]string{"status": "disabled"}, requestID)
}

func generateToken() (string, error) {
	buff := make([]byte, 32)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buff), nil
}
