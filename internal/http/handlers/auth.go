package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spendsmart/spendsmart/internal/config"
	"github.com/spendsmart/spendsmart/internal/domain/user"
	"github.com/spendsmart/spendsmart/internal/http/middlewares"
	"github.com/spendsmart/spendsmart/internal/observability"
	"github.com/spendsmart/spendsmart/internal/repo/postgres"
	"github.com/spendsmart/spendsmart/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, u user.User) (string, error)
	Destroy(ctx context.Context, id string) error
	TTL() time.Duration
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	sessions   SessionManager
	metrics    *observability.Prom
	cfg        config.Config
}

func NewAuthHandler(users UserReader, userWriter UserWriter, sessions SessionManager, metrics *observability.Prom, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		sessions:   sessions,
		metrics:    metrics,
		cfg:        cfg,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// Existence check first for a friendly error. Two concurrent signups can
	// both pass it; the unique index on users.email settles the race and
	// comes back as ErrEmailAlreadyUsed from Create.
	_, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondBadRequest(ctx, "duplicate_user", "User already exists")
		return
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	_, err = h.userWriter.Create(cctx, req.Email, hash, req.Name)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "duplicate_user", "User already exists")
			return
		}

		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// same response whether the email is unknown or the password is
		// wrong, so the endpoint never confirms an email exists
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondBadRequest(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	sessionID, err := h.sessions.Create(cctx, foundUser)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Could not create session")
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsCreated.Inc()
	}

	h.setSessionCookie(ctx, sessionID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"name":    foundUser.Name,
	})
}

// Logout destroys the session if one is presented. Calling it while already
// logged out still acknowledges with 200.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(middlewares.SessionCookieName)

	if err != nil || raw == "" {
		h.clearSessionCookie(ctx)
		ctx.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err = h.sessions.Destroy(cctx, raw)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Failed to log out")
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsDestroyed.Inc()
	}

	h.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Helper functions

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, sessionID string) {
	secure := h.cfg.Env == "prod"

	maxAge := int(h.sessions.TTL().Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		sessionID,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
