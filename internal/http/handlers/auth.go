package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/auth"
	"github.com/vistahr/stayhub/internal/config"
	"github.com/vistahr/stayhub/internal/domain/user"
	"github.com/vistahr/stayhub/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, role string, isVerified bool) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (user.User, error)
}

type AuthHandler struct {
	users UserStore
	jwt   *auth.Manager
}

func NewAuthHandler(users UserStore, jwt *auth.Manager) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=RESIDENT OWNER"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=RESIDENT OWNER"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// Owners require manual verification before their listings go live;
	// residents are trusted from the start.
	verified := req.Role != user.RoleOwner

	u, err := h.users.Create(cctx, email, hash, req.Role, verified)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "Email already registered")
			return
		}

		RespondStorageError(ctx)
		return
	}

	token, err := h.jwt.Issue(u.ID, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Registered",
		"user":         u,
		"access_token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	var (
		u   user.User
		err error
	)

	// role, when supplied, must match the stored row
	if req.Role != "" {
		u, err = h.users.GetByEmailAndRole(cctx, email, req.Role)
	} else {
		u, err = h.users.GetByEmail(cctx, email)
	}

	if err != nil {
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	err = security.CheckPassword(u.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	// Block unverified owners even with correct credentials.
	if u.Role == user.RoleOwner && !u.IsVerified {
		RespondError(ctx, http.StatusForbidden, "Owner account not yet verified")
		return
	}

	token, err := h.jwt.Issue(u.ID, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Logged in",
		"user":         u,
		"access_token": token,
	})
}
