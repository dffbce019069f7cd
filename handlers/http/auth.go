package httpHandler

import (
	"net/http"

	"starter-server/apperrors"
	"starter-server/logger"
	"starter-server/metrics"
	"starter-server/middleware"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	base
	auth    *usecases.AuthUseCase
	uploads *usecases.UploadUseCase
	secure  bool
}

func NewAuthHandler(auth *usecases.AuthUseCase, uploads *usecases.UploadUseCase, secureCookies bool, log logger.Logger) *AuthHandler {
	return &AuthHandler{base: base{log: log}, auth: auth, uploads: uploads, secure: secureCookies}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func meta(c *gin.Context) usecases.SessionMeta {
	return usecases.SessionMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, meta(c))
	metrics.RecordAuthAttempt("register", err == nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, res.Token)
	respond(c, http.StatusCreated, res)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, meta(c))
	metrics.RecordAuthAttempt("login", err == nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, res.Token)
	respond(c, http.StatusOK, res)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), principal(c).SessionID); err != nil {
		h.fail(c, err)
		return
	}
	h.clearSessionCookie(c)
	respond(c, http.StatusOK, gin.H{"status": "logged_out"})
}

// LogoutAll handles POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	if err := h.auth.LogoutAll(c.Request.Context(), principal(c).UserID); err != nil {
		h.fail(c, err)
		return
	}
	h.clearSessionCookie(c)
	respond(c, http.StatusOK, gin.H{"status": "logged_out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// ChangePassword handles PUT /api/v1/auth/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"status": "password_changed"})
}

// UploadAvatar handles POST /api/v1/auth/me/avatar
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	limitBody(c, h.uploads.MaxBytes())
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, formFileError(err))
		return
	}
	user, err := h.uploads.UploadAvatar(c.Request.Context(), principal(c).UserID, fh)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.auth.SessionTTL().Seconds()), "/", "", h.secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secure, true)
}

var errFileRequired = apperrors.Validation("multipart field \"file\" is required")
