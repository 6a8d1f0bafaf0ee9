package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/oauth"
	"taskboard/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler mantiene dependencias para registro, login y OAuth.
type AuthHandler struct {
	logger    *zap.Logger
	userServ  *service.UserService
	tokenServ *service.TokenService
	google    *oauth.GoogleProvider
	clientURL string
}

func NewAuthHandler(
	logger *zap.Logger,
	userServ *service.UserService,
	tokenServ *service.TokenService,
	google *oauth.GoogleProvider,
	clientURL string,
) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		userServ:  userServ,
		tokenServ: tokenServ,
		google:    google,
		clientURL: clientURL,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		DisplayName string `json:"displayName" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
			return
		}
	}

	token, err := h.tokenServ.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		return
	}

	token, err := h.tokenServ.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GoogleLogin maneja GET /api/auth/google: redirige al proveedor.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google login not configured"})
		return
	}

	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.LoginURL(state))
}

// GoogleCallback maneja GET /api/auth/google/callback. Cualquier falla
// redirige al cliente con un indicador genérico, sin detalle interno.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		h.failRedirect(c)
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)
	if err != nil || state == "" || c.Query("state") != state {
		h.logger.Warn("oauth state mismatch")
		h.failRedirect(c)
		return
	}

	code := c.Query("code")
	if code == "" || c.Query("error") != "" {
		h.failRedirect(c)
		return
	}

	profile, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.Error(err))
		h.failRedirect(c)
		return
	}

	user, err := h.userServ.UpsertGoogleUser(c.Request.Context(), service.GoogleProfile{
		Subject:     profile.Subject,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	})
	if err != nil {
		h.logger.Error("oauth upsert failed", zap.Error(err))
		h.failRedirect(c)
		return
	}

	token, err := h.tokenServ.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		h.failRedirect(c)
		return
	}

	// Entrega one-shot por query param: el cliente lo mueve de inmediato
	// a su storage local.
	c.Redirect(http.StatusFound, h.clientURL+"/login/success?token="+url.QueryEscape(token))
}

func (h *AuthHandler) failRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.clientURL+"/login?error=auth_failed")
}
