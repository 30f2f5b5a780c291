package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/middleware"
	"github.com/cristopher43/gamer-zeta-frontend/models"
	pkgaws "github.com/cristopher43/gamer-zeta-frontend/pkg/aws"
	"github.com/cristopher43/gamer-zeta-frontend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager is satisfied by services.SessionService.
type SessionManager interface {
	SessionCloser
	middleware.SessionSource
	Login(ctx context.Context, sid, email, password string) (*models.Session, error)
	Peek(ctx context.Context, sid string) (*models.Session, bool)
}

type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type AuthController struct {
	sessions SessionManager
	cookie   CookieSettings
	metrics  services.Metrics
}

func NewAuthController(sessions SessionManager, cookie CookieSettings, metrics services.Metrics) *AuthController {
	if cookie.Name == "" {
		cookie.Name = "pos_session"
	}
	return &AuthController{sessions: sessions, cookie: cookie, metrics: metrics}
}

func (a *AuthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login starts a fresh browser session. A previous session on the same
// browser is ended first so its cart never leaks into the new identity.
func (a *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, bindError(err))
		return
	}

	if old, err := c.Cookie(a.cookie.Name); err == nil && old != "" {
		_ = a.sessions.Logout(c.Request.Context(), old)
	}

	sid := uuid.NewString()
	session, err := a.sessions.Login(c.Request.Context(), sid, req.Email, req.Password)
	if err != nil {
		logger.Warn(c, "Login failed", zap.String("email", req.Email), zap.Error(err))
		if a.metrics != nil {
			_ = a.metrics.RecordCount(context.WithoutCancel(c.Request.Context()), pkgaws.MetricLoginFailed, nil)
		}
		apperrors.Respond(c, err)
		return
	}

	a.setCookie(c, sid, int(a.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":  "Logged in successfully",
		"user":     session,
		"redirect": middleware.LandingRoute(session),
	})
}

// Logout never fails from the client's point of view.
func (a *AuthController) Logout(c *gin.Context) {
	if sid, err := c.Cookie(a.cookie.Name); err == nil && sid != "" {
		if err := a.sessions.Logout(c.Request.Context(), sid); err != nil {
			logger.Error(c, "Logout left persisted state behind", err)
		}
	}
	a.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "redirect": middleware.LoginRoute})
}

// Status reports the gate state without waiting on the backend, so a client
// can render a loading screen while a restored session is validated. A
// loading session gets its validation started in the background.
func (a *AuthController) Status(c *gin.Context) {
	sid, _ := c.Cookie(a.cookie.Name)
	session, loading := a.sessions.Peek(c.Request.Context(), sid)
	if loading {
		ctx := context.WithoutCancel(c.Request.Context())
		go func() { _, _ = a.sessions.Current(ctx, sid) }()
	}
	decision := middleware.Evaluate(session, loading, middleware.RequireSession)

	body := gin.H{"state": decision.State.String(), "authenticated": decision.State == middleware.StateAuthorized}
	if decision.Redirect != "" {
		body["redirect"] = decision.Redirect
	}
	if session != nil {
		body["user"] = session
		body["home"] = middleware.LandingRoute(session)
	}
	c.JSON(http.StatusOK, body)
}

func (a *AuthController) Profile(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a *AuthController) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookie.Name, value, maxAge, "/", "", a.cookie.Secure, true)
}
