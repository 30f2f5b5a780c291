package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionContextKey   = "session"
	SessionIDContextKey = "session_id"
)

// Landing routes of the console.
const (
	LoginRoute     = "/login"
	CashierRoute   = "/cashier"
	DashboardRoute = "/admin/dashboard"
)

type GateState int

const (
	StateLoading GateState = iota
	StateUnauthenticated
	StateInsufficientRole
	StateAuthorized
)

func (s GateState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateInsufficientRole:
		return "insufficient_role"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Requirement is what a protected route asks of the session.
type Requirement int

const (
	RequireSession Requirement = iota
	RequireAdmin
)

type Decision struct {
	State    GateState `json:"-"`
	Redirect string    `json:"redirect,omitempty"`
}

// Evaluate decides what a request for a route with requirement req should
// see. It has no side effects and is run on every request.
func Evaluate(session *models.Session, loading bool, req Requirement) Decision {
	switch {
	case loading:
		return Decision{State: StateLoading}
	case session == nil:
		return Decision{State: StateUnauthenticated, Redirect: LoginRoute}
	case req == RequireAdmin && !session.IsAdmin():
		return Decision{State: StateInsufficientRole, Redirect: CashierRoute}
	default:
		return Decision{State: StateAuthorized}
	}
}

// LandingRoute is where a freshly logged in user is sent.
func LandingRoute(session *models.Session) string {
	if session.IsAdmin() {
		return DashboardRoute
	}
	return CashierRoute
}

// SessionSource resolves the identity of a browser session.
type SessionSource interface {
	Current(ctx context.Context, sid string) (*models.Session, error)
}

// Gate resolves the session cookie and enforces req. Authorized requests get
// the session and its id stored on the gin context.
func Gate(sessions SessionSource, cookieName string, req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := c.Cookie(cookieName)

		session, err := sessions.Current(c.Request.Context(), sid)
		if err != nil {
			// the session has already been cleared
			logger.Warn(c, "Session validation failed", zap.Error(err))
			session = nil
		}

		decision := Evaluate(session, false, req)
		if decision.State != StateAuthorized {
			deny(c, decision, err)
			return
		}

		c.Set(SessionIDContextKey, sid)
		c.Set(SessionContextKey, session)
		c.Next()
	}
}

func deny(c *gin.Context, decision Decision, cause error) {
	if isNavigation(c.Request) {
		c.Redirect(http.StatusFound, decision.Redirect)
		c.Abort()
		return
	}

	status := http.StatusUnauthorized
	msg := apperrors.ErrUnauthorized.Message
	if decision.State == StateInsufficientRole {
		status = http.StatusForbidden
		msg = apperrors.ErrForbidden.Message
	} else if errors.Is(cause, apperrors.ErrTokenExpired) {
		msg = apperrors.ErrTokenExpired.Message
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "redirect": decision.Redirect})
}

func isNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// GetSession returns the session stored by Gate.
func GetSession(c *gin.Context) (*models.Session, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, errors.New("session not found in context")
	}
	session, ok := val.(*models.Session)
	if !ok || session == nil {
		return nil, errors.New("session has invalid type in context")
	}
	return session, nil
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDContextKey)
}
