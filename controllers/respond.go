package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/middleware"

	"github.com/gin-gonic/gin"
)

// SessionCloser ends a session whose token the backend rejected.
type SessionCloser interface {
	Logout(ctx context.Context, sid string) error
}

// respondError renders err. A token the backend no longer accepts ends the
// session and points the client at the login route.
func respondError(c *gin.Context, sessions SessionCloser, err error) {
	if errors.Is(err, apperrors.ErrTokenExpired) && sessions != nil {
		_ = sessions.Logout(c.Request.Context(), middleware.GetSessionID(c))
		appErr := apperrors.From(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":     http.StatusUnauthorized,
			"message":  appErr.Message,
			"redirect": middleware.LoginRoute,
		})
		return
	}
	apperrors.Respond(c, err)
}

func bindError(err error) *apperrors.Error {
	return apperrors.ErrValidation.WithDetail("error", err.Error())
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrInvalidInput.WithMessage("Invalid " + name)
	}
	return id, nil
}

func mustSession(c *gin.Context) (token string, ok bool) {
	session, err := middleware.GetSession(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return "", false
	}
	return session.AccessToken, true
}
