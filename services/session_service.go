package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/database"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/models"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionService owns the authenticated identity of every browser session.
// The cached identity is the only source of truth for role checks; the
// persisted credential only lets a session be revalidated after a restart.
type SessionService struct {
	api  AuthAPI
	repo database.SessionRepository
	now  func() time.Time

	validateTimeout time.Duration

	mu    sync.RWMutex
	cache map[string]*models.Session
	// pending holds the ticket of the validation in flight per sid. Logout
	// revokes it so a late validation result is not cached.
	pending map[string]uint64
	ticket  uint64

	group    singleflight.Group
	onLogout []func(sid string)
}

const defaultValidateTimeout = 15 * time.Second

func NewSessionService(api AuthAPI, repo database.SessionRepository) *SessionService {
	return &SessionService{
		api:             api,
		repo:            repo,
		now:             time.Now,
		validateTimeout: defaultValidateTimeout,
		cache:           make(map[string]*models.Session),
		pending:         make(map[string]uint64),
	}
}

// OnLogout registers a hook run whenever a session is cleared.
func (s *SessionService) OnLogout(fn func(sid string)) {
	s.onLogout = append(s.onLogout, fn)
}

// Login authenticates against the backend, persists the credential and
// caches the profile identity.
func (s *SessionService) Login(ctx context.Context, sid, email, password string) (*models.Session, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	ticket := s.issueTicket(sid)
	defer s.releaseTicket(sid, ticket)

	cred := models.Credential{
		AccessToken: resp.AccessToken,
		User:        models.StoredUser{Email: resp.Email, Name: resp.Name, Role: resp.Role},
	}
	if err := s.repo.Save(ctx, sid, cred); err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}

	session, err := s.validate(ctx, sid, cred, ticket)
	if err != nil {
		if interrupted(ctx, err) {
			// the cookie was never issued
			_ = s.Logout(context.WithoutCancel(ctx), sid)
		}
		return nil, err
	}
	logger.Info(ctx, "User logged in", zap.String("email", session.Email), zap.String("role", string(session.Role)))
	return session, nil
}

// Logout clears the cached identity and the persisted credential. It never
// talks to the backend and is safe to call repeatedly.
func (s *SessionService) Logout(ctx context.Context, sid string) error {
	s.mu.Lock()
	delete(s.cache, sid)
	delete(s.pending, sid)
	s.mu.Unlock()

	err := s.repo.Delete(ctx, sid)
	for _, fn := range s.onLogout {
		fn(sid)
	}
	if err != nil {
		logger.Error(ctx, "Failed to delete persisted credential", err)
		return apperrors.ErrInternalServer.Wrap(err)
	}
	return nil
}

// Current returns the identity of sid, revalidating a persisted credential
// against the backend when nothing is cached. A nil session with a nil
// error means the session is not authenticated. Any validation failure
// clears the session exactly like Logout, except an interrupted one: the
// validation runs detached from ctx, and a caller that goes away before it
// finishes gets ctx.Err() while the credential stays for the next request.
func (s *SessionService) Current(ctx context.Context, sid string) (*models.Session, error) {
	if sid == "" {
		return nil, nil
	}
	if session := s.cached(sid); session != nil {
		if !session.Expired(s.now()) {
			return session, nil
		}
		s.clear(ctx, sid, "cached token expired")
		return nil, apperrors.ErrTokenExpired
	}

	ch := s.group.DoChan(sid, func() (interface{}, error) {
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.validateTimeout)
		defer cancel()

		ticket := s.issueTicket(sid)
		defer s.releaseTicket(sid, ticket)

		cred, err := s.repo.Load(vctx, sid)
		if err != nil {
			return nil, apperrors.ErrInternalServer.Wrap(err)
		}
		if cred == nil {
			return (*models.Session)(nil), nil
		}
		return s.validate(vctx, sid, *cred, ticket)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Session), nil
	}
}

// Peek reports the cached identity without blocking on the backend. loading
// is true while a persisted credential awaits validation.
func (s *SessionService) Peek(ctx context.Context, sid string) (session *models.Session, loading bool) {
	if sid == "" {
		return nil, false
	}
	if session := s.cached(sid); session != nil {
		return session, false
	}
	cred, err := s.repo.Load(ctx, sid)
	if err != nil || cred == nil {
		return nil, false
	}
	return nil, true
}

// Token returns the access token of an authenticated session.
func (s *SessionService) Token(sid string) string {
	if session := s.cached(sid); session != nil {
		return session.AccessToken
	}
	return ""
}

func (s *SessionService) cached(sid string) *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[sid]
}

func (s *SessionService) validate(ctx context.Context, sid string, cred models.Credential, ticket uint64) (*models.Session, error) {
	if exp, ok := tokenExpiry(cred.AccessToken); ok && !s.now().Before(exp) {
		s.clear(ctx, sid, "token expired")
		return nil, apperrors.ErrTokenExpired
	}

	profile, err := s.api.Profile(ctx, cred.AccessToken)
	if err != nil {
		if interrupted(ctx, err) {
			logger.Warn(ctx, "Session validation interrupted, keeping credential", zap.Error(err))
			return nil, err
		}
		s.clear(ctx, sid, "profile validation failed")
		if errors.Is(err, apperrors.ErrUnreachable) {
			return nil, err
		}
		return nil, apperrors.ErrTokenExpired.Wrap(err)
	}

	session := &models.Session{
		ID:          int64(profile.ID),
		Name:        firstNonEmpty(profile.Name, cred.User.Name),
		Email:       firstNonEmpty(profile.Email, cred.User.Email),
		Role:        profile.Role,
		AccessToken: cred.AccessToken,
	}
	if session.Role == "" {
		session.Role = cred.User.Role
	}
	if profile.Exp > 0 {
		session.TokenExpiry = time.Unix(profile.Exp, 0)
	} else if exp, ok := tokenExpiry(cred.AccessToken); ok {
		session.TokenExpiry = exp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[sid] != ticket {
		logger.Info(ctx, "Session logged out during validation")
		return nil, apperrors.ErrUnauthorized
	}
	s.cache[sid] = session
	return session, nil
}

func (s *SessionService) issueTicket(sid string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	s.pending[sid] = s.ticket
	return s.ticket
}

func (s *SessionService) releaseTicket(sid string, ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[sid] == ticket {
		delete(s.pending, sid)
	}
}

// Sweep drops cached identities whose token expired or whose persisted
// credential is gone, running the logout hooks for each. It returns how many
// sessions were cleared.
func (s *SessionService) Sweep(ctx context.Context) int {
	s.mu.RLock()
	sids := make([]string, 0, len(s.cache))
	for sid := range s.cache {
		sids = append(sids, sid)
	}
	s.mu.RUnlock()

	cleared := 0
	for _, sid := range sids {
		session := s.cached(sid)
		if session == nil {
			continue
		}
		if session.Expired(s.now()) {
			s.clear(ctx, sid, "cached token expired")
			cleared++
			continue
		}
		cred, err := s.repo.Load(ctx, sid)
		if err != nil {
			logger.Error(ctx, "Failed to check persisted credential", err)
			continue
		}
		if cred == nil {
			s.clear(ctx, sid, "persisted credential expired")
			cleared++
		}
	}
	return cleared
}

// RunJanitor sweeps every interval until ctx is done.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				logger.Info(ctx, "Swept idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *SessionService) clear(ctx context.Context, sid, reason string) {
	logger.Warn(ctx, "Clearing session", zap.String("reason", reason))
	_ = s.Logout(ctx, sid)
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// Tokens that are not JWTs, or carry no exp, report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// interrupted reports whether err comes from ctx giving up rather than from
// the backend answering.
func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
