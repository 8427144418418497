package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"login-backend/internal/audit"
	auditdomain "login-backend/internal/audit/domain"
	blacklistsvc "login-backend/internal/blacklist/service"
	"login-backend/internal/platform/retry"
	"login-backend/internal/security"
	sessiondomain "login-backend/internal/session/domain"
	sessionsvc "login-backend/internal/session/service"
	"login-backend/internal/telemetry"
	userdomain "login-backend/internal/user/domain"
	userrepo "login-backend/internal/user/repository"
)

var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password. The two causes are deliberately indistinguishable so the
	// login endpoint cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUserAlreadyExists = errors.New("username or email already in use")

	// ErrSessionNotFound is returned when a session does not exist or
	// does not belong to the caller; the two cases are not distinguished.
	ErrSessionNotFound = errors.New("session not found")
)

// AuthService composes the credential codec, session manager, and
// blacklist into the login lifecycle use cases.
type AuthService struct {
	users     userrepo.Repository
	hasher    *security.Hasher
	codec     *security.TokenCodec
	sessions  *sessionsvc.Manager
	blacklist *blacklistsvc.Service
	audit     *audit.Logger
	metrics   *telemetry.Metrics
}

func NewAuthService(
	users userrepo.Repository,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	sessions *sessionsvc.Manager,
	blacklist *blacklistsvc.Service,
	auditLog *audit.Logger,
	metrics *telemetry.Metrics,
) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		codec:     codec,
		sessions:  sessions,
		blacklist: blacklist,
		audit:     auditLog,
		metrics:   metrics,
	}
}

// AuthResult is what a successful login or refresh hands back to the
// transport layer.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Username     string
	Role         string
	ExpiresIn    int64 // access token lifetime in seconds
}

// Register creates a new user with the default role.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*userdomain.User, error) {
	taken, err := retry.Do(ctx, func() (bool, error) {
		return s.users.ExistsByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	if !taken {
		taken, err = retry.Do(ctx, func() (bool, error) {
			return s.users.ExistsByEmail(ctx, email)
		})
		if err != nil {
			return nil, err
		}
	}
	if taken {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, username, auditdomain.ActionRegister, "/api/auth/register", nil)
	return u, nil
}

// Login authenticates the principal and opens a device session. Unknown
// username and wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password, ipAddress, userAgent string) (*AuthResult, error) {
	u, err := retry.Do(ctx, func() (*userdomain.User, error) {
		return s.users.GetByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		s.metrics.RecordLogin(ctx, false)
		s.audit.LogEvent(ctx, username, auditdomain.ActionLogin, "/api/auth/login", map[string]string{"success": "false"})
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		s.metrics.RecordLogin(ctx, false)
		s.audit.LogEvent(ctx, username, auditdomain.ActionLogin, "/api/auth/login", map[string]string{"success": "false"})
		return nil, ErrInvalidCredentials
	}

	accessToken, _, err := s.codec.Mint(u.Username, string(u.Role))
	if err != nil {
		return nil, err
	}
	session, err := retry.Do(ctx, func() (*sessiondomain.Session, error) {
		return s.sessions.CreateSession(ctx, u.ID, ipAddress, userAgent)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, true)
	s.audit.LogEvent(ctx, username, auditdomain.ActionLogin, "/api/auth/login", map[string]string{
		"success": "true",
		"device":  session.DeviceName,
	})
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: session.Token,
		Username:     u.Username,
		Role:         string(u.Role),
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Logout blacklists the access token and, when given, revokes the refresh
// token. It always succeeds: an unverifiable access token is still
// blacklisted, and store failures are logged and swallowed so the caller
// cannot tell whether a token existed.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	username := "unknown"
	if subject, _, err := s.codec.Verify(accessToken); err == nil {
		username = subject
	}
	if accessToken != "" {
		if err := s.blacklist.Blacklist(ctx, accessToken); err != nil {
			log.Printf("logout: failed to blacklist access token: %v", err)
		}
	}
	if refreshToken != "" {
		if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
			log.Printf("logout: failed to revoke refresh token: %v", err)
		} else {
			s.metrics.RecordRevocations(ctx, "logout", 1)
		}
	}
	s.audit.LogEvent(ctx, username, auditdomain.ActionLogout, "/api/auth/logout", nil)
}

// Refresh reissues the access token against a valid refresh session. The
// refresh token itself is returned unchanged: its lifetime was fixed when
// the session was created and refreshing never extends it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	session, err := retry.Do(ctx, func() (*sessiondomain.Session, error) {
		session, err := s.sessions.Verify(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, sessionsvc.ErrTokenNotFound) ||
				errors.Is(err, sessionsvc.ErrTokenRevoked) ||
				errors.Is(err, sessionsvc.ErrTokenExpired) {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		return session, nil
	})
	if err != nil {
		s.metrics.RecordRefresh(ctx, false)
		return nil, err
	}

	u, err := retry.Do(ctx, func() (*userdomain.User, error) {
		return s.users.GetByID(ctx, session.UserID)
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Session row outlived its user; treat the token as gone.
		s.metrics.RecordRefresh(ctx, false)
		return nil, sessionsvc.ErrTokenNotFound
	}

	accessToken, _, err := s.codec.Mint(u.Username, string(u.Role))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRefresh(ctx, true)
	s.audit.LogEvent(ctx, u.Username, auditdomain.ActionRefresh, "/api/auth/refresh", nil)
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     u.Username,
		Role:         string(u.Role),
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// LogoutAll revokes every active refresh session of the user. Access
// tokens already issued stay valid until their natural expiry.
func (s *AuthService) LogoutAll(ctx context.Context, username string) (int64, error) {
	u, err := s.lookupUser(ctx, username)
	if err != nil {
		return 0, err
	}
	count, err := retry.Do(ctx, func() (int64, error) {
		return s.sessions.RevokeAll(ctx, u.ID)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.RecordRevocations(ctx, "logout_all", count)
	s.audit.LogEvent(ctx, username, auditdomain.ActionLogoutAll, "/api/auth/logout-all", nil)
	return count, nil
}

// ListSessions returns the user's active sessions, oldest first.
func (s *AuthService) ListSessions(ctx context.Context, username string) ([]*sessiondomain.Session, error) {
	u, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, func() ([]*sessiondomain.Session, error) {
		return s.sessions.ListActive(ctx, u.ID)
	})
}

// RevokeSession revokes one session by id. A session that does not exist
// and a session owned by someone else produce the same ErrSessionNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, username, sessionID string) error {
	u, err := s.lookupUser(ctx, username)
	if err != nil {
		return err
	}
	ok, err := retry.Do(ctx, func() (bool, error) {
		return s.sessions.RevokeByIDAndUser(ctx, sessionID, u.ID)
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	s.metrics.RecordRevocations(ctx, "revoke_session", 1)
	s.audit.LogEvent(ctx, username, auditdomain.ActionRevokeSession, "/api/auth/sessions/"+sessionID, nil)
	return nil
}

func (s *AuthService) lookupUser(ctx context.Context, username string) (*userdomain.User, error) {
	u, err := retry.Do(ctx, func() (*userdomain.User, error) {
		return s.users.GetByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
