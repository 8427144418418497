package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"login-backend/internal/audit"
	auditdomain "login-backend/internal/audit/domain"
	blacklistsvc "login-backend/internal/blacklist/service"
	"login-backend/internal/security"
	sessiondomain "login-backend/internal/session/domain"
	sessionsvc "login-backend/internal/session/service"
	userdomain "login-backend/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*userdomain.User // by username
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	u2 := *u
	return &u2, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.users[u.Username] = &u2
	return nil
}

type memSessionRepo struct {
	mu      sync.Mutex
	byToken map[string]*sessiondomain.Session
	seq     int
	order   map[string]int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		byToken: make(map[string]*sessiondomain.Session),
		order:   make(map[string]int),
	}
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.byToken[s.Token] = &s2
	r.order[s.Token] = r.seq
	r.seq++
	return nil
}

func (r *memSessionRepo) GetByToken(ctx context.Context, token string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok {
		return nil, nil
	}
	s2 := *s
	return &s2, nil
}

func (r *memSessionRepo) activeByUserLocked(userID string) []*sessiondomain.Session {
	var out []*sessiondomain.Session
	for _, s := range r.byToken {
		if s.UserID == userID && !s.Revoked {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].Token] < r.order[out[j].Token]
	})
	return out
}

func (r *memSessionRepo) ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := r.activeByUserLocked(userID)
	out := make([]*sessiondomain.Session, len(active))
	for i, s := range active {
		s2 := *s
		out[i] = &s2
	}
	return out, nil
}

func (r *memSessionRepo) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activeByUserLocked(userID)), nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byToken[token]; ok {
		s.Revoked = true
	}
	return nil
}

func (r *memSessionRepo) RevokeByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byToken {
		if s.ID == id && s.UserID == userID && !s.Revoked {
			s.Revoked = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) RevokeOldestActive(ctx context.Context, userID string, n int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := r.activeByUserLocked(userID)
	if n > len(active) {
		n = len(active)
	}
	for i := 0; i < n; i++ {
		active[i].Revoked = true
	}
	return int64(n), nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.byToken {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			count++
		}
	}
	return count, nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for token, s := range r.byToken {
		if s.ExpiresAt.Before(now) {
			delete(r.byToken, token)
			delete(r.order, token)
			count++
		}
	}
	return count, nil
}

type memBlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemBlacklistRepo() *memBlacklistRepo {
	return &memBlacklistRepo{entries: make(map[string]time.Time)}
}

func (r *memBlacklistRepo) Contains(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[token]
	return ok, nil
}

func (r *memBlacklistRepo) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		r.entries[token] = expiresAt
	}
	return nil
}

func (r *memBlacklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for token, exp := range r.entries {
		if exp.Before(now) {
			delete(r.entries, token)
			count++
		}
	}
	return count, nil
}

type memAuditRepo struct {
	mu     sync.Mutex
	events []*auditdomain.Event
}

func (r *memAuditRepo) Create(ctx context.Context, e *auditdomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e2 := *e
	r.events = append(r.events, &e2)
	return nil
}

func (r *memAuditRepo) byAction(action string) []*auditdomain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*auditdomain.Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc       *AuthService
	users     *memUserRepo
	sessions  *memSessionRepo
	blacklist *memBlacklistRepo
	auditLog  *memAuditRepo
	codec     *security.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	blRepo := newMemBlacklistRepo()
	auditRepo := &memAuditRepo{}
	codec := security.NewTokenCodec([]byte(testSecret), "login-backend", 15*time.Minute)
	hasher := security.NewHasher(4) // min cost keeps tests fast
	manager := sessionsvc.NewManager(sessions, 7*24*time.Hour, 5)
	bl := blacklistsvc.NewService(blRepo, codec)
	svc := NewAuthService(users, hasher, codec, manager, bl, audit.NewLogger(auditRepo), nil)
	return &fixture{svc: svc, users: users, sessions: sessions, blacklist: blRepo, auditLog: auditRepo, codec: codec}
}

func (f *fixture) registerUser(t *testing.T, username, password string) {
	t.Helper()
	if _, err := f.svc.Register(context.Background(), username, username+"@example.com", password); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != userdomain.RoleUser {
		t.Errorf("Role = %q, want USER", u.Role)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	if _, err := f.svc.Register(ctx, "alice", "other@example.com", "x"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate username: got %v, want ErrUserAlreadyExists", err)
	}
	if _, err := f.svc.Register(ctx, "bob", "alice@example.com", "x"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email: got %v, want ErrUserAlreadyExists", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	res, err := f.svc.Login(ctx, "alice", "s3cret", "203.0.113.9", "Mozilla/5.0 (iPhone)")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Username != "alice" || res.Role != "USER" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d, want 900", res.ExpiresIn)
	}

	subject, role, err := f.codec.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("minted access token must verify: %v", err)
	}
	if subject != "alice" || role != "USER" {
		t.Errorf("token claims = (%q, %q)", subject, role)
	}

	s, err := f.sessions.GetByToken(ctx, res.RefreshToken)
	if err != nil || s == nil {
		t.Fatalf("refresh session not stored: %v", err)
	}
	if s.DeviceName != "iPhone" {
		t.Errorf("DeviceName = %q, want iPhone", s.DeviceName)
	}
	if s.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q", s.IPAddress)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	_, errGhost := f.svc.Login(ctx, "ghost", "whatever", "", "")
	_, errBadPass := f.svc.Login(ctx, "alice", "wrong", "", "")

	if !errors.Is(errGhost, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v, want ErrInvalidCredentials", errGhost)
	}
	if !errors.Is(errBadPass, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", errBadPass)
	}
	if errGhost.Error() != errBadPass.Error() {
		t.Error("the two failure causes must be externally identical")
	}
}

func TestLogin_FailuresAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	f.svc.Login(ctx, "ghost", "whatever", "", "")
	f.svc.Login(ctx, "alice", "wrong", "", "")

	events := f.auditLog.byAction(auditdomain.ActionLogin)
	if len(events) != 2 {
		t.Fatalf("login audit events = %d, want 2 (one per failure cause)", len(events))
	}
	for _, e := range events {
		if e.Metadata["success"] != "false" {
			t.Errorf("event for %q: metadata success = %q, want false", e.Username, e.Metadata["success"])
		}
	}
	if events[0].Username != "ghost" || events[1].Username != "alice" {
		t.Errorf("audited usernames = %q, %q", events[0].Username, events[1].Username)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	res, err := f.svc.Login(ctx, "alice", "s3cret", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.svc.Logout(ctx, res.AccessToken, res.RefreshToken)

	if ok, _ := f.blacklist.Contains(ctx, res.AccessToken); !ok {
		t.Error("access token must be blacklisted after logout")
	}
	s, _ := f.sessions.GetByToken(ctx, res.RefreshToken)
	if s == nil || !s.Revoked {
		t.Error("refresh session must be revoked after logout")
	}

	// Repeat and garbage input must not panic or fail observably.
	f.svc.Logout(ctx, res.AccessToken, res.RefreshToken)
	f.svc.Logout(ctx, "garbage-token", "unknown-refresh")
	if ok, _ := f.blacklist.Contains(ctx, "garbage-token"); !ok {
		t.Error("even an unverifiable access token must be blacklisted")
	}
}

func TestRefresh_ReturnsSameRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	login, err := f.svc.Login(ctx, "alice", "s3cret", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	res, err := f.svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.RefreshToken != login.RefreshToken {
		t.Error("refresh must return the same refresh token, not rotate it")
	}
	if subject, _, err := f.codec.Verify(res.AccessToken); err != nil || subject != "alice" {
		t.Errorf("new access token: subject=%q err=%v", subject, err)
	}
}

func TestRefresh_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	if _, err := f.svc.Refresh(ctx, "no-such-token"); !errors.Is(err, sessionsvc.ErrTokenNotFound) {
		t.Errorf("unknown refresh token: got %v, want ErrTokenNotFound", err)
	}

	login, err := f.svc.Login(ctx, "alice", "s3cret", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.svc.Logout(ctx, login.AccessToken, login.RefreshToken)
	if _, err := f.svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, sessionsvc.ErrTokenRevoked) {
		t.Errorf("revoked refresh token: got %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	var tokens []string
	for i := 0; i < 3; i++ {
		res, err := f.svc.Login(ctx, "alice", "s3cret", "", "")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		tokens = append(tokens, res.RefreshToken)
	}

	count, err := f.svc.LogoutAll(ctx, "alice")
	if err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	if count != 3 {
		t.Errorf("LogoutAll count = %d, want 3", count)
	}
	for _, token := range tokens {
		if _, err := f.svc.Refresh(ctx, token); !errors.Is(err, sessionsvc.ErrTokenRevoked) {
			t.Errorf("Refresh after LogoutAll: got %v, want ErrTokenRevoked", err)
		}
	}
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")

	if _, err := f.svc.Login(ctx, "alice", "s3cret", "10.0.0.1", "Mozilla/5.0 (iPhone)"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := f.svc.Login(ctx, "alice", "s3cret", "10.0.0.2", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	sessions, err := f.svc.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	// Oldest first.
	if sessions[0].DeviceName != "iPhone" || sessions[1].DeviceName != "Windows PC (Chrome)" {
		t.Errorf("unexpected order: %q, %q", sessions[0].DeviceName, sessions[1].DeviceName)
	}
}

func TestRevokeSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice", "s3cret")
	f.registerUser(t, "bob", "hunter2")

	if _, err := f.svc.Login(ctx, "alice", "s3cret", "", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	sessions, err := f.svc.ListSessions(ctx, "alice")
	if err != nil || len(sessions) != 1 {
		t.Fatalf("ListSessions: %v (%d sessions)", err, len(sessions))
	}
	id := sessions[0].ID

	// Another user revoking alice's session: same error as not-found.
	if err := f.svc.RevokeSession(ctx, "bob", id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign revoke: got %v, want ErrSessionNotFound", err)
	}
	if err := f.svc.RevokeSession(ctx, "alice", "nonexistent-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown id: got %v, want ErrSessionNotFound", err)
	}

	if err := f.svc.RevokeSession(ctx, "alice", id); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	sessions, _ = f.svc.ListSessions(ctx, "alice")
	if len(sessions) != 0 {
		t.Errorf("active sessions after revoke = %d, want 0", len(sessions))
	}
}
