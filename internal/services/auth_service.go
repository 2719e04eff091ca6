package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/remote"
	"quickthrift/internal/repos"
	"quickthrift/internal/validate"
)

// localIssuer marks tokens minted by the local fallback.
const localIssuer = "quickthrift-local"

type SessionOptions struct {
	Timeout     time.Duration // bound on each remote call
	TokenSecret []byte
	TokenTTL    time.Duration
	BcryptCost  int
	// Accounts are (re)created in the local registry by EnsureAccounts and
	// after a corrupt registry is reset.
	Accounts []repos.SeedAccount
	Now      func() time.Time
}

// SessionManager owns the authenticated-user state. Remote is tried first;
// the local registry is the designed fallback when the backend is down.
type SessionManager struct {
	mu       sync.Mutex // guards session, session keys and the user registry
	pending  atomic.Bool
	sessions *repos.SessionRepo
	users    *repos.UserRepo
	api      RemoteAPI
	pub      notify.Publisher
	opts     SessionOptions
	session  domain.Session
}

func NewSessionManager(sessions *repos.SessionRepo, users *repos.UserRepo, api RemoteAPI, pub notify.Publisher, opts SessionOptions) *SessionManager {
	if pub == nil {
		pub = notify.Discard{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if len(opts.TokenSecret) == 0 {
		opts.TokenSecret = []byte(uuid.NewString())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{sessions: sessions, users: users, api: orOffline(api), pub: pub, opts: opts}
}

// EnsureAccounts seeds the configured fallback accounts (idempotent).
func (m *SessionManager) EnsureAccounts() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.Seed(m.opts.BcryptCost, m.opts.Accounts...)
}

// Restore loads the persisted session. Anything unusable (corrupt JSON, half
// a session, an expired or forged local token) is cleared and the manager
// stays unauthenticated. It never fails.
func (m *SessionManager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = domain.Session{}
	token, u, err := m.sessions.Load()
	reason := ""
	switch {
	case err != nil:
		reason = "corrupt"
	case token == "" && u == nil:
		return
	case token == "" || u == nil:
		reason = "incomplete"
	case u.ID == "" || u.Email == "" || !u.Role.Valid():
		reason = "bad_user"
	case !m.tokenValid(token, u):
		reason = "bad_token"
	default:
		m.session = domain.Session{Token: token, User: u, Authenticated: true}
		applog.Info(nil, "session.restore", map[string]any{"user_id": u.ID})
		return
	}
	applog.Warn("session.restore.reset", err, map[string]any{"reason": reason})
	if cerr := m.sessions.Clear(); cerr != nil {
		applog.Error(nil, "session.clear.fail", cerr, nil)
	}
}

// tokenValid accepts opaque backend tokens as-is, checks expiry of backend
// JWTs, and fully verifies tokens minted by the local fallback.
func (m *SessionManager) tokenValid(token string, u *domain.User) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true // opaque
	}
	now := m.opts.Now()
	if claims.Issuer != localIssuer {
		return claims.VerifyExpiresAt(now, false)
	}
	claims = jwt.RegisteredClaims{}
	p := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if _, err := p.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return m.opts.TokenSecret, nil }); err != nil {
		return false
	}
	return claims.VerifyExpiresAt(now, true) && claims.Subject == u.ID
}

func (m *SessionManager) issueToken(u *domain.User) (string, error) {
	now := m.opts.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    localIssuer,
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.opts.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.opts.TokenSecret)
}

// establish persists then publishes a new authenticated session.
func (m *SessionManager) establish(token string, u *domain.User, source string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sessions.Save(token, u); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.session = domain.Session{Token: token, User: u, Authenticated: true}
	applog.Audit(nil, "session.established", map[string]any{"user_id": u.ID, "source": source})
	m.pub.Publish(notify.KindSession, fmt.Sprintf("Welcome, %s", displayName(u)), "/")
	cp := *u
	return &cp, nil
}

// backendUser fills what Restore requires but a backend may omit: the email
// the user signed in with, an id (the email when none is sent), and a role.
func backendUser(u *domain.User, email string) *domain.User {
	cp := domain.User{}
	if u != nil {
		cp = *u
	}
	if cp.Email == "" {
		cp.Email = email
	}
	if cp.ID == "" {
		cp.ID = cp.Email
	}
	if !cp.Role.Valid() {
		cp.Role = domain.RoleUser
	}
	return &cp
}

func displayName(u *domain.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (m *SessionManager) begin() error {
	if !m.pending.CompareAndSwap(false, true) {
		return ErrAuthInProgress
	}
	return nil
}

func (m *SessionManager) end() { m.pending.Store(false) }

// SignIn validates input, tries the backend, then the local registry when
// the backend cannot answer.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	var rules []string
	if !ok {
		rules = append(rules, "enter a valid email address")
	}
	if password == "" {
		rules = append(rules, "password is required")
	}
	if len(rules) > 0 {
		return nil, invalid(rules...)
	}
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	rctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	res, err := m.api.SignIn(rctx, email, password)
	cancel()
	if err == nil {
		return m.establish(res.Token, backendUser(res.User, email), "remote")
	}
	if !remote.IsUnavailable(err) {
		return nil, authErr(InvalidCredentials, err)
	}
	applog.Warn("auth.signin.fallback", err, map[string]any{"email": email})

	lu := m.lookupLocal(email)
	if lu == nil {
		if errors.Is(err, remote.ErrNotConfigured) {
			return nil, authErr(InvalidCredentials, nil)
		}
		// The account may exist remotely; we just cannot tell right now.
		return nil, authErr(ServiceUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(lu.Hash), []byte(password)) != nil {
		return nil, authErr(InvalidCredentials, nil)
	}
	u := lu.User
	token, terr := m.issueToken(&u)
	if terr != nil {
		return nil, fmt.Errorf("issue token: %w", terr)
	}
	return m.establish(token, &u, "local")
}

func (m *SessionManager) lookupLocal(email string) *repos.LocalUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	lu, err := m.users.ByEmail(email)
	if err != nil {
		m.resetRegistry(err)
		return nil
	}
	return lu
}

// resetRegistry recovers from an unreadable registry. Caller holds mu.
func (m *SessionManager) resetRegistry(cause error) {
	applog.Warn("users.registry.reset", cause, nil)
	if err := m.users.Reset(); err != nil {
		applog.Error(nil, "users.registry.reset.fail", err, nil)
		return
	}
	if err := m.users.Seed(m.opts.BcryptCost, m.opts.Accounts...); err != nil {
		applog.Error(nil, "users.registry.seed.fail", err, nil)
	}
}

func validateProfile(p domain.Profile) (domain.Profile, error) {
	var rules []string
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		rules = append(rules, "username is required")
	} else if _, ok := validate.Name(p.Username, 30); !ok {
		rules = append(rules, "username must be at most 30 characters")
	}
	if strings.TrimSpace(p.Email) == "" {
		rules = append(rules, "email is required")
	} else if e, ok := validate.Email(p.Email); !ok {
		rules = append(rules, "enter a valid email address")
	} else {
		p.Email = e
	}
	if p.Password == "" {
		rules = append(rules, "password is required")
	} else if !validate.Password(p.Password) {
		rules = append(rules, fmt.Sprintf("password must be at least %d characters", validate.MinPasswordLen))
	}
	if p.Password != p.ConfirmPassword {
		rules = append(rules, "passwords do not match")
	}
	if len(rules) > 0 {
		return p, invalid(rules...)
	}
	return p, nil
}

// SignUp registers remotely, or locally when the backend cannot answer.
func (m *SessionManager) SignUp(ctx context.Context, p domain.Profile) (*domain.User, error) {
	p, err := validateProfile(p)
	if err != nil {
		return nil, err
	}
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	rctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	res, err := m.api.SignUp(rctx, p)
	cancel()
	if err == nil {
		return m.establish(res.Token, backendUser(res.User, p.Email), "remote")
	}
	if !remote.IsUnavailable(err) {
		var se *remote.StatusError
		if errors.As(err, &se) && se.Code == 409 {
			return nil, authErr(DuplicateUser, err)
		}
		if errors.As(err, &se) && se.Message != "" {
			return nil, invalid(se.Message)
		}
		return nil, invalid("registration was rejected")
	}
	applog.Warn("auth.signup.fallback", err, map[string]any{"email": p.Email})

	lu, err := m.createLocal(p)
	if err != nil {
		return nil, err
	}
	u := lu.User
	token, err := m.issueToken(&u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return m.establish(token, &u, "local")
}

func (m *SessionManager) createLocal(p domain.Profile) (*repos.LocalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := domain.User{Username: p.Username, Email: p.Email, Role: domain.RoleUser}
	lu, err := m.users.Create(u, p.Password, m.opts.BcryptCost)
	var se *repos.StorageError
	if errors.As(err, &se) {
		m.resetRegistry(err)
		lu, err = m.users.Create(u, p.Password, m.opts.BcryptCost)
	}
	if errors.Is(err, repos.ErrDuplicateUser) {
		return nil, authErr(DuplicateUser, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create local user: %w", err)
	}
	return lu, nil
}

// SignOut clears the session everywhere and asks the UI to redirect. The
// in-memory session is cleared even if the store write fails.
func (m *SessionManager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var uid string
	if m.session.User != nil {
		uid = m.session.User.ID
	}
	m.session = domain.Session{}
	err := m.sessions.Clear()
	applog.Audit(nil, "session.signout", map[string]any{"user_id": uid})
	m.pub.Publish(notify.KindSession, "You have been signed out", "/signin")
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *SessionManager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.session.Authenticated || m.session.User == nil {
		return nil
	}
	cp := *m.session.User
	return &cp
}

func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

func (m *SessionManager) IsAdmin() bool {
	return m.CurrentUser().IsAdmin()
}
