package repos

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quickthrift/internal/domain"
)

var ErrDuplicateUser = errors.New("user already exists")

// LocalUser is a fallback registry record. Only the bcrypt hash is kept.
type LocalUser struct {
	domain.User
	Hash string `json:"password_hash"`
}

// UserRepo is the local user registry, keyed by lower-cased email.
type UserRepo struct{ s Store }

func NewUserRepo(s Store) *UserRepo { return &UserRepo{s: s} }

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *UserRepo) all() (map[string]LocalUser, error) {
	users := map[string]LocalUser{}
	if _, err := getJSON(r.s, KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = map[string]LocalUser{}
	}
	return users, nil
}

func (r *UserRepo) ByEmail(email string) (*LocalUser, error) {
	users, err := r.all()
	if err != nil {
		return nil, err
	}
	u, ok := users[emailKey(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Create stores a new user with a freshly hashed password.
func (r *UserRepo) Create(u domain.User, password string, cost int) (*LocalUser, error) {
	users, err := r.all()
	if err != nil {
		return nil, err
	}
	k := emailKey(u.Email)
	if _, ok := users[k]; ok {
		return nil, ErrDuplicateUser
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if !u.Role.Valid() {
		u.Role = domain.RoleUser
	}
	lu := LocalUser{User: u, Hash: string(h)}
	users[k] = lu
	if err := putJSON(r.s, KeyUsers, users); err != nil {
		return nil, err
	}
	return &lu, nil
}

// Reset drops the registry (used to recover from a corrupt value).
func (r *UserRepo) Reset() error { return r.s.Remove(KeyUsers) }

func (r *UserRepo) Count() (int, error) {
	users, err := r.all()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

type SeedAccount struct {
	ID, Username, Email, Password string
	Role                          domain.Role
}

// DemoAccount is the fixed fallback account that works without a backend.
var DemoAccount = SeedAccount{
	ID: "u-demo", Username: "demo", Email: "demo@quickthrift.com", Password: "demo123", Role: domain.RoleUser,
}

// Seed ensures the given accounts exist (idempotent; safe to run every start).
func (r *UserRepo) Seed(cost int, accounts ...SeedAccount) error {
	for _, a := range accounts {
		u := domain.User{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
		if _, err := r.Create(u, a.Password, cost); err != nil && !errors.Is(err, ErrDuplicateUser) {
			return err
		}
	}
	return nil
}
