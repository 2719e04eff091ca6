package repos

import (
	"errors"

	"quickthrift/internal/domain"
)

type SessionRepo struct{ s Store }

func NewSessionRepo(s Store) *SessionRepo { return &SessionRepo{s: s} }

// Load returns the stored token and user. Either may be empty when only half
// a session was persisted; the caller decides what that means.
func (r *SessionRepo) Load() (string, *domain.User, error) {
	var token string
	if _, err := getJSON(r.s, KeySessionToken, &token); err != nil {
		return "", nil, err
	}
	var u domain.User
	found, err := getJSON(r.s, KeySessionUser, &u)
	if err != nil {
		return token, nil, err
	}
	if !found {
		return token, nil, nil
	}
	return token, &u, nil
}

func (r *SessionRepo) Save(token string, u *domain.User) error {
	if err := putJSON(r.s, KeySessionToken, token); err != nil {
		return err
	}
	return putJSON(r.s, KeySessionUser, u)
}

// Clear removes both keys, attempting the second even if the first fails.
func (r *SessionRepo) Clear() error {
	return errors.Join(r.s.Remove(KeySessionToken), r.s.Remove(KeySessionUser))
}
