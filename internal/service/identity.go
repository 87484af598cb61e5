package service

import (
	"github.com/YinChingZ/LawAI/internal/auth"
	"github.com/YinChingZ/LawAI/internal/domain"
)

// Authenticate validates a bearer token and returns the username it was issued to.
func (s *Service) Authenticate(token string) (string, error) {
	if s.tokens == nil {
		return "", auth.ErrNoSecret
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ResolveIdentity picks the caller's identity: a valid bearer token first, then a
// username supplied by a trusted front end, then a guest id.
func (s *Service) ResolveIdentity(bearer, username, guestID string) (domain.Identity, error) {
	if bearer != "" {
		if subject, err := s.Authenticate(bearer); err == nil {
			return domain.Authenticated(subject), nil
		}
	}
	if username != "" {
		return domain.Authenticated(username), nil
	}
	if guestID != "" {
		return domain.Guest(guestID), nil
	}
	return domain.Identity{}, domain.ErrIdentityRequired
}
