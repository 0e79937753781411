package admin

import (
	"errors"
	"fmt"
	"time"

	"pennycentral/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const subject = "admin"

// Token is returned by a successful login.
type Token struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Service checks the moderator password and signs HS256 access tokens.
type Service struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func New(passwordHash, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled reports whether logins can succeed at all.
func (s *Service) Enabled() bool {
	return len(s.passwordHash) > 0 && len(s.secret) > 0
}

func (s *Service) Login(password string) (*Token, error) {
	if !s.Enabled() {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresIn: int(s.ttl.Seconds())}, nil
}

// Verify returns domain.ErrUnauthorized for anything but a live admin token.
func (s *Service) Verify(tokenString string) error {
	if !s.Enabled() || tokenString == "" {
		return domain.ErrUnauthorized
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return errors.Join(domain.ErrUnauthorized, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub != subject {
		return domain.ErrUnauthorized
	}
	return nil
}
