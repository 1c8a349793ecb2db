package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tempfiles-api/internal/domain/user"
)

const issuer = "tempfiles"

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrAnonymous      = errors.New("anonymous users have no session")
)

// Service signs and checks browser session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// UserUUID returns the public id of the session owner.
func (c *Claims) UserUUID() (user.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Issue returns a signed session for u and the moment it stops being valid.
func (s *Service) Issue(u *user.User) (string, time.Time, error) {
	if u.IsAnonymous() {
		return "", time.Time{}, ErrAnonymous
	}

	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Kind: string(u.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.UUID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

func (s *Service) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
