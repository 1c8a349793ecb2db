package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-secure-stdlib/base62"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tempfiles-api/config"
	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
)

const (
	// TokenPrefix marks a string as an API token of this service.
	TokenPrefix = "tfs_"
	// TokenSecretLen is the number of random base62 characters after the prefix.
	TokenSecretLen = 40
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// LooksLikeToken reports whether s carries the token prefix.
func LooksLikeToken(s string) bool {
	return strings.HasPrefix(s, TokenPrefix)
}

// CheckTokenSecret returns a problem description, or "" when s is shaped like a token.
func CheckTokenSecret(s string) string {
	if !LooksLikeToken(s) {
		return "token must start with " + TokenPrefix
	}
	body := s[len(TokenPrefix):]
	if len(body) != TokenSecretLen {
		return fmt.Sprintf("token must be %d characters", len(TokenPrefix)+TokenSecretLen)
	}
	for i := 0; i < len(body); i++ {
		if strings.IndexByte(base62Alphabet, body[i]) < 0 {
			return "token contains invalid characters"
		}
	}
	return ""
}

type TokenService struct {
	logger   *zap.Logger
	tokens   token.Repository
	hasher   ports.SecretHasher
	rng      io.Reader
	clock    ports.Clock
	tiers    config.Tokens
	mq       ports.EventPublisher
	mCounter *prometheus.CounterVec
}

func NewTokenService(
	logger *zap.Logger,
	tokens token.Repository,
	secretHasher ports.SecretHasher,
	rng io.Reader,
	clock ports.Clock,
	tiers config.Tokens,
	publisher ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.TokenService {
	return &TokenService{
		logger:   logger,
		tokens:   tokens,
		hasher:   secretHasher,
		rng:      rng,
		clock:    clock,
		tiers:    tiers,
		mq:       publisher,
		mCounter: mCounter,
	}
}

func (ts *TokenService) Issue(
	ctx context.Context,
	owner *user.User,
	name, tier string,
) (string, *token.Token, error) {
	name = strings.TrimSpace(name)
	if err := validation(map[string]string{"name": token.CheckName(name)}); err != nil {
		return "", nil, err
	}
	if owner.IsAnonymous() {
		return "", nil, ErrAnonymousOwner
	}
	days, ok := ts.tiers.Tiers[tier]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownDuration, tier)
	}

	existing, err := ts.tokens.FetchUserTokens(ctx, owner.ID)
	if err != nil {
		return "", nil, fmt.Errorf("fetch tokens of user %s: %w", owner.UUID, err)
	}
	for _, t := range existing {
		if t.Name == name {
			return "", nil, ErrDuplicateName
		}
	}

	body, err := base62.RandomWithReader(TokenSecretLen, ts.rng)
	if err != nil {
		return "", nil, fmt.Errorf("generate token secret: %w", err)
	}
	secret := TokenPrefix + body

	hash, err := ts.hasher.Hash(secret)
	if err != nil {
		return "", nil, fmt.Errorf("hash token secret: %w", err)
	}

	now := ts.clock.Now()
	t, err := ts.tokens.CreateToken(ctx, token.Token{
		UserID:    owner.ID,
		Name:      name,
		Hash:      hash,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(days) * 24 * time.Hour),
	})
	if err != nil {
		if errors.Is(err, token.ErrNameAlreadyExists) {
			return "", nil, ErrDuplicateName
		}
		return "", nil, err
	}

	ts.mq.Emit(mq.NewEvent(mq.ActionTokenIssued, owner.UUID.String(), map[string]any{
		"name":       t.Name,
		"expires_at": t.ExpiresAt,
	}))
	ts.mCounter.WithLabelValues(metrics.TokensIssued).Inc()

	return secret, t, nil
}

func (ts *TokenService) Revoke(ctx context.Context, owner *user.User, name string) error {
	if owner.IsAnonymous() {
		return ErrAnonymousOwner
	}

	name = strings.TrimSpace(name)
	deleted, err := ts.tokens.DeleteUserToken(ctx, owner.ID, name)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTokenNotFound
	}

	ts.mq.Emit(mq.NewEvent(mq.ActionTokenRevoked, owner.UUID.String(), map[string]any{"name": name}))
	ts.mCounter.WithLabelValues(metrics.TokensRevoked).Inc()

	return nil
}

// List returns every token of owner, expired ones included.
func (ts *TokenService) List(ctx context.Context, owner *user.User) (token.Tokens, error) {
	if owner.IsAnonymous() {
		return nil, ErrAnonymousOwner
	}
	return ts.tokens.FetchUserTokens(ctx, owner.ID)
}

// Tiers returns the configured tier names, shortest first.
func (ts *TokenService) Tiers() []string {
	return ts.tiers.TierNames()
}
