package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/token"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/hasher"
	"tempfiles-api/internal/infrastructure/metrics"
)

// dummySecret is hashed once so that unknown emails cost one verification too.
const dummySecret = "tempfiles-dummy-secret"

type AuthService struct {
	logger    *zap.Logger
	users     user.Repository
	tokens    token.Repository
	hasher    ports.SecretHasher
	clock     ports.Clock
	mCounter  *prometheus.CounterVec
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	logger *zap.Logger,
	users user.Repository,
	tokens token.Repository,
	secretHasher ports.SecretHasher,
	clock ports.Clock,
	mCounter *prometheus.CounterVec,
) ports.Authenticator {
	return &AuthService{
		logger:   logger,
		users:    users,
		tokens:   tokens,
		hasher:   secretHasher,
		clock:    clock,
		mCounter: mCounter,
	}
}

func (as *AuthService) VerifyLogin(ctx context.Context, cred ports.Credential) (*user.User, error) {
	var (
		u      *user.User
		err    error
		result string
	)
	switch c := cred.(type) {
	case ports.PasswordCredential:
		u, err = as.verifyPassword(ctx, c)
		result = metrics.LoginPasswordOK
	case ports.TokenCredential:
		u, err = as.verifyToken(ctx, c)
		result = metrics.LoginTokenOK
	default:
		return nil, fmt.Errorf("%w: unsupported credential %T", ErrValidation, cred)
	}
	if err != nil {
		if errors.Is(err, ErrWrongCredential) {
			as.mCounter.WithLabelValues(metrics.LoginFailed).Inc()
		}
		return nil, err
	}

	if err = as.users.TouchLastAction(ctx, u.ID, as.clock.Now()); err != nil {
		as.logger.Warn("update last action", zap.Stringer("user_uuid", u.UUID), zap.Error(err))
	}
	as.mCounter.WithLabelValues(result).Inc()

	return u, nil
}

func (as *AuthService) verifyPassword(ctx context.Context, c ports.PasswordCredential) (*user.User, error) {
	email := user.NormalizeEmail(c.Email)
	if err := validation(map[string]string{
		"email":    user.CheckEmail(email),
		"password": user.CheckPassword(c.Password),
	}); err != nil {
		return nil, err
	}

	u, err := as.users.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	if u == nil {
		as.burn(c.Password)
		return nil, ErrUserDoesNotExist
	}

	ok, err := as.hasher.Verify(c.Password, u.PasswordHash)
	if err != nil {
		as.integrityError("password hash of user is unusable", err, zap.Stringer("user_uuid", u.UUID))
		return nil, fmt.Errorf("verify password of user %s: %w", u.UUID, err)
	}
	if !ok {
		return nil, ErrWrongCredential
	}

	return u, nil
}

// verifyToken checks the secret against every live token. Each row has its own
// salt, so there is no index to narrow the scan.
func (as *AuthService) verifyToken(ctx context.Context, c ports.TokenCredential) (*user.User, error) {
	if err := validation(map[string]string{"token": CheckTokenSecret(c.Secret)}); err != nil {
		return nil, err
	}

	ts, err := as.tokens.FetchAllTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tokens: %w", err)
	}

	now := as.clock.Now()
	for _, t := range ts {
		if t.Expired(now) {
			continue
		}
		ok, err := as.hasher.Verify(c.Secret, t.Hash)
		if err != nil {
			as.integrityError("token hash is unusable, skipping", err,
				zap.Uint64("token_id", uint64(t.ID)),
				zap.String("token_name", t.Name),
			)
			continue
		}
		if !ok {
			continue
		}

		u, err := as.users.FetchUserByInternalID(ctx, t.UserID)
		if err != nil {
			return nil, fmt.Errorf("fetch token owner: %w", err)
		}
		if u == nil {
			as.logger.Error("token owner is missing", zap.Uint64("token_id", uint64(t.ID)))
			return nil, ErrWrongCredential
		}
		return u, nil
	}

	return nil, ErrWrongCredential
}

func (as *AuthService) integrityError(msg string, err error, fields ...zap.Field) {
	if errors.Is(err, hasher.ErrMissingSalt) || errors.Is(err, hasher.ErrMalformedHash) {
		as.logger.Error(msg, append(fields, zap.Error(err))...)
		return
	}
	as.logger.Warn(msg, append(fields, zap.Error(err))...)
}

// burn spends one verification on a throwaway hash.
func (as *AuthService) burn(password string) {
	as.dummyOnce.Do(func() {
		h, err := as.hasher.Hash(dummySecret)
		if err != nil {
			as.logger.Error("dummy hash", zap.Error(err))
			return
		}
		as.dummyHash = h
	})
	if as.dummyHash != "" {
		_, _ = as.hasher.Verify(password, as.dummyHash)
	}
}
