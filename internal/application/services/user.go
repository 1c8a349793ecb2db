package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"tempfiles-api/internal/application/ports"
	domain "tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
)

type UserService struct {
	userRepository    domain.Repository
	hasher            ports.SecretHasher
	allowRegistration bool
	mq                ports.EventPublisher
	mCounter          *prometheus.CounterVec
}

func NewUserService(
	userRepository domain.Repository,
	secretHasher ports.SecretHasher,
	allowRegistration bool,
	publisher ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.UserService {
	return &UserService{
		userRepository:    userRepository,
		hasher:            secretHasher,
		allowRegistration: allowRegistration,
		mq:                publisher,
		mCounter:          mCounter,
	}
}

func (us *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	if !us.allowRegistration {
		return nil, ErrRegistrationClosed
	}

	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validation(map[string]string{
		"email":    domain.CheckEmail(email),
		"name":     domain.CheckName(name),
		"password": domain.CheckPassword(password),
	}); err != nil {
		return nil, err
	}

	existing, err := us.userRepository.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := us.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := us.userRepository.CreateUser(ctx, domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Kind:         domain.KindStandard,
	})
	if err != nil {
		return nil, err
	}

	us.mq.Emit(mq.NewEvent(mq.ActionUserRegistered, u.UUID.String(), map[string]any{"name": u.Name}))
	us.mCounter.WithLabelValues(metrics.UsersRegistered).Inc()

	return u, nil
}

func (us *UserService) FindUserByID(ctx context.Context, uuid domain.UUID) (*domain.User, error) {
	return us.userRepository.FetchUserByID(ctx, uuid)
}
