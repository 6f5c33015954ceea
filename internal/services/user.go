package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usersoap/usersvc/internal/hasher"
	"github.com/usersoap/usersvc/internal/logging"
	"github.com/usersoap/usersvc/internal/store"
	"github.com/usersoap/usersvc/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
}

// PasswordHasher derives a storable digest from a plaintext password.
type PasswordHasher interface {
	Hash(password string) (hasher.Digest, error)
}

// EventPublisher sends domain events. It reports no errors; delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, kind types.EventKind, data any)
}

// Registration holds the fields of a registration request.
type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	DNI       string
	Email     string
	City      string
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo      UserRepository
	hasher    PasswordHasher
	publisher EventPublisher
	logger    *slog.Logger
}

func NewUserService(repo UserRepository, hasher PasswordHasher, publisher EventPublisher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger.With("component", "registration"),
	}
}

// Register hashes the password, inserts the user and publishes exactly one
// event describing the outcome. The event is sent only after the store
// answered: UserRegistered once the row is committed, UserRegistrationFailed
// when a unique field was already taken. Other failures publish nothing.
//
// A duplicate is returned as an error matching store.ErrDuplicateKey.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	digest, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     reg.Username,
		PasswordHash: digest.Hash,
		PasswordSalt: digest.Salt,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		DNI:          reg.DNI,
		Email:        reg.Email,
		City:         reg.City,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			s.logger.WarnContext(ctx, "duplicate registration",
				"username", reg.Username,
				"email", logging.RedactEmail(reg.Email),
				"error", err,
			)
			s.publisher.Publish(ctx, types.EventUserRegistrationFailed, types.UserRegistrationFailedData{
				Username: reg.Username,
				DNI:      reg.DNI,
				Email:    reg.Email,
				Error:    types.DuplicateEntryError,
				Detail:   conflictDetail(err),
			})
			return types.User{}, err
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"username", user.Username,
		"email", logging.RedactEmail(user.Email),
	)
	s.publisher.Publish(ctx, types.EventUserRegistered, types.NewUserRegisteredData(user))
	return user, nil
}

func conflictDetail(err error) string {
	var dupErr *store.DuplicateKeyError
	if errors.As(err, &dupErr) && dupErr.Field != "" {
		return dupErr.Field + " already registered"
	}
	return "unique constraint violation"
}
