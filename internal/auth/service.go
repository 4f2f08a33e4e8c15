package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/animedojo/anime-api/internal/shared"
)

// FailureKind classifies an authentication failure.
type FailureKind int

const (
	UnknownUser FailureKind = iota + 1
	BadCredential
)

func (k FailureKind) String() string {
	switch k {
	case UnknownUser:
		return "unknown_user"
	case BadCredential:
		return "bad_credential"
	default:
		return "unknown"
	}
}

// Failure is returned for rejected credentials. Both kinds match
// shared.ErrInvalidCredentials so callers cannot tell them apart by status.
type Failure struct {
	Kind     FailureKind
	Username string
}

func (f *Failure) Error() string {
	return "authentication failed: " + f.Kind.String()
}

// Is makes Failure match shared.ErrInvalidCredentials.
func (f *Failure) Is(target error) bool {
	return target == shared.ErrInvalidCredentials
}

// Outcome labels reported to the OutcomeObserver.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// OutcomeObserver receives one outcome label per authentication attempt.
type OutcomeObserver interface {
	ObserveAuthentication(outcome string)
}

// dummyHash is compared against when the username is unknown so that both
// failure kinds cost one bcrypt comparison.
var dummyHash = []byte("$2a$10$5OI6881o1onA5Ra4LYKiE..adFHPQjmAaupjWV8pnrYkEwNd8Yl/6")

// Service wraps authentication business rules.
type Service struct {
	store    CredentialStore
	encoder  *PasswordEncoder
	logger   *slog.Logger
	observer OutcomeObserver
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used for configuration problems.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithObserver reports authentication outcomes, typically to metrics.
func WithObserver(observer OutcomeObserver) Option {
	return func(s *Service) { s.observer = observer }
}

// NewService constructs a new Service.
func NewService(store CredentialStore, encoder *PasswordEncoder, opts ...Option) *Service {
	if encoder == nil {
		encoder = NewPasswordEncoder(bcrypt.DefaultCost)
	}
	s := &Service{store: store, encoder: encoder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate verifies username and secret. It returns the principal with
// its full role set, a *Failure for rejected credentials, or a wrapped store
// error.
func (s *Service) Authenticate(ctx context.Context, username, secret string) (*Principal, error) {
	p, err := s.authenticate(ctx, username, secret)
	s.observe(err)
	return p, err
}

func (s *Service) authenticate(ctx context.Context, username, secret string) (*Principal, error) {
	principal, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
			return nil, &Failure{Kind: UnknownUser, Username: username}
		}
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if err := s.encoder.Matches(secret, principal.PasswordHash); err != nil {
		if errors.Is(err, ErrUnsupportedHash) {
			s.logger.Error("stored password hash is not usable", slog.String("username", username), slog.Any("error", err))
		}
		return nil, &Failure{Kind: BadCredential, Username: username}
	}
	if len(principal.Roles) == 0 {
		s.logger.Warn("account without roles rejected", slog.String("username", username))
		return nil, &Failure{Kind: BadCredential, Username: username}
	}
	return principal, nil
}

func (s *Service) observe(err error) {
	if s.observer == nil {
		return
	}
	var failure *Failure
	switch {
	case err == nil:
		s.observer.ObserveAuthentication(OutcomeSuccess)
	case errors.As(err, &failure):
		s.observer.ObserveAuthentication(failure.Kind.String())
	default:
		s.observer.ObserveAuthentication(OutcomeError)
	}
}
