// Package auth signs users in with a password, an emailed one-time code or
// Google, and resolves session tokens back to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/mail"
)

// Store is the persistence the service needs. store.DB and memory.Store
// both satisfy it.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreateSession(ctx context.Context, s domain.SessionRecord) error
	GetSession(ctx context.Context, tokenHash string) (domain.SessionRecord, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error

	SaveOTP(ctx context.Context, c domain.OTPCode) error
	GetOTP(ctx context.Context, email string) (domain.OTPCode, error)
	IncrementOTPAttempts(ctx context.Context, email string) (int, error)
	DeleteOTP(ctx context.Context, email string) error

	CreateReset(ctx context.Context, r domain.PasswordReset) error
	ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

type Config struct {
	SessionTTL     time.Duration
	OTPTTL         time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int
	ResetTTL       time.Duration
	// AppURL is the web client's base URL, used to build reset links.
	AppURL     string
	BcryptCost int
}

func DefaultConfig() Config {
	return Config{
		SessionTTL:     30 * 24 * time.Hour,
		OTPTTL:         10 * time.Minute,
		OTPCooldown:    60 * time.Second,
		OTPMaxAttempts: 5,
		ResetTTL:       time.Hour,
		AppURL:         "http://localhost:3000",
		BcryptCost:     bcrypt.DefaultCost,
	}
}

type Service struct {
	store  Store
	mailer mail.Mailer
	cfg    Config
	google *GoogleProvider
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, mailer mail.Mailer, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		log:    log.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// WithGoogle enables Google sign-in.
func (s *Service) WithGoogle(g *GoogleProvider) *Service {
	s.google = g
	return s
}

func (s *Service) SignUp(ctx context.Context, email, password string) (domain.User, domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, domain.Session{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.User{}, domain.Session{}, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	user, err := s.store.CreateUser(ctx, email, hash)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user signed up")

	sess, err := s.issueSession(ctx, user.ID)
	return user, sess, err
}

func (s *Service) SignIn(ctx context.Context, email, password string) (domain.User, domain.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	if !user.HasPassword() || !checkHash(user.PasswordHash, password) {
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, user.ID)
	return user, sess, err
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, hashToken(token))
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	hash := hashToken(token)
	rec, err := s.store.GetSession(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, err
	}
	if !s.now().Before(rec.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, hash); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete expired session")
		}
		return domain.User{}, domain.ErrUnauthorized
	}

	user, err := s.store.GetUserByID(ctx, rec.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, err
}

// ChangePassword replaces the password of a signed-in user. The current
// password is required when the account has one. Every other session is
// revoked and a fresh one returned.
func (s *Service) ChangePassword(ctx context.Context, user domain.User, current, next, confirm string) (domain.Session, error) {
	if user.HasPassword() {
		if current == "" {
			return domain.Session{}, &domain.ValidationError{Field: "old_password", Message: "All fields are required"}
		}
		if !checkHash(user.PasswordHash, current) {
			return domain.Session{}, &domain.ValidationError{Field: "old_password", Message: "Current password is incorrect"}
		}
	}
	if err := domain.ValidateNewPassword(next, confirm); err != nil {
		return domain.Session{}, err
	}
	return s.replacePassword(ctx, user.ID, next)
}

func (s *Service) replacePassword(ctx context.Context, userID, password string) (domain.Session, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.DeleteUserSessions(ctx, userID); err != nil {
		return domain.Session{}, err
	}
	return s.issueSession(ctx, userID)
}

// userForEmail returns the account for email, creating a password-less one
// on first sign-in.
func (s *Service) userForEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return user, err
	}
	user, err = s.store.CreateUser(ctx, email, "")
	if errors.Is(err, domain.ErrEmailTaken) {
		// Lost a race with a concurrent first sign-in.
		return s.store.GetUserByEmail(ctx, email)
	}
	if err == nil {
		s.log.Info().Str("user_id", user.ID).Msg("user created on first sign-in")
	}
	return user, err
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkHash(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
