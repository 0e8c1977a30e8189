package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/mail"
)

// RequestPasswordReset emails a one-time reset link. Unknown addresses are
// ignored without error so the endpoint does not reveal who has an account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	if err := s.store.CreateReset(ctx, domain.PasswordReset{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.ResetTTL),
	}); err != nil {
		return err
	}

	msg, err := mail.ResetMessage(user.Email, s.resetLink(token), s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset link: %w", err)
	}
	return nil
}

func (s *Service) resetLink(token string) string {
	return strings.TrimRight(s.cfg.AppURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword sets a new password using an emailed token, signs the user
// out everywhere else and returns a new session.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) (domain.Session, error) {
	if err := domain.ValidateNewPassword(password, confirm); err != nil {
		return domain.Session{}, err
	}
	if token == "" {
		return domain.Session{}, domain.ErrTokenInvalid
	}
	userID, err := s.store.ConsumeReset(ctx, hashToken(token), s.now())
	if err != nil {
		return domain.Session{}, err
	}
	return s.replacePassword(ctx, userID, password)
}
