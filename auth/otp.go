package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/mail"
)

const codeLength = 6

// OTPChallenge describes a code that was just sent.
type OTPChallenge struct {
	MaskedEmail string `json:"masked_email"`
	// RetryAfter is how long until another code may be requested.
	RetryAfter int `json:"retry_after"`
	ExpiresIn  int `json:"expires_in"`
}

// RequestOTP emails a fresh sign-in code, replacing any pending one. A new
// code may only be requested once the cooldown since the previous one has
// passed. Resending goes through here as well.
func (s *Service) RequestOTP(ctx context.Context, email string) (OTPChallenge, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return OTPChallenge{}, err
	}

	now := s.now()
	prev, err := s.store.GetOTP(ctx, email)
	switch {
	case err == nil:
		if wait := prev.CreatedAt.Add(s.cfg.OTPCooldown).Sub(now); wait > 0 {
			return OTPChallenge{}, &domain.CooldownError{RetryAfter: wait}
		}
	case !errors.Is(err, domain.ErrNotFound):
		return OTPChallenge{}, err
	}

	code, err := newCode()
	if err != nil {
		return OTPChallenge{}, err
	}
	hash, err := s.hashPassword(code)
	if err != nil {
		return OTPChallenge{}, err
	}
	if err := s.store.SaveOTP(ctx, domain.OTPCode{
		Email:     email,
		CodeHash:  hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}); err != nil {
		return OTPChallenge{}, err
	}

	msg, err := mail.OTPMessage(email, code, s.cfg.OTPTTL)
	if err != nil {
		return OTPChallenge{}, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Without a delivered code the cooldown must not apply.
		if derr := s.store.DeleteOTP(ctx, email); derr != nil {
			s.log.Warn().Err(derr).Msg("failed to discard undelivered code")
		}
		return OTPChallenge{}, fmt.Errorf("send code: %w", err)
	}

	return OTPChallenge{
		MaskedEmail: domain.MaskEmail(email),
		RetryAfter:  int(s.cfg.OTPCooldown / time.Second),
		ExpiresIn:   int(s.cfg.OTPTTL / time.Second),
	}, nil
}

// VerifyOTP exchanges a valid code for a session. Each code allows
// OTPMaxAttempts wrong guesses before it is discarded.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (domain.User, domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if !isCode(code) {
		return domain.User{}, domain.Session{}, domain.ErrOTPInvalid
	}

	pending, err := s.store.GetOTP(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.Session{}, domain.ErrOTPInvalid
	}
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}

	if !s.now().Before(pending.ExpiresAt) || pending.Attempts >= s.cfg.OTPMaxAttempts {
		if err := s.store.DeleteOTP(ctx, email); err != nil {
			return domain.User{}, domain.Session{}, err
		}
		return domain.User{}, domain.Session{}, domain.ErrOTPExpired
	}

	if !checkHash(pending.CodeHash, code) {
		attempts, err := s.store.IncrementOTPAttempts(ctx, email)
		if err != nil {
			return domain.User{}, domain.Session{}, err
		}
		if attempts >= s.cfg.OTPMaxAttempts {
			if err := s.store.DeleteOTP(ctx, email); err != nil {
				return domain.User{}, domain.Session{}, err
			}
		}
		return domain.User{}, domain.Session{}, domain.ErrOTPInvalid
	}

	if err := s.store.DeleteOTP(ctx, email); err != nil {
		return domain.User{}, domain.Session{}, err
	}
	user, err := s.userForEmail(ctx, email)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	sess, err := s.issueSession(ctx, user.ID)
	return user, sess, err
}

func isCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
