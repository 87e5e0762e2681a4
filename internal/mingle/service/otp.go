package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/mailer"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/time/rate"
)

const maxOTPAttempts = 5

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrResendTooSoon   = errors.New("a code was sent recently, try again shortly")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Issued describes a code that has just been sent. The code itself is only
// ever in the email.
type Issued struct {
	Handle      idx.ID
	ExpiresAt   time.Time
	ResendAfter time.Time
}

// OTPService sends six digit, single-use codes to an email address and checks
// them. Each issue derives its code from a fresh TOTP secret whose period is
// the code's lifetime, so the code is fixed for that window.
type OTPService struct {
	Codes          store.OTPCodes
	Mailer         mailer.Mailer
	Issuer         string
	TTL            time.Duration
	ResendCooldown time.Duration
	Logger         *slog.Logger
	Now            func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewOTPService(codes store.OTPCodes, m mailer.Mailer, logger *slog.Logger, issuer string, ttl, cooldown time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPService{
		Codes:          codes,
		Mailer:         m,
		Issuer:         issuer,
		TTL:            ttl,
		ResendCooldown: cooldown,
		Logger:         logger,
		Now:            time.Now,
		limiters:       make(map[string]*rate.Limiter),
	}
}

func (s *OTPService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.TTL / time.Second),
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// allowSend applies the per-email resend cooldown.
func (s *OTPService) allowSend(email string, now time.Time) bool {
	if s.ResendCooldown <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiters == nil {
		s.limiters = make(map[string]*rate.Limiter)
	}
	l, ok := s.limiters[email]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.ResendCooldown), 1)
		s.limiters[email] = l
	}
	return l.AllowN(now, 1)
}

// Issue generates a code for email, stores it and mails it. Any earlier code
// for the same address stops working.
func (s *OTPService) Issue(ctx context.Context, email string) (Issued, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return Issued{}, ErrInvalidEmail
	}

	now := s.Now()
	if !s.allowSend(email, now) {
		return Issued{}, ErrResendTooSoon
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      uint(s.TTL / time.Second),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate otp secret: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), now, s.validateOpts())
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate otp code: %w", err)
	}

	rec := domain.OTPCode{
		Handle:    idx.NewAt(now),
		Email:     email,
		Secret:    key.Secret(),
		IssuedAt:  now.UTC(),
		ExpiresAt: now.Add(s.TTL).UTC(),
	}
	if err := s.Codes.PutCode(ctx, rec); err != nil {
		return Issued{}, fmt.Errorf("failed to store otp code: %w", err)
	}

	err = s.Mailer.SendCode(ctx, mailer.CodeEmail{
		Email:            email,
		Code:             code,
		ExpiresInMinutes: int(s.TTL.Round(time.Minute) / time.Minute),
	})
	if err != nil {
		_ = s.Codes.DeleteCode(ctx, email)
		return Issued{}, fmt.Errorf("failed to send otp code: %w", err)
	}

	s.Logger.Info("otp issued", "handle", rec.Handle, "expires_at", rec.ExpiresAt)
	return Issued{
		Handle:      rec.Handle,
		ExpiresAt:   rec.ExpiresAt,
		ResendAfter: now.Add(s.ResendCooldown).UTC(),
	}, nil
}

// Verify checks code against the outstanding code for email. A correct code is
// consumed; a wrong one counts towards maxOTPAttempts.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)

	rec, err := s.Codes.GetCode(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("failed to load otp code: %w", err)
	}

	if rec.Expired(s.Now()) {
		_ = s.Codes.DeleteCode(ctx, email)
		return ErrCodeExpired
	}

	ok, err := totp.ValidateCustom(strings.TrimSpace(code), rec.Secret, rec.IssuedAt, s.validateOpts())
	if err != nil || !ok {
		rec.Attempts++
		if rec.Attempts >= maxOTPAttempts {
			_ = s.Codes.DeleteCode(ctx, email)
			return ErrTooManyAttempts
		}
		if err := s.Codes.PutCode(ctx, rec); err != nil {
			s.Logger.Warn("failed to record otp attempt", "handle", rec.Handle, "error", err)
		}
		return ErrInvalidCode
	}

	if err := s.Codes.DeleteCode(ctx, email); err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}
	return nil
}
