package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/cache"
	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/internal/mail"
	"github.com/anoixa/photo-album/utils"
)

const (
	// DefaultOTPTTL 验证码有效期
	DefaultOTPTTL = 10 * time.Minute
	// DefaultOTPMaxAttempts 单个验证码允许的最大校验次数
	DefaultOTPMaxAttempts = 5

	otpDigits = 6
)

type otpEntry struct {
	Code   string `json:"code"`
	UserID uint   `json:"user_id"`
}

// SendResetOTP mails a fresh 6-digit code to the account with email. A new
// code replaces the previous one and resets its attempt counter. Unknown
// emails return nil without sending anything.
func (s *Service) SendResetOTP(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	user, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		return internal("send reset otp", err, nil)
	}
	if user == nil {
		utils.LogIfDevf("[Auth] reset code requested for unknown email")
		return nil
	}

	code, err := utils.GenerateNumericCode(otpDigits)
	if err != nil {
		return internal("send reset otp", err, logrus.Fields{"user_id": user.ID})
	}

	if err := s.cache.Set(ctx, cache.ResetOTP.Build(email), otpEntry{Code: code, UserID: user.ID}, s.otpTTL); err != nil {
		return internal("send reset otp", err, logrus.Fields{"user_id": user.ID})
	}
	if err := s.cache.Delete(ctx, cache.ResetOTPAttempts.Build(email)); err != nil {
		return internal("send reset otp", err, logrus.Fields{"user_id": user.ID})
	}

	msg, err := mail.ResetOTPMessage(user.Email, user.Name, code, s.otpTTL)
	if err != nil {
		return internal("send reset otp", err, logrus.Fields{"user_id": user.ID})
	}
	s.sendInBackground(msg, user.ID)
	return nil
}

// ResetPasswordWithOTP checks code for email and sets newPassword. Each call
// counts as an attempt; once the limit is exceeded the code is locked until it
// expires or a new one is requested. A matching code is consumed.
func (s *Service) ResetPasswordWithOTP(ctx context.Context, email, code, newPassword string) error {
	email = models.NormalizeEmail(email)
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	codeKey := cache.ResetOTP.Build(email)
	attemptsKey := cache.ResetOTPAttempts.Build(email)

	var entry otpEntry
	if err := s.cache.Get(ctx, codeKey, &entry); err != nil {
		if cache.IsCacheMiss(err) {
			return ErrInvalidOTP
		}
		return internal("verify reset otp", err, nil)
	}

	attempts, err := s.cache.Increment(ctx, attemptsKey, s.otpTTL)
	if err != nil {
		return internal("verify reset otp", err, logrus.Fields{"user_id": entry.UserID})
	}
	if attempts > int64(s.otpMaxAttempts) {
		logrus.WithField("user_id", entry.UserID).Warn("[Auth] reset code locked after too many attempts")
		return ErrOTPLocked
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		return ErrInvalidOTP
	}

	_ = s.cache.Delete(ctx, codeKey)
	_ = s.cache.Delete(ctx, attemptsKey)

	if err := s.UpdatePassword(ctx, email, newPassword); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	logrus.WithField("user_id", entry.UserID).Info("[Auth] password reset with one-time code")
	return nil
}

// RevokeResetOTP drops any pending code and attempt counter for email.
func (s *Service) RevokeResetOTP(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	var errs []error
	for _, key := range []string{cache.ResetOTP.Build(email), cache.ResetOTPAttempts.Build(email)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return internal("revoke reset otp", err, nil)
	}
	return nil
}
