package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/internal/oauth"
	"github.com/anoixa/photo-album/utils"
)

const (
	maxDerivedUsernameLen = 20
	usernameSuffixLen     = 4
	usernameAttempts      = 5
)

// OAuthLogin returns the account for the profile email, creating it on first
// login. created reports whether a row was inserted.
func (s *Service) OAuthLogin(ctx context.Context, profile *oauth.Profile) (*models.User, bool, error) {
	if profile == nil || !validEmail(models.NormalizeEmail(profile.Email)) {
		return nil, false, ErrInvalidInput
	}
	email := models.NormalizeEmail(profile.Email)

	user, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, internal("oauth login", err, nil)
	}
	if user != nil {
		return user, false, nil
	}

	username, err := s.deriveUsername(ctx, email)
	if err != nil {
		return nil, false, err
	}

	user = &models.User{
		Name:          profile.DisplayName(),
		Email:         email,
		Username:      username,
		OAuthProvider: profile.ProviderName(),
	}
	if err := s.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent callback for the same email won the insert
			if existing, lookupErr := s.accounts.GetUserByEmail(ctx, email); lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, internal("oauth login", err, logrus.Fields{"username": username})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": user.OAuthProvider,
	}).Info("[Auth] account created from oauth login")
	return user, true, nil
}

// deriveUsername builds a username from the email local part, adding a
// random suffix until it is free.
func (s *Service) deriveUsername(ctx context.Context, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	if len(base) > maxDerivedUsernameLen {
		base = base[:maxDerivedUsernameLen]
	}

	candidate := base
	for i := 0; i < usernameAttempts; i++ {
		taken, err := s.accounts.UsernameExists(ctx, candidate)
		if err != nil {
			return "", internal("derive username", err, nil)
		}
		if !taken {
			return candidate, nil
		}

		suffix, err := utils.GenerateRandomSuffix(usernameSuffixLen)
		if err != nil {
			return "", internal("derive username", err, nil)
		}
		candidate = base + "_" + suffix
	}
	return "", internal("derive username", errors.New("no free username after retries"), nil)
}
