package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/anoixa/photo-album/cache"
	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/database/repo/accounts"
	"github.com/anoixa/photo-album/internal/mail"
	"github.com/anoixa/photo-album/storage"
	"github.com/anoixa/photo-album/utils"
	cryptopackage "github.com/anoixa/photo-album/utils/crypto"
	"github.com/anoixa/photo-album/utils/generator"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 6

// fileDeleteConcurrency bounds parallel storage deletes on account removal.
const fileDeleteConcurrency = 4

// Options 身份服务配置
type Options struct {
	Secret         string
	BaseURL        string
	ResetTokenTTL  time.Duration
	OTPTTL         time.Duration
	OTPMaxAttempts int
}

// Service 身份服务: 注册、登录、密码重置、资料修改与账户删除
type Service struct {
	accounts accounts.RepositoryInterface
	cache    cache.Provider
	mailer   mail.Mailer
	files    storage.Provider
	tokens   *ResetTokens
	paths    *generator.PathGenerator

	baseURL        string
	otpTTL         time.Duration
	otpMaxAttempts int

	// dispatch runs outbound mail off the request path.
	dispatch func(func())
}

// NewService 创建身份服务
func NewService(
	accountsRepo accounts.RepositoryInterface,
	cacheProvider cache.Provider,
	mailer mail.Mailer,
	files storage.Provider,
	opts Options,
) (*Service, error) {
	tokens, err := NewResetTokens(opts.Secret, opts.ResetTokenTTL)
	if err != nil {
		return nil, err
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = DefaultOTPTTL
	}
	if opts.OTPMaxAttempts <= 0 {
		opts.OTPMaxAttempts = DefaultOTPMaxAttempts
	}

	return &Service{
		accounts:       accountsRepo,
		cache:          cacheProvider,
		mailer:         mailer,
		files:          files,
		tokens:         tokens,
		paths:          generator.NewPathGenerator(),
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		otpTTL:         opts.OTPTTL,
		otpMaxAttempts: opts.OTPMaxAttempts,
		dispatch:       utils.SafeGo,
	}, nil
}

// Tokens 返回重置令牌签发器
func (s *Service) Tokens() *ResetTokens {
	return s.tokens
}

func internal(op string, err error, fields logrus.Fields) error {
	logrus.WithFields(fields).WithError(err).Errorf("[Auth] %s failed", op)
	return ErrInternal
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	hash, err := cryptopackage.GenerateFromPassword(password)
	if err != nil {
		return "", internal("hash password", err, nil)
	}
	return hash, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// GetUser 按 ID 加载用户，不存在时返回 nil, nil
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.accounts.GetUserByID(ctx, id)
	if err != nil {
		return nil, internal("load user", err, logrus.Fields{"user_id": id})
	}
	return user, nil
}

// ListUsers 列出所有用户
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.accounts.ListUsers(ctx)
	if err != nil {
		return nil, internal("list users", err, nil)
	}
	return users, nil
}

// Register creates a local account. Username is checked before email.
func (s *Service) Register(ctx context.Context, name, email, username, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	email = models.NormalizeEmail(email)
	if name == "" || username == "" || !validEmail(email) {
		return nil, fmt.Errorf("%w: name, username and a valid email are required", ErrInvalidInput)
	}

	if existing, err := s.accounts.GetUserByUsername(ctx, username); err != nil {
		return nil, internal("register", err, logrus.Fields{"username": utils.SanitizeLogUsername(username)})
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.accounts.GetUserByEmail(ctx, email); err != nil {
		return nil, internal("register", err, logrus.Fields{"username": utils.SanitizeLogUsername(username)})
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Username: username,
		Password: &hash,
	}
	if err := s.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateCause(ctx, username)
		}
		return nil, internal("register", err, logrus.Fields{"username": utils.SanitizeLogUsername(username)})
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": utils.SanitizeLogUsername(username)}).Info("[Auth] user registered")
	return user, nil
}

// duplicateCause tells which unique column a racing insert hit.
func (s *Service) duplicateCause(ctx context.Context, username string) error {
	if taken, err := s.accounts.UsernameExists(ctx, username); err == nil && taken {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

// Authenticate checks a username-or-email and password. Legacy bcrypt hashes
// are upgraded to argon2id on success.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.accounts.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, internal("authenticate", err, logrus.Fields{"identifier": utils.SanitizeLogUsername(identifier)})
	}
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := cryptopackage.VerifyPassword(password, *user.Password)
	if err != nil {
		logrus.WithField("user_id", user.ID).WithError(err).Warn("[Auth] stored password hash could not be verified")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if cryptopackage.NeedsRehash(*user.Password) {
		if hash, err := cryptopackage.GenerateFromPassword(password); err == nil {
			if _, err := s.accounts.UpdatePassword(ctx, user.Email, hash); err == nil {
				user.Password = &hash
			}
		}
	}
	return user, nil
}

// IssueResetToken 为用户签发密码重置令牌
func (s *Service) IssueResetToken(user *models.User) (string, error) {
	return s.tokens.Issue(user.Email)
}

// VerifyResetToken returns the email a token names.
func (s *Service) VerifyResetToken(token string) (string, bool) {
	return s.tokens.Verify(token)
}

// RequestPasswordReset mails a reset link when the email belongs to an
// account. The result never reveals whether it does.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		return internal("request password reset", err, nil)
	}
	if user == nil {
		utils.LogIfDevf("[Auth] password reset requested for unknown email")
		return nil
	}

	token, err := s.IssueResetToken(user)
	if err != nil {
		return internal("request password reset", err, logrus.Fields{"user_id": user.ID})
	}

	msg, err := mail.PasswordResetMessage(user.Email, user.Name, s.baseURL+"/reset_password/"+token, s.tokens.TTL())
	if err != nil {
		return internal("request password reset", err, logrus.Fields{"user_id": user.ID})
	}
	s.sendInBackground(msg, user.ID)
	return nil
}

func (s *Service) sendInBackground(msg mail.Message, userID uint) {
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			logrus.WithField("user_id", userID).WithError(err).Error("[Auth] failed to send mail")
		}
	})
}

// ResetPassword sets a new password for the account named by token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, ok := s.VerifyResetToken(token)
	if !ok {
		return ErrInvalidToken
	}

	err := s.UpdatePassword(ctx, email, newPassword)
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidToken
	}
	return err
}

// UpdatePassword 更新指定邮箱账户的密码
func (s *Service) UpdatePassword(ctx context.Context, email, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	updated, err := s.accounts.UpdatePassword(ctx, email, hash)
	if err != nil {
		return internal("update password", err, nil)
	}
	if !updated {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile changes username, name and email. Taken values owned by a
// different account are rejected.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, username, name, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if username == "" || name == "" || !validEmail(email) {
		return nil, fmt.Errorf("%w: name, username and a valid email are required", ErrInvalidInput)
	}

	fields := logrus.Fields{"user_id": userID}
	if other, err := s.accounts.GetUserByUsername(ctx, username); err != nil {
		return nil, internal("update profile", err, fields)
	} else if other != nil && other.ID != userID {
		return nil, ErrUsernameTaken
	}
	if other, err := s.accounts.GetUserByEmail(ctx, email); err != nil {
		return nil, internal("update profile", err, fields)
	} else if other != nil && other.ID != userID {
		return nil, ErrEmailTaken
	}

	err := s.accounts.UpdateProfile(ctx, userID, accounts.ProfileUpdate{Name: name, Username: username, Email: email})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateCause(ctx, username)
		}
		return nil, internal("update profile", err, fields)
	}

	user, err := s.accounts.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal("update profile", err, fields)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteAccount removes the user and its photo rows in one transaction, then
// deletes the files. File failures are logged and left for the clean sweep.
func (s *Service) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.accounts.GetUserByID(ctx, userID)
	if err != nil {
		return internal("delete account", err, logrus.Fields{"user_id": userID})
	}
	if user == nil {
		return ErrUserNotFound
	}

	photos, err := s.accounts.DeleteUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return internal("delete account", err, logrus.Fields{"user_id": userID})
	}

	keys := make([]string, 0, 2*len(photos)+1)
	for _, p := range photos {
		keys = append(keys, s.paths.StoragePath(userID, p.Filename), s.paths.ThumbnailPath(userID, p.Filename))
	}
	if user.ProfilePhoto != "" {
		keys = append(keys, s.paths.StoragePath(userID, user.ProfilePhoto))
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(fileDeleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := storage.IgnoreNotFound(s.files.DeleteWithContext(gctx, key)); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": userID, "key": key}).WithError(err).
					Warn("[Auth] failed to delete file of removed account")
			}
			return nil
		})
	}
	_ = g.Wait()

	logrus.WithFields(logrus.Fields{"user_id": userID, "photos": len(photos)}).Info("[Auth] account deleted")
	return nil
}
