package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"same-inventory/internal/infra"
	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/pkg/jwt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	ChangePassword(ctx context.Context, sess *session.Session, req *ChangePasswordRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sess *session.Session) error
	// Authenticate turns a session token into the live session it belongs to.
	Authenticate(ctx context.Context, token string) (*session.Session, error)
	// Watch reports when sess is signed out elsewhere.
	Watch(sess *session.Session) (<-chan session.Change, func())
}

type AuthOptions struct {
	ResetTTL      time.Duration
	PublicBaseURL string
}

type authService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
	tokens       *jwt.Manager
	mailer       infra.Mailer
	broker       *session.Broker
	opts         AuthOptions
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, settingsRepo repository.SettingsRepository,
	tokens *jwt.Manager, mailer infra.Mailer, broker *session.Broker, opts AuthOptions) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		tokens:       tokens,
		mailer:       mailer,
		broker:       broker,
		opts:         opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		IsActive:     true,
		TokenVersion: uuid.NewString(),
	}
	user.ID = uuid.New()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// The account and its initial settings are created together
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.CreateTx(tx, user); err != nil {
			return err
		}
		scope := session.New(user.ID, user.Email, user.DisplayName, user.TokenVersion).Scope()
		settings := model.DefaultSettings(user.ID)
		settings.DisplayName = user.DisplayName
		return s.settingsRepo.CreateTx(tx, scope, &settings)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with another registration of the same email
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single session: a new token version signs every other session out
	version := uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, errors.New("failed to update session")
	}
	user.TokenVersion = version
	s.broker.Revoke(user.ID, version, "signed in on another device")

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.DisplayName, user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

// ForgotPassword mails a reset link. Unknown or inactive accounts get no
// mail and no error, so the endpoint doesn't reveal who is registered.
func (s *authService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil || !user.IsActive {
		return nil
	}

	token, err := s.tokens.GenerateResetToken(user.ID, user.Email, user.TokenVersion, s.opts.ResetTTL)
	if err != nil {
		return errors.New("failed to generate reset token")
	}
	link := strings.TrimRight(s.opts.PublicBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)

	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("reset mail not sent")
		return errors.New("could not send reset e-mail, try again later")
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	claims, err := s.tokens.ValidateToken(req.Token, jwt.PurposeReset)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return ErrInvalidResetToken
	}
	// A reset link dies with the token version it was issued for
	if user.TokenVersion != claims.TokenVersion {
		return ErrInvalidResetToken
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password, uuid.NewString()); err != nil {
		return err
	}

	s.broker.Revoke(user.ID, "", "password was reset")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, sess *session.Session, req *ChangePasswordRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(req.OldPassword) {
		return nil, ErrWrongPassword
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return nil, errors.New("failed to hash new password")
	}
	version := uuid.NewString()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password, version); err != nil {
		return nil, err
	}
	user.TokenVersion = version
	s.broker.Revoke(user.ID, version, "password changed")

	// The caller keeps working with the fresh token
	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.userRepo.UpdateTokenVersion(ctx, sess.UserID, uuid.NewString()); err != nil {
		return err
	}
	s.broker.Revoke(sess.UserID, "", "signed out")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	claims, err := s.tokens.ValidateToken(token, jwt.PurposeSession)
	if err != nil {
		return nil, &AuthError{Status: 401, Message: err.Error()}
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, &AuthError{Status: 401, Message: "user not found"}
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionRevoked
	}

	return session.New(user.ID, user.Email, user.DisplayName, user.TokenVersion), nil
}

func (s *authService) Watch(sess *session.Session) (<-chan session.Change, func()) {
	return s.broker.Watch(sess)
}
