package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type captureMailer struct {
	to, link string
	err      error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.to, m.link = to, link
	return m.err
}

type authFixture struct {
	svc    AuthService
	db     *gorm.DB
	mailer *captureMailer
	broker *session.Broker
	tokens *jwt.Manager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newTestDB(t)
	f := &authFixture{
		db:     db,
		mailer: &captureMailer{},
		broker: session.NewBroker(),
		tokens: jwt.NewManager("test-secret", time.Hour),
	}
	f.svc = NewAuthService(db, repository.NewUserRepo(db), repository.NewSettingsRepo(db),
		f.tokens, f.mailer, f.broker, AuthOptions{ResetTTL: 15 * time.Minute, PublicBaseURL: "http://app.local/"})
	return f
}

func (f *authFixture) register(t *testing.T) *LoginResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &RegisterRequest{
		Email:       " Dona@Example.com ",
		Password:    "secret1",
		DisplayName: "Mercadinho da Dona",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister_CreatesAccountAndSettings(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t)

	assert.Equal(t, "dona@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	sess, err := f.svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, sess.UserID.String())

	var settings model.Settings
	require.NoError(t, f.db.First(&settings, "tenant_id = ?", sess.UserID).Error)
	assert.Equal(t, "Mercadinho da Dona", settings.DisplayName)
	assert.True(t, settings.Modules.Sales)

	_, err = f.svc.Register(context.Background(), &RegisterRequest{Email: "dona@example.com", Password: "another", DisplayName: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), &RegisterRequest{Email: "nope", Password: "123"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"email": "email", "password": "min", "display_name": "required"}, verr.Fields)
}

func TestLogin_RotatesSessionAndNotifiesOldOne(t *testing.T) {
	f := newAuthFixture(t)
	first := f.register(t)
	ctx := context.Background()

	firstSession, err := f.svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	changes, cancel := f.svc.Watch(firstSession)
	defer cancel()

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "dona@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	second, err := f.svc.Login(ctx, &LoginRequest{Email: "DONA@example.com", Password: "secret1"})
	require.NoError(t, err)

	select {
	case c := <-changes:
		assert.Nil(t, c.Session)
		assert.Equal(t, "signed in on another device", c.Reason)
	case <-time.After(time.Second):
		t.Fatal("old session not notified")
	}

	_, err = f.svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	_, err = f.svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Authenticate(context.Background(), "not-a-token")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.Status)
	assert.Equal(t, jwt.ErrInvalidToken.Error(), authErr.Message)
}

func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestPasswordReset_Flow(t *testing.T) {
	f := newAuthFixture(t)
	old := f.register(t)
	ctx := context.Background()

	// Unknown e-mail is accepted silently
	require.NoError(t, f.svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "ghost@example.com"}))
	assert.Empty(t, f.mailer.link)

	require.NoError(t, f.svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "dona@example.com"}))
	assert.Equal(t, "dona@example.com", f.mailer.to)
	assert.True(t, strings.HasPrefix(f.mailer.link, "http://app.local/reset-password?token="), f.mailer.link)
	token := resetTokenFrom(t, f.mailer.link)

	// A reset token is not a session token and vice versa
	_, err := f.svc.Authenticate(ctx, token)
	assert.Error(t, err)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: old.Token, NewPassword: "newpass"}), ErrInvalidResetToken)

	require.NoError(t, f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: token, NewPassword: "newpass"}))

	// Single use: the version it was bound to is gone
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, &ResetPasswordRequest{Token: token, NewPassword: "again!"}), ErrInvalidResetToken)

	_, err = f.svc.Authenticate(ctx, old.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "dona@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, &LoginRequest{Email: "dona@example.com", Password: "newpass"})
	assert.NoError(t, err)
}

func TestForgotPassword_MailFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	f.mailer.err = errors.New("smtp down")

	err := f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "dona@example.com"})
	assert.Error(t, err)
}

func TestChangePasswordAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t)
	ctx := context.Background()

	sess, err := f.svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	_, err = f.svc.ChangePassword(ctx, sess, &ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	changed, err := f.svc.ChangePassword(ctx, sess, &ChangePasswordRequest{OldPassword: "secret1", NewPassword: "newpass"})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	fresh, err := f.svc.Authenticate(ctx, changed.Token)
	require.NoError(t, err)

	changes, cancel := f.svc.Watch(fresh)
	defer cancel()
	require.NoError(t, f.svc.Logout(ctx, fresh))

	select {
	case c := <-changes:
		assert.Equal(t, "signed out", c.Reason)
	case <-time.After(time.Second):
		t.Fatal("logout not broadcast")
	}
	_, err = f.svc.Authenticate(ctx, changed.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

// staleUserRepo never sees existing accounts, like a registration racing
// another one for the same email.
type staleUserRepo struct {
	repository.UserRepository
}

func (staleUserRepo) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestRegister_DuplicateInsertIsEmailTaken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)

	racing := NewAuthService(f.db, staleUserRepo{repository.NewUserRepo(f.db)}, repository.NewSettingsRepo(f.db),
		f.tokens, f.mailer, f.broker, AuthOptions{ResetTTL: time.Minute})
	_, err := racing.Register(context.Background(), &RegisterRequest{
		Email:       "dona@example.com",
		Password:    "secret2",
		DisplayName: "Outra",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var users int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
}
