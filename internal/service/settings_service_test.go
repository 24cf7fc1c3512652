package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	ref string
	err error
}

func (f *fakeBlobs) PutImage(_ context.Context, _ session.Scope, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return f.ref, f.err
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func TestSettings_DefaultsBeforeSave(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(repository.NewSettingsRepo(db), &fakeBlobs{}, nil)
	scope := newScope()

	settings, err := svc.Get(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, model.Modules{Sales: true, Cashflow: true, Notifications: true}, settings.Modules)

	on, err := svc.ModuleEnabled(context.Background(), scope, model.ModuleSales)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestSettings_PartialMerge(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSettingsService(repository.NewSettingsRepo(db), &fakeBlobs{ref: "http://x/blobs/logo.png"}, pub)
	scope := newScope()
	ctx := context.Background()

	_, err := svc.Update(ctx, scope, &SettingsPatch{DisplayName: strPtr("Mercadinho")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, scope, &SettingsPatch{Modules: &ModulesPatch{Cashflow: boolPtr(false)}})
	require.NoError(t, err)

	_, err = svc.UploadLogo(ctx, scope, bytes.NewReader([]byte("png")))
	require.NoError(t, err)

	got, err := svc.Get(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "Mercadinho", got.DisplayName, "earlier field survives later patches")
	assert.Equal(t, "http://x/blobs/logo.png", got.LogoRef)
	assert.Equal(t, model.Modules{Sales: true, Cashflow: false, Notifications: true}, got.Modules)
	assert.False(t, got.UpdatedAt.IsZero())

	on, err := svc.ModuleEnabled(ctx, scope, model.ModuleCashflow)
	require.NoError(t, err)
	assert.False(t, on)

	assert.Equal(t, []string{ws.Settings, ws.Settings, ws.Settings}, pub.Events())

	// Another tenant is untouched
	fresh, err := svc.Get(ctx, newScope())
	require.NoError(t, err)
	assert.Empty(t, fresh.DisplayName)
	assert.True(t, fresh.Modules.Cashflow)
}

func TestSettings_EmptyPatchWritesNothing(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSettingsService(repository.NewSettingsRepo(db), &fakeBlobs{}, pub)

	_, err := svc.Update(context.Background(), newScope(), &SettingsPatch{})
	require.NoError(t, err)
	assert.Empty(t, pub.Events())
}

func TestSettings_UploadFailureKeepsLogo(t *testing.T) {
	db := newTestDB(t)
	blobs := &fakeBlobs{ref: "http://x/blobs/first.png"}
	svc := NewSettingsService(repository.NewSettingsRepo(db), blobs, nil)
	scope := newScope()
	ctx := context.Background()

	_, err := svc.UploadLogo(ctx, scope, bytes.NewReader([]byte("a")))
	require.NoError(t, err)

	blobs.err = errors.New("not an image")
	_, err = svc.UploadLogo(ctx, scope, bytes.NewReader([]byte("b")))
	assert.Error(t, err)

	got, err := svc.Get(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "http://x/blobs/first.png", got.LogoRef)
}
