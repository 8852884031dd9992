package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

func TestMemoryStoreLastWriteWins(t *testing.T) {
	store := NewMemoryStore(map[string]string{refresh.KeySite: "a"})
	store.Set(refresh.KeySite, "b")
	store.Set(refresh.KeySite, "c")
	require.NoError(t, store.Save(context.Background()))
	assert.Equal(t, "c", store.Get(refresh.KeySite))
	assert.Equal(t, "", store.Get(refresh.KeyPAT))
	assert.Equal(t, []string{refresh.KeySite}, store.Keys())
}

func TestMemoryStoreCopiesSeed(t *testing.T) {
	seed := map[string]string{refresh.KeySite: "a"}
	store := NewMemoryStore(seed)
	seed[refresh.KeySite] = "mutated"
	assert.Equal(t, "a", store.Get(refresh.KeySite))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())

	store.Set(refresh.KeyServer, "https://tableau.example.com")
	store.Set(refresh.KeyType, refresh.TypeWorkbook)
	require.NoError(t, store.Save(context.Background()))

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tableau.example.com", reloaded.Get(refresh.KeyServer))
	assert.Equal(t, refresh.TypeWorkbook, reloaded.Get(refresh.KeyType))
}

func TestFileStoreUnsavedChangesAreNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	store.Set(refresh.KeySite, "marketing")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  settings-site: a\nextra: true\n"), 0o600))
	_, err := NewFileStore(path)
	require.Error(t, err)
}

func TestSQLStorePersistsOnSave(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "settings.db")

	store, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	store.Set(refresh.KeySite, "marketing")
	store.Set(refresh.KeyPAT, "token")
	require.NoError(t, store.Save(ctx))
	store.Set(refresh.KeySite, "finance")
	require.NoError(t, store.Save(ctx))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, "finance", reopened.Get(refresh.KeySite))
	assert.Equal(t, "token", reopened.Get(refresh.KeyPAT))
	assert.Equal(t, []string{refresh.KeyPAT, refresh.KeySite}, reopened.Keys())
}

func TestOpenSQLiteRequiresDSN(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	require.ErrorIs(t, err, ErrMissingDataSourceName)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Config{Driver: DriverFile, Location: filepath.Join(t.TempDir(), "s.yaml")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(ctx, Config{Driver: "redis"})
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestEnvNameMatchesOverlayTags(t *testing.T) {
	environ := map[string]string{}
	for _, key := range refresh.AllKeys() {
		environ[EnvName(key)] = "v-" + key
	}
	cfg, err := LoadEnv(environ)
	require.NoError(t, err)
	values := cfg.Values()
	for _, key := range refresh.AllKeys() {
		assert.Equal(t, "v-"+key, values[key], "key %s", key)
	}
	assert.Equal(t, "REFRESH_SETTINGS_EMAIL_ADDRESS", EnvName(refresh.KeyEmailAddress))
}

func TestEnvOverlayReadsThrough(t *testing.T) {
	cfg, err := LoadEnv(map[string]string{"REFRESH_SETTINGS_SITE": "marketing"})
	require.NoError(t, err)
	store := NewMemoryStore(map[string]string{refresh.KeyPAT: "keep", refresh.KeySite: "stored"})
	view := cfg.Overlay(store)

	assert.Equal(t, []string{refresh.KeySite}, view.Overridden())
	assert.Equal(t, "marketing", view.Get(refresh.KeySite))
	assert.Equal(t, "keep", view.Get(refresh.KeyPAT))
	assert.Equal(t, "stored", store.Get(refresh.KeySite))

	view.Set(refresh.KeyEntityName, "Orders")
	assert.Equal(t, "Orders", store.Get(refresh.KeyEntityName))
	assert.Equal(t, store.Keys(), view.Keys())
}

func TestEnvOverlaySecretsNeverReachFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	cfg, err := LoadEnv(map[string]string{"REFRESH_SETTINGS_PASSWORD": "env-secret"})
	require.NoError(t, err)
	view := cfg.Overlay(store)

	form := refresh.NewSettingsForm(refresh.SettingsFormOptions{Settings: view})
	require.NoError(t, form.UpdateField(ctx, refresh.KeySite, "marketing"))
	assert.Equal(t, "env-secret", view.Get(refresh.KeyPassword))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "env-secret")

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "marketing", reopened.Get(refresh.KeySite))
	assert.Empty(t, reopened.Get(refresh.KeyPassword))
}

func TestEnvOverlaySecretsNeverReachSQLStore(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "settings.db")
	store, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	cfg, err := LoadEnv(map[string]string{"REFRESH_SETTINGS_PAT": "env-token"})
	require.NoError(t, err)
	view := cfg.Overlay(store)

	view.Set(refresh.KeySite, "marketing")
	require.NoError(t, view.Save(ctx))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, "marketing", reopened.Get(refresh.KeySite))
	assert.Empty(t, reopened.Get(refresh.KeyPAT))
}
