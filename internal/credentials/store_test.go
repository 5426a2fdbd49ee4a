package credentials

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func conn() models.ConnectionConfig {
	return models.ConnectionConfig{Host: "db.local", Database: "hr", User: "app"}
}

func TestSaveGetDelete(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	cfg := conn()
	cfg.Password = "hunter2"
	require.NoError(t, s.Save(cfg))

	got, err := s.Get(conn())
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, s.Delete(conn()))
	_, err = s.Get(conn())
	assert.ErrorIs(t, err, ErrPasswordNotFound)
	require.NoError(t, s.Delete(conn()), "deleting a missing entry is fine")
}

func TestEmptyPasswordIsNotSaved(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	s := New(ring)
	require.NoError(t, s.Save(conn()))
	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyDefaultsPort(t *testing.T) {
	cfg := conn()
	assert.Equal(t, "db.local:5432:hr:app", key(cfg))
	cfg.Port = 5433
	assert.Equal(t, "db.local:5433:hr:app", key(cfg))
}

func TestResolve(t *testing.T) {
	s := New(keyring.NewArrayKeyring([]keyring.Item{{Key: "db.local:5432:hr:app", Data: []byte("stored")}}))

	cfg, err := s.Resolve(conn())
	require.NoError(t, err)
	assert.Equal(t, "stored", cfg.Password)

	explicit := conn()
	explicit.Password = "from-config"
	cfg, err = s.Resolve(explicit)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Password)

	other := conn()
	other.User = "nobody"
	cfg, err = s.Resolve(other)
	require.NoError(t, err)
	assert.Empty(t, cfg.Password)

	var none *Store
	cfg, err = none.Resolve(conn())
	require.NoError(t, err)
	assert.Empty(t, cfg.Password)
}

func TestParseField(t *testing.T) {
	out := "+-o Mac  <class IOPlatformExpertDevice>\n    \"IOPlatformUUID\" = \"ABCD-1234\"\n"
	assert.Equal(t, "ABCD-1234", parseField(out, "IOPlatformUUID", "="))
	assert.Equal(t, "", parseField(out, "Missing", "="))
}

func TestDeriveFilePasswordIsStable(t *testing.T) {
	a, err := deriveFilePassword()
	require.NoError(t, err)
	b, err := deriveFilePassword()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}
