package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Notify.DueSoonThresholdDays)
	assert.Equal(t, 3600, cfg.Notify.DueScanIntervalSec)
	assert.Equal(t, "INBOX", cfg.Intake.Mailbox)
	assert.True(t, cfg.Intake.UseTLS)
	assert.False(t, cfg.Intake.Enabled)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("store:\n  backend: mongo\n  mongo_uri: mongodb://localhost:27017\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendMongo, cfg.Store.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
	assert.Equal(t, "prdesk", cfg.Store.MongoDatabase, "unset keys fall back to defaults")
	assert.Equal(t, 3, cfg.Notify.DueSoonThresholdDays)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := defaultAppConfig()
	in.Store.Path = "/tmp/prdesk-test.db"
	in.Notify.DueSoonThresholdDays = 7
	in.Intake.Enabled = true
	in.Intake.IMAPHost = "imap.example.ac.th"

	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/prdesk-test.db", out.Store.Path)
	assert.Equal(t, 7, out.Notify.DueSoonThresholdDays)
	assert.True(t, out.Intake.Enabled)
	assert.Equal(t, "imap.example.ac.th", out.Intake.IMAPHost)
}
