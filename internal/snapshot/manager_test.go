package snapshot

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsTempDir(t *testing.T) {
	mgr := New(nil, Config{
		SnapshotKey:  "snapshots/index.db.zst",
		LockKey:      "locks/indexer.json",
		LockTTL:      10 * time.Minute,
		PollInterval: 15 * time.Minute,
	}, nil)
	require.NotNil(t, mgr)
	assert.Equal(t, os.TempDir(), mgr.config.TempDir)
}

func TestCurrentETag(t *testing.T) {
	mgr := New(nil, Config{TempDir: t.TempDir()}, nil)

	assert.Empty(t, mgr.CurrentETag())

	mgr.SetCurrentETag(`"abc123"`)
	assert.Equal(t, `"abc123"`, mgr.CurrentETag())
}

func TestStopPollingWithoutStart(t *testing.T) {
	mgr := New(nil, Config{TempDir: t.TempDir()}, nil)
	assert.NotPanics(t, mgr.StopPolling)
}
