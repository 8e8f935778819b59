package backup

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, retention time.Duration) (*Service, string, string) {
	t.Helper()
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	dataPath := filepath.Join(dataDir, "agendamentos.json")

	logger := zerolog.New(io.Discard)
	return New(dataPath, backupDir, time.Hour, retention, &logger), dataPath, backupDir
}

func TestPerform(t *testing.T) {
	svc, dataPath, backupDir := newTestService(t, time.Hour)

	require.NoError(t, os.WriteFile(dataPath, []byte(`[{"id":1}]`), 0o644))
	require.NoError(t, svc.Perform())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	copied, err := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(copied))
}

func TestPerform_NoDataFile(t *testing.T) {
	svc, _, backupDir := newTestService(t, time.Hour)

	require.NoError(t, svc.Perform())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing to back up yet")
}

func TestCleanup(t *testing.T) {
	svc, _, backupDir := newTestService(t, time.Hour)

	oldFile := filepath.Join(backupDir, "agendamentos_20200101_000000.json")
	freshFile := filepath.Join(backupDir, "agendamentos_now.json")
	unrelated := filepath.Join(backupDir, "notes.txt")
	for _, p := range []string{oldFile, freshFile, unrelated} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
	_, err = os.Stat(unrelated)
	assert.NoError(t, err, "files outside the backup prefix are left alone")
}

func TestCleanup_RetentionDisabled(t *testing.T) {
	svc, _, backupDir := newTestService(t, 0)

	old := filepath.Join(backupDir, "agendamentos_20200101_000000.json")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
