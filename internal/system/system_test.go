package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := []struct {
		name string
		age  time.Duration
	}{
		{"old.jpg", 3 * time.Hour},
		{"new.PNG", time.Hour},
		{"newest.txt", 0},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, now.Add(-f.age), now.Add(-f.age)))
	}

	exts := []string{".jpg", ".png"}

	got, err := FindLatestImage(dir, exts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.PNG"), got)

	// a file path searches its directory
	got, err = FindLatestImage(filepath.Join(dir, "old.jpg"), exts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.PNG"), got)

	_, err = FindLatestImage(dir, []string{".webp"})
	assert.Error(t, err)
}

func TestReadStats(t *testing.T) {
	s, err := ReadStats(context.Background())
	require.NoError(t, err)

	assert.Positive(t, s.CPUs)
	assert.Positive(t, s.MemTotal)
	assert.Positive(t, s.Goroutines)
}

func TestInitResourceLimits(t *testing.T) {
	// must never fail, whatever the hard limit is
	InitResourceLimits(256)
}
