// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goeda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	reloaded := make(chan AppConfig, 1)
	w, err := NewWatcher(path, func(cfg AppConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Watch(ctx)
	}()

	// Give the watcher a moment to install the directory watch.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	select {
	case cfg := <-reloaded:
		require.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	<-done
}

func TestWatcherKeepsOldConfigOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goeda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	calls := make(chan AppConfig, 4)
	w, err := NewWatcher(path, func(cfg AppConfig) { calls <- cfg })
	require.NoError(t, err)

	// Feed the reload path directly; the watch loop is covered above.
	require.NoError(t, os.WriteFile(path, []byte(": not yaml"), 0o600))
	w.reload()
	require.Empty(t, calls)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	w.reload()
	select {
	case cfg := <-calls:
		require.Equal(t, "warn", cfg.Log.Level)
	default:
		t.Fatal("expected reload callback")
	}
}

func TestNewWatcherValidatesArguments(t *testing.T) {
	_, err := NewWatcher("", func(AppConfig) {})
	require.Error(t, err)
	_, err = NewWatcher("x.yaml", nil)
	require.Error(t, err)
}
