package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/hippie/pkg/index"
	"github.com/bastiangx/hippie/pkg/tokenize"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func defaultOptions() Options {
	return Options{
		Include:      []string{"**/*"},
		Exclude:      []string{"**/.git/**", "**/node_modules/**"},
		MaxFileBytes: 1 << 10,
	}
}

func TestLoader_Match(t *testing.T) {
	l := NewLoader(index.New(tokenize.Default), Options{
		Include: []string{"**/*.go", "*.md"},
		Exclude: []string{"**/vendor/**", "**/*_gen.go"},
	})

	testCases := []struct {
		path        string
		expected    bool
		description string
	}{
		{"main.go", true, "Root go file"},
		{"pkg/a/b.go", true, "Nested go file"},
		{"README.md", true, "Root markdown"},
		{"docs/guide.md", false, "Nested markdown not included"},
		{"vendor/x/y.go", false, "Vendor excluded"},
		{"pkg/model_gen.go", false, "Generated file excluded"},
		{"notes.txt", false, "Other extension"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, l.Match(tc.path))
		})
	}
}

func TestLoader_LoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "func getUserName() {}")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "galaxy garden")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref heads main")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "module exports")
	big := make([]byte, 2<<10)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, filepath.Join(root, "big.txt"), string(big))

	idx := index.New(tokenize.Default)
	stats, err := NewLoader(idx, defaultOptions()).LoadDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.TooLarge)
	assert.Equal(t, 0, stats.Failed)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.go"),
		filepath.Join(root, "sub", "b.txt"),
	}, idx.Buffers())
	assert.Equal(t, []string{"func", "getUserName"}, idx.Words(filepath.Join(root, "a.go")))
}

func TestLoader_LoadDirMissingRoot(t *testing.T) {
	idx := index.New(tokenize.Default)
	_, err := NewLoader(idx, defaultOptions()).LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.Empty(t, idx.Buffers())
}

func TestLoader_LoadDirCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := index.New(tokenize.Default)
	_, err := NewLoader(idx, defaultOptions()).LoadDir(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, idx.Buffers())
}

func startWatcher(t *testing.T, root string) (*index.Index, <-chan []string, func()) {
	t.Helper()
	idx := index.New(tokenize.Default)
	w, err := NewWatcher(NewLoader(idx, defaultOptions()), root, 20*time.Millisecond)
	require.NoError(t, err)

	refreshed := make(chan []string, 16)
	w.OnRefresh = func(paths []string) {
		select {
		case refreshed <- paths:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
	return idx, refreshed, stop
}

func TestWatcher_RefreshesOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "alpha")

	idx, refreshed, stop := startWatcher(t, root)
	defer stop()

	writeFile(t, path, "alpha beta")

	select {
	case paths := <-refreshed:
		assert.Equal(t, []string{path}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("expected refresh but got timeout")
	}
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alpha", "beta"}, idx.Words(path))
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "")

	idx, refreshed, stop := startWatcher(t, root)
	defer stop()

	for _, body := range []string{"a", "a b", "a b c"} {
		writeFile(t, path, body)
	}

	select {
	case paths := <-refreshed:
		assert.Equal(t, []string{path}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("expected refresh but got timeout")
	}
	assert.Eventually(t, func() bool {
		return len(idx.Words(path)) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	idx, refreshed, stop := startWatcher(t, root)
	defer stop()

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	path := filepath.Join(sub, "late.txt")

	// the directory watch is added asynchronously, so keep writing until it lands
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("lateWord"), 0644)
		select {
		case <-refreshed:
		case <-time.After(100 * time.Millisecond):
		}
		return len(idx.Words(path)) == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresExcluded(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(root, "keep.txt"), "")

	idx, refreshed, stop := startWatcher(t, root)
	defer stop()

	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref heads")
	writeFile(t, filepath.Join(root, "keep.txt"), "kept")

	select {
	case paths := <-refreshed:
		assert.Equal(t, []string{filepath.Join(root, "keep.txt")}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("expected refresh but got timeout")
	}
	assert.Empty(t, idx.Words(filepath.Join(root, ".git", "HEAD")))
}
