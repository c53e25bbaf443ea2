package tracked_test

import (
	"context"
	"filescanner/pkg/serrors"
	"filescanner/pkg/tracked"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, size int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600))

	return path
}

func newFilter(t *testing.T, opts tracked.FilterOptions) *tracked.Filter {
	t.Helper()
	f, err := tracked.NewFilter(opts)
	require.NoError(t, err)

	return f
}

func TestFilter_Match(t *testing.T) {
	dir := t.TempDir()
	f := newFilter(t, tracked.FilterOptions{
		Extensions: []string{".exe", "DLL"},
		Exclude:    []string{"**/cache/**", "**/*.tmp.exe"},
		MinSize:    2,
		MaxSize:    10,
	})

	tests := []struct {
		name string
		path string
		size int
		want bool
	}{
		{name: "allowed extension", path: "a.exe", size: 5, want: true},
		{name: "extension without dot, any case", path: "b.Dll", size: 5, want: true},
		{name: "other extension", path: "c.txt", size: 5, want: false},
		{name: "too small", path: "d.exe", size: 1, want: false},
		{name: "too large", path: "e.exe", size: 11, want: false},
		{name: "excluded directory", path: "cache/f.exe", size: 5, want: false},
		{name: "excluded name", path: "g.tmp.exe", size: 5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := touch(t, filepath.Join(dir, tt.path), tt.size)
			info, err := os.Stat(p)
			require.NoError(t, err)
			require.Equal(t, tt.want, f.Match(p, info))
		})
	}

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.False(t, f.Match(dir, info), "directories never match")
}

func TestNewFilter_BadPattern(t *testing.T) {
	_, err := tracked.NewFilter(tracked.FilterOptions{Exclude: []string{"[unterminated"}})
	require.Error(t, err)
}

func TestRegistry_TrackUntrack(t *testing.T) {
	dir := t.TempDir()
	r := tracked.NewRegistry(newFilter(t, tracked.FilterOptions{Extensions: []string{".bin"}}))

	p := touch(t, filepath.Join(dir, "a.bin"), 3)
	added, err := r.Track(p)
	require.NoError(t, err)
	require.True(t, added)

	added, err = r.Track(p)
	require.NoError(t, err)
	require.False(t, added, "tracking twice is a no-op")

	_, err = r.Track(filepath.Join(dir, "missing.bin"))
	require.ErrorIs(t, err, serrors.ErrNotFound)

	_, err = r.Track(touch(t, filepath.Join(dir, "a.txt"), 3))
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	require.Equal(t, []string{p}, r.Paths())
	require.True(t, r.Untrack(p))
	require.False(t, r.Untrack(p))
	require.Zero(t, r.Len())
}

func TestRegistry_TrackedFilesDropsVanished(t *testing.T) {
	dir := t.TempDir()
	r := tracked.NewRegistry(nil)
	keep := touch(t, filepath.Join(dir, "keep"), 1)
	gone := touch(t, filepath.Join(dir, "gone"), 1)
	for _, p := range []string{keep, gone} {
		_, err := r.Track(p)
		require.NoError(t, err)
	}
	require.NoError(t, os.Remove(gone))

	files, err := r.TrackedFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{keep}, files)
	require.Equal(t, []string{keep}, r.Paths())
}

func TestRegistry_Discover(t *testing.T) {
	root := t.TempDir()
	r := tracked.NewRegistry(newFilter(t, tracked.FilterOptions{
		Extensions: []string{".exe"},
		Exclude:    []string{"**/skip/**"},
		MaxDepth:   2,
	}))

	a := touch(t, filepath.Join(root, "a.exe"), 1)
	b := touch(t, filepath.Join(root, "sub", "b.exe"), 1)
	touch(t, filepath.Join(root, "sub", "deep", "c.exe"), 1)
	touch(t, filepath.Join(root, "skip", "d.exe"), 1)
	touch(t, filepath.Join(root, "e.txt"), 1)

	added, err := r.Discover(context.Background(), []string{root})
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, []string{a, b}, r.Paths())

	added, err = r.Discover(context.Background(), []string{root})
	require.NoError(t, err)
	require.Zero(t, added)
}

func TestRegistry_DiscoverMissingRoot(t *testing.T) {
	r := tracked.NewRegistry(nil)
	_, err := r.Discover(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
}

func TestRegistry_DiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a"), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tracked.NewRegistry(nil).Discover(ctx, []string{root})
	require.ErrorIs(t, err, context.Canceled)
}
