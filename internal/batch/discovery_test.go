package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
}

func TestDiscoverImageFiles_EmptyArgs(t *testing.T) {
	files, err := DiscoverImageFiles([]string{}, false, []string{"*.png"}, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImageFiles(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	writeFiles(t, dir, "b.png", "a.jpg", "notes.txt", "skip_me.png", "nested/c.webp", "nested/deeper/d.tiff")

	tests := []struct {
		name      string
		args      []string
		recursive bool
		include   []string
		exclude   []string
		want      []string
	}{
		{
			name: "directory defaults to image extensions",
			args: []string{dir},
			want: []string{"a.jpg", "b.png", "skip_me.png"},
		},
		{
			name:      "recursive",
			args:      []string{dir},
			recursive: true,
			want:      []string{"a.jpg", "b.png", "nested/c.webp", "nested/deeper/d.tiff", "skip_me.png"},
		},
		{
			name:    "include pattern",
			args:    []string{dir},
			include: []string{"*.png"},
			want:    []string{"b.png", "skip_me.png"},
		},
		{
			name:    "exclude wins over include",
			args:    []string{dir},
			include: []string{"*.png"},
			exclude: []string{"skip_*"},
			want:    []string{"b.png"},
		},
		{
			name: "explicit files keep argument order",
			args: []string{filepath.Join(dir, "b.png"), filepath.Join(dir, "a.jpg")},
			want: []string{"b.png", "a.jpg"},
		},
		{
			name: "explicit non-image file is kept without patterns",
			args: []string{filepath.Join(dir, "notes.txt")},
			want: []string{"notes.txt"},
		},
		{
			name: "duplicates are dropped",
			args: []string{filepath.Join(dir, "b.png"), dir},
			want: []string{"b.png", "a.jpg", "skip_me.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := DiscoverImageFiles(tt.args, tt.recursive, tt.include, tt.exclude)
			require.NoError(t, err)

			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.Join(dir, w)
			}
			assert.Equal(t, want, files)
		})
	}
}

func TestDiscoverImageFiles_MissingPath(t *testing.T) {
	_, err := DiscoverImageFiles([]string{"/nonexistent/dir"}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}
