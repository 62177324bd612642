package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := st.Put(ctx, "docs/abc.txt", strings.NewReader("hello"), PutObjectOptions{Size: 5, ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "docs/abc.txt", info.Key)
	assert.Equal(t, int64(5), info.Size)
	assert.NotEmpty(t, info.ETag)

	_, err = os.Stat(filepath.Join(dir, "docs", "abc.txt"))
	require.NoError(t, err)

	rc, got, err := st.Get(ctx, "docs/abc.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, int64(5), got.Size)

	require.NoError(t, st.Delete(ctx, "docs/abc.txt"))
	_, _, err = st.Get(ctx, "docs/abc.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is fine
	assert.NoError(t, st.Delete(ctx, "docs/abc.txt"))
}

func TestLocalStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(ctx, "a.txt", strings.NewReader("first"), PutObjectOptions{Size: -1})
	require.NoError(t, err)
	_, err = st.Put(ctx, "a.txt", strings.NewReader("second"), PutObjectOptions{Size: -1})
	require.NoError(t, err)

	rc, _, err := st.Get(ctx, "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(mustResolve(t, st, "a.txt")))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestLocalStorage_AbsoluteKey(t *testing.T) {
	ctx := context.Background()
	other := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(other, []byte("legacy"), 0o644))

	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	rc, _, err := st.Get(ctx, other)
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "legacy", string(b))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(ctx, "../outside.txt", strings.NewReader("x"), PutObjectOptions{})
	assert.Error(t, err)

	_, err = st.Put(ctx, "", strings.NewReader("x"), PutObjectOptions{})
	assert.Error(t, err)
}

func TestNewLocal_RequiresRoot(t *testing.T) {
	_, err := NewLocal("")
	assert.Error(t, err)
}

func mustResolve(t *testing.T, st Storage, key string) string {
	t.Helper()
	p, err := st.(*localStorage).resolve(key)
	require.NoError(t, err)
	return p
}
