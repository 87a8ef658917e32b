package xfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAcquireTemp_ReleaseRemovesFile(t *testing.T) {
	dir := t.TempDir()

	tf, release, err := AcquireTemp(dir, "asr-", ".wav")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(tf.Path()), "asr-"))
	assert.True(t, strings.HasSuffix(tf.Path(), ".wav"))
	assert.FileExists(t, tf.Path())

	_, err = tf.Write([]byte("RIFF"))
	require.NoError(t, err)

	release()
	assert.NoFileExists(t, tf.Path())
	assert.True(t, tf.Closed())

	// Second release is a no-op.
	release()
	assert.Empty(t, listDir(t, dir))
}

func TestAcquireTemp_CreateFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")

	tf, release, err := AcquireTemp(missing, "x-", ".wav")
	require.Error(t, err)
	assert.Nil(t, tf)
	assert.NotPanics(t, release)
}

func TestTempFile_WriteAfterClose(t *testing.T) {
	tf, release, err := AcquireTemp(t.TempDir(), "", ".bin")
	require.NoError(t, err)
	defer release()

	require.NoError(t, tf.Close())
	require.NoError(t, tf.Close())

	_, err = tf.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestTempFile_ReadAll(t *testing.T) {
	tf, release, err := AcquireTemp(t.TempDir(), "tts-", ".wav")
	require.NoError(t, err)
	defer release()

	_, err = tf.Write([]byte("hello"))
	require.NoError(t, err)

	data, err := tf.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.True(t, tf.Closed())
}

func TestWithTempFile_RemovesOnError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	var path string
	err := WithTempFile(dir, "tts-", ".wav", func(tf *TempFile) error {
		path = tf.Path()
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)
	assert.Empty(t, listDir(t, dir))
}

func TestWithTempFile_RemovesOnPanic(t *testing.T) {
	dir := t.TempDir()

	assert.Panics(t, func() {
		_ = WithTempFile(dir, "tts-", ".wav", func(tf *TempFile) error {
			panic("model crashed")
		})
	})
	assert.Empty(t, listDir(t, dir))
}

func TestAcquireTemp_ConcurrentNamesAreDistinct(t *testing.T) {
	dir := t.TempDir()

	const n = 32
	paths := make(chan string, n)
	releases := make(chan func(), n)

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tf, release, err := AcquireTemp(dir, "asr-", ".webm")
			if assert.NoError(t, err) {
				paths <- tf.Path()
				releases <- release
			}
		}()
	}
	wg.Wait()
	close(paths)
	close(releases)

	seen := map[string]bool{}
	for p := range paths {
		assert.False(t, seen[p], "duplicate temp path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)

	for release := range releases {
		release()
	}
	assert.Empty(t, listDir(t, dir))
}

func TestRemoveQuietly_Missing(t *testing.T) {
	assert.NotPanics(t, func() {
		RemoveQuietly(filepath.Join(t.TempDir(), "gone.wav"))
	})
}

func TestUniqueName(t *testing.T) {
	a := UniqueName("asr_", ".webm")
	b := UniqueName("asr_", ".webm")

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^asr_[0-9a-f]{32}\.webm$`, a)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "models"), ExpandTilde("~/models"))
	assert.Equal(t, "/opt/models", ExpandTilde("/opt/models"))
	assert.Equal(t, "~user/x", ExpandTilde("~user/x"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp_audio", "nested")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	assert.DirExists(t, dir)
}
