package pipeline

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestChangeCache_FirstSightingYields(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pes")
	writeFile(t, a, "a")

	c := NewChangeCache()
	assert.Equal(t, []string{a}, slices.Collect(c.Filter(slices.Values([]string{a}))))
}

func TestChangeCache_RepeatedNotificationsYieldOnce(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pes")
	writeFile(t, a, "a")

	c := NewChangeCache()
	got := slices.Collect(c.Filter(slices.Values([]string{a, a, a})))
	assert.Equal(t, []string{a}, got)
	assert.Empty(t, slices.Collect(c.Filter(slices.Values([]string{a}))))
}

func TestChangeCache_ChangedFileYieldsAgain(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pes")
	writeFile(t, a, "a")

	c := NewChangeCache()
	require.True(t, c.IsNew(a))

	writeFile(t, a, "a longer design")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(a, future, future))

	assert.True(t, c.IsNew(a))
	assert.False(t, c.IsNew(a))
}

func TestChangeCache_MissingFileDropped(t *testing.T) {
	c := NewChangeCache()
	missing := filepath.Join(t.TempDir(), "gone.pes")

	assert.Empty(t, slices.Collect(c.Filter(slices.Values([]string{missing}))))
	assert.Equal(t, 0, c.Len())
}

func TestChangeCache_DirectoryDropped(t *testing.T) {
	c := NewChangeCache()
	assert.False(t, c.IsNew(t.TempDir()))
}

func TestChangeCache_FilterIsLazy(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pes")
	b := filepath.Join(dir, "b.pes")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	c := NewChangeCache()
	for p := range c.Filter(slices.Values([]string{a, b})) {
		assert.Equal(t, a, p)
		break
	}

	// b was never examined, so it is still new.
	assert.True(t, c.IsNew(b))
	assert.False(t, c.IsNew(a))
}

func TestChangeCache_FilterSeesRecordsMadeBetweenYields(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pes")
	b := filepath.Join(dir, "a.dst")
	writeFile(t, a, "a")

	c := NewChangeCache()
	var got []string
	for p := range c.Filter(slices.Values([]string{a, b})) {
		got = append(got, p)
		if p == a {
			writeFile(t, b, "converted")
			c.Observe(b)
		}
	}

	assert.Equal(t, []string{a}, got)
}

func TestChangeCache_ObserveSuppresses(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.dst")
	writeFile(t, out, "converted")

	c := NewChangeCache()
	c.Observe(out)

	assert.True(t, c.Unchanged(out))
	assert.False(t, c.IsNew(out))
}

func TestChangeCache_RelativeAndAbsoluteShareEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pes"), "a")
	t.Chdir(dir)

	c := NewChangeCache()
	require.True(t, c.IsNew("a.pes"))
	assert.False(t, c.IsNew(filepath.Join(dir, "a.pes")))
}
