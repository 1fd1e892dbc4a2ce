package integration_test

import (
	"os"
	"testing"

	"github.com/hupe1980/diskset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullLifecycle(t *testing.T) {
	dir := t.TempDir()

	// 1. Open
	set, err := diskset.NewOrdered[string](diskset.WithTempDir(dir))
	require.NoError(t, err)

	index, contents := set.Files()
	require.FileExists(t, index)
	require.FileExists(t, contents)

	// 2. Add and persist
	for _, v := range []string{"delta", "alpha", "charlie", "bravo"} {
		require.NoError(t, set.Add(v))
	}
	require.NoError(t, set.Flush())

	info, err := os.Stat(index)
	require.NoError(t, err)
	assert.Equal(t, int64(4*28), info.Size())

	got, err := set.ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, got)

	// 3. Clear truncates both files
	require.NoError(t, set.Clear())
	require.NoError(t, set.Flush())
	assert.Equal(t, 0, set.Size())

	for _, path := range []string{index, contents} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size(), path)
	}

	// 4. Reuse after clear
	require.NoError(t, set.Add("echo"))
	ok, err := set.Contains("echo")
	require.NoError(t, err)
	assert.True(t, ok)

	// 5. Close removes the backing files
	require.NoError(t, set.Close())
	assert.NoFileExists(t, index)
	assert.NoFileExists(t, contents)

	_, err = set.Contains("echo")
	assert.ErrorIs(t, err, diskset.ErrClosed)
	assert.ErrorIs(t, set.Add("foxtrot"), diskset.ErrClosed)
}
