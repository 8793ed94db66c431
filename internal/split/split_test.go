package split

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.mp4")
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func drain(t *testing.T, seq *Sequence) []*Unit {
	t.Helper()
	var units []*Unit
	for {
		u, err := seq.Next()
		if err == ErrConsumed {
			return units
		}
		require.NoError(t, err)
		units = append(units, u)
	}
}

func TestPlanSmallFileSingleUnit(t *testing.T) {
	path := writeTestFile(t, 100)

	seq, err := Plan(path, 1000, 900)
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Count())

	units := drain(t, seq)
	require.Len(t, units, 1)
	assert.Equal(t, path, units[0].Path, "small files reuse the original path")
	assert.Equal(t, int64(100), units[0].Size)
	assert.False(t, units[0].Transient)

	// Discard on a non-transient unit keeps the original file
	require.NoError(t, units[0].Discard())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPlanFileAtCeilingNotSplit(t *testing.T) {
	path := writeTestFile(t, 1000)

	seq, err := Plan(path, 1000, 900)
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Count())
}

func TestPlanLargeFileChunks(t *testing.T) {
	// Scaled-down version of the 120 MiB / 50 MiB / 49 MiB scenario:
	// 120 units of source, ceiling 50, chunk 49 → chunks of 49, 49, 22.
	path := writeTestFile(t, 120)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)
	require.Equal(t, 3, seq.Count())

	var reassembled bytes.Buffer
	var sizes []int64
	for i := 0; ; i++ {
		u, err := seq.Next()
		if err == ErrConsumed {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, i, u.Seq)
		assert.True(t, u.Transient)

		data, err := os.ReadFile(u.Path)
		require.NoError(t, err)
		reassembled.Write(data)
		sizes = append(sizes, u.Size)

		require.NoError(t, u.Discard())
		_, err = os.Stat(u.Path)
		assert.True(t, os.IsNotExist(err), "chunk %d must be removed after discard", i)
	}

	assert.Equal(t, []int64{49, 49, 22}, sizes)
	assert.Equal(t, original, reassembled.Bytes(), "concatenated units must reconstruct the source")
}

func TestPlanExactMultipleNoEmptyTail(t *testing.T) {
	path := writeTestFile(t, 98)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)
	require.Equal(t, 2, seq.Count())

	units := drain(t, seq)
	require.Len(t, units, 2)
	assert.Equal(t, int64(49), units[0].Size)
	assert.Equal(t, int64(49), units[1].Size)

	for _, u := range units {
		require.NoError(t, u.Discard())
	}
}

func TestPlanOneChunkOnDiskAtATime(t *testing.T) {
	path := writeTestFile(t, 120)
	dir := filepath.Dir(path)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)

	for {
		u, err := seq.Next()
		if err == ErrConsumed {
			break
		}
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		// Source plus exactly one live chunk
		assert.Len(t, entries, 2)

		require.NoError(t, u.Discard())
	}
}

func TestPlanRejectsBadChunkSize(t *testing.T) {
	path := writeTestFile(t, 10)

	_, err := Plan(path, 50, 50)
	assert.Error(t, err, "chunk size must be strictly below the ceiling")

	_, err = Plan(path, 50, 0)
	assert.Error(t, err)
}

func TestPlanMissingFile(t *testing.T) {
	_, err := Plan(filepath.Join(t.TempDir(), "missing.mp4"), 50, 49)
	assert.Error(t, err)
}

func TestSequenceIsNotRestartable(t *testing.T) {
	path := writeTestFile(t, 10)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)

	units := drain(t, seq)
	require.Len(t, units, 1)

	_, err = seq.Next()
	assert.Equal(t, ErrConsumed, err)
}

func TestSequenceCloseStopsProduction(t *testing.T) {
	path := writeTestFile(t, 120)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)

	u, err := seq.Next()
	require.NoError(t, err)
	require.NoError(t, u.Discard())

	require.NoError(t, seq.Close())
	_, err = seq.Next()
	assert.Equal(t, ErrConsumed, err)
}

func TestChunkNaming(t *testing.T) {
	path := writeTestFile(t, 120)

	seq, err := Plan(path, 50, 49)
	require.NoError(t, err)

	u, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s.part0", path), u.Path)
	require.NoError(t, u.Discard())
	require.NoError(t, seq.Close())
}
