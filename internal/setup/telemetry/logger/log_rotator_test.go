package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/verdict/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotatorKeepsRecentLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	rotator := logger.NewLogRotator(file, 3, path)
	for _, line := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := rotator.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d\ne\nf\n", string(content))

	_, err = rotator.Write([]byte("g\n"))
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d\ne\nf\ng\n", string(content))
}

func TestLogRotatorDefaultsLineCap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	file, err := os.Create(path)
	require.NoError(t, err)

	rotator := logger.NewLogRotator(file, 0, path)
	_, err = rotator.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, rotator.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(content))
}

func TestRingBufferOrder(t *testing.T) {
	t.Parallel()

	rb := logger.NewRingBuffer(3)
	assert.Nil(t, rb.Lines())

	for _, line := range []string{"a", "b", "c", "d"} {
		rb.Add(line)
	}
	assert.Equal(t, []string{"b", "c", "d"}, rb.Lines())
	assert.Equal(t, 3, rb.Len())
	assert.False(t, rb.Overflowing())

	rb.Add("e")
	rb.Add("f")
	assert.True(t, rb.Overflowing())

	rb.Rotated()
	assert.False(t, rb.Overflowing())
}
