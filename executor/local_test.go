package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunCapturesOutput(t *testing.T) {
	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
}

func TestLocalRunNonZeroExitIsNotAnError(t *testing.T) {
	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestLocalRunTimeout(t *testing.T) {
	e := NewLocalExecutor()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Run(ctx, "sleep", "10")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLocalLookPath(t *testing.T) {
	e := NewLocalExecutor()
	p, err := e.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	_, err = e.LookPath("definitely-not-a-real-binary-xyz")
	assert.True(t, errors.Is(err, ErrExecutableNotFound))
}

func TestLocalWriteFile(t *testing.T) {
	e := NewLocalExecutor()
	p := filepath.Join(t.TempDir(), "nested/dir/file.fio")
	require.NoError(t, e.WriteFile(p, []byte("[global]\n"), 0o644))
	buf, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "[global]\n", string(buf))
}
