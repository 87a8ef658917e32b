package backend

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout, stderr []byte
	err            error

	gotName  string
	gotArgs  []string
	gotStdin string
	deadline bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	f.gotName = name
	f.gotArgs = args
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		f.gotStdin = string(b)
	}
	_, f.deadline = ctx.Deadline()
	return f.stdout, f.stderr, f.err
}

func TestExecutor_Execute(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("ok")}
	exec := NewExecutorWithRunner("/usr/bin/piper", time.Second, runner)

	out, err := exec.Execute(context.Background(), []string{"--model", "m.onnx"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.Equal(t, "/usr/bin/piper", runner.gotName)
	assert.Equal(t, []string{"--model", "m.onnx"}, runner.gotArgs)
	assert.True(t, runner.deadline)
}

func TestExecutor_ExecuteErrorIncludesStderr(t *testing.T) {
	exitErr := errors.New("exit status 1")
	runner := &fakeRunner{stderr: []byte("model not found\n"), err: exitErr}
	exec := NewExecutorWithRunner("piper", 0, runner)

	_, err := exec.Execute(context.Background(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, exitErr)
	assert.Contains(t, err.Error(), "model not found")
	assert.False(t, runner.deadline)
}

func TestNewExecutor_MissingBinary(t *testing.T) {
	_, err := NewExecutor("/nonexistent/piper", time.Second)
	assert.Error(t, err)

	_, err = NewExecutor(t.TempDir(), time.Second)
	assert.Error(t, err)
}
