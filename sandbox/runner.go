package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultMaxOutputBytes caps each of stdout and stderr captured from a script
const DefaultMaxOutputBytes = 1 << 20

// OutputTruncatedPrefix starts the marker appended to a stream cut at the output limit
const OutputTruncatedPrefix = "\n[output truncated at "

// waitDelay bounds how long Wait blocks on inherited pipes after the child is killed
const waitDelay = time.Second

// CommandRunner defines an interface for executing system commands
type CommandRunner interface {
	RunCommand(ctx context.Context, dir string, args []string) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using actual exec commands.
// The child runs in its own process group, which is killed as a whole when ctx is done.
type RealCommandRunner struct {
	MaxOutputBytes int
}

// RunCommand executes the given command with arguments in dir.
// A nonzero exit status is not an error. When ctx ends first, the partial output is
// returned together with ctx.Err(). Once the command returns, whatever is left of
// its process group is killed.
func (r RealCommandRunner) RunCommand(ctx context.Context, dir string, args []string) (stdout, stderr string, exitCode int, err error) {
	if len(args) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	limit := r.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // Running the caller's script is the point
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	stdoutW := newLimitedWriter(limit)
	stderrW := newLimitedWriter(limit)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	runErr := cmd.Run()
	// Background children outlive the script otherwise.
	killProcessGroup(cmd)

	stdout = stdoutW.String()
	stderr = stderrW.String()

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout, stderr, -1, ctxErr
		}
		var exitError *exec.ExitError
		if errors.As(runErr, &exitError) {
			return stdout, stderr, exitError.ExitCode(), nil
		}
		// The script exited but something it started kept the output pipes open.
		if errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil {
			return stdout, stderr, cmd.ProcessState.ExitCode(), nil
		}
		return "", "", 0, runErr
	}

	return stdout, stderr, 0, nil
}

// limitedWriter keeps the first limit bytes and drops the rest without
// reporting a short write, so the child never sees EPIPE because of the cap.
type limitedWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newLimitedWriter(limit int) *limitedWriter {
	return &limitedWriter{limit: limit}
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	remaining := l.limit - l.buf.Len()
	if n > remaining {
		l.truncated = true
		p = p[:max(remaining, 0)]
	}
	l.buf.Write(p)
	return n, nil
}

// String returns the captured output, with a marker when some of it was dropped.
func (l *limitedWriter) String() string {
	if !l.truncated {
		return l.buf.String()
	}
	return l.buf.String() + fmt.Sprintf("%s%d bytes]", OutputTruncatedPrefix, l.limit)
}
