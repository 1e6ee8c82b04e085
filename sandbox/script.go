package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NoOutput is returned by RunScript when the script printed nothing and exited 0
const NoOutput = "No output produced."

// ExecResult holds the captured output of one script run
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// String renders the STDOUT block, the STDERR block and a nonzero exit code,
// separated by blank lines, or NoOutput when there is nothing to report.
func (r ExecResult) String() string {
	var parts []string
	if r.Stdout != "" {
		parts = append(parts, "STDOUT:\n"+r.Stdout)
	}
	if r.Stderr != "" {
		parts = append(parts, "STDERR:\n"+r.Stderr)
	}
	if r.ExitCode != 0 {
		parts = append(parts, fmt.Sprintf("Process exited with code %d", r.ExitCode))
	}
	if len(parts) == 0 {
		return NoOutput
	}
	return strings.Join(parts, "\n\n")
}

// RunScript runs path with the configured interpreter, args appended, from the
// sandbox root as working directory. The run is bounded by the configured timeout;
// on expiry the process group is killed and a Timeout error is returned.
func (s *Sandbox) RunScript(ctx context.Context, path string, args []string) (string, error) {
	result, err := s.runScript(ctx, path, args)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

func (s *Sandbox) runScript(ctx context.Context, path string, args []string) (ExecResult, error) {
	resolved, err := s.resolve(path, ModeFile)
	if err != nil {
		return ExecResult{}, err
	}

	info, err := s.fs.Stat(resolved)
	if err != nil {
		return ExecResult{}, classifyOSError(path, "access", err)
	}
	if !info.Mode().IsRegular() {
		return ExecResult{}, errNotAFile(path)
	}
	if !hasExtension(path, s.config.ScriptExtension) {
		return ExecResult{}, newError(KindWrongFileType, path, nil,
			"'%s' is not a runnable script (must end with %s)", path, s.config.ScriptExtension)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmdArgs := make([]string, 0, len(args)+2)
	cmdArgs = append(cmdArgs, s.config.Interpreter, resolved)
	cmdArgs = append(cmdArgs, args...)

	s.logger.Debug("running script",
		zap.String("path", path),
		zap.String("resolved", resolved),
		zap.Strings("args", args),
		zap.Duration("timeout", s.timeout))

	start := time.Now()
	stdout, stderr, exitCode, err := s.cmdRunner.RunCommand(ctxWithTimeout, s.root.path, cmdArgs)
	duration := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
			// The caller's deadline fired, not the sandbox timeout.
			return ExecResult{}, newError(KindTimeout, path, err,
				"Script '%s' was stopped because the request deadline expired", path)
		case errors.Is(err, context.DeadlineExceeded):
			s.logger.Warn("script timed out",
				zap.String("path", path),
				zap.Duration("timeout", s.timeout))
			return ExecResult{}, newError(KindTimeout, path, err,
				"Script '%s' timed out after %s", path, s.timeout)
		case errors.Is(err, context.Canceled):
			return ExecResult{}, newError(KindIOError, path, err,
				"Execution of script '%s' was canceled", path)
		case isInterpreterMissing(err):
			return ExecResult{}, newError(KindInterpreterMissing, path, err,
				"Interpreter '%s' not found - please ensure it is installed and in PATH", s.config.Interpreter)
		default:
			return ExecResult{}, newError(KindIOError, path, err,
				"Failed to execute script '%s': %v", path, err)
		}
	}

	s.logger.Debug("script finished",
		zap.String("path", path),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration),
		zap.Int("stdout_len", len(stdout)),
		zap.Int("stderr_len", len(stderr)))

	return ExecResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}, nil
}

func hasExtension(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(path), strings.ToLower(ext))
}
