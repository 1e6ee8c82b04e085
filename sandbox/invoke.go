package sandbox

import (
	"context"
	"errors"
)

// Operation names accepted by Invoke
const (
	OpListDirectory = "list_directory"
	OpReadFile      = "read_file"
	OpWriteFile     = "write_file"
	OpRunScript     = "run_script"
)

// operationAliases keeps the tool names earlier agent prompts were written against.
var operationAliases = map[string]string{
	"get_files_info":   OpListDirectory,
	"get_file_content": OpReadFile,
	"run_python_file":  OpRunScript,
}

// Operations returns the canonical operation names
func Operations() []string {
	return []string{OpListDirectory, OpReadFile, OpWriteFile, OpRunScript}
}

// CanonicalOperation maps name or one of its aliases to the canonical operation name.
func CanonicalOperation(name string) (string, bool) {
	switch name {
	case OpListDirectory, OpReadFile, OpWriteFile, OpRunScript:
		return name, true
	}
	canonical, ok := operationAliases[name]
	return canonical, ok
}

// Result is the value returned across the operation boundary: either Text or Err.
type Result struct {
	Text string
	Err  *OperationError
}

// IsError reports whether the call failed
func (r Result) IsError() bool {
	return r.Err != nil
}

// String returns the text shown to the caller; failures read "Error: <message>".
func (r Result) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Message
	}
	return r.Text
}

func resultOf(text string, err error) Result {
	if err == nil {
		return Result{Text: text}
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		opErr = newError(KindIOError, "", err, "Unexpected error: %v", err)
	}
	return Result{Err: opErr}
}

// Invoke dispatches a named operation with loosely typed arguments, as decoded from
// a tool call. It never panics: a panic inside an operation becomes an IOError result.
func (s *Sandbox) Invoke(ctx context.Context, name string, args map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: newError(KindIOError, "", nil, "Unexpected error in %s: %v", name, r)}
		}
	}()

	op, ok := CanonicalOperation(name)
	if !ok {
		return Result{Err: newError(KindUnknownOperation, "", nil, "Unknown operation '%s'", name)}
	}

	switch op {
	case OpListDirectory:
		directory, _, err := stringArg(args, "directory", op)
		if err != nil {
			return Result{Err: err}
		}
		return resultOf(s.ListDirectory(directory))

	case OpReadFile:
		filePath, err := requiredStringArg(args, "file_path", op)
		if err != nil {
			return Result{Err: err}
		}
		return resultOf(s.ReadFile(filePath))

	case OpWriteFile:
		filePath, err := requiredStringArg(args, "file_path", op)
		if err != nil {
			return Result{Err: err}
		}
		content, err := requiredStringArg(args, "content", op)
		if err != nil {
			return Result{Err: err}
		}
		return resultOf(s.WriteFile(filePath, content))

	default:
		filePath, err := requiredStringArg(args, "file_path", op)
		if err != nil {
			return Result{Err: err}
		}
		scriptArgs, err := stringSliceArg(args, "args", op)
		if err != nil {
			return Result{Err: err}
		}
		return resultOf(s.RunScript(ctx, filePath, scriptArgs))
	}
}

func stringArg(args map[string]any, key, op string) (string, bool, *OperationError) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", false, newError(KindInvalidArgument, "", nil, "%s parameter for %s must be a string, got %T", key, op, raw)
	}
	return value, true, nil
}

func requiredStringArg(args map[string]any, key, op string) (string, *OperationError) {
	value, ok, err := stringArg(args, key, op)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(KindInvalidArgument, "", nil, "%s parameter is required for %s", key, op)
	}
	return value, nil
}

func stringSliceArg(args map[string]any, key, op string) ([]string, *OperationError) {
	switch raw := args[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return raw, nil
	case []any:
		values := make([]string, 0, len(raw))
		for i, item := range raw {
			value, ok := item.(string)
			if !ok {
				return nil, newError(KindInvalidArgument, "", nil, "%s[%d] for %s must be a string, got %T", key, i, op, item)
			}
			values = append(values, value)
		}
		return values, nil
	default:
		return nil, newError(KindInvalidArgument, "", nil, "%s parameter for %s must be a list of strings, got %T", key, op, raw)
	}
}
