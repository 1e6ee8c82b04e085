package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Kind classifies an OperationError
type Kind int

// Error kinds returned by sandbox operations
const (
	KindIOError Kind = iota
	KindAccessDenied
	KindNotFound
	KindNotADirectory
	KindNotAFile
	KindWrongFileType
	KindPermissionDenied
	KindDecodeError
	KindTimeout
	KindInterpreterMissing
	KindInvalidArgument
	KindUnknownOperation
)

var kindNames = map[Kind]string{
	KindIOError:            "IOError",
	KindAccessDenied:       "AccessDenied",
	KindNotFound:           "NotFound",
	KindNotADirectory:      "NotADirectory",
	KindNotAFile:           "NotAFile",
	KindWrongFileType:      "WrongFileType",
	KindPermissionDenied:   "PermissionDenied",
	KindDecodeError:        "DecodeError",
	KindTimeout:            "Timeout",
	KindInterpreterMissing: "InterpreterMissing",
	KindInvalidArgument:    "InvalidArgument",
	KindUnknownOperation:   "UnknownOperation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// OperationError is the single error type that crosses the operation boundary.
// Path holds the caller's requested path, not the resolved one.
type OperationError struct {
	Kind    Kind
	Message string
	Path    string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is matches another *OperationError by kind, so errors.Is(err, &OperationError{Kind: KindNotFound}) works.
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf reports the kind of err. Errors that are not an *OperationError are IOError.
func KindOf(err error) Kind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindIOError
}

func newError(kind Kind, path string, cause error, format string, args ...any) *OperationError {
	return &OperationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Err:     cause,
	}
}

func errAccessDenied(path, root string) *OperationError {
	return newError(KindAccessDenied, path, nil,
		"Access denied: '%s' is outside the allowed working directory '%s'", path, root)
}

func errNotFound(path string) *OperationError {
	return newError(KindNotFound, path, fs.ErrNotExist, "'%s' not found", path)
}

func errNotADirectory(path string) *OperationError {
	return newError(KindNotADirectory, path, nil, "'%s' is not a directory", path)
}

func errNotAFile(path string) *OperationError {
	return newError(KindNotAFile, path, nil, "'%s' is not a regular file", path)
}

// classifyOSError maps an OS failure onto PermissionDenied or IOError.
func classifyOSError(path, action string, err error) *OperationError {
	if errors.Is(err, fs.ErrPermission) {
		return newError(KindPermissionDenied, path, err, "Permission denied: cannot %s '%s'", action, path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return errNotFound(path)
	}
	return newError(KindIOError, path, err, "Failed to %s '%s': %v", action, path, err)
}

func isInterpreterMissing(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
