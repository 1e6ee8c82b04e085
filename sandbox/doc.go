// Package sandbox provides filesystem and script-execution operations confined to a single root directory.
//
// Every operation resolves its path against the sandbox Root before touching the
// filesystem or spawning a process. Paths that escape the root are rejected with
// AccessDenied; paths that do not exist literally are looked up by a recursive
// fallback search through the whole sandbox, and the first match in a stable
// traversal order is used.
//
// All failures are returned as *OperationError values carrying a Kind, so callers
// can branch on the error taxonomy instead of matching strings. Invoke wraps the
// four operations behind a name/arguments call contract that never panics.
//
// Usage:
//
//	sb, err := sandbox.New(logger, "./workspace", sandbox.Config{})
//	text, err := sb.ReadFile("README.md")
//	result := sb.Invoke(ctx, "run_script", map[string]any{"file_path": "main.py"})
package sandbox
