//go:build !unix

package sandbox

import "os/exec"

// setProcessGroup is a no-op here; exec.CommandContext kills only the direct child.
func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(*exec.Cmd) {}
