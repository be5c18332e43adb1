//go:build windows

package claude

import (
	"os/exec"
	"syscall"
)

// newSysProcAttr returns SysProcAttr for Windows (no Setsid equivalent).
func newSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

// setupProcessCleanup is a no-op on Windows; the default cmd.Cancel is used.
func setupProcessCleanup(cmd *exec.Cmd) {}
