//go:build !windows

package claude

import (
	"os/exec"
	"syscall"
)

// newSysProcAttr starts the CLI in its own session, detached from the TTY.
func newSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// setupProcessCleanup kills the whole process group on cancellation so
// children of the CLI do not keep the output pipes open.
func setupProcessCleanup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
