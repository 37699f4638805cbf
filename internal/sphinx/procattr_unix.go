//go:build unix

package sphinx

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so cancellation
// also kills the builder's own children.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
