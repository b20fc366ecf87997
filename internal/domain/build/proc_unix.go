//go:build unix

package build

import (
	"os/exec"
	"syscall"
)

// killGroup runs the step in its own process group so cancellation reaches
// every child npm spawns, not only npm itself.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
