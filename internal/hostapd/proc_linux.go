//go:build linux

package hostapd

import (
	"os/exec"
	"syscall"
)

// detach puts hostapd in its own process group and makes cancellation
// terminate the whole group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
}
