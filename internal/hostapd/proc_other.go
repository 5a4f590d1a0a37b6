//go:build !linux

package hostapd

import "os/exec"

func detach(cmd *exec.Cmd) {}
