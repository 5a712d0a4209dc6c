//go:build windows

package steam

import (
	"os/exec"
	"syscall"
)

// setProcessGroup hides the sidecar's console window.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

// Windows has no SIGTERM; both steps kill the process outright.
func terminateGroup(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}

func killGroup(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}
