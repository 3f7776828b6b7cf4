//go:build unix

package converter

import (
	"os/exec"
	"syscall"
)

// detach starts the child in its own process group so that signals sent to
// the terminal's foreground group do not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
