package converter

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// detach starts the child in a new process group, which keeps console
// Ctrl-C events away from it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}
