//go:build !unix && !windows

package converter

import "os/exec"

func detach(*exec.Cmd) {}
