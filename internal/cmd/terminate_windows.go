//go:build windows

package cmd

import "os"

// terminate ends the process. Windows has no SIGTERM, so a conversion in
// progress is cut short.
func terminate(p *os.Process) error {
	return p.Kill()
}
