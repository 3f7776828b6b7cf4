//go:build !unix && !windows

package console

import "time"

func pollKey(_ int, timeout time.Duration) (byte, bool, error) {
	time.Sleep(timeout)
	return 0, false, nil
}
