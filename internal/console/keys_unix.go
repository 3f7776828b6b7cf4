//go:build unix

package console

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

func pollKey(fd int, timeout time.Duration) (byte, bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, false, nil
	}

	var buf [1]byte
	read, err := unix.Read(fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if read == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}
