// Package usb enumerates removable volumes, finds the machine's design folder
// on them, and ejects them.
package usb

import (
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
)

// ErrUnmountUnsupported is returned where the platform has no eject facility.
var ErrUnmountUnsupported = errors.New("unmount not supported on this platform")

// Volume is a mounted removable volume. Volumes are recomputed on every
// enumeration because devices come and go at any time.
type Volume struct {
	MountPoint string
	Name       string
	// Device identifies the volume to the platform's eject facility.
	Device string
}

// Enumerator lists and ejects removable volumes.
type Enumerator interface {
	List(ctx context.Context) ([]Volume, error)
	Unmount(ctx context.Context, v Volume) error
}

// NewEnumerator returns the enumerator for the running platform.
func NewEnumerator() Enumerator {
	return newPlatformEnumerator()
}

func sortVolumes(volumes []Volume) {
	sort.Slice(volumes, func(i, j int) bool { return volumes[i].MountPoint < volumes[j].MountPoint })
}

// commandError prefers the tool's own output over the bare exit status.
func commandError(out []byte, err error) string {
	if msg := strings.TrimSpace(string(out)); msg != "" {
		return msg
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
