package usb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
)

var (
	removableMedia = regexp.MustCompile(`Removable Media:\s+(Yes|Removable)`)
	usbProtocol    = regexp.MustCompile(`Protocol:\s+USB`)
)

// darwinEnumerator inspects /Volumes with diskutil.
type darwinEnumerator struct {
	root string
	info func(ctx context.Context, mount string) (string, error)
}

func newPlatformEnumerator() Enumerator {
	return &darwinEnumerator{root: "/Volumes", info: diskutilInfo}
}

func diskutilInfo(ctx context.Context, mount string) (string, error) {
	out, err := exec.CommandContext(ctx, "diskutil", "info", mount).Output()
	return string(out), err
}

func (e *darwinEnumerator) List(ctx context.Context) ([]Volume, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		return nil, err
	}

	var volumes []Volume
	for _, entry := range entries {
		mount := filepath.Join(e.root, entry.Name())
		info, err := e.info(ctx, mount)
		if err != nil {
			continue
		}
		if isUSBRemovable(info) {
			volumes = append(volumes, Volume{MountPoint: mount, Name: entry.Name(), Device: mount})
		}
	}
	sortVolumes(volumes)
	return volumes, nil
}

func isUSBRemovable(info string) bool {
	return removableMedia.MatchString(info) && usbProtocol.MatchString(info)
}

func (e *darwinEnumerator) Unmount(ctx context.Context, v Volume) error {
	out, err := exec.CommandContext(ctx, "diskutil", "eject", v.MountPoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("diskutil eject: %s", commandError(out, err))
	}
	return nil
}
