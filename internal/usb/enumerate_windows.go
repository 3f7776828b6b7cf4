package usb

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

// DeviceIoControl codes from winioctl.h
const (
	fsctlLockVolume        = 0x00090018
	fsctlDismountVolume    = 0x00090020
	ioctlStorageEjectMedia = 0x002D4808
)

// windowsEnumerator reports drive letters Windows classifies as removable.
type windowsEnumerator struct{}

func newPlatformEnumerator() Enumerator {
	return windowsEnumerator{}
}

func (windowsEnumerator) List(context.Context) ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("GetLogicalDrives: %w", err)
	}

	var volumes []Volume
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		root := letter + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		if windows.GetDriveType(rootPtr) != windows.DRIVE_REMOVABLE {
			continue
		}
		volumes = append(volumes, Volume{MountPoint: root, Name: volumeName(rootPtr, letter), Device: letter})
	}
	return volumes, nil
}

func volumeName(rootPtr *uint16, letter string) string {
	label := make([]uint16, windows.MAX_PATH+1)
	err := windows.GetVolumeInformation(rootPtr, &label[0], uint32(len(label)), nil, nil, nil, nil, 0)
	if err == nil {
		if name := windows.UTF16ToString(label); name != "" {
			return fmt.Sprintf("%s (%s:)", name, letter)
		}
	}
	return letter + ":"
}

func (windowsEnumerator) Unmount(_ context.Context, v Volume) error {
	letter := strings.TrimSuffix(strings.TrimSuffix(v.Device, `:\`), ":")
	if letter == "" {
		letter = v.MountPoint[:1]
	}
	path, err := windows.UTF16PtrFromString(`\\.\` + letter + ":")
	if err != nil {
		return err
	}

	handle, err := windows.CreateFile(path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return fmt.Errorf("open volume %s: %w", letter, err)
	}
	defer windows.CloseHandle(handle)

	for _, code := range []uint32{fsctlLockVolume, fsctlDismountVolume, ioctlStorageEjectMedia} {
		var returned uint32
		if err := windows.DeviceIoControl(handle, code, nil, 0, nil, 0, &returned, nil); err != nil {
			return fmt.Errorf("eject %s: control code %#x: %w", letter, code, err)
		}
	}
	return nil
}
