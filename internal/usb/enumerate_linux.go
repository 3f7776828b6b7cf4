package usb

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	udisksService    = "org.freedesktop.UDisks2"
	udisksRoot       = dbus.ObjectPath("/org/freedesktop/UDisks2")
	udisksPathPrefix = "/org/freedesktop/UDisks2/"
	udisksBlock      = "org.freedesktop.UDisks2.Block"
	udisksDrive      = "org.freedesktop.UDisks2.Drive"
	udisksFS         = "org.freedesktop.UDisks2.Filesystem"
	objectManager    = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// linuxEnumerator asks UDisks2 over the system bus and falls back to
// /proc/self/mountinfo when the bus is unavailable.
type linuxEnumerator struct {
	connect  func() (*dbus.Conn, error)
	fallback *mountinfoEnumerator
}

func newPlatformEnumerator() Enumerator {
	return &linuxEnumerator{
		connect:  dbus.SystemBus,
		fallback: newMountinfoEnumerator(),
	}
}

func (e *linuxEnumerator) List(ctx context.Context) ([]Volume, error) {
	conn, err := e.connect()
	if err != nil {
		return e.fallback.List(ctx)
	}
	volumes, err := listUDisks(ctx, conn)
	if err != nil {
		return e.fallback.List(ctx)
	}
	return volumes, nil
}

func (e *linuxEnumerator) Unmount(ctx context.Context, v Volume) error {
	if !strings.HasPrefix(v.Device, udisksPathPrefix) {
		return e.fallback.Unmount(ctx, v)
	}
	conn, err := e.connect()
	if err != nil {
		return e.fallback.Unmount(ctx, v)
	}

	block := conn.Object(udisksService, dbus.ObjectPath(v.Device))
	noOptions := map[string]dbus.Variant{}
	if call := block.CallWithContext(ctx, udisksFS+".Unmount", 0, noOptions); call.Err != nil {
		return fmt.Errorf("udisks unmount: %w", call.Err)
	}

	// Powering off is best effort: the filesystem is already safe to remove.
	prop, err := block.GetProperty(udisksBlock + ".Drive")
	if err != nil {
		return nil
	}
	drivePath, ok := prop.Value().(dbus.ObjectPath)
	if !ok || drivePath == "/" {
		return nil
	}
	conn.Object(udisksService, drivePath).CallWithContext(ctx, udisksDrive+".PowerOff", 0, noOptions)
	return nil
}

func listUDisks(ctx context.Context, conn *dbus.Conn) ([]Volume, error) {
	var objects managedObjects
	err := conn.Object(udisksService, udisksRoot).CallWithContext(ctx, objectManager, 0).Store(&objects)
	if err != nil {
		return nil, fmt.Errorf("udisks managed objects: %w", err)
	}
	return volumesFromObjects(objects), nil
}

// volumesFromObjects picks mounted filesystems whose drive is removable or
// attached over USB.
func volumesFromObjects(objects managedObjects) []Volume {
	var volumes []Volume
	for path, ifaces := range objects {
		fs, ok := ifaces[udisksFS]
		if !ok {
			continue
		}
		block, ok := ifaces[udisksBlock]
		if !ok {
			continue
		}
		mounts, _ := fs["MountPoints"].Value().([][]byte)
		if len(mounts) == 0 {
			continue
		}
		drivePath, _ := block["Drive"].Value().(dbus.ObjectPath)
		drive, ok := objects[drivePath][udisksDrive]
		if !ok || !isRemovableDrive(drive) {
			continue
		}

		mount := strings.TrimRight(string(mounts[0]), "\x00")
		name, _ := block["IdLabel"].Value().(string)
		if name == "" {
			name = filepath.Base(mount)
		}
		volumes = append(volumes, Volume{MountPoint: mount, Name: name, Device: string(path)})
	}
	sortVolumes(volumes)
	return volumes
}

func isRemovableDrive(drive map[string]dbus.Variant) bool {
	if bus, _ := drive["ConnectionBus"].Value().(string); bus == "usb" {
		return true
	}
	removable, _ := drive["Removable"].Value().(bool)
	return removable
}

// mountinfoEnumerator reads the kernel mount table and keeps block devices
// that sit under a USB controller in sysfs.
type mountinfoEnumerator struct {
	mountinfo string
	sysBlock  string
}

func newMountinfoEnumerator() *mountinfoEnumerator {
	return &mountinfoEnumerator{
		mountinfo: "/proc/self/mountinfo",
		sysBlock:  "/sys/class/block",
	}
}

func (e *mountinfoEnumerator) List(context.Context) ([]Volume, error) {
	f, err := os.Open(e.mountinfo)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var volumes []Volume
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		mount, source, ok := parseMountinfoLine(scanner.Text())
		if !ok || !strings.HasPrefix(source, "/dev/") || seen[mount] {
			continue
		}
		if !e.isUSB(filepath.Base(source)) {
			continue
		}
		seen[mount] = true
		volumes = append(volumes, Volume{MountPoint: mount, Name: filepath.Base(mount), Device: source})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sortVolumes(volumes)
	return volumes, nil
}

func (e *mountinfoEnumerator) isUSB(dev string) bool {
	resolved, err := filepath.EvalSymlinks(filepath.Join(e.sysBlock, dev))
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(resolved), "/") {
		if strings.HasPrefix(part, "usb") {
			return true
		}
	}
	return false
}

func (e *mountinfoEnumerator) Unmount(ctx context.Context, v Volume) error {
	out, err := exec.CommandContext(ctx, "umount", v.MountPoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("umount: %s", commandError(out, err))
	}
	if v.Device != "" {
		if _, err := exec.LookPath("udisksctl"); err == nil {
			exec.CommandContext(ctx, "udisksctl", "power-off", "-b", v.Device).Run()
		}
	}
	return nil
}

// parseMountinfoLine extracts the mount point (field 5) and the mount source
// (second field after the "-" separator).
func parseMountinfoLine(line string) (mount, source string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return "", "", false
	}
	sep := -1
	for i := 6; i < len(fields); i++ {
		if fields[i] == "-" {
			sep = i
			break
		}
	}
	if sep < 0 || sep+2 >= len(fields) {
		return "", "", false
	}
	return unescapeMountinfo(fields[4]), fields[sep+2], true
}

// unescapeMountinfo decodes the octal escapes (\040 for space) the kernel
// uses in mount paths.
func unescapeMountinfo(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				sb.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
