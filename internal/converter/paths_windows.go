package converter

import (
	"os"
	"path/filepath"
)

// PluginInstallURL points at the ink/stitch install guide for this platform.
const PluginInstallURL = "https://inkstitch.org/docs/install-windows/"

func candidatePaths() []string {
	var paths []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if dir := os.Getenv(env); dir != "" {
			paths = append(paths, filepath.Join(dir, "Inkscape", "bin", "inkscape.exe"))
		}
	}
	return paths
}

// extensionDirs checks the per-user extensions folder and the one shipped
// next to the executable (<install>\bin\inkscape.exe).
func extensionDirs(appPath string) []string {
	var dirs []string
	if appData := os.Getenv("APPDATA"); appData != "" {
		dirs = append(dirs, filepath.Join(appData, "inkscape", "extensions", "inkstitch"))
	}
	if appPath != "" {
		install := filepath.Dir(filepath.Dir(appPath))
		dirs = append(dirs, filepath.Join(install, "share", "inkscape", "extensions", "inkstitch"))
	}
	return dirs
}
