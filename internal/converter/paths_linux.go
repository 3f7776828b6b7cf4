package converter

import (
	"os"
	"path/filepath"
)

// PluginInstallURL points at the ink/stitch install guide for this platform.
const PluginInstallURL = "https://inkstitch.org/docs/install-linux/"

func candidatePaths() []string {
	return []string{
		"/usr/bin/inkscape",
		"/usr/local/bin/inkscape",
		"/opt/inkscape/bin/inkscape",
	}
}

func extensionDirs(string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "inkscape", "extensions", "inkstitch"))
	}
	return append(dirs,
		"/usr/share/inkscape/extensions/inkstitch",
		"/usr/local/share/inkscape/extensions/inkstitch",
	)
}
