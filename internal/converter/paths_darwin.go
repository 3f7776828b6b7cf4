package converter

import (
	"os"
	"path/filepath"
)

// PluginInstallURL points at the ink/stitch install guide for this platform.
const PluginInstallURL = "https://inkstitch.org/docs/install-macos/"

const appBundle = "/Applications/Inkscape.app"

func candidatePaths() []string {
	return []string{filepath.Join(appBundle, "Contents", "MacOS", "inkscape")}
}

func extensionDirs(string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Library", "Application Support",
			"org.inkscape.Inkscape", "config", "inkscape", "extensions", "inkstitch"))
	}
	return append(dirs, filepath.Join(appBundle, "Contents", "Resources", "share", "inkscape", "extensions", "inkstitch"))
}
