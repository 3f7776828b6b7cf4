//go:build !linux && !darwin && !windows

package converter

import (
	"os"
	"path/filepath"
)

// PluginInstallURL points at the ink/stitch install guide.
const PluginInstallURL = "https://inkstitch.org/docs/install-linux/"

func candidatePaths() []string {
	return []string{"/usr/local/bin/inkscape"}
}

func extensionDirs(string) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".config", "inkscape", "extensions", "inkstitch")}
}
