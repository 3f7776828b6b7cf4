package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd := NewRootCmd()

	if rootCmd.Use != "stitch-sync" {
		t.Errorf("expected Use to be 'stitch-sync', got '%s'", rootCmd.Use)
	}

	subcommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		subcommands[cmd.Name()] = true
	}

	expected := []string{"watch", "machines", "machine", "formats", "config", "status", "stop", "version"}
	for _, name := range expected {
		if !subcommands[name] {
			t.Errorf("expected subcommand '%s' to be registered", name)
		}
	}
}

// runRoot executes the full command tree against a private config file.
func runRoot(t *testing.T, configPath, input string, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.Execute()
	return buf.String(), err
}

func testConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.toml")
}

func TestOpenConfig_WithoutFlag(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	store, err := openConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if filepath.Base(store.Path()) != "config.toml" {
		t.Errorf("expected default config file, got: %s", store.Path())
	}
}
