package cmd

import (
	"strings"
	"testing"
)

func TestMachines_ListsAll(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machines")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "Brother PE800 (pes, dst)") {
		t.Errorf("expected Brother PE800 in list, got: %q", output)
	}
}

func TestMachines_FilterByFormat(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machines", "--format", "JEF")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "Janome Memory Craft 500E") {
		t.Errorf("expected Janome machines, got: %q", output)
	}
	if strings.Contains(output, "Brother PE800") {
		t.Errorf("expected Brother machines filtered out, got: %q", output)
	}
}

func TestMachines_Verbose(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machine", "list", "-v", "-f", "jef")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "USB path: EMB/Embf") {
		t.Errorf("expected USB path in verbose output, got: %q", output)
	}
}

func TestMachines_UnknownFormat(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machines", "--format", "zzz")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "No machines read zzz files") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestMachineInfo(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machine", "info", "Brother", "PE800")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	for _, want := range []string{"Brother PE800", "Formats: pes, dst", "Design size: 5x7 in"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %q", want, output)
		}
	}
}

func TestMachineInfo_NotFound(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "machine", "info", "Qqqqqq")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "Machine 'Qqqqqq' not found") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestFormats(t *testing.T) {
	output, err := runRoot(t, testConfigPath(t), "", "formats")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "art: Bernina") {
		t.Errorf("expected sorted formats starting with art, got: %q", output)
	}
	if !strings.Contains(output, "dst: Tajima -- Industry standard format") {
		t.Errorf("expected dst with notes, got: %q", output)
	}
}
