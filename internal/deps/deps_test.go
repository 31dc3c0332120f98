package deps

import (
	"os"
	"path/filepath"
	"testing"

	"broom/internal/config"
)

func TestCheckReportsMissingBinary(t *testing.T) {
	statuses := Check([]Requirement{{Name: "pkill", Command: "definitely-not-a-real-binary"}})
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if statuses[0].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
}

func TestCheckFindsShell(t *testing.T) {
	statuses := Check([]Requirement{{Name: "shell", Command: "sh"}})
	if !statuses[0].Available {
		t.Fatalf("expected sh to be available: %s", statuses[0].Detail)
	}
}

func TestCheckPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	statuses := Check([]Requirement{
		{Name: "dir", Path: dir},
		{Name: "file", Path: file},
		{Name: "missing", Path: filepath.Join(dir, "absent")},
	})
	if !statuses[0].Available {
		t.Fatalf("expected directory to be available: %s", statuses[0].Detail)
	}
	if statuses[1].Available {
		t.Fatal("plain file must not satisfy a directory requirement")
	}
	if statuses[2].Available {
		t.Fatal("missing path must not be available")
	}
}

func TestForConfigUsesConfiguredPkill(t *testing.T) {
	cfg := config.Default()
	requirements := ForConfig(&cfg)
	if len(requirements) != 2 {
		t.Fatalf("expected two requirements, got %d", len(requirements))
	}
	if requirements[0].Command != "pkill" {
		t.Fatalf("unexpected pkill command %q", requirements[0].Command)
	}
}

func TestAvailable(t *testing.T) {
	if Available([]Status{{Available: true}, {Available: false}}) {
		t.Fatal("expected Available to be false when any status is unavailable")
	}
	if !Available([]Status{{Available: true}}) {
		t.Fatal("expected Available to be true when all statuses are available")
	}
}
