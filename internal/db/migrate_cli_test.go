package db

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runMigrate(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &MigrateCommand{DBPath: dbPath, In: strings.NewReader(stdin), Out: &out}
	err := cmd.Run(args)
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	out, err := runMigrate(t, dbPath, "", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "2 migration(s) pending") {
		t.Errorf("status output missing pending count:\n%s", out)
	}

	out, err = runMigrate(t, dbPath, "", "up")
	if err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if !strings.Contains(out, "Current version: 2") {
		t.Errorf("up output missing version:\n%s", out)
	}

	out, err = runMigrate(t, dbPath, "", "down")
	if err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out, "Current version: 1") {
		t.Errorf("down output missing version:\n%s", out)
	}

	if _, err := runMigrate(t, dbPath, "", "version", "2"); err != nil {
		t.Fatalf("version 2 failed: %v", err)
	}

	out, err = runMigrate(t, dbPath, "n\n", "force", "1")
	if err != nil {
		t.Fatalf("force failed: %v", err)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("declined force should abort:\n%s", out)
	}

	out, err = runMigrate(t, dbPath, "y\n", "force", "1")
	if err != nil {
		t.Fatalf("force failed: %v", err)
	}
	if !strings.Contains(out, "forced to 1") {
		t.Errorf("confirmed force should apply:\n%s", out)
	}

	out, err = runMigrate(t, dbPath, "", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Current version: 1") {
		t.Errorf("status after force:\n%s", out)
	}
}

func TestMigrateCommand_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	tests := []struct {
		name string
		args []string
	}{
		{"no action", nil},
		{"unknown action", []string{"sideways"}},
		{"version without number", []string{"version"}},
		{"bad number", []string{"force", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runMigrate(t, dbPath, "", tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}

	out, err := runMigrate(t, dbPath, "", "help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out, "Database Migration Commands") {
		t.Errorf("help output:\n%s", out)
	}
}
