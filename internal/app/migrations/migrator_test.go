package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationVersion(t *testing.T) {
	cases := map[string]string{
		"003_coffee_chats.sql":            "003",
		"/srv/migrations/001_members.sql": "001",
		"010.sql":                         "010.sql",
	}
	for in, want := range cases {
		if got := MigrationVersion(in); got != want {
			t.Errorf("MigrationVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPendingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md", "010_c.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := PendingFiles(dir)
	if err != nil {
		t.Fatalf("PendingFiles: %v", err)
	}
	want := []string{"001_a.sql", "002_b.sql", "010_c.sql"}
	if len(files) != len(want) {
		t.Fatalf("files = %v", files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, f, want[i])
		}
	}

	if _, err := PendingFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory accepted")
	}
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatalf("PendingFiles: %v", err)
	}
	seen := map[string]bool{}
	for _, f := range files {
		v := MigrationVersion(f)
		if seen[v] {
			t.Errorf("duplicate migration version %s", v)
		}
		seen[v] = true
	}
	if len(files) < 4 {
		t.Errorf("found %d migrations, want at least 4", len(files))
	}
}
