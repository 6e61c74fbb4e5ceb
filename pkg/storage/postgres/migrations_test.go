package postgres

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_create_users.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"create_users.sql", 0, false},
		{"nounderscore.sql", 0, false},
	}
	for _, tt := range tests {
		got, ok := migrationVersion(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("migrationVersion(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("reading embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}
	if _, ok := migrationVersion(entries[0].Name()); !ok {
		t.Errorf("first migration %q has no version prefix", entries[0].Name())
	}
}
