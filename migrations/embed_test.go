package migrations

import (
	"strings"
	"testing"
)

func TestFiles(t *testing.T) {
	files, err := Files()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 || files[0] != "001_tdes.sql" {
		t.Fatalf("expected 001_tdes.sql first, got %v", files)
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".sql") {
			t.Errorf("unexpected file %q", f)
		}
	}
}

func TestPending(t *testing.T) {
	files := []string{"001_a.sql", "002_b.sql", "003_c.sql"}
	got := Pending(files, map[string]bool{"002_b.sql": true})
	if strings.Join(got, ",") != "001_a.sql,003_c.sql" {
		t.Errorf("unexpected pending set %v", got)
	}
	if len(Pending(files, map[string]bool{"001_a.sql": true, "002_b.sql": true, "003_c.sql": true})) != 0 {
		t.Error("expected nothing pending")
	}
}
