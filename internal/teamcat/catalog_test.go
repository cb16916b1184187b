package teamcat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	teams := c.Teams("gen4ou")
	if len(teams) == 0 {
		t.Fatal("no embedded gen4ou teams")
	}
	for _, team := range teams {
		if team.Name == "" || team.Packed == "" {
			t.Fatalf("incomplete team %+v", team)
		}
	}
}

func TestPick(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	team, err := c.Pick("gen4ou")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if team.Packed == "" {
		t.Fatalf("team = %+v", team)
	}

	if _, err := c.Pick("gen4randombattle"); !errors.Is(err, ErrNoTeam) {
		t.Fatalf("err = %v, want ErrNoTeam", err)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := `formats:
  gen4uu:
    - name: test
      packed: "Pidgey||||Tackle|||||||"
  gen4ou:
    - name: replaced
      packed: "Rattata||||Tackle|||||||"
`
	if err := os.WriteFile(filepath.Join(dir, "teams.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New with overrides: %v", err)
	}
	if teams := c.Teams("gen4uu"); len(teams) != 1 || teams[0].Name != "test" {
		t.Fatalf("gen4uu = %+v", teams)
	}
	// Overrides replace the whole format.
	if teams := c.Teams("gen4ou"); len(teams) != 1 || teams[0].Name != "replaced" {
		t.Fatalf("gen4ou = %+v", teams)
	}
}

func TestRejectsEmptyPacked(t *testing.T) {
	dir := t.TempDir()
	bad := "formats:\n  gen4ou:\n    - name: broken\n      packed: \"\"\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatal("expected error for empty packed team")
	}
}
