package collect

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSliceWorklistSkipsBlanks(t *testing.T) {
	w := NewSliceWorklist([]string{"ACC001", "", "  ", "ACC002"})

	var got []string
	for {
		item, ok := w.Next()
		if !ok {
			break
		}
		got = append(got, item)
	}
	if len(got) != 2 || got[0] != "ACC001" || got[1] != "ACC002" {
		t.Fatalf("unexpected items: %v", got)
	}
}

func TestWorklistFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklist.txt")
	if err := os.WriteFile(path, []byte("ACC001\nACC002\n\nACC003\n"), 0o644); err != nil {
		t.Fatalf("write worklist: %v", err)
	}

	w, err := WorklistFromFile(path)
	if err != nil {
		t.Fatalf("WorklistFromFile failed: %v", err)
	}
	items := take(w, 10)
	if len(items) != 3 || items[2] != "ACC003" {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestWorklistFromFileMissing(t *testing.T) {
	if _, err := WorklistFromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTakeBoundsTheSlice(t *testing.T) {
	w := NewSliceWorklist([]string{"a", "b", "c", "d", "e"})
	first := take(w, 2)
	second := take(w, 2)
	rest := take(w, 2)
	if len(first) != 2 || len(second) != 2 || len(rest) != 1 {
		t.Fatalf("unexpected slice sizes: %d %d %d", len(first), len(second), len(rest))
	}
	if items := take(w, 2); len(items) != 0 {
		t.Fatalf("expected exhausted worklist, got %v", items)
	}
}
