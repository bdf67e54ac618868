package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diana/internal/dixel"
	"diana/internal/logging"
	"diana/internal/store"
)

func TestDcmDirPutExistsRoundTrip(t *testing.T) {
	dir := store.NewDcmDir(t.TempDir(), logging.NewNop())
	item := dixel.New("ACC001")
	item.File = []byte("DICM payload")

	if dir.Exists(item) {
		t.Fatal("fresh store should not contain the item")
	}
	if err := dir.Put(item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !dir.Exists(item) {
		t.Fatal("item should exist after Put")
	}

	// Existence is keyed on tags only; a payload-free probe must match.
	probe := dixel.New("ACC001")
	if !dir.Exists(probe) {
		t.Fatal("payload-free probe should match stored item")
	}

	fetched, err := dir.Get(probe)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(fetched.File) != "DICM payload" {
		t.Fatalf("unexpected payload: %q", fetched.File)
	}
}

func TestDcmDirShardsPaths(t *testing.T) {
	root := t.TempDir()
	dir := store.NewDcmDir(root, logging.NewNop())
	item := dixel.New("ACC002")
	item.File = []byte("x")
	if err := dir.Put(item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	fn := item.Filename()
	expected := filepath.Join(root, fn[0:2], fn[2:4], fn)
	if _, err := os.Stat(expected); err != nil {
		t.Fatalf("expected sharded path %q: %v", expected, err)
	}
}

func TestDcmDirPutRequiresPayload(t *testing.T) {
	dir := store.NewDcmDir(t.TempDir(), logging.NewNop())
	if err := dir.Put(dixel.New("ACC003")); err == nil {
		t.Fatal("expected error for payload-free Put")
	}
}

func TestDcmDirDelete(t *testing.T) {
	dir := store.NewDcmDir(t.TempDir(), logging.NewNop())
	item := dixel.New("ACC004")
	item.File = []byte("x")
	if err := dir.Put(item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := dir.Delete(item); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if dir.Exists(item) {
		t.Fatal("item should be gone after Delete")
	}
	// Deleting a missing item is not an error.
	if err := dir.Delete(item); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
}

func TestDcmDirIndexSkipsBadEntries(t *testing.T) {
	root := t.TempDir()
	dir := store.NewDcmDir(root, logging.NewNop())
	for _, acc := range []string{"A1", "A2", "A3"} {
		item := dixel.New(acc)
		item.File = []byte("x")
		if err := dir.Put(item); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	files := dir.Index()
	if len(files) != 3 {
		t.Fatalf("expected 3 indexed files, got %d: %v", len(files), files)
	}
	for _, rel := range files {
		if !strings.HasSuffix(rel, ".dcm") {
			t.Fatalf("unexpected indexed file %q", rel)
		}
	}
}

func TestImageDirAnonymizedNaming(t *testing.T) {
	item := dixel.New("ACC005")
	item.File = []byte("png bytes")

	plain := store.NewImageDir(t.TempDir(), false, logging.NewNop())
	anon := store.NewImageDir(t.TempDir(), true, logging.NewNop())
	if err := plain.Put(item); err != nil {
		t.Fatalf("plain Put failed: %v", err)
	}
	if err := anon.Put(item); err != nil {
		t.Fatalf("anon Put failed: %v", err)
	}
	if !plain.Exists(item) || !anon.Exists(item) {
		t.Fatal("both stores should report the item after Put")
	}

	var found []string
	_ = filepath.Walk(anon.Root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			found = append(found, filepath.Base(path))
		}
		return nil
	})
	if len(found) != 1 {
		t.Fatalf("expected one stored rendering, got %v", found)
	}
	if found[0] != item.ShamID()+".png" {
		t.Fatalf("anonymizing store should use sham naming, got %q", found[0])
	}
}

func TestReportDirPut(t *testing.T) {
	dir := store.NewReportDir(t.TempDir(), false, logging.NewNop())
	item := dixel.New("ACC006")

	// No report attached: must be a silent no-op.
	if err := dir.Put(item); err != nil {
		t.Fatalf("report-free Put should not fail: %v", err)
	}
	if dir.Exists(item) {
		t.Fatal("nothing should be stored without a report")
	}

	item.Report = &dixel.Report{Text: "IMPRESSION: normal. RADCAT1"}
	if err := dir.Put(item); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !dir.Exists(item) {
		t.Fatal("report should exist after Put")
	}
}
