package ledger_test

import (
	"context"
	"testing"

	"diana/internal/testsupport"
)

func TestAppendAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	l := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	if err := l.Append(ctx, "ACC001", "resolve", "no metadata found"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(ctx, "ACC002", "fetch", "payload missing"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Accession != "ACC001" || entries[0].Stage != "resolve" {
		t.Fatalf("unexpected first entry: %#v", entries[0])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestAppendRejectsEmptyAccession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	l := testsupport.MustOpenLedger(t, cfg)

	if err := l.Append(context.Background(), "", "resolve", "x"); err == nil {
		t.Fatal("expected error for empty accession")
	}
}

func TestAccessionsDistinctAndOrdered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	l := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	for _, pair := range [][2]string{
		{"ACC002", "resolve"},
		{"ACC001", "resolve"},
		{"ACC002", "fetch"},
	} {
		if err := l.Append(ctx, pair[0], pair[1], ""); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	accessions, err := l.Accessions(ctx)
	if err != nil {
		t.Fatalf("Accessions failed: %v", err)
	}
	if len(accessions) != 2 {
		t.Fatalf("expected 2 distinct accessions, got %v", accessions)
	}
	if accessions[0] != "ACC002" || accessions[1] != "ACC001" {
		t.Fatalf("expected first-failure ordering, got %v", accessions)
	}
}

func TestClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	l := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	if err := l.Append(ctx, "ACC001", "resolve", ""); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	count, err := l.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cleared row, got %d", count)
	}
	entries, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}
}
