package reporting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jihwankim/precice-case-generate/pkg/reporting"
)

func TestNewLogFileCreatesFile(t *testing.T) {
	dir := t.TempDir()
	store, err := reporting.NewLogStore(dir, 10)
	if err != nil {
		t.Fatalf("NewLogStore failed: %v", err)
	}

	f, err := store.NewLogFile("20260101-000000")
	if err != nil {
		t.Fatalf("NewLogFile failed: %v", err)
	}
	defer f.Close()

	path := filepath.Join(dir, "precice-case-generate-20260101-000000.log")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file at %s: %v", path, err)
	}
}

func TestNewLogFileRetainsOnlyKeepLastN(t *testing.T) {
	dir := t.TempDir()
	store, err := reporting.NewLogStore(dir, 2)
	if err != nil {
		t.Fatalf("NewLogStore failed: %v", err)
	}

	timestamps := []string{"20260101-000001", "20260101-000002", "20260101-000003"}
	for _, ts := range timestamps {
		f, err := store.NewLogFile(ts)
		if err != nil {
			t.Fatalf("NewLogFile(%s) failed: %v", ts, err)
		}
		f.Close()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 retained log files, got %d", len(entries))
	}

	for _, stale := range []string{"precice-case-generate-20260101-000001.log"} {
		if _, err := os.Stat(filepath.Join(dir, stale)); !os.IsNotExist(err) {
			t.Errorf("expected %s to have been pruned", stale)
		}
	}
	for _, kept := range []string{"precice-case-generate-20260101-000002.log", "precice-case-generate-20260101-000003.log"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Errorf("expected %s to be retained: %v", kept, err)
		}
	}
}

func TestNewLogFileKeepZeroDisablesCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := reporting.NewLogStore(dir, 0)
	if err != nil {
		t.Fatalf("NewLogStore failed: %v", err)
	}

	for _, ts := range []string{"20260101-000001", "20260101-000002"} {
		f, err := store.NewLogFile(ts)
		if err != nil {
			t.Fatalf("NewLogFile(%s) failed: %v", ts, err)
		}
		f.Close()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("keepLastN=0 should disable pruning, expected 2 files, got %d", len(entries))
	}
}
