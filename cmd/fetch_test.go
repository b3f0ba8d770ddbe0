package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchSource(t *testing.T) {
	const table = "Revenue Type,2025\nFuel,10\nFees,2\n"
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(table))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "Revenue.csv")
	rows, err := fetchSource(context.Background(), srv.Client(), srv.URL+"/Revenue.csv", dest, false)
	if err != nil {
		t.Fatalf("fetchSource: %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != table {
		t.Errorf("file = %q, want %q", got, table)
	}

	if _, err := fetchSource(context.Background(), srv.Client(), srv.URL+"/Revenue.csv", dest, false); err != errExists {
		t.Errorf("second fetch: err = %v, want errExists", err)
	}
	if hits != 1 {
		t.Errorf("existing file fetched again: %d requests", hits)
	}

	if _, err := fetchSource(context.Background(), srv.Client(), srv.URL+"/Revenue.csv", dest, true); err != nil {
		t.Errorf("forced fetch: %v", err)
	}
	if hits != 2 {
		t.Errorf("forced fetch made %d requests, want 2", hits)
	}
}

func TestFetchSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.csv")
	if _, err := fetchSource(context.Background(), srv.Client(), srv.URL+"/missing.csv", dest, false); err == nil {
		t.Fatal("expected an error for a 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("failed fetch left %s behind", dest)
	}
}

func TestFetchSourceLocalCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Funding.csv")
	if err := os.WriteFile(src, []byte("Funding Type,Category\nFederal,NHPP\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0755); err != nil {
		t.Fatal(err)
	}
	rows, err := fetchSource(context.Background(), http.DefaultClient, src, filepath.Join(out, "Funding.csv"), false)
	if err != nil || rows != 1 {
		t.Errorf("fetchSource = %d, %v; want 1 row", rows, err)
	}
}
