package schedule

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const registersCSV = "Cód. Empresa;x\nGLO;x;1093;x;1;1;1;1;1;1;1;x;x;x;x;2025-01-01;2025-12-31;x;x;SBGR;x;SBSV;x;09:30;11:45\n"

func codeshareZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("codeshare.csv")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(f, "Operadora;x\nGLO;1093;AAL;7660;x;x;31/12/2025\n")
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHTTPSource_Download(t *testing.T) {
	zipBytes := codeshareZip(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Ext(r.URL.Path) {
		case ".csv":
			fmt.Fprint(w, registersCSV)
		case ".zip":
			_, _ = w.Write(zipBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(t.TempDir())
	src.RegistersURL = srv.URL + "/regs/%d/"
	src.CodesharesURL = srv.URL + "/cs/%d/"

	rows, err := src.Registers(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Registers: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "GLO" {
		t.Errorf("registers rows = %v", rows)
	}

	csRows, err := src.Codeshares(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Codeshares: %v", err)
	}
	if len(csRows) != 2 || csRows[1][2] != "AAL" {
		t.Errorf("codeshare rows = %v", csRows)
	}
}

func TestHTTPSource_CacheHit(t *testing.T) {
	dir := t.TempDir()
	name := fmt.Sprintf(registersFilename, wednesday.Format("2006-01-02"))
	if err := os.WriteFile(filepath.Join(dir, name), []byte(registersCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(dir)
	src.RegistersURL = srv.URL + "/regs/%d/"

	rows, err := src.Registers(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Registers: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
	if requests != 0 {
		t.Errorf("cache hit still made %d HTTP requests", requests)
	}
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTPSource(t.TempDir())
	src.RegistersURL = srv.URL + "/regs/%d/"

	if _, err := src.Registers(context.Background(), wednesday); err == nil {
		t.Error("non-success status should be an error")
	}
}

func TestHTTPSource_SavesDownload(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, registersCSV)
	}))
	defer srv.Close()

	src := NewHTTPSource(dir)
	src.RegistersURL = srv.URL + "/regs/%d/"

	if _, err := src.Registers(context.Background(), wednesday); err != nil {
		t.Fatalf("Registers: %v", err)
	}
	name := fmt.Sprintf(registersFilename, wednesday.Format("2006-01-02"))
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("downloaded file not cached: %v", err)
	}
}
