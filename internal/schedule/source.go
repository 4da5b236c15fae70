package schedule

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SIROS publication layout. The registry is a plain CSV; the codeshare file
// is a ZIP wrapping "codeshare.csv". Both are published per year with the
// date embedded in the filename.
const (
	defaultRegistersURL  = "https://siros.anac.gov.br/siros/registros/registros/serie/%d/"
	defaultCodesharesURL = "https://siros.anac.gov.br/siros/registros/codeshare/serie/%d/"
	registersFilename    = "registros_%s.csv"
	codesharesFilename   = "codeshare_%s.zip"
	codeshareZipMember   = "codeshare.csv"
)

// HTTPSource fetches the SIROS registry and codeshare files, keeping a
// local cache so a restart on the same day does not refetch. A non-success
// response is an error; callers treat it as fatal for the run.
type HTTPSource struct {
	RegistersURL  string // per-year URL prefix, %d = year
	CodesharesURL string
	CacheDir      string
	Client        *http.Client
}

// NewHTTPSource creates a source against the public SIROS site, caching
// downloads under cacheDir.
func NewHTTPSource(cacheDir string) *HTTPSource {
	return &HTTPSource{
		RegistersURL:  defaultRegistersURL,
		CodesharesURL: defaultCodesharesURL,
		CacheDir:      cacheDir,
		Client:        &http.Client{Timeout: 60 * time.Second},
	}
}

// Registers returns today's registry rows.
func (s *HTTPSource) Registers(ctx context.Context, today time.Time) ([][]string, error) {
	name := fmt.Sprintf(registersFilename, today.Format("2006-01-02"))
	raw, err := s.fetch(ctx, fmt.Sprintf(s.RegistersURL, today.Year()), name)
	if err != nil {
		return nil, err
	}
	return parseSemicolonCSV(raw)
}

// Codeshares returns today's codeshare rows, extracted from the published
// ZIP.
func (s *HTTPSource) Codeshares(ctx context.Context, today time.Time) ([][]string, error) {
	name := fmt.Sprintf(codesharesFilename, today.Format("2006-01-02"))
	raw, err := s.fetch(ctx, fmt.Sprintf(s.CodesharesURL, today.Year()), name)
	if err != nil {
		return nil, err
	}
	csvBytes, err := unzipMember(raw, codeshareZipMember)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return parseSemicolonCSV(csvBytes)
}

// fetch returns the named file from the local cache, or downloads and
// caches it.
func (s *HTTPSource) fetch(ctx context.Context, urlPrefix, name string) ([]byte, error) {
	path := filepath.Join(s.CacheDir, name)
	if raw, err := os.ReadFile(path); err == nil {
		log.Printf("reading %s from cache", name)
		return raw, nil
	}

	url := urlPrefix + name
	log.Printf("downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %s", url, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	if s.CacheDir != "" {
		if err := os.MkdirAll(s.CacheDir, 0o755); err == nil {
			if err := os.WriteFile(path, raw, 0o644); err != nil {
				log.Printf("cache %s: %v", path, err)
			}
		}
	}
	return raw, nil
}

func unzipMember(raw []byte, member string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	f, err := zr.Open(member)
	if err != nil {
		return nil, fmt.Errorf("open %s in zip: %w", member, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseSemicolonCSV(raw []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = ';'
	r.FieldsPerRecord = -1 // rows vary in width
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}
