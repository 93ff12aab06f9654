package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/vintner/vintner/pkg/werrors"
)

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newTestServer(t *testing.T, body []byte, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q, want %q", ua, userAgent)
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadVerifiesChecksum(t *testing.T) {
	body := []byte("installer payload")
	srv := newTestServer(t, body, nil)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "setup.exe")
	got, err := m.Download(context.Background(), srv.URL, dest, digest(body), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != dest {
		t.Errorf("path = %q, want %q", got, dest)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(body) {
		t.Error("downloaded content differs from served body")
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Error("temp .part file left behind")
	}
}

func TestDownloadCacheHitSkipsNetwork(t *testing.T) {
	body := []byte("cached artifact bytes")
	var hits atomic.Int64
	srv := newTestServer(t, body, &hits)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "artifact.bin")
	for i := 0; i < 2; i++ {
		if _, err := m.Download(context.Background(), srv.URL, dest, digest(body), nil); err != nil {
			t.Fatalf("Download #%d: %v", i+1, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, second call should be a cache hit", hits.Load())
	}
}

func TestDownloadTrustOnPresenceWithoutChecksum(t *testing.T) {
	var hits atomic.Int64
	srv := newTestServer(t, []byte("served"), &hits)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "pre-existing.exe")
	if err := os.WriteFile(dest, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Download(context.Background(), srv.URL, dest, "", nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if hits.Load() != 0 {
		t.Error("existing file without checksum should be trusted as-is")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "already here" {
		t.Error("existing file was overwritten")
	}
}

func TestDownloadChecksumMismatchRemovesFile(t *testing.T) {
	srv := newTestServer(t, []byte("wrong bytes"), nil)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "bad.exe")
	wrong := digest([]byte("expected other bytes"))

	_, err = m.Download(context.Background(), srv.URL, dest, wrong, nil)
	if !werrors.IsChecksumMismatch(err) {
		t.Fatalf("err = %v, want checksum mismatch", err)
	}

	var werr *werrors.Error
	if !errors.As(err, &werr) {
		t.Fatal("expected *werrors.Error")
	}
	if werr.Expected != wrong || werr.Got != digest([]byte("wrong bytes")) {
		t.Errorf("mismatch digests: expected=%s got=%s", werr.Expected, werr.Got)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination should be absent after checksum mismatch")
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("temp file should be absent after checksum mismatch")
	}
}

func TestDownloadStaleCacheIsRefetched(t *testing.T) {
	body := []byte("fresh bytes")
	var hits atomic.Int64
	srv := newTestServer(t, body, &hits)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "stale.exe")
	if err := os.WriteFile(dest, []byte("stale bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Download(context.Background(), srv.URL, dest, digest(body), nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if hits.Load() != 1 {
		t.Error("stale cached file should trigger a refetch")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != string(body) {
		t.Error("stale content not replaced")
	}
}

func TestDownloadHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Download(context.Background(), srv.URL, filepath.Join(dir, "x.exe"), "", nil)
	if werrors.KindOf(err) != werrors.KindDownload {
		t.Fatalf("err = %v, want download error", err)
	}
}

type recordingProgress struct {
	total int64
	added int
	done  bool
}

func (p *recordingProgress) Start(total int64) { p.total = total }
func (p *recordingProgress) Add(n int)         { p.added += n }
func (p *recordingProgress) Done()             { p.done = true }

func TestDownloadReportsProgress(t *testing.T) {
	body := []byte("0123456789")
	srv := newTestServer(t, body, nil)

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	var p recordingProgress
	if _, err := m.Download(context.Background(), srv.URL, filepath.Join(dir, "p.exe"), "", &p); err != nil {
		t.Fatal(err)
	}
	if p.total != int64(len(body)) {
		t.Errorf("progress total = %d, want %d", p.total, len(body))
	}
	if p.added != len(body) {
		t.Errorf("progress added = %d, want %d", p.added, len(body))
	}
	if !p.done {
		t.Error("progress Done not called")
	}
}

func TestIsCachedFlatLayout(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if m.IsCached("arial32.exe") {
		t.Error("empty cache should report not cached")
	}
	if err := os.WriteFile(filepath.Join(dir, "arial32.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !m.IsCached("arial32.exe") {
		t.Error("flat-layout file should report cached")
	}
	if m.CachedPath("arial32.exe") != filepath.Join(dir, "arial32.exe") {
		t.Error("CachedPath mismatch")
	}
}

func TestSum256File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Sum256File(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("Sum256File = %s", got)
	}
}
