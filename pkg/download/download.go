// Package download implements the cached, checksum-verified HTTP fetch
// layer over a per-user cache directory.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/werrors"
)

// userAgent identifies the tool to download servers.
const userAgent = "vintner/1.0"

// Progress receives byte-level download progress. Total is -1 when the
// server did not report a Content-Length.
type Progress interface {
	Start(total int64)
	Add(n int)
	Done()
}

// Manager performs cached artifact downloads.
type Manager struct {
	client   *http.Client
	cacheDir string
	log      *telemetry.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithClient substitutes the HTTP client.
func WithClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithLogger sets the logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(m *Manager) { m.log = log.NewComponentLogger("download") }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a download manager over cacheDir, creating the
// directory if needed.
func NewManager(cacheDir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, werrors.IO(err)
	}

	m := &Manager{
		client:   &http.Client{},
		cacheDir: cacheDir,
		log:      telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CacheDir returns the cache root.
func (m *Manager) CacheDir() string {
	return m.cacheDir
}

// Download fetches url into dest. An existing destination is reused when
// its SHA-256 matches (or unconditionally when no digest is expected);
// otherwise it is removed and fetched again. The body streams through a
// .part temp file renamed into place on success, hashing incrementally.
// A digest mismatch removes the artifact and fails.
func (m *Manager) Download(ctx context.Context, url, dest, expectedSHA256 string, progress Progress) (string, error) {
	if _, err := os.Stat(dest); err == nil {
		if expectedSHA256 == "" {
			m.log.Debugf("using cached %s (no checksum to verify)", filepath.Base(dest))
			m.metrics.RecordCacheHit()
			return dest, nil
		}
		sum, err := Sum256File(dest)
		if err != nil {
			return "", werrors.IO(err)
		}
		if sum == expectedSHA256 {
			m.log.Debugf("using cached %s (checksum ok)", filepath.Base(dest))
			m.metrics.RecordCacheHit()
			return dest, nil
		}
		m.log.Warnf("cached %s failed verification, refetching", filepath.Base(dest))
		if err := os.Remove(dest); err != nil {
			return "", werrors.IO(err)
		}
	}

	written, err := m.fetch(ctx, url, dest, expectedSHA256, progress)
	if err != nil {
		m.metrics.RecordDownload("error", written)
		return "", err
	}
	m.metrics.RecordDownload("ok", written)
	return dest, nil
}

func (m *Manager) fetch(ctx context.Context, url, dest, expectedSHA256 string, progress Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, werrors.Download("building request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, werrors.Download("fetching "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, werrors.Download(fmt.Sprintf("fetching %s: unexpected status %s", url, resp.Status), nil)
	}

	if progress != nil {
		total := resp.ContentLength
		progress.Start(total)
		defer progress.Done()
	}

	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return 0, werrors.IO(err)
	}

	hasher := sha256.New()
	var written int64
	buf := make([]byte, 128*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				os.Remove(part)
				return written, werrors.IO(err)
			}
			hasher.Write(buf[:n])
			written += int64(n)
			if progress != nil {
				progress.Add(n)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(part)
			return written, werrors.Download("reading body of "+url, readErr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(part)
		return written, werrors.IO(err)
	}

	if expectedSHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != expectedSHA256 {
			os.Remove(part)
			m.metrics.RecordChecksumFailure()
			return written, werrors.ChecksumMismatch(expectedSHA256, got)
		}
	}

	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return written, werrors.IO(err)
	}

	m.log.Infof("downloaded %s (%d bytes)", filepath.Base(dest), written)
	return written, nil
}

// IsCached reports whether filename exists in the flat legacy cache
// layout directly under the cache root.
func (m *Manager) IsCached(filename string) bool {
	_, err := os.Stat(m.CachedPath(filename))
	return err == nil
}

// CachedPath returns the flat-layout cache path for filename.
func (m *Manager) CachedPath(filename string) string {
	return filepath.Join(m.cacheDir, filename)
}

// Sum256File computes the lowercase hex SHA-256 digest of a file.
func Sum256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
