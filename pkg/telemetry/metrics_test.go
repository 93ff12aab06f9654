package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	// None of these may panic on the no-op instance.
	m.RecordDownload("ok", 1024)
	m.RecordCacheHit()
	m.RecordChecksumFailure()
	m.RecordInstall("ok", "dlls", 1.5)
	m.RecordUninstall()
	m.RecordInstallerRun("nsis")

	if m.Handler() != nil {
		t.Error("disabled metrics should have no handler")
	}
}

func TestMetricsExposition(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: true, Namespace: "vintner"})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.RecordDownload("ok", 2048)
	m.RecordInstall("ok", "fonts", 0.2)
	m.RecordInstallerRun("generic")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"vintner_downloads_total",
		"vintner_download_bytes_total",
		"vintner_installs_total",
		"vintner_installer_runs_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestLevelForVerbosity(t *testing.T) {
	cases := map[int]string{0: "info", 1: "debug", 2: "trace", 5: "trace"}
	for verbosity, want := range cases {
		if got := LevelForVerbosity(verbosity); got != want {
			t.Errorf("LevelForVerbosity(%d) = %q, want %q", verbosity, got, want)
		}
	}
}
