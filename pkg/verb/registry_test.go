package verb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vintner/vintner/pkg/werrors"
)

func writeDescriptor(t *testing.T, dir, category, name, content string) {
	t.Helper()
	catDir := filepath.Join(dir, category)
	if err := os.MkdirAll(catDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(catDir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirStemWinsOverDocumentName(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "dlls", "d3dx9", `{
		"name": "something-else",
		"category": "dlls",
		"title": "DirectX 9 D3DX",
		"files": [{"filename": "directx_redist.exe", "url": "https://example.com/directx_redist.exe"}]
	}`)

	r, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	v := r.Get("d3dx9")
	if v == nil {
		t.Fatal("verb d3dx9 not found under its filename stem")
	}
	if v.Name != "d3dx9" {
		t.Errorf("Name = %q, stem should win", v.Name)
	}
	if r.Get("something-else") != nil {
		t.Error("document name should not be registered")
	}
	if v.Category != CategoryDlls {
		t.Errorf("Category = %q, want dlls", v.Category)
	}
}

func TestLoadDirListByCategoryInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeDescriptor(t, dir, "dlls", name, `{"title": "lib", "files": [{"filename": "x.exe", "url": "https://example.com/x.exe"}]}`)
	}

	r, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	got := r.ListByCategory(CategoryDlls)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, v := range got {
		if seen[v.Name] {
			t.Errorf("verb %s listed twice", v.Name)
		}
		seen[v.Name] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Errorf("verb %s missing from category listing", want)
		}
	}
}

func TestLoadDirDuplicateNameFails(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "dlls", "vcrun2019", `{"title": "a"}`)
	writeDescriptor(t, dir, "apps", "vcrun2019", `{"title": "b"}`)

	_, err := LoadDir(dir, nil)
	if err == nil {
		t.Fatal("duplicate name across categories should fail the load")
	}
	if werrors.KindOf(err) != werrors.KindVerb {
		t.Errorf("error kind = %q, want verb", werrors.KindOf(err))
	}
}

func TestLoadDirMalformedDocumentFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "fonts", "good", `{"title": "ok"}`)
	writeDescriptor(t, dir, "fonts", "bad", `{"title": `)

	if _, err := LoadDir(dir, nil); err == nil {
		t.Fatal("malformed document should fail the whole load")
	}
}

func TestLoadDirRejectsInvalidSHA256(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "fonts", "arial", `{
		"title": "Arial",
		"files": [{"filename": "arial32.exe", "url": "https://example.com/arial32.exe", "sha256": "nothex"}]
	}`)

	if _, err := LoadDir(dir, nil); err == nil {
		t.Fatal("sha256 that is not 64 hex chars should be rejected")
	}
}

func TestLoadDirRejectsPathSeparatorInFilename(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "apps", "evil", `{
		"title": "Evil",
		"files": [{"filename": "../escape.exe"}]
	}`)

	if _, err := LoadDir(dir, nil); err == nil {
		t.Fatal("filename with path separators should be rejected")
	}
}

func TestLoadDirRejectsDuplicateFilenames(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "apps", "dup", `{
		"title": "Dup",
		"files": [{"filename": "setup.exe"}, {"filename": "setup.exe"}]
	}`)

	if _, err := LoadDir(dir, nil); err == nil {
		t.Fatal("duplicate filename within a verb should be rejected")
	}
}

func TestLoadDirSkipsUnknownDirectories(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "settings", "fontsmooth", `{"title": "Font smoothing"}`)
	if err := os.MkdirAll(filepath.Join(dir, "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestEffectiveMediaDefault(t *testing.T) {
	v := &Verb{}
	if v.EffectiveMedia() != MediaDownload {
		t.Error("media should default to download")
	}
}

func TestExists(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("corefonts", &Verb{Title: "Core fonts"}, CategoryFonts); err != nil {
		t.Fatal(err)
	}
	if !r.Exists("corefonts") {
		t.Error("registered verb should exist")
	}
	if r.Exists("nope") {
		t.Error("unregistered verb should not exist")
	}
}
