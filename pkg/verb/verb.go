// Package verb defines the verb descriptor model and the registry loaded
// from a category-indexed directory tree.
package verb

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Category groups verbs by what they install.
type Category string

const (
	CategoryApps           Category = "apps"
	CategoryBenchmarks     Category = "benchmarks"
	CategoryDlls           Category = "dlls"
	CategoryFonts          Category = "fonts"
	CategorySettings       Category = "settings"
	CategoryDownload       Category = "download"
	CategoryManualDownload Category = "manual-download"
)

// Categories returns all known categories.
func Categories() []Category {
	return []Category{
		CategoryApps,
		CategoryBenchmarks,
		CategoryDlls,
		CategoryFonts,
		CategorySettings,
		CategoryDownload,
		CategoryManualDownload,
	}
}

// ParseCategory parses a category directory name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %s", s)
}

// Media describes how a verb's artifacts are obtained.
type Media string

const (
	// MediaDownload means artifacts may be fetched automatically.
	MediaDownload Media = "download"

	// MediaManualDownload requires the user to place files in the cache
	// themselves.
	MediaManualDownload Media = "manual_download"
)

// File is one artifact record of a verb.
type File struct {
	// Filename is the artifact basename. No path separators.
	Filename string `json:"filename" validate:"required,artifact_name"`

	// URL is the download location, when the artifact is fetchable.
	URL string `json:"url,omitempty" validate:"omitempty,url"`

	// SHA256 is the lowercase hex content hash, when known.
	SHA256 string `json:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal,lowercase"`
}

// Verb is the metadata document for a single verb.
type Verb struct {
	// Name is the stable short identifier, unique across the registry.
	// It always equals the descriptor's filename stem.
	Name string `json:"name" validate:"required"`

	// Category is the verb's category, taken from its directory.
	Category Category `json:"category" validate:"required"`

	// Title is the human display name.
	Title string `json:"title"`

	// Publisher and Year are optional display fields.
	Publisher string `json:"publisher,omitempty"`
	Year      string `json:"year,omitempty"`

	// Media defaults to download.
	Media Media `json:"media,omitempty" validate:"omitempty,oneof=download manual_download"`

	// Files are the artifact records, in install order.
	Files []File `json:"files,omitempty" validate:"dive"`

	// InstalledFile and InstalledExe are optional Windows paths used as
	// post-install verification hints.
	InstalledFile string `json:"installed_file,omitempty"`
	InstalledExe  string `json:"installed_exe,omitempty"`

	// Conflicts lists verbs that must not be installed alongside this one.
	Conflicts []string `json:"conflicts,omitempty"`
}

// EffectiveMedia returns the media class, defaulting to download.
func (v *Verb) EffectiveMedia() Media {
	if v.Media == "" {
		return MediaDownload
	}
	return v.Media
}

// newValidator builds the validator with the artifact_name rule, which
// rejects filenames containing path separators.
func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags, which cannot happen here.
	_ = v.RegisterValidation("artifact_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "" && !strings.ContainsAny(name, "/\\")
	})
	return v
}

// validate checks the descriptor invariants beyond what decoding enforces.
func (v *Verb) validate(check *validator.Validate) error {
	if err := check.Struct(v); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(v.Files))
	for _, f := range v.Files {
		if _, dup := seen[f.Filename]; dup {
			return fmt.Errorf("duplicate filename %q", f.Filename)
		}
		seen[f.Filename] = struct{}{}
	}
	return nil
}

// wantsURL reports whether the descriptor is expected to carry at least
// one downloadable file record.
func (v *Verb) wantsURL() bool {
	switch v.Category {
	case CategoryFonts, CategoryDlls, CategoryApps:
		return v.EffectiveMedia() == MediaDownload
	}
	return false
}

// hasURL reports whether any file record has a URL.
func (v *Verb) hasURL() bool {
	for _, f := range v.Files {
		if f.URL != "" {
			return true
		}
	}
	return false
}
