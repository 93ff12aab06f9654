package installer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		verb     string
		want     Family
	}{
		{"dotnet verb", "installer.exe", "dotnet48", FamilyDotNet},
		{"ndp filename", "ndp48-x86-x64-allos-enu.exe", "something", FamilyDotNet},
		{"NDP prefix", "NDP472-KB4054530-x86-x64-AllOS-ENU.exe", "other", FamilyDotNet},
		{"vcredist filename", "vcredist_x86.exe", "vcrun2008", FamilyVcRedist},
		{"vc_redist filename", "vc_redist.x64.exe", "vcrun2019", FamilyVcRedist},
		{"vcrun20 verb", "whatever.exe", "vcrun2010", FamilyVcRedist},
		{"ucrtbase verb", "payload.exe", "ucrtbase2019", FamilyVcRedist},
		{"dotnet wins over vcredist", "vcredist_x86.exe", "dotnet40", FamilyDotNet},
		{"nullsoft marker", "nullsoft-installer.exe", "tool", FamilyNSIS},
		{"7z exe", "7z1900.exe", "sevenzip", FamilyNSIS},
		{"7z non-exe", "7z-archive.zip", "sevenzip", FamilyGeneric},
		{"plain setup.exe", "setup.exe", "someapp", FamilyInnoSetup},
		{"dash setup suffix", "app-setup.exe", "someapp", FamilyInnoSetup},
		{"underscore setup suffix", "app_setup.exe", "someapp", FamilyInnoSetup},
		{"inno marker", "innosetup-tool.exe", "someapp", FamilyInnoSetup},
		{"installshield marker", "installshield-driver.exe", "driver", FamilyInstallShield},
		{"case-insensitive filename", "SETUP.EXE", "someapp", FamilyInnoSetup},
		{"fallthrough", "arial32.exe", "corefonts", FamilyGeneric},
		{"msi is generic here", "wix311.msi", "wix", FamilyGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.filename, tt.verb); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.filename, tt.verb, got, tt.want)
			}
		})
	}
}

func TestClassifyFromFile(t *testing.T) {
	dir := t.TempDir()

	write := func(t *testing.T, name string, content []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		content []byte
		want    Family
	}{
		{"nullsoft signature", []byte("MZ\x90\x00 Nullsoft Install System"), FamilyNSIS},
		{"inno signature", []byte("MZ blah Inno Setup Setup Data"), FamilyInnoSetup},
		{"installshield signature", []byte("header InstallShield wizard data"), FamilyInstallShield},
		{"no signature", []byte("MZ\x90\x00\x03plain binary payload"), FamilyGeneric},
		{"empty file", nil, FamilyGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, tt.name+".exe", tt.content)
			if got := ClassifyFromFile(path); got != tt.want {
				t.Errorf("ClassifyFromFile(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if got := ClassifyFromFile(filepath.Join(dir, "nope.exe")); got != FamilyGeneric {
			t.Errorf("ClassifyFromFile(missing) = %v, want generic", got)
		}
	})

	t.Run("signature beyond probe limit ignored", func(t *testing.T) {
		content := make([]byte, probeLimit+64)
		copy(content[probeLimit:], []byte("nullsoft"))
		path := write(t, "late.exe", content)
		if got := ClassifyFromFile(path); got != FamilyGeneric {
			t.Errorf("ClassifyFromFile(late signature) = %v, want generic", got)
		}
	})
}

func TestSilentSwitches(t *testing.T) {
	tests := []struct {
		family Family
		want   []string
	}{
		{FamilyNSIS, []string{"/S"}},
		{FamilyInnoSetup, []string{"/VERYSILENT", "/NORESTART", "/SP-"}},
		{FamilyInstallShield, []string{"/s"}},
		{FamilyMsiBootstrapper, []string{"/quiet", "/norestart"}},
		{FamilyVcRedist, []string{"/q"}},
		{FamilyGeneric, []string{"/q"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			if got := SilentSwitches(tt.family, true); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SilentSwitches(%v, true) = %v, want %v", tt.family, got, tt.want)
			}
			if got := SilentSwitches(tt.family, false); got != nil {
				t.Errorf("SilentSwitches(%v, false) = %v, want nil", tt.family, got)
			}
		})
	}
}

func TestMSISwitch(t *testing.T) {
	if got := MSISwitch(true); got != "/qn" {
		t.Errorf("MSISwitch(true) = %q, want /qn", got)
	}
	if got := MSISwitch(false); got != "" {
		t.Errorf("MSISwitch(false) = %q, want empty", got)
	}
}

func TestDotNetSwitches(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     []string
	}{
		{"dotnet48", "ndp48-x86-x64-allos-enu.exe", []string{"/sfxlang:1027", "/q", "/norestart"}},
		{"dotnet472", "NDP472-KB4054530-x86-x64-AllOS-ENU.exe", []string{"/sfxlang:1027", "/q", "/norestart"}},
		{"dotnet462", "NDP462-KB3151800-x86-x64-AllOS-ENU.exe", []string{"/sfxlang:1027", "/q", "/norestart"}},
		{"legacy wrapper", "dotnetfx.exe", []string{"/q", `/c:"install.exe /q"`}},
		{"ie installer", "IE8-WindowsXP-x86-ENU.exe", []string{"/quiet", "/forcerestart"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DotNetSwitches(tt.filename, true); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DotNetSwitches(%q, true) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}

	if got := DotNetSwitches("ndp48.exe", false); got != nil {
		t.Errorf("DotNetSwitches attended = %v, want nil", got)
	}
}

func TestRebootRequired(t *testing.T) {
	for _, code := range []int{236, 3010} {
		if !RebootRequired(code) {
			t.Errorf("RebootRequired(%d) = false, want true", code)
		}
	}
	for _, code := range []int{0, 1, 1603} {
		if RebootRequired(code) {
			t.Errorf("RebootRequired(%d) = true, want false", code)
		}
	}
}
