// Package installer classifies Windows installer artifacts into families
// and selects the silent switches each family understands.
package installer

import (
	"os"
	"strings"
)

// Family is the heuristic installer classification used to select silent
// switches.
type Family string

const (
	FamilyNSIS            Family = "nsis"
	FamilyInnoSetup       Family = "innosetup"
	FamilyInstallShield   Family = "installshield"
	FamilyMsiBootstrapper Family = "msi_bootstrapper"
	FamilyDotNet          Family = "dotnet"
	FamilyVcRedist        Family = "vcredist"
	FamilyGeneric         Family = "generic"
)

// Classify maps a filename and verb name to an installer family. First
// match wins, in the order DotNet, VcRedist, NSIS, InnoSetup,
// InstallShield, Generic.
func Classify(filename, verbName string) Family {
	if strings.Contains(verbName, "dotnet") ||
		strings.Contains(filename, "dotnet") ||
		strings.Contains(filename, "ndp") ||
		strings.HasPrefix(filename, "NDP") {
		return FamilyDotNet
	}

	if strings.Contains(filename, "vcredist") ||
		strings.Contains(filename, "vc_redist") ||
		strings.HasPrefix(verbName, "vcrun20") ||
		strings.HasPrefix(verbName, "ucrtbase") {
		return FamilyVcRedist
	}

	lower := strings.ToLower(filename)

	if strings.Contains(lower, "nsis") || strings.Contains(lower, "nullsoft") {
		return FamilyNSIS
	}
	if strings.HasPrefix(lower, "7z") && strings.HasSuffix(lower, ".exe") {
		return FamilyNSIS
	}

	if strings.Contains(lower, "innosetup") || strings.Contains(lower, "inno") {
		return FamilyInnoSetup
	}
	if lower == "setup.exe" ||
		strings.HasSuffix(lower, "-setup.exe") ||
		strings.HasSuffix(lower, "_setup.exe") {
		return FamilyInnoSetup
	}

	if strings.Contains(lower, "installshield") {
		return FamilyInstallShield
	}

	return FamilyGeneric
}

// probeLimit bounds how much of the file ClassifyFromFile inspects.
// Installer signatures appear within the first 32 KiB.
const probeLimit = 32 * 1024

// ClassifyFromFile reads the head of the file and searches its lossy text
// decoding for installer signatures. It returns FamilyGeneric when nothing
// matches or the file cannot be read.
func ClassifyFromFile(path string) Family {
	f, err := os.Open(path)
	if err != nil {
		return FamilyGeneric
	}
	defer f.Close()

	buf := make([]byte, probeLimit)
	n, _ := f.Read(buf)
	if n <= 0 {
		return FamilyGeneric
	}
	content := strings.ToLower(string(buf[:n]))

	switch {
	case strings.Contains(content, "nullsoft") || strings.Contains(content, "nsis"):
		return FamilyNSIS
	case strings.Contains(content, "inno setup") || strings.Contains(content, "innosetup"):
		return FamilyInnoSetup
	case strings.Contains(content, "installshield"):
		return FamilyInstallShield
	}
	return FamilyGeneric
}

// SilentSwitches returns the silent-switch set for a family. Empty unless
// unattended.
func SilentSwitches(family Family, unattended bool) []string {
	if !unattended {
		return nil
	}

	switch family {
	case FamilyNSIS:
		return []string{"/S"}
	case FamilyInnoSetup:
		return []string{"/VERYSILENT", "/NORESTART", "/SP-"}
	case FamilyInstallShield:
		return []string{"/s"}
	case FamilyMsiBootstrapper:
		return []string{"/quiet", "/norestart"}
	case FamilyDotNet:
		// Version-specific; see DotNetSwitches.
		return []string{"/q", "/norestart"}
	case FamilyVcRedist:
		return []string{"/q"}
	default:
		return []string{"/q"}
	}
}

// MSISwitch returns the silent switch for msiexec, or "" when attended.
func MSISwitch(unattended bool) string {
	if unattended {
		return "/qn"
	}
	return ""
}

// DotNetSwitches selects .NET installer switches by the version token
// embedded in the filename. IE wrapper installers take their own set.
func DotNetSwitches(filename string, unattended bool) []string {
	if !unattended {
		return nil
	}

	if strings.Contains(filename, "IE") ||
		strings.Contains(filename, "ie") ||
		strings.Contains(filename, "internetexplorer") {
		return []string{"/quiet", "/forcerestart"}
	}

	for _, token := range []string{"48", "472", "46", "462"} {
		if strings.Contains(filename, token) {
			return []string{"/sfxlang:1027", "/q", "/norestart"}
		}
	}
	return []string{"/q", `/c:"install.exe /q"`}
}

// RebootRequired reports whether a DotNet exit code means "success, reboot
// required" rather than failure. Moot under Wine.
func RebootRequired(exitCode int) bool {
	return exitCode == 236 || exitCode == 3010
}
