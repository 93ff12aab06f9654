package executor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vintner/vintner/pkg/werrors"
)

const logFilename = "winetricks.log"

func (e *Executor) logPath() string {
	return filepath.Join(e.cfg.Wineprefix(), logFilename)
}

// IsInstalled reports whether the install log records the verb. Flag
// lines (leading '-'), comments (leading '#'), and key=value commands are
// not verb names and never match.
func (e *Executor) IsInstalled(name string) (bool, error) {
	data, err := os.ReadFile(e.logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, werrors.IO(err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(trimmed, "=") {
			continue
		}
		if trimmed == name {
			return true, nil
		}
	}
	return false, nil
}

// appendToLog records a successful install, creating the log on first use.
func (e *Executor) appendToLog(name string) error {
	if err := os.MkdirAll(e.cfg.Wineprefix(), 0o755); err != nil {
		return werrors.IO(err)
	}

	f, err := os.OpenFile(e.logPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return werrors.IO(err)
	}
	defer f.Close()

	if _, err := f.WriteString(name + "\n"); err != nil {
		return werrors.IO(err)
	}
	return nil
}

// removeFromLog rewrites the log dropping lines matching the verb and
// empty lines. Unrelated lines are preserved as written.
func (e *Executor) removeFromLog(name string) error {
	data, err := os.ReadFile(e.logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return werrors.IO(err)
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == name {
			continue
		}
		kept = append(kept, line)
	}

	var out string
	if len(kept) > 0 {
		out = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(e.logPath(), []byte(out), 0o644); err != nil {
		return werrors.IO(err)
	}
	return nil
}
