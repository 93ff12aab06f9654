package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vintner/vintner/pkg/history"
	"github.com/vintner/vintner/pkg/installer"
	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/verb"
	"github.com/vintner/vintner/pkg/werrors"
	"github.com/vintner/vintner/pkg/wine"
)

// Install runs the full pipeline for one verb: resolve, skip or conflict
// check, fetch, execute installers, and log.
func (e *Executor) Install(ctx context.Context, name string) error {
	start := time.Now()
	log := e.log.WithVerb(name).WithPrefix(e.cfg.Wineprefix())

	runID := e.recordStart(ctx, name, history.ActionInstall)

	err := e.install(ctx, name, runID, log)

	category := ""
	if v := e.reg.Get(name); v != nil {
		category = string(v.Category)
	}
	switch {
	case err == nil:
		e.metrics.RecordInstall("success", category, time.Since(start).Seconds())
		e.recordFinish(ctx, runID, history.RunStatusCompleted, "")
	default:
		e.metrics.RecordInstall("failure", category, time.Since(start).Seconds())
		e.recordFinish(ctx, runID, history.RunStatusFailed, err.Error())
	}
	return err
}

func (e *Executor) install(ctx context.Context, name, runID string, log *telemetry.Logger) error {
	v := e.reg.Get(name)

	// The install log is consulted before descriptor resolution, so
	// delegated verbs skip and force-reinstall the same way native ones do.
	if e.cfg.Force {
		if strings.HasPrefix(name, "dotnet") {
			log.Info("force mode, cleaning up partial .NET installation")
			e.cleanupDotNet(name, log)
		}
		installed, err := e.IsInstalled(name)
		if err != nil {
			return err
		}
		if installed {
			log.Info("force reinstall, removing from log")
			if err := e.removeFromLog(name); err != nil {
				return err
			}
		}
	} else {
		installed, err := e.IsInstalled(name)
		if err != nil {
			return err
		}
		if installed {
			log.Infof("%s already installed, skipping (use --force to reinstall)", name)
			e.recordEvent(ctx, runID, "info", "already installed, skipped")
			return nil
		}

		if v != nil {
			for _, conflict := range v.Conflicts {
				conflictInstalled, err := e.IsInstalled(conflict)
				if err != nil {
					return err
				}
				if conflictInstalled {
					return werrors.VerbConflict(name, conflict)
				}
			}
		}
	}

	if v == nil {
		if script := findWinetricksScript(); script != "" {
			log.WithField("script", script).Info("no descriptor, delegating to external winetricks")
			e.recordEvent(ctx, runID, "info", "delegated to external winetricks script")
			return e.delegate(ctx, script, name)
		}
		return werrors.VerbNotFound(name)
	}

	verbCache := filepath.Join(e.cfg.CacheDir, name)
	if err := os.MkdirAll(verbCache, 0o755); err != nil {
		return werrors.IO(err)
	}

	if err := e.fetchFiles(ctx, v, verbCache, log); err != nil {
		return err
	}
	e.recordEvent(ctx, runID, "info", "artifacts fetched")

	env, unset := e.installEnv()
	for _, file := range v.Files {
		path := filepath.Join(verbCache, file.Filename)
		if err := e.executeFile(ctx, v, file.Filename, path, env, unset, log); err != nil {
			return err
		}
		e.recordEvent(ctx, runID, "info", "installer finished: "+file.Filename)
	}

	if v.InstalledFile != "" {
		log.WithField("file", v.InstalledFile).Info("verifying installation")
	}

	e.finishDotNet(ctx, name, log)

	return e.appendToLog(name)
}

// fetchFiles downloads every artifact with a URL. Verbs distributed as
// manual downloads must already have their files in cache.
func (e *Executor) fetchFiles(ctx context.Context, v *verb.Verb, verbCache string, log *telemetry.Logger) error {
	manual := v.EffectiveMedia() == verb.MediaManualDownload

	for _, file := range v.Files {
		dest := filepath.Join(verbCache, file.Filename)

		if file.URL != "" && !manual {
			log.WithField("file", file.Filename).Infof("downloading from %s", file.URL)
			if _, err := e.dl.Download(ctx, file.URL, dest, file.SHA256, nil); err != nil {
				return err
			}
			continue
		}

		if _, err := os.Stat(dest); err != nil {
			if manual {
				return werrors.Verb("%s requires %s to be downloaded manually and placed in %s",
					v.Name, file.Filename, verbCache)
			}
			log.WithField("file", file.Filename).Warn("no URL and not cached, install may fail")
		}
	}
	return nil
}

// executeFile dispatches one cached artifact by extension.
func (e *Executor) executeFile(ctx context.Context, v *verb.Verb, filename, path string, env map[string]string, unset []string, log *telemetry.Logger) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".msi":
		return e.runMSI(ctx, path, env, unset, log)
	case ".exe":
		return e.runEXE(ctx, v, filename, path, env, unset, log)
	case ".zip", ".cab":
		return werrors.Verb("archive extraction for %s is not implemented", filename)
	default:
		log.WithField("file", filename).Warn("unrecognized artifact type, skipping")
		return nil
	}
}

// runMSI installs an MSI through msiexec. Any non-zero exit fails.
func (e *Executor) runMSI(ctx context.Context, path string, env map[string]string, unset []string, log *telemetry.Logger) error {
	winPath := e.wine.UnixToWindows(ctx, e.cfg.Wineprefix(), path)

	args := []string{"start", "/wait", "msiexec.exe", "/i", winPath}
	if sw := installer.MSISwitch(e.cfg.Unattended); sw != "" {
		args = append(args, sw)
	}

	e.metrics.RecordInstallerRun(string(installer.FamilyMsiBootstrapper))
	log.Infof("running msiexec for %s", filepath.Base(path))

	res, err := e.wine.Run(ctx, wine.Command{
		Name:     e.wine.Bin,
		Args:     args,
		Env:      env,
		UnsetEnv: unset,
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return werrors.Verb("msiexec exited with code %d for %s", res.ExitCode, filepath.Base(path))
	}
	return nil
}

// runEXE executes a Windows installer with family-specific silent
// switches. DotNet installers run from the cache directory with fusion
// overridden and tolerate the reboot-required exit codes.
func (e *Executor) runEXE(ctx context.Context, v *verb.Verb, filename, path string, env map[string]string, unset []string, log *telemetry.Logger) error {
	family := installer.Classify(filename, v.Name)
	if family == installer.FamilyGeneric {
		if probed := installer.ClassifyFromFile(path); probed != installer.FamilyGeneric {
			family = probed
		}
	}

	var switches []string
	var dir string
	if family == installer.FamilyDotNet {
		switches = installer.DotNetSwitches(filename, e.cfg.Unattended)
		dir = filepath.Dir(path)
		env = cloneEnv(env)
		env["WINEDLLOVERRIDES"] = "fusion=b"
	} else {
		switches = installer.SilentSwitches(family, e.cfg.Unattended)
	}

	winPath := e.wine.UnixToWindows(ctx, e.cfg.Wineprefix(), path)
	args := append([]string{winPath}, switches...)

	e.metrics.RecordInstallerRun(string(family))
	log.WithField("family", string(family)).Infof("running installer %s", filename)

	res, err := e.wine.Run(ctx, wine.Command{
		Name:     e.wine.Bin,
		Args:     args,
		Dir:      dir,
		Env:      env,
		UnsetEnv: unset,
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		if family == installer.FamilyDotNet && installer.RebootRequired(res.ExitCode) {
			log.Infof("installer exited %d (reboot required, ignored under Wine)", res.ExitCode)
			return nil
		}
		return werrors.Verb("installer %s exited with code %d", filename, res.ExitCode)
	}
	return nil
}

// cleanupDotNet removes the partial .NET payload and the marker file so a
// forced reinstall starts clean. Best effort.
func (e *Executor) cleanupDotNet(name string, log *telemetry.Logger) {
	prefix := e.cfg.Wineprefix()

	if err := os.RemoveAll(filepath.Join(prefix, "drive_c", "windows", "Microsoft.NET")); err != nil {
		log.WithError(err).Warn("failed to remove Microsoft.NET directory")
	}
	marker := filepath.Join(prefix, "drive_c", "windows", name+".installed.workaround")
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to remove marker file")
	}
}

// finishDotNet writes the post-install marker for .NET 4.8 variants and
// waits for wineserver to settle. No-op for other verbs.
func (e *Executor) finishDotNet(ctx context.Context, name string, log *telemetry.Logger) {
	if !strings.HasPrefix(name, "dotnet") {
		return
	}

	if name == "dotnet48" || name == "dotnet48.1" {
		marker := filepath.Join(e.cfg.Wineprefix(), "drive_c", "windows", name+".installed.workaround")
		if err := os.MkdirAll(filepath.Dir(marker), 0o755); err == nil {
			if f, err := os.Create(marker); err == nil {
				_ = f.Close()
			} else {
				log.WithError(err).Warn("failed to create marker file")
			}
		}
	}

	log.Info("waiting for wineserver to settle")
	_, err := e.wine.Run(ctx, wine.Command{
		Name: e.wine.ServerBin,
		Args: []string{"-w"},
		Env:  map[string]string{"WINEPREFIX": e.cfg.Wineprefix()},
	})
	if err != nil {
		log.WithError(err).Warn("wineserver wait failed")
	}
}

func (e *Executor) recordStart(ctx context.Context, name string, action history.Action) string {
	if e.hist == nil {
		return ""
	}
	id, err := e.hist.RecordStart(ctx, name, action, e.cfg.Wineprefix())
	if err != nil {
		e.log.WithError(err).Warn("failed to record run start")
		return ""
	}
	return id
}

func (e *Executor) recordEvent(ctx context.Context, runID, level, message string) {
	if e.hist == nil || runID == "" {
		return
	}
	if err := e.hist.AppendEvent(ctx, runID, level, message); err != nil {
		e.log.WithError(err).Warn("failed to record run event")
	}
}

func (e *Executor) recordFinish(ctx context.Context, runID string, status history.RunStatus, errMsg string) {
	if e.hist == nil || runID == "" {
		return
	}
	if err := e.hist.RecordFinish(ctx, runID, status, errMsg); err != nil {
		e.log.WithError(err).Warn("failed to record run finish")
	}
}

func cloneEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}
