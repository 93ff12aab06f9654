package executor

import (
	"context"

	"github.com/vintner/vintner/pkg/history"
	"github.com/vintner/vintner/pkg/verb"
)

// Uninstall is best-effort and log-centric: it removes the verb from the
// install log and advises the user about what remains on disk.
func (e *Executor) Uninstall(ctx context.Context, name string) error {
	log := e.log.WithVerb(name).WithPrefix(e.cfg.Wineprefix())

	installed, err := e.IsInstalled(name)
	if err != nil {
		return err
	}
	if !installed {
		log.Infof("%s is not installed", name)
		return nil
	}

	runID := e.recordStart(ctx, name, history.ActionUninstall)

	if err := e.removeFromLog(name); err != nil {
		e.recordFinish(ctx, runID, history.RunStatusFailed, err.Error())
		return err
	}

	log.Infof("removed %s from installation log", name)
	e.recordEvent(ctx, runID, "info", "removed from install log")
	if v := e.reg.Get(name); v != nil {
		switch v.Category {
		case verb.CategoryApps:
			log.Info("application files may still be present, use the Windows uninstaller if needed")
		case verb.CategoryDlls, verb.CategoryFonts:
			log.Info("DLL or font files may still be present in the wineprefix")
		case verb.CategorySettings:
			log.Info("settings changes persist, reset the wineprefix to undo")
		}
	}

	e.metrics.RecordUninstall()
	e.recordFinish(ctx, runID, history.RunStatusCompleted, "")
	return nil
}
