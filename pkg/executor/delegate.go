package executor

import (
	"context"
	"os"
	"os/exec"

	"github.com/vintner/vintner/pkg/werrors"
	"github.com/vintner/vintner/pkg/wine"
)

// winetricksLocations are checked after PATH when looking for an external
// winetricks script to delegate unknown verbs to.
var winetricksLocations = []string{
	"/usr/bin/winetricks",
	"/usr/local/bin/winetricks",
}

func findWinetricksScript() string {
	if path, err := exec.LookPath("winetricks"); err == nil {
		return path
	}
	for _, path := range winetricksLocations {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// delegate invokes the external winetricks script synchronously with the
// configured flags forwarded and logs the verb locally on success.
func (e *Executor) delegate(ctx context.Context, script, name string) error {
	args := []string{script}
	if e.cfg.Force {
		args = append(args, "--force")
	}
	if e.cfg.Unattended {
		args = append(args, "--unattended")
	}
	if e.cfg.Torify {
		args = append(args, "--torify")
	}
	if e.cfg.Isolate {
		args = append(args, "--isolate")
	}
	if e.cfg.NoClean {
		args = append(args, "--no-clean")
	}
	args = append(args, name)

	env, unset := e.installEnv()
	res, err := e.runner.Run(ctx, wine.Command{
		Name:     "sh",
		Args:     args,
		Env:      env,
		UnsetEnv: unset,
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return werrors.Verb("winetricks script exited with code %d for %s", res.ExitCode, name)
	}

	return e.appendToLog(name)
}
