package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vintner/vintner/pkg/werrors"
	"github.com/vintner/vintner/pkg/wine"
)

const (
	direct3DKey = `HKEY_CURRENT_USER\Software\Wine\Direct3D`
	driversKey  = `HKEY_CURRENT_USER\Software\Wine\Drivers`
)

// rendererToRegistry maps the friendly renderer names to the values Wine
// stores under Direct3D\renderer.
var rendererToRegistry = map[string]string{
	"opengl": "gl",
	"vulkan": "vulkan",
	"gdi":    "gdi",
	"no3d":   "no3d",
}

var registryToRenderer = map[string]string{
	"gl":     "opengl",
	"vulkan": "vulkan",
	"gdi":    "gdi",
	"no3d":   "no3d",
}

// MapRenderer translates a friendly renderer name to its registry value.
// Unknown names pass through unchanged.
func MapRenderer(name string) string {
	if mapped, ok := rendererToRegistry[name]; ok {
		return mapped
	}
	return name
}

// SetRendererInRegistry writes the Direct3D renderer value into the
// prefix's registry by importing a generated .reg file. An empty opt is a
// no-op.
func (c *Config) SetRendererInRegistry(ctx context.Context, w *wine.Wine, opt string) error {
	if opt == "" {
		return nil
	}
	value, ok := rendererToRegistry[opt]
	if !ok {
		return werrors.Config("unknown renderer " + opt)
	}
	return c.importRegistryValue(ctx, w, direct3DKey, "renderer", value)
}

// GetRendererFromRegistry reads the Direct3D renderer value back, mapping
// the registry value to its friendly name. Returns "" without error when
// Wine is unavailable or the value is absent.
func (c *Config) GetRendererFromRegistry(ctx context.Context, w *wine.Wine) (string, error) {
	value, err := c.queryRegistryValue(ctx, w, direct3DKey, "renderer")
	if err != nil || value == "" {
		return "", err
	}
	if friendly, ok := registryToRenderer[value]; ok {
		return friendly, nil
	}
	return value, nil
}

// SetWaylandInRegistry writes the Graphics driver value under
// Software\Wine\Drivers. An empty opt deletes the value; Wine reporting
// the key absent is tolerated.
func (c *Config) SetWaylandInRegistry(ctx context.Context, w *wine.Wine, opt string) error {
	if opt == "" || opt == "auto" {
		return c.deleteRegistryValue(ctx, w, driversKey, "Graphics")
	}

	var value string
	switch opt {
	case "wayland":
		value = "wayland"
	case "xwayland":
		value = "x11"
	default:
		return werrors.Config("unknown wayland option " + opt)
	}
	return c.importRegistryValue(ctx, w, driversKey, "Graphics", value)
}

// GetWaylandFromRegistry reads the Graphics driver value back, mapping
// x11 to xwayland. Returns "" without error when absent.
func (c *Config) GetWaylandFromRegistry(ctx context.Context, w *wine.Wine) (string, error) {
	value, err := c.queryRegistryValue(ctx, w, driversKey, "Graphics")
	if err != nil || value == "" {
		return "", err
	}
	if value == "x11" {
		return "xwayland", nil
	}
	return value, nil
}

// importRegistryValue composes a REGEDIT4 import file under the cache
// dir's winetricks subfolder, translates its path, imports it silently,
// and removes the temp file.
func (c *Config) importRegistryValue(ctx context.Context, w *wine.Wine, key, name, value string) error {
	if w == nil {
		return werrors.Wine("wine binary not found in PATH")
	}

	regDir := filepath.Join(c.CacheDir, "winetricks")
	if err := os.MkdirAll(regDir, 0o755); err != nil {
		return werrors.IO(err)
	}

	regPath := filepath.Join(regDir, uuid.NewString()+".reg")
	content := fmt.Sprintf("REGEDIT4\n\n[%s]\n%q=%q\n", key, name, value)
	if err := os.WriteFile(regPath, []byte(content), 0o644); err != nil {
		return werrors.IO(err)
	}
	defer os.Remove(regPath)

	winPath := w.UnixToWindows(ctx, c.Wineprefix(), regPath)

	res, err := w.Run(ctx, wine.Command{
		Name: w.Bin,
		Args: []string{"regedit", "/S", winPath},
		Env:  map[string]string{"WINEPREFIX": c.Wineprefix()},
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return werrors.Wine(fmt.Sprintf("regedit import failed with exit code %d", res.ExitCode))
	}
	return nil
}

// queryRegistryValue runs `wine reg query` and extracts the value by
// taking the last whitespace token of the line naming it. Values with
// embedded spaces are unsupported; no known cases.
func (c *Config) queryRegistryValue(ctx context.Context, w *wine.Wine, key, name string) (string, error) {
	if w == nil {
		return "", nil
	}

	res, err := w.Run(ctx, wine.Command{
		Name: w.Bin,
		Args: []string{"reg", "query", key, "/v", name},
		Env:  map[string]string{"WINEPREFIX": c.Wineprefix()},
	})
	if err != nil || !res.Success() {
		return "", nil
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == name {
			return fields[len(fields)-1], nil
		}
	}
	return "", nil
}

// deleteRegistryValue force-deletes a registry value. Wine exiting
// non-zero because the key or value is absent is not an error.
func (c *Config) deleteRegistryValue(ctx context.Context, w *wine.Wine, key, name string) error {
	if w == nil {
		return nil
	}

	_, err := w.Run(ctx, wine.Command{
		Name: w.Bin,
		Args: []string{"reg", "delete", key, "/v", name, "/f"},
		Env:  map[string]string{"WINEPREFIX": c.Wineprefix()},
	})
	return err
}
