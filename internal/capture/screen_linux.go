//go:build linux

package capture

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
)

// platformShooter uses the first screenshot tool found: grim on Wayland,
// then gnome-screenshot, then scrot.
func platformShooter(tempDir string) (shooter, error) {
	out := filepath.Join(tempDir, "screenshot.png")

	if path, err := exec.LookPath("grim"); err == nil {
		return func(ctx context.Context) ([]byte, error) {
			return runScreenshot(ctx, out, path, out)
		}, nil
	}
	if path, err := exec.LookPath("gnome-screenshot"); err == nil {
		return func(ctx context.Context) ([]byte, error) {
			return runScreenshot(ctx, out, path, "-f", out)
		}, nil
	}
	if path, err := exec.LookPath("scrot"); err == nil {
		return func(ctx context.Context) ([]byte, error) {
			return runScreenshot(ctx, out, path, "-o", out)
		}, nil
	}
	return nil, errors.New("no screenshot tool found (install grim, gnome-screenshot or scrot)")
}
