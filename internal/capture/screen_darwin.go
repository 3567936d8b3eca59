//go:build darwin

package capture

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// platformShooter uses the native screencapture command. A refused screen
// recording permission makes it exit non-zero.
func platformShooter(tempDir string) (shooter, error) {
	if _, err := exec.LookPath("screencapture"); err != nil {
		return nil, fmt.Errorf("screencapture not found: %w", err)
	}
	out := filepath.Join(tempDir, "screenshot.png")
	return func(ctx context.Context) ([]byte, error) {
		// -x: no sound, -t png: lossless, -m: main display only
		return runScreenshot(ctx, out, "screencapture", "-x", "-t", "png", "-m", out)
	}, nil
}
