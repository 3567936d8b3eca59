//go:build !darwin && !linux

package capture

import (
	"fmt"
	"runtime"
)

func platformShooter(tempDir string) (shooter, error) {
	return nil, fmt.Errorf("screen capture is not supported on %s", runtime.GOOS)
}
