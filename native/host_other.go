//go:build !linux && !darwin && !windows

package native

import (
	"fmt"
	"runtime"
)

func hostBackend() (Backend, error) {
	return Backend{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}

func diagnose() (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
