//go:build linux && x11

package native

import (
	"fmt"
	"os"
)

func hostBackend() (Backend, error) {
	return Backend{Name: "x11", Mechanism: KeyGrab, Hook: Grab{}}, nil
}

func diagnose() (string, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return "", fmt.Errorf("DISPLAY is not set; X11 key grabs need a running X server")
	}
	return "x11: key grabs on display " + display + " (media keys unavailable)", nil
}
