//go:build !windows

package doctor

import (
	"os"
	"os/exec"

	"golang.org/x/term"
)

// resetTerminal restores cooked mode after a hook backend or an interrupted
// TUI left the terminal raw.
func resetTerminal() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	exec.Command("stty", "sane").Run()
}
