// Package action runs what a daemon binding asks for when its hotkey fires.
package action

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"

	cb "github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"keyhook/combo"
)

type Kind string

const (
	Print Kind = "print"
	Log   Kind = "log"
	Beep  Kind = "beep"
	Copy  Kind = "copy"
	Exec  Kind = "exec"
)

var ErrUnknown = errors.New("unknown action")

type Action struct {
	Kind Kind
	Arg  string
}

func (a Action) String() string {
	if a.Arg == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.Arg
}

// Parse reads "print", "log", "beep", "copy:<text>" or "exec:<command>".
func Parse(s string) (Action, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	k := Kind(strings.ToLower(name))
	switch k {
	case Print, Log, Beep:
		if arg != "" {
			return Action{}, fmt.Errorf("%s takes no argument", k)
		}
	case Copy:
	case Exec:
		if strings.TrimSpace(arg) == "" {
			return Action{}, errors.New("exec needs a command")
		}
	default:
		return Action{}, fmt.Errorf("%w %q", ErrUnknown, s)
	}
	return Action{Kind: k, Arg: arg}, nil
}

// Runner performs actions. Unset hooks fall back to the real clipboard,
// beeper and shell.
type Runner struct {
	Out    io.Writer
	Logger zerolog.Logger

	Beep  func()
	Copy  func(text string) error
	Start func(command string) error

	// Fired, if set, is told about every action that ran successfully.
	Fired func(c combo.Combination, a Action)

	count atomic.Int64
}

// Count reports how many actions have run successfully.
func (r *Runner) Count() int64 { return r.count.Load() }

func (r *Runner) Run(c combo.Combination, a Action) error {
	var err error
	switch a.Kind {
	case Print:
		_, err = fmt.Fprintln(r.Out, c.String())
	case Log:
		r.Logger.Info().Str("combo", c.String()).Msg("hotkey")
	case Beep:
		if r.Beep != nil {
			r.Beep()
		}
	case Copy:
		copyFn := r.Copy
		if copyFn == nil {
			copyFn = cb.WriteAll
		}
		err = copyFn(a.Arg)
	case Exec:
		start := r.Start
		if start == nil {
			start = startShell
		}
		err = start(a.Arg)
	default:
		err = fmt.Errorf("%w %q", ErrUnknown, a.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s on %s: %w", a, c, err)
	}
	if r.Fired != nil {
		r.Fired(c, a)
	}
	r.count.Add(1)
	return nil
}

// startShell starts command and reaps it in the background; listeners must
// not wait on child processes.
func startShell(command string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("/bin/sh", "-c", command)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
