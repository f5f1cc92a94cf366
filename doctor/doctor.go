package doctor

import (
	"fmt"
	"io"
	"os"
	"time"

	cb "github.com/atotto/clipboard"

	"keyhook/combo"
	"keyhook/native"
	"keyhook/provider"
	"keyhook/shutdown"
)

type Options struct {
	Out io.Writer
	// HotkeyTimeout bounds the wait for the probe hotkey.
	HotkeyTimeout time.Duration
	Diagnose      func() (string, error)
	NewProvider   func() (*provider.Provider, error)
	// Pressed is called once the probe hotkey is armed.
	Pressed       func()
	SkipClipboard bool
}

var probe = combo.Keystroke(combo.KeySpace, combo.ModCtrl|combo.ModShift)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.HotkeyTimeout == 0 {
		opts.HotkeyTimeout = 10 * time.Second
	}
	if opts.Diagnose == nil {
		opts.Diagnose = native.Diagnose
	}
	if opts.NewProvider == nil {
		opts.NewProvider = func() (*provider.Provider, error) { return provider.Current(provider.Options{}) }
	}

	resetTerminal()
	setupInterruptHandler()

	w := opts.Out
	fmt.Fprintln(w, "keyhook doctor - interactive system diagnostics")
	fmt.Fprintln(w, "===============================================")

	allPass := checkBackend(w, opts) && checkHotkey(w, opts)
	if allPass && !opts.SkipClipboard {
		allPass = checkClipboard(w)
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

func checkBackend(w io.Writer, opts Options) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[1/3] Hotkey backend")

	desc, err := opts.Diagnose()
	if err != nil {
		fmt.Fprintf(w, "  FAIL: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  PASS: %s\n", desc)
	return true
}

func checkHotkey(w io.Writer, opts Options) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[2/3] Hotkey detection")

	p, err := opts.NewProvider()
	if err != nil {
		fmt.Fprintf(w, "  FAIL: %v\n", err)
		return false
	}
	defer p.Close()
	if err := p.Init(); err != nil {
		fmt.Fprintf(w, "  FAIL: could not install hook: %v\n", err)
		return false
	}

	fired := make(chan struct{}, 1)
	if err := p.Register(probe, func(combo.Combination) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		fmt.Fprintf(w, "  FAIL: could not register hotkey: %v\n", err)
		return false
	}

	fmt.Fprintln(w, "Press Ctrl+Shift+Space...")
	if opts.Pressed != nil {
		opts.Pressed()
	}

	select {
	case <-fired:
		fmt.Fprintln(w, "  PASS: hotkey detected")
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-p.Done():
		fmt.Fprintf(w, "  FAIL: hook stopped: %v\n", p.Err())
		return false
	case <-time.After(opts.HotkeyTimeout):
		fmt.Fprintln(w, "  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkClipboard(w io.Writer) bool {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[3/3] Clipboard (copy: actions)")

	if cb.Unsupported {
		fmt.Fprintln(w, "  FAIL: no clipboard utility found (install xclip, xsel or wl-clipboard)")
		return false
	}

	testStr := fmt.Sprintf("keyhook-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := cb.WriteAll(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := cb.ReadAll()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Fprintf(w, "  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Fprintf(w, "  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Fprintln(w, "  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Fprintln(w, "  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
