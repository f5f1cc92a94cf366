package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"keyhook/action"
	"keyhook/beep"
	"keyhook/config"
	"keyhook/doctor"
	"keyhook/host"
	"keyhook/log"
	"keyhook/native"
	"keyhook/provider"
	"keyhook/shutdown"
)

var version = "dev"

// bindFlags collects repeated -bind keys=action flags.
type bindFlags []config.Binding

func (b *bindFlags) String() string {
	var parts []string
	for _, x := range *b {
		parts = append(parts, x.Keys+"="+x.Action)
	}
	return strings.Join(parts, ",")
}

func (b *bindFlags) Set(s string) error {
	x, err := config.ParseBinding(s)
	if err != nil {
		return err
	}
	*b = append(*b, x)
	return nil
}

type options struct {
	configPath string
	logPath    string
	binds      bindFlags
	tui        bool
	tuiSet     bool
	beep       bool
	fake       bool
	doctor     bool
	version    bool
	gui        bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "config file (default: $KEYHOOK_CONFIG or "+config.DefaultPath()+")")
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.Var(&o.binds, "bind", "bind a hotkey, keys=action (repeatable), e.g. ctrl+shift+space=print")
	fs.BoolVar(&o.tui, "tui", false, "Run with terminal UI (default: on when config says so and stdout is a terminal)")
	fs.BoolVar(&o.beep, "beep", false, "Beep when a hotkey fires")
	fs.BoolVar(&o.fake, "fake", false, "Use a simulated keyboard driven from stdin (headless)")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.gui, "gui", false, "Run with a desktop window (builds with -tags gui)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "tui" {
			o.tuiSet = true
		}
	})
	return o, nil
}

var shutdownOnce sync.Once

func gracefulShutdown(d *daemon, code int) {
	shutdownOnce.Do(func() {
		if d != nil {
			d.p.Close()
			log.SessionEnd(int(d.runner.Count()))
		}
		log.Close()
		tuiMu.Lock()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		tuiMu.Unlock()
		os.Exit(code)
	})
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func run() {
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if o.version {
		fmt.Printf("keyhook %s\n", version)
		os.Exit(0)
	}

	if o.doctor {
		os.Exit(doctor.Run(doctor.Options{}))
	}

	loader := config.NewLoader(o.configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Resolve log directory early
	logFlag := o.logPath
	if logFlag == "" {
		logFlag = cfg.LogPath
	}
	logPath, err := log.ResolveDir(logFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		initCrashLog()
	}

	withBeep := o.beep || cfg.Beep
	if o.fake || !withBeep {
		beep.Disable()
	} else {
		beep.Init()
	}

	useTUI := cfg.TUI
	if o.tuiSet {
		useTUI = o.tui
	}
	if o.gui {
		useTUI = false
	}
	if useTUI && (o.fake || !term.IsTerminal(int(os.Stdout.Fd()))) {
		log.Warn("tui disabled: stdout is not a terminal")
		useTUI = false
	}

	var teaQueue *host.Tea
	popts := provider.Options{Logger: log.Logger()}
	if useTUI {
		teaQueue = host.NewTea()
		popts.Queue = teaQueue
	}
	if o.gui {
		popts.Queue = host.Fyne{}
	}

	var p *provider.Provider
	var fk *native.Fake
	backend := "fake"
	if o.fake {
		fk = native.NewFake()
		p = provider.New(fk, popts)
	} else {
		p, err = provider.Current(popts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			log.Close()
			os.Exit(1)
		}
		backend = p.Backend()
	}

	runner := &action.Runner{Out: os.Stdout, Logger: *log.Logger(), Beep: beep.PlayFire}
	d := newDaemon(p, runner, withBeep)
	if useTUI || o.gui {
		runner.Out = d.hist
	}

	bindings := append(cfg.Bindings, o.binds...)
	if err := d.apply(bindings); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		log.Warnf("bindings: %v", err)
	}

	if err := p.Init(); err != nil {
		if !p.IsRunning() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			gracefulShutdown(d, 1)
		}
		// grabs that failed were dropped; the rest are live
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		log.Warnf("bindings: %v", err)
	}

	mode := "headless"
	switch {
	case useTUI:
		mode = "tui"
	case o.gui:
		mode = "gui"
	}
	log.SessionStart(backend, mode, len(d.bindings()))

	loader.Watch(func(c config.Config, err error) {
		if err != nil {
			log.Warnf("config reload: %v", err)
			notifyReload(err)
			return
		}
		err = d.apply(append(c.Bindings, o.binds...))
		if err != nil {
			log.Warnf("config reload: %v", err)
		} else {
			log.Info("config_reloaded")
		}
		notifyReload(err)
	})

	if o.fake {
		go func() {
			driveFake(os.Stdin, fk, runner.Count, os.Stderr)
			gracefulShutdown(d, 0)
		}()
	}

	if o.gui {
		// the fyne app owns the main goroutine and shuts down on quit
		go watchHook(d)
		runGUI(d, backend)
		return
	}

	if useTUI {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(d, backend, loader.Path(), teaQueue)
		tuiMu.Unlock()

		go watchHook(d)
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
			teaQueue.Close()
			gracefulShutdown(d, 1)
		}
		teaQueue.Close()
		gracefulShutdown(d, 0)
		return
	}

	if !o.fake {
		fmt.Printf("keyhook %s listening (%s), %d hotkeys. Ctrl+C to quit.\n", version, backend, len(d.bindings()))
	}
	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	select {
	case <-ctx.Done():
		gracefulShutdown(d, 0)
	case <-p.Done():
		fmt.Fprintf(os.Stderr, "Error: hook stopped: %v\n", p.Err())
		gracefulShutdown(d, 1)
	}
}

// watchHook logs a dead hook loop; the TUI shows it on its next tick.
func watchHook(d *daemon) {
	<-d.p.Done()
	if err := d.p.Err(); err != nil {
		log.Errorf("hook stopped: %v", err)
	}
}

func notifyReload(err error) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(reloadMsg{Err: err})
	}
}
