// Package config loads the daemon's hotkey bindings.
//
// Settings come from a TOML file and KEYHOOK_* environment variables:
//
//	log_path = "/tmp/keyhook"
//	tui = true
//	beep = false
//
//	[[binding]]
//	keys = "ctrl+shift+space"
//	action = "print"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"keyhook/combo"
)

type Config struct {
	LogPath  string    `mapstructure:"log_path"`
	TUI      bool      `mapstructure:"tui"`
	Beep     bool      `mapstructure:"beep"`
	Bindings []Binding `mapstructure:"binding"`
}

// Binding maps a key combination, in combo.Parse syntax, to an action.
type Binding struct {
	Keys   string `mapstructure:"keys"`
	Action string `mapstructure:"action"`
}

func (b Binding) Combo() (combo.Combination, error) {
	return combo.Parse(b.Keys)
}

// ParseBinding parses the "keys=action" form used on the command line.
func ParseBinding(s string) (Binding, error) {
	keys, action, ok := strings.Cut(s, "=")
	keys, action = strings.TrimSpace(keys), strings.TrimSpace(action)
	if !ok || keys == "" || action == "" {
		return Binding{}, fmt.Errorf("binding %q: want keys=action", s)
	}
	if _, err := combo.Parse(keys); err != nil {
		return Binding{}, fmt.Errorf("binding %q: %w", s, err)
	}
	return Binding{Keys: keys, Action: action}, nil
}

// DefaultPath is used when neither -config nor KEYHOOK_CONFIG is set.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "keyhook", "config.toml")
}

type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader reads from path, falling back to KEYHOOK_CONFIG and then
// DefaultPath.
func NewLoader(path string) *Loader {
	if path == "" {
		path = os.Getenv("KEYHOOK_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetDefault("log_path", "")
	v.SetDefault("tui", false)
	v.SetDefault("beep", false)
	v.SetDefault("binding", []Binding{})

	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("KEYHOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Loader{v: v, path: path}
}

func (l *Loader) Path() string { return l.path }

// Load reads the config file. A missing file yields the defaults.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", l.path, err)
	}

	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	for i, b := range c.Bindings {
		if _, err := b.Combo(); err != nil {
			return Config{}, fmt.Errorf("binding %d (%q): %w", i+1, b.Keys, err)
		}
	}
	return c, nil
}

// Watch calls fn with the reloaded config each time the file is written.
// fn runs on viper's watcher goroutine.
func (l *Loader) Watch(fn func(Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.Load())
	})
	l.v.WatchConfig()
}
