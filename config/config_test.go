package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"keyhook/combo"
)

const sample = `
log_path = "/tmp/keyhook-test"
tui = true

[[binding]]
keys = "ctrl+shift+space"
action = "print"

[[binding]]
keys = "media:playpause"
action = "copy:hello"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := NewLoader(writeConfig(t, sample)).Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.LogPath != "/tmp/keyhook-test" || !c.TUI || c.Beep {
		t.Errorf("got %+v", c)
	}
	if len(c.Bindings) != 2 {
		t.Fatalf("bindings = %+v", c.Bindings)
	}
	if c.Bindings[1].Action != "copy:hello" {
		t.Errorf("action = %q", c.Bindings[1].Action)
	}
	got, err := c.Bindings[0].Combo()
	if err != nil {
		t.Fatal(err)
	}
	if want := combo.Keystroke(combo.KeySpace, combo.ModCtrl|combo.ModShift); got != want {
		t.Errorf("combo = %v, want %v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := NewLoader(filepath.Join(t.TempDir(), "absent.toml")).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Bindings) != 0 || c.TUI {
		t.Errorf("got %+v, want defaults", c)
	}
}

func TestLoadRejectsBadKeys(t *testing.T) {
	path := writeConfig(t, "[[binding]]\nkeys = \"ctrl+nosuchkey\"\naction = \"print\"\n")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("bad key accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYHOOK_BEEP", "true")
	t.Setenv("KEYHOOK_LOG_PATH", "/tmp/from-env")
	c, err := NewLoader(writeConfig(t, sample)).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !c.Beep || c.LogPath != "/tmp/from-env" {
		t.Errorf("got %+v", c)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, sample)
	t.Setenv("KEYHOOK_CONFIG", path)
	l := NewLoader("")
	if l.Path() != path {
		t.Errorf("Path = %q, want %q", l.Path(), path)
	}
}

func TestParseBinding(t *testing.T) {
	tests := []struct {
		in      string
		want    Binding
		wantErr bool
	}{
		{"ctrl+space=print", Binding{"ctrl+space", "print"}, false},
		{" f5 = exec:make build ", Binding{"f5", "exec:make build"}, false},
		{"alt+x=copy:a=b", Binding{"alt+x", "copy:a=b"}, false},
		{"ctrl+space", Binding{}, true},
		{"=print", Binding{}, true},
		{"ctrl+space=", Binding{}, true},
		{"ctrl+bogus=print", Binding{}, true},
	}
	for _, tt := range tests {
		got, err := ParseBinding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBinding(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBinding(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, sample)
	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan Config, 8)
	l.Watch(func(c Config, err error) {
		if err == nil {
			reloaded <- c
		}
	})

	next := "[[binding]]\nkeys = \"f9\"\naction = \"log\"\n"
	if err := os.WriteFile(path, []byte(next), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if len(c.Bindings) == 1 && c.Bindings[0].Keys == "f9" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
