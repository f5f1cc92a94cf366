package doctor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"keyhook/combo"
	"keyhook/native"
	"keyhook/provider"
)

func fakeOptions(fk *native.Fake, out *bytes.Buffer) Options {
	return Options{
		Out:           out,
		HotkeyTimeout: time.Second,
		Diagnose:      func() (string, error) { return "fake: in-memory hook", nil },
		NewProvider:   func() (*provider.Provider, error) { return provider.New(fk, provider.Options{}), nil },
		SkipClipboard: true,
	}
}

func TestRunPasses(t *testing.T) {
	var out bytes.Buffer
	fk := native.NewFake()
	opts := fakeOptions(fk, &out)
	opts.Pressed = func() { fk.Tap(combo.KeyLCtrl, combo.KeyLShift, combo.KeySpace) }

	if code := Run(opts); code != 0 {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	for _, want := range []string{"PASS: fake: in-memory hook", "PASS: hotkey detected", "All checks passed!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunBackendFailure(t *testing.T) {
	var out bytes.Buffer
	opts := fakeOptions(native.NewFake(), &out)
	opts.Diagnose = func() (string, error) { return "", native.ErrUnsupportedPlatform }

	if code := Run(opts); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Contains(out.String(), "[2/3]") {
		t.Error("hotkey check ran after backend failure")
	}
}

func TestRunInstallFailure(t *testing.T) {
	var out bytes.Buffer
	fk := native.NewFake()
	fk.InstallErr = errors.New("permission denied on /dev/input")
	if code := Run(fakeOptions(fk, &out)); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "permission denied on /dev/input") {
		t.Errorf("install error not shown:\n%s", out.String())
	}
}

func TestRunHotkeyTimeout(t *testing.T) {
	var out bytes.Buffer
	opts := fakeOptions(native.NewFake(), &out)
	opts.HotkeyTimeout = 50 * time.Millisecond
	if code := Run(opts); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "timeout waiting for hotkey") {
		t.Errorf("output:\n%s", out.String())
	}
}
