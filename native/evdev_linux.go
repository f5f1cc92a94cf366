//go:build linux && !x11

package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"keyhook/combo"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var errDevicesGone = errors.New("all keyboard devices closed")

// Evdev reads key events straight from /dev/input. The user must be in the
// 'input' group. It never grabs the devices, so other clients still see
// every key.
type Evdev struct{}

func hostBackend() (Backend, error) {
	return Backend{Name: "evdev", Mechanism: LowLevelHook, Hook: Evdev{}}, nil
}

func (Evdev) Install(fn func(Transition)) (Handle, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return nil, fmt.Errorf("%w: finding keyboards: %v", ErrInstall, err)
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("%w: no keyboard devices found (is user in 'input' group?)", ErrInstall)
	}

	h := &evdevHandle{
		events: make(chan Transition, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
	}
	if len(h.files) == 0 {
		return nil, fmt.Errorf("%w: could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)", ErrInstall)
	}

	readersDone := make(chan struct{})
	h.readers.Add(len(h.files))
	for _, f := range h.files {
		go h.readEvents(f)
	}
	go func() {
		h.readers.Wait()
		close(readersDone)
	}()
	go h.pump(fn, readersDone)
	return h, nil
}

type evdevHandle struct {
	files   []*os.File
	events  chan Transition
	stop    chan struct{}
	done    chan struct{}
	readers sync.WaitGroup
	once    sync.Once
	err     error
}

// pump is the only caller of fn.
func (h *evdevHandle) pump(fn func(Transition), readersDone <-chan struct{}) {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case t := <-h.events:
			fn(t)
		case <-readersDone:
			select {
			case <-h.stop:
			default:
				h.err = errDevicesGone
			}
			return
		}
	}
}

func (h *evdevHandle) readEvents(f *os.File) {
	defer h.readers.Done()
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		decodeEvents(buf[:n], func(t Transition) {
			select {
			case h.events <- t:
			case <-h.stop:
			}
		})
	}
}

// decodeEvents emits a transition for every key press or release in buf.
// Autorepeat events (value 2) and keys without a neutral code are skipped.
func decodeEvents(buf []byte, emit func(Transition)) {
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		evType := binary.LittleEndian.Uint16(buf[i+16:])
		evCode := binary.LittleEndian.Uint16(buf[i+18:])
		evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

		if evType != evKey || (evValue != keyPress && evValue != keyRelease) {
			continue
		}
		code, ok := evdevCodes[evCode]
		if !ok {
			continue
		}
		emit(Transition{Code: code, Pressed: evValue == keyPress})
	}
}

func (h *evdevHandle) Done() <-chan struct{} { return h.done }

func (h *evdevHandle) Err() error {
	<-h.done
	return h.err
}

func (h *evdevHandle) Uninstall() {
	h.once.Do(func() {
		close(h.stop)
		for _, f := range h.files {
			f.Close()
		}
	})
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}
	return fmt.Sprintf("evdev: %d keyboard(s) found, opened %s", len(keyboards), opened), nil
}

// linux/input-event-codes.h
var evdevCodes = map[uint16]combo.Code{
	1:   combo.KeyEscape,
	14:  combo.KeyBackspace,
	15:  combo.KeyTab,
	28:  combo.KeyReturn,
	29:  combo.KeyLCtrl,
	42:  combo.KeyLShift,
	54:  combo.KeyRShift,
	56:  combo.KeyLAlt,
	57:  combo.KeySpace,
	58:  combo.KeyCapsLock,
	97:  combo.KeyRCtrl,
	99:  combo.KeyPrint,
	100: combo.KeyRAlt,
	102: combo.KeyHome,
	103: combo.KeyUp,
	104: combo.KeyPageUp,
	105: combo.KeyLeft,
	106: combo.KeyRight,
	107: combo.KeyEnd,
	108: combo.KeyDown,
	109: combo.KeyPageDown,
	110: combo.KeyInsert,
	111: combo.KeyDelete,
	119: combo.KeyPause,
	125: combo.KeyLMeta,
	126: combo.KeyRMeta,
	163: combo.KeyMediaNext,
	164: combo.KeyMediaPlayPause,
	165: combo.KeyMediaPrev,
	166: combo.KeyMediaStop,
}

func init() {
	// KEY_1..KEY_9 are 2..10, KEY_0 is 11
	for i := uint16(0); i < 9; i++ {
		evdevCodes[2+i] = combo.Key0 + 1 + combo.Code(i)
	}
	evdevCodes[11] = combo.Key0

	rows := []struct {
		first   uint16
		letters string
	}{
		{16, "qwertyuiop"},
		{30, "asdfghjkl"},
		{44, "zxcvbnm"},
	}
	for _, row := range rows {
		for i, r := range row.letters {
			evdevCodes[row.first+uint16(i)] = combo.KeyA + combo.Code(r-'a')
		}
	}

	// KEY_F1..KEY_F10 are 59..68, F11/F12 are 87/88, F13..F24 are 183..194
	for i := uint16(0); i < 10; i++ {
		evdevCodes[59+i] = combo.KeyF1 + combo.Code(i)
	}
	evdevCodes[87] = combo.KeyF1 + 10
	evdevCodes[88] = combo.KeyF1 + 11
	for i := uint16(0); i < 12; i++ {
		evdevCodes[183+i] = combo.KeyF1 + 12 + combo.Code(i)
	}
}
