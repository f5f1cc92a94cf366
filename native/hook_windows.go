//go:build windows

package native

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"keyhook/combo"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSysKeydown = 0x0104
	wmSysKeyup   = 0x0105
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// LowLevel is a WH_KEYBOARD_LL hook. Virtual-key codes are already the
// neutral code space. The hook always passes events on via CallNextHookEx.
type LowLevel struct{}

func hostBackend() (Backend, error) {
	return Backend{Name: "win32", Mechanism: LowLevelHook, Hook: LowLevel{}}, nil
}

func diagnose() (string, error) {
	if err := procSetWindowsHookExW.Find(); err != nil {
		return "", fmt.Errorf("user32 unavailable: %w", err)
	}
	return "win32: WH_KEYBOARD_LL low-level keyboard hook", nil
}

func (LowLevel) Install(fn func(Transition)) (Handle, error) {
	h := &llHandle{done: make(chan struct{})}
	ready := make(chan error, 1)
	go h.loop(fn, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return h, nil
}

type llHandle struct {
	threadID uint32
	done     chan struct{}
	once     sync.Once
	err      error
}

// loop owns an OS thread: the hook is installed on it and its message loop
// is what runs the callback.
func (h *llHandle) loop(fn func(Transition), ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	h.threadID = windows.GetCurrentThreadId()
	cb := windows.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) >= 0 {
			info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			switch wParam {
			case wmKeydown, wmSysKeydown:
				fn(Transition{Code: combo.Code(info.VkCode), Pressed: true})
			case wmKeyup, wmSysKeyup:
				fn(Transition{Code: combo.Code(info.VkCode)})
			}
		}
		ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	hook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, cb, 0, 0)
	if hook == 0 {
		ready <- fmt.Errorf("%w: SetWindowsHookExW: %v", ErrInstall, err)
		return
	}
	ready <- nil

	var m msg
	for {
		ret, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) == -1 {
			h.err = fmt.Errorf("GetMessageW: %v", err)
			break
		}
		if ret == 0 {
			break
		}
	}
	procUnhookWindowsHookEx.Call(hook)
}

func (h *llHandle) Done() <-chan struct{} { return h.done }

func (h *llHandle) Err() error {
	<-h.done
	return h.err
}

// Uninstall posts WM_QUIT to the hook thread; the loop unhooks on its way out.
func (h *llHandle) Uninstall() {
	h.once.Do(func() {
		procPostThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0)
	})
}
