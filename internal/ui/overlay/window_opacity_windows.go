//go:build windows

package overlay

import (
	"syscall"

	"fyne.io/fyne/v2/driver"
)

const (
	gwlExStyle  int32 = -20
	wsExLayered       = 0x00080000
	lwaAlpha          = 0x2
)

var (
	user32                         = syscall.NewLazyDLL("user32.dll")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

// applyNativeOpacity fades the whole block screen window so the desktop stays
// faintly visible. A fully opaque config drops the layered style again.
func (screen *BlockScreen) applyNativeOpacity(alpha uint8) {
	nativeWindow, ok := screen.window.(driver.NativeWindow)
	if !ok {
		return
	}
	nativeWindow.RunNative(func(context any) {
		if hwnd := windowHandle(context); hwnd != 0 {
			setWindowAlpha(hwnd, alpha)
		}
	})
}

func windowHandle(context any) uintptr {
	switch value := context.(type) {
	case driver.WindowsWindowContext:
		return value.HWND
	case *driver.WindowsWindowContext:
		return value.HWND
	}
	return 0
}

func setWindowAlpha(hwnd uintptr, alpha uint8) {
	index := uintptr(uint32(gwlExStyle))
	style, _, _ := procGetWindowLongPtrW.Call(hwnd, index)
	layered := style&wsExLayered != 0

	if alpha == 255 {
		if layered {
			procSetWindowLongPtrW.Call(hwnd, index, style&^wsExLayered)
		}
		return
	}
	if !layered {
		procSetWindowLongPtrW.Call(hwnd, index, style|wsExLayered)
	}
	procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(alpha), lwaAlpha)
}
