//go:build windows

package monitor

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	kernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procLastInput    = user32.NewProc("GetLastInputInfo")
	procGetTickCount = kernel32.NewProc("GetTickCount")
)

// lastInputInfo 对应 Win32 LASTINPUTINFO
type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

func idleSeconds() (int, error) {
	var info lastInputInfo
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, err := procLastInput.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, fmt.Errorf("GetLastInputInfo failed: %v", err)
	}

	tick, _, _ := procGetTickCount.Call()

	// GetTickCount 约 49.7 天回绕一次，uint32 减法对回绕仍然正确
	elapsed := uint32(tick) - info.dwTime
	return int(elapsed / 1000), nil
}
