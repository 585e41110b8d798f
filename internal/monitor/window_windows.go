//go:build windows

package monitor

import (
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

// activeWindow 返回当前前台窗口的应用名与标题
func activeWindow() (WindowInfo, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return WindowInfo{}, fmt.Errorf("no foreground window")
	}

	// 窗口标题
	buf := make([]uint16, 512)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	title := syscall.UTF16ToString(buf)

	// 进程可执行文件名
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))

	appName := ""
	if pid != 0 {
		if handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid); err == nil {
			nameBuf := make([]uint16, windows.MAX_PATH)
			size := uint32(len(nameBuf))
			if err := windows.QueryFullProcessImageName(handle, 0, &nameBuf[0], &size); err == nil {
				exe := syscall.UTF16ToString(nameBuf[:size])
				appName = strings.TrimSuffix(filepath.Base(exe), ".exe")
			}
			windows.CloseHandle(handle)
		}
	}

	return WindowInfo{
		AppName:     appName,
		WindowTitle: title,
		Timestamp:   time.Now(),
	}, nil
}
