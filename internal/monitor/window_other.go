//go:build !windows

package monitor

func activeWindow() (WindowInfo, error) {
	return WindowInfo{}, ErrUnsupported
}
