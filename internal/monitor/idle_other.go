//go:build !windows

package monitor

func idleSeconds() (int, error) {
	return 0, ErrUnsupported
}
