package logging

import "testing"

func TestEmitterDisabledByDefault(t *testing.T) {
	e := NewEventEmitter()

	if e.IsEnabled() {
		t.Fatal("未启动的发射器不应处于启用状态")
	}

	// 未启动时 Emit 应直接丢弃，不 panic 不阻塞
	for i := 0; i < 100; i++ {
		e.Emit(LogEntry{Level: "info", Message: "dropped"})
	}
}

func TestEmitterStopIdempotent(t *testing.T) {
	e := NewEventEmitter()

	e.Stop()
	e.Stop() // 未启动时重复停止不应 panic
}
