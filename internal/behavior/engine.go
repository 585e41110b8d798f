package behavior

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orbit-luna/internal/contexthub"
	"orbit-luna/internal/monitor"
)

// 规则阈值
const (
	longSessionThreshold  = 45 * time.Minute // 同一应用连续使用判定
	fileActivityThreshold = 15               // 两次快照之间的文件事件数判定
)

// EngineConfig 决策引擎配置
type EngineConfig struct {
	MinConfidence float64
	Cooldowns     Cooldowns
	Timeouts      Timeouts
	HistoryLimit  int
}

// Engine 行为引擎：消费上下文快照，产生并审批意图，驱动状态机
type Engine struct {
	fsm       *FSM
	decider   *Decider
	cooldowns *CooldownManager
	logger    *slog.Logger
	clock     func() time.Time

	mu            sync.Mutex
	lastApp       string
	appSince      time.Time
	lastIdleState monitor.IdleState
	lastFileTotal int
	focusMode     bool

	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

// NewEngine 创建行为引擎
func NewEngine(cfg EngineConfig, logger *slog.Logger) *Engine {
	cooldowns := NewCooldownManager(cfg.Cooldowns)
	return &Engine{
		fsm:       NewFSM(cfg.Timeouts, cfg.HistoryLimit),
		decider:   NewDecider(cfg.MinConfidence, cooldowns),
		cooldowns: cooldowns,
		logger:    logger,
		clock:     time.Now,
	}
}

// FSM 返回内部状态机（状态查询/回调注册）
func (e *Engine) FSM() *FSM {
	return e.fsm
}

// SetClock 注入时钟（测试用）
func (e *Engine) SetClock(clock func() time.Time) {
	e.mu.Lock()
	e.clock = clock
	e.mu.Unlock()
	e.fsm.SetClock(clock)
	e.cooldowns.SetClock(clock)
}

// Start 启动超时巡检（1s 粒度足够，状态超时都是秒级）
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})

	go e.timeoutLoop(e.stopChan, e.doneChan)
}

// Stop 停止引擎
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stopChan := e.stopChan
	doneChan := e.doneChan
	e.mu.Unlock()

	close(stopChan)
	<-doneChan
}

func (e *Engine) timeoutLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.fsm.CheckTimeout()
		}
	}
}

// HandleSnapshot 消费一份上下文快照（由 contexthub 变化回调驱动）
func (e *Engine) HandleSnapshot(snap contexthub.Snapshot) {
	e.mu.Lock()
	if e.focusMode {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	// 上下文变化把 IDLE 推进到 OBSERVING（在其余状态下无效，直接忽略）
	e.fsm.Trigger(EventContextChanged, nil)

	intent := e.generateIntent(snap)
	if intent == nil {
		return
	}

	result := e.decider.Evaluate(intent)
	if !result.Approved {
		e.logger.Debug("🤔 意图被拒绝", "type", intent.Type, "reason", result.Reason)
		return
	}

	if e.fsm.Trigger(EventIntentApproved, intent) {
		e.cooldowns.RecordShown(intent.Type)
		e.logger.Info("💡 意图已批准",
			"type", intent.Type,
			"confidence", intent.Confidence,
			"message", intent.Message)
	}
}

// generateIntent 规则化意图生成；无匹配规则时返回 nil
func (e *Engine) generateIntent(snap contexthub.Snapshot) *Intent {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()

	// 应用连续使用时长跟踪
	if snap.ActiveApp != e.lastApp {
		e.lastApp = snap.ActiveApp
		e.appSince = now
	}

	prevIdle := e.lastIdleState
	e.lastIdleState = snap.IdleState

	prevFileTotal := e.lastFileTotal
	e.lastFileTotal = snap.FileSummary.Total

	// 规则 1: 长时间离开后回来
	if snap.IdleState == monitor.IdleActive &&
		(prevIdle == monitor.IdleMedium || prevIdle == monitor.IdleLong) {
		return NewIntent(IntentRemind, 0.7,
			"Welcome back! Ready to pick up where you left off?",
			fmt.Sprintf("idle state recovered from %s", prevIdle))
	}

	// 规则 2: 同一应用连续使用过久
	if snap.ActiveApp != "" && snap.IdleState == monitor.IdleActive &&
		!e.appSince.IsZero() && now.Sub(e.appSince) >= longSessionThreshold {
		e.appSince = now // 重置计时，避免同一会话反复触发
		return NewIntent(IntentSuggestHelp, 0.75,
			fmt.Sprintf("You've been in %s for a while — time for a quick break?", snap.ActiveApp),
			fmt.Sprintf("continuous session in %s exceeded %s", snap.ActiveApp, longSessionThreshold))
	}

	// 规则 3: 工作区文件活动密集
	if delta := snap.FileSummary.Total - prevFileTotal; prevFileTotal > 0 && delta >= fileActivityThreshold {
		return NewIntent(IntentInfo, 0.65,
			"Lots of file changes in your workspace — looks like things are moving!",
			fmt.Sprintf("%d file events since last snapshot", delta))
	}

	return nil
}

// Dismiss 用户关闭当前建议
func (e *Engine) Dismiss() bool {
	if e.fsm.Trigger(EventUserDismiss, nil) {
		e.cooldowns.RecordDismiss()
		return true
	}
	return false
}

// Accept 用户采纳当前建议
func (e *Engine) Accept() bool {
	return e.fsm.Trigger(EventUserAction, nil)
}

// SetFocusMode 进入/退出专注模式（进入后全局静默）
func (e *Engine) SetFocusMode(enabled bool) bool {
	e.mu.Lock()
	e.focusMode = enabled
	e.mu.Unlock()

	if enabled {
		return e.fsm.Trigger(EventEnterFocusMode, nil)
	}
	return e.fsm.Trigger(EventExitFocusMode, nil)
}

// CurrentOutput 返回当前前端展示状态
func (e *Engine) CurrentOutput() UIOutput {
	return OutputFor(e.fsm.Current())
}
