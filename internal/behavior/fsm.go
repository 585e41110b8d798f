// Package behavior 实现桌面伙伴的行为状态机与决策引擎
package behavior

import (
	"sync"
	"time"
)

// State 行为状态
type State string

const (
	StateIdle           State = "idle"
	StateObserving      State = "observing"
	StateSuggesting     State = "suggesting"
	StateExecuting      State = "executing"
	StateSuppressed     State = "suppressed"
	StateCooldownGlobal State = "cooldown_global"
)

// Event 触发状态迁移的事件
type Event string

const (
	EventContextChanged  Event = "context_changed"
	EventIntentApproved  Event = "intent_approved"
	EventUserDismiss     Event = "user_dismiss"
	EventUserAction      Event = "user_action"
	EventTimeout         Event = "timeout"
	EventCooldownExpired Event = "cooldown_expired"
	EventEnterFocusMode  Event = "enter_focus_mode"
	EventExitFocusMode   Event = "exit_focus_mode"
)

// transitions 状态迁移表: {state: {event: next_state}}
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventContextChanged: StateObserving,
		EventIntentApproved: StateSuggesting, // 允许 IDLE 直达 SUGGESTING
		EventEnterFocusMode: StateCooldownGlobal,
	},
	StateObserving: {
		EventIntentApproved: StateSuggesting,
		EventTimeout:        StateIdle,
		EventEnterFocusMode: StateCooldownGlobal,
	},
	StateSuggesting: {
		EventUserDismiss:    StateSuppressed,
		EventUserAction:     StateExecuting,
		EventTimeout:        StateIdle,
		EventEnterFocusMode: StateCooldownGlobal,
	},
	StateExecuting: {
		EventTimeout:     StateIdle,
		EventUserDismiss: StateSuppressed,
	},
	StateSuppressed: {
		EventCooldownExpired: StateIdle,
	},
	StateCooldownGlobal: {
		EventExitFocusMode: StateIdle,
	},
}

// Timeouts 各状态的超时时长（零值表示该状态不超时）
type Timeouts struct {
	Observing  time.Duration
	Suggesting time.Duration
	Executing  time.Duration
	Suppressed time.Duration
}

// Transition 一条状态迁移记录
type Transition struct {
	From  State     `json:"from"`
	To    State     `json:"to"`
	Event Event     `json:"event"`
	At    time.Time `json:"at"`
}

// StateData 当前状态与附带数据
type StateData struct {
	State     State     `json:"state"`
	EnteredAt time.Time `json:"entered_at"`
	Intent    *Intent   `json:"intent,omitempty"`
}

// FSM 行为有限状态机，初始 IDLE
type FSM struct {
	mu           sync.Mutex
	clock        func() time.Time
	state        State
	enteredAt    time.Time
	intent       *Intent
	timeouts     Timeouts
	history      []Transition
	historyLimit int
	onChange     func(StateData)
}

// NewFSM 创建状态机
func NewFSM(timeouts Timeouts, historyLimit int) *FSM {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	now := time.Now()
	return &FSM{
		clock:        time.Now,
		state:        StateIdle,
		enteredAt:    now,
		timeouts:     timeouts,
		historyLimit: historyLimit,
	}
}

// SetClock 注入时钟（测试用）
func (f *FSM) SetClock(clock func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = clock
}

// OnChange 注册状态变化回调（在锁外调用）
func (f *FSM) OnChange(callback func(StateData)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = callback
}

// Current 返回当前状态数据
func (f *FSM) Current() StateData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return StateData{State: f.state, EnteredAt: f.enteredAt, Intent: f.intent}
}

// Trigger 触发事件；事件在当前状态下无效时返回 false
// intent 仅对 EventIntentApproved 有意义，其余事件传 nil
func (f *FSM) Trigger(event Event, intent *Intent) bool {
	f.mu.Lock()

	next, ok := transitions[f.state][event]
	if !ok {
		f.mu.Unlock()
		return false
	}

	now := f.clock()
	record := Transition{From: f.state, To: next, Event: event, At: now}

	f.history = append(f.history, record)
	if len(f.history) > f.historyLimit {
		f.history = f.history[len(f.history)-f.historyLimit:]
	}

	f.state = next
	f.enteredAt = now
	if event == EventIntentApproved {
		f.intent = intent
	} else if next == StateIdle {
		f.intent = nil
	}

	data := StateData{State: f.state, EnteredAt: f.enteredAt, Intent: f.intent}
	onChange := f.onChange
	f.mu.Unlock()

	if onChange != nil {
		onChange(data)
	}
	return true
}

// CheckTimeout 检查当前状态是否超时并触发对应事件；发生迁移返回 true
// SUPPRESSED 超时映射为冷却到期事件，其余超时状态映射为 Timeout
func (f *FSM) CheckTimeout() bool {
	f.mu.Lock()
	var timeout time.Duration
	var event Event

	switch f.state {
	case StateObserving:
		timeout, event = f.timeouts.Observing, EventTimeout
	case StateSuggesting:
		timeout, event = f.timeouts.Suggesting, EventTimeout
	case StateExecuting:
		timeout, event = f.timeouts.Executing, EventTimeout
	case StateSuppressed:
		timeout, event = f.timeouts.Suppressed, EventCooldownExpired
	default:
		f.mu.Unlock()
		return false
	}

	if timeout <= 0 || f.clock().Sub(f.enteredAt) < timeout {
		f.mu.Unlock()
		return false
	}
	f.mu.Unlock()

	return f.Trigger(event, nil)
}

// History 返回状态迁移历史（时间升序）
func (f *FSM) History() []Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Transition, len(f.history))
	copy(out, f.history)
	return out
}
