package behavior

import (
	"fmt"
	"sync"
	"time"
)

// Cooldowns 决策引擎的各级冷却时长
type Cooldowns struct {
	PerIntent time.Duration // 同类意图之间
	Global    time.Duration // 任意两次弹出之间
	Dismiss   time.Duration // 用户关闭之后
}

// CooldownManager 管理意图弹出的冷却窗口
type CooldownManager struct {
	mu        sync.Mutex
	clock     func() time.Time
	cooldowns Cooldowns

	lastByType  map[IntentType]time.Time
	lastAny     time.Time
	lastDismiss time.Time
}

// NewCooldownManager 创建冷却管理器
func NewCooldownManager(cooldowns Cooldowns) *CooldownManager {
	return &CooldownManager{
		clock:      time.Now,
		cooldowns:  cooldowns,
		lastByType: make(map[IntentType]time.Time),
	}
}

// SetClock 注入时钟（测试用）
func (m *CooldownManager) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// Check 判断该类意图当前是否允许弹出，不允许时返回原因
func (m *CooldownManager) Check(t IntentType) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()

	if !m.lastDismiss.IsZero() && now.Sub(m.lastDismiss) < m.cooldowns.Dismiss {
		return false, fmt.Sprintf("dismiss cooldown active (%s remaining)",
			(m.cooldowns.Dismiss - now.Sub(m.lastDismiss)).Round(time.Second))
	}

	if !m.lastAny.IsZero() && now.Sub(m.lastAny) < m.cooldowns.Global {
		return false, fmt.Sprintf("global cooldown active (%s remaining)",
			(m.cooldowns.Global - now.Sub(m.lastAny)).Round(time.Second))
	}

	if last, ok := m.lastByType[t]; ok && now.Sub(last) < m.cooldowns.PerIntent {
		return false, fmt.Sprintf("per-intent cooldown active for %s (%s remaining)",
			t, (m.cooldowns.PerIntent - now.Sub(last)).Round(time.Second))
	}

	return true, ""
}

// RecordShown 记录一次意图弹出
func (m *CooldownManager) RecordShown(t IntentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	m.lastByType[t] = now
	m.lastAny = now
}

// RecordDismiss 记录一次用户关闭
func (m *CooldownManager) RecordDismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDismiss = m.clock()
}

// DecisionResult 一次意图评估结果
type DecisionResult struct {
	Approved bool    `json:"approved"`
	Reason   string  `json:"reason"`
	Intent   *Intent `json:"intent,omitempty"`
}

// Decider 规则化意图审批：置信度阈值 + 冷却窗口
type Decider struct {
	minConfidence float64
	cooldowns     *CooldownManager
}

// NewDecider 创建审批器
func NewDecider(minConfidence float64, cooldowns *CooldownManager) *Decider {
	return &Decider{minConfidence: minConfidence, cooldowns: cooldowns}
}

// Evaluate 评估一条意图；nil 意图直接拒绝
func (d *Decider) Evaluate(intent *Intent) DecisionResult {
	if intent == nil {
		return DecisionResult{Approved: false, Reason: "no intent"}
	}

	if intent.Confidence < d.minConfidence {
		return DecisionResult{
			Approved: false,
			Reason:   fmt.Sprintf("confidence %.2f below threshold %.2f", intent.Confidence, d.minConfidence),
			Intent:   intent,
		}
	}

	if ok, reason := d.cooldowns.Check(intent.Type); !ok {
		return DecisionResult{Approved: false, Reason: reason, Intent: intent}
	}

	return DecisionResult{Approved: true, Reason: "approved", Intent: intent}
}
