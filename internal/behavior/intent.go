package behavior

import (
	"time"

	"github.com/google/uuid"
)

// IntentType Luna 能产生的意图类别
type IntentType string

const (
	IntentSuggestHelp IntentType = "suggest_help"
	IntentRemind      IntentType = "remind"
	IntentInfo        IntentType = "info"
)

// Intent 一条待展示的意图（建议/提醒/信息）
type Intent struct {
	ID         string     `json:"id"`
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence"`
	Message    string     `json:"message"`
	Reasoning  string     `json:"reasoning,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewIntent 构造意图并分配标识
func NewIntent(t IntentType, confidence float64, message, reasoning string) *Intent {
	return &Intent{
		ID:         uuid.NewString(),
		Type:       t,
		Confidence: confidence,
		Message:    message,
		Reasoning:  reasoning,
		CreatedAt:  time.Now(),
	}
}

// UIOutput 推送给前端的展示状态
type UIOutput struct {
	State   State          `json:"state"`
	Emotion string         `json:"emotion"`
	Visible bool           `json:"visible"`
	Bubble  map[string]any `json:"bubble,omitempty"`
}

// OutputFor 把状态数据映射为前端展示状态
func OutputFor(data StateData) UIOutput {
	out := UIOutput{State: data.State, Visible: true}

	switch data.State {
	case StateIdle:
		out.Emotion = "neutral"
	case StateObserving:
		out.Emotion = "curious"
	case StateSuggesting:
		out.Emotion = "excited"
		if data.Intent != nil {
			out.Bubble = map[string]any{
				"intent_id": data.Intent.ID,
				"type":      string(data.Intent.Type),
				"message":   data.Intent.Message,
				"actions":   []string{"accept", "dismiss"},
			}
		}
	case StateExecuting:
		out.Emotion = "working"
	case StateSuppressed, StateCooldownGlobal:
		out.Emotion = "sleeping"
		out.Visible = false
	}

	return out
}
