package monitor

// IdleDetector 基于系统最后输入时间统计用户空闲时长
type IdleDetector struct{}

// NewIdleDetector 创建空闲检测器
func NewIdleDetector() *IdleDetector {
	return &IdleDetector{}
}

// IdleSeconds 返回距离最后一次用户输入的秒数
// 不支持的平台返回 ErrUnsupported
func (d *IdleDetector) IdleSeconds() (int, error) {
	return idleSeconds()
}

// State 返回当前空闲状态与秒数
func (d *IdleDetector) State() (IdleState, int, error) {
	seconds, err := d.IdleSeconds()
	if err != nil {
		return IdleActive, 0, err
	}
	return ClassifyIdle(seconds), seconds, nil
}
