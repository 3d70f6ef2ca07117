package service

// ==================== 变体级进行中动作 ====================

// VariantActivity 变体上正在进行的异步动作
type VariantActivity string

const (
	ActivityIdle       VariantActivity = "idle"
	ActivityCropping   VariantActivity = "cropping"
	ActivityPublishing VariantActivity = "publishing"
)

// ActivityTracker 按变体 ID（而非下标）跟踪进行中动作
// 由 FormSession 的锁串行化访问
type ActivityTracker struct {
	states map[string]VariantActivity
}

// NewActivityTracker 创建跟踪器
func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{states: make(map[string]VariantActivity)}
}

// Begin 变体空闲时进入指定动作，否则返回 ErrVariantBusy
func (t *ActivityTracker) Begin(variantID string, activity VariantActivity) error {
	if t.Busy(variantID) {
		return ErrVariantBusy
	}
	t.states[variantID] = activity
	return nil
}

// End 回到空闲
func (t *ActivityTracker) End(variantID string) {
	delete(t.states, variantID)
}

// State 当前动作
func (t *ActivityTracker) State(variantID string) VariantActivity {
	if a, ok := t.states[variantID]; ok {
		return a
	}
	return ActivityIdle
}

// Busy 是否有动作进行中
func (t *ActivityTracker) Busy(variantID string) bool {
	return t.State(variantID) != ActivityIdle
}
