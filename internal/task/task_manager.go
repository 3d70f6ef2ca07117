package task

import (
	"time"

	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
type TaskManager struct {
	formSweep *FormSweepTask
	logger    *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Forms  FormSweeper
	Logger *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	FormSweepEnabled bool
	FormSweepSpec    string
	FormIdleTTL      time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		FormSweepEnabled: true,
		FormSweepSpec:    "0 */5 * * * *",
		FormIdleTTL:      2 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger.Named("task")}
	if cfg.FormSweepEnabled && deps.Forms != nil {
		tm.formSweep = NewFormSweepTask(deps.Forms, cfg.FormIdleTTL, cfg.FormSweepSpec, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	if tm.formSweep != nil {
		if err := tm.formSweep.Start(); err != nil {
			return err
		}
	}
	tm.logger.Info("后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.formSweep != nil {
		tm.formSweep.Stop()
	}
	tm.logger.Info("后台任务已全部停止")
}

// TriggerFormSweep 手动触发一次回收
func (tm *TaskManager) TriggerFormSweep() (int, error) {
	if tm.formSweep == nil {
		return 0, ErrTaskDisabled
	}
	return tm.formSweep.SweepNow(), nil
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"form_sweep": tm.formSweep != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
