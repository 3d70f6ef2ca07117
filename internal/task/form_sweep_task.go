package task

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ==================== 闲置表单回收任务 ====================

// FormSweeper 表单回收接口
type FormSweeper interface {
	SweepIdle(maxIdle time.Duration) int
	Count() int
}

// FormSweepTask 定时销毁长时间无操作的表单，释放其预览与裁剪会话
type FormSweepTask struct {
	sweeper FormSweeper
	maxIdle time.Duration
	spec    string
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewFormSweepTask spec 为秒级 cron 表达式
func NewFormSweepTask(sweeper FormSweeper, maxIdle time.Duration, spec string, logger *zap.Logger) *FormSweepTask {
	if spec == "" {
		spec = "0 */5 * * * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormSweepTask{
		sweeper: sweeper,
		maxIdle: maxIdle,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.Named("form_sweep"),
	}
}

// Start 启动定时任务
func (t *FormSweepTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, func() { t.SweepNow() }); err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("闲置表单回收任务已启动",
		zap.String("spec", t.spec),
		zap.Duration("max_idle", t.maxIdle))
	return nil
}

// Stop 停止并等待正在执行的回收结束
func (t *FormSweepTask) Stop() {
	<-t.cron.Stop().Done()
}

// SweepNow 立即执行一次
func (t *FormSweepTask) SweepNow() int {
	swept := t.sweeper.SweepIdle(t.maxIdle)
	if swept > 0 {
		t.logger.Info("已回收闲置表单",
			zap.Int("swept", swept),
			zap.Int("remaining", t.sweeper.Count()))
	}
	return swept
}
