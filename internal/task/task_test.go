package task

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ==================== Mock ====================

type fakeSweeper struct {
	mu        sync.Mutex
	idle      int
	remaining int
	maxIdles  []time.Duration
}

func (f *fakeSweeper) SweepIdle(maxIdle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxIdles = append(f.maxIdles, maxIdle)
	swept := f.idle
	f.idle = 0
	return swept
}

func (f *fakeSweeper) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

func (f *fakeSweeper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.maxIdles)
}

// ==================== FormSweepTask ====================

func TestFormSweepTask_SweepNow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sweeper := &fakeSweeper{idle: 2, remaining: 5}
	task := NewFormSweepTask(sweeper, 30*time.Minute, "", zap.New(core))

	assert.Equal(t, 2, task.SweepNow())
	assert.Equal(t, []time.Duration{30 * time.Minute}, sweeper.maxIdles)
	require.Equal(t, 1, logs.FilterMessage("已回收闲置表单").Len())
	assert.Equal(t, int64(5), logs.All()[0].ContextMap()["remaining"])

	// 无可回收表单时不打日志
	assert.Equal(t, 0, task.SweepNow())
	assert.Equal(t, 1, logs.Len())
}

func TestFormSweepTask_InvalidSpec(t *testing.T) {
	task := NewFormSweepTask(&fakeSweeper{}, time.Minute, "not a cron spec", nil)
	assert.Error(t, task.Start())
}

func TestFormSweepTask_RunsOnSchedule(t *testing.T) {
	sweeper := &fakeSweeper{idle: 1}
	task := NewFormSweepTask(sweeper, time.Minute, "* * * * * *", nil)
	require.NoError(t, task.Start())
	defer task.Stop()

	assert.Eventually(t, func() bool { return sweeper.calls() > 0 }, 3*time.Second, 50*time.Millisecond)
}

// ==================== TaskManager ====================

func TestTaskManager_Disabled(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{Forms: &fakeSweeper{}}, &TaskManagerConfig{FormSweepEnabled: false})

	_, err := tm.TriggerFormSweep()
	assert.ErrorIs(t, err, ErrTaskDisabled)
	assert.Equal(t, map[string]bool{"form_sweep": false}, tm.Status())
	assert.NoError(t, tm.Start())
	tm.Stop()
}

func TestTaskManager_Trigger(t *testing.T) {
	sweeper := &fakeSweeper{idle: 3}
	tm := NewTaskManager(&TaskManagerDeps{Forms: sweeper}, nil)

	swept, err := tm.TriggerFormSweep()
	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	assert.Equal(t, []time.Duration{DefaultConfig().FormIdleTTL}, sweeper.maxIdles)
	assert.True(t, tm.Status()["form_sweep"])
}
