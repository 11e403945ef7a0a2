package scheduler

import (
	"time"

	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/logger"
	"github.com/blues/cts/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// LockReleaseJob 周期性释放已到期的代币时间锁
type LockReleaseJob struct {
	crowdsaleLogic *logic.CrowdsaleLogic
	config         *config.Config
}

// NewLockReleaseJob 创建时间锁释放任务
func NewLockReleaseJob(crowdsaleLogic *logic.CrowdsaleLogic, cfg *config.Config) *LockReleaseJob {
	return &LockReleaseJob{
		crowdsaleLogic: crowdsaleLogic,
		config:         cfg,
	}
}

// GetName 获取任务名称
func (j *LockReleaseJob) GetName() string {
	return "token_lock_release"
}

// GetSchedule 获取调度配置
func (j *LockReleaseJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.LockReleaseInterval) * time.Second)
}

// Execute 执行任务
func (j *LockReleaseJob) Execute() {
	released, err := j.crowdsaleLogic.ReleaseMaturedLocks()
	if err != nil {
		logger.Error("Failed to release matured token locks: %v", err)
		return
	}
	if len(released) > 0 {
		logger.Info("Released %d matured token locks: %v", len(released), released)
	}
}
