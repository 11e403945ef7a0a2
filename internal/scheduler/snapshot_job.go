package scheduler

import (
	"time"

	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/logger"
	"github.com/blues/cts/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// SnapshotJob 周期性写引擎状态快照，缩短重启时的日志重放
type SnapshotJob struct {
	crowdsaleLogic *logic.CrowdsaleLogic
	config         *config.Config
}

// NewSnapshotJob 创建快照任务
func NewSnapshotJob(crowdsaleLogic *logic.CrowdsaleLogic, cfg *config.Config) *SnapshotJob {
	return &SnapshotJob{
		crowdsaleLogic: crowdsaleLogic,
		config:         cfg,
	}
}

// GetName 获取任务名称
func (j *SnapshotJob) GetName() string {
	return "engine_snapshot"
}

// GetSchedule 获取调度配置
func (j *SnapshotJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.SnapshotInterval) * time.Second)
}

// Execute 执行任务
func (j *SnapshotJob) Execute() {
	seq, err := j.crowdsaleLogic.Snapshot()
	if err != nil {
		logger.Error("Failed to write engine snapshot: %v", err)
		return
	}
	logger.Debug("Engine snapshot written at seq %d", seq)
}
