package scheduler

import (
	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/logger"
	"github.com/blues/cts/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// Job 计划任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		config:    cfg,
	}, nil
}

// Start 启动任务管理器
func Start(crowdsaleLogic *logic.CrowdsaleLogic, cfg *config.Config) *Manager {
	manager, err := NewManager(cfg)
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	// 注册所有任务
	manager.register(NewSnapshotJob(crowdsaleLogic, cfg))
	manager.register(NewLockReleaseJob(crowdsaleLogic, cfg))

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// register 注册单个任务
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
