package task

import (
	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/report"
	"github.com/go-co-op/gocron/v2"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	generator *report.Generator
	config    config.ReportConfig
}

// NewManager 创建新的任务管理器，cron 表达式按报告时区解释
func NewManager(generator *report.Generator, cfg config.ReportConfig) (*Manager, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(generator.Location()))
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		generator: generator,
		config:    cfg,
	}, nil
}

// Start 启动任务管理器
func Start(generator *report.Generator, cfg config.ReportConfig) *Manager {
	manager, err := NewManager(generator, cfg)
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewReportJob(m.generator, model.ReportDaily, m.config.DailyCron))
	m.register(NewReportJob(m.generator, model.ReportWeekly, m.config.WeeklyCron))
}

func (m *Manager) register(job *ReportJob) {
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

// JobNames 已注册的任务名
func (m *Manager) JobNames() []string {
	jobs := m.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
