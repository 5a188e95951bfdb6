package task

import (
	"context"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/report"
	"github.com/go-co-op/gocron/v2"
)

// reportJobTimeout 单次生成的上限，包含模型调用
const reportJobTimeout = 5 * time.Minute

// ReportJob 定时生成日报或周报
type ReportJob struct {
	generator  *report.Generator
	reportType model.ReportType
	crontab    string
	now        func() time.Time
}

// NewReportJob 创建报告任务
func NewReportJob(generator *report.Generator, t model.ReportType, crontab string) *ReportJob {
	return &ReportJob{
		generator:  generator,
		reportType: t,
		crontab:    crontab,
		now:        time.Now,
	}
}

// GetName 获取任务名称
func (j *ReportJob) GetName() string {
	return string(j.reportType) + "_ticket_report"
}

// GetSchedule 获取调度配置
func (j *ReportJob) GetSchedule() gocron.JobDefinition {
	return gocron.CronJob(j.crontab, false)
}

// Execute 执行任务
func (j *ReportJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), reportJobTimeout)
	defer cancel()

	res := j.generator.GenerateAs(ctx, j.reportType, j.now(), report.SourceCron)
	switch {
	case res.Error != "":
		logger.Error("Scheduled %s report failed: %s", j.reportType, res.Error)
	case res.Saved:
		logger.Info("Scheduled %s report saved: %d tickets", j.reportType, res.TicketCount)
	case res.Existing:
		logger.Info("Scheduled %s report already exists for period ending %s", j.reportType, res.PeriodEnd.Format(time.RFC3339))
	default:
		logger.Info("Scheduled %s report skipped for period ending %s", j.reportType, res.PeriodEnd.Format(time.RFC3339))
	}
}
