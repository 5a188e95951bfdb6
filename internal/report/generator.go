// Package report 生成已完成工单的日报与周报
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blues/fundcrm/internal/llm"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/metrics"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 报告来源
const (
	SourceCron     = "cron"
	SourceBackfill = "backfill"
	SourceManual   = "manual"
)

// Result 一次报告生成的结果，错误只记录不抛出
type Result struct {
	ReportType  model.ReportType `json:"report_type"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	Generated   bool             `json:"generated"`
	Saved       bool             `json:"saved"`
	TicketCount int              `json:"ticket_count"`
	Existing    bool             `json:"existing,omitempty"`
	ReportID    *uuid.UUID       `json:"report_id,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Generator 报告生成器
type Generator struct {
	db      *gorm.DB
	llm     llm.TextGenerator
	loc     *time.Location
	metrics *metrics.Metrics
}

// NewGenerator 创建报告生成器，gen 为 nil 时使用兜底摘要
func NewGenerator(db *gorm.DB, gen llm.TextGenerator, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		db:      db,
		llm:     gen,
		loc:     loc,
		metrics: metrics.Default(),
	}
}

// Location 报告使用的时区
func (g *Generator) Location() *time.Location {
	return g.loc
}

// Generate 生成 asOf 对应时间段的报告
func (g *Generator) Generate(ctx context.Context, t model.ReportType, asOf time.Time) Result {
	return g.generate(ctx, t, asOf, SourceCron)
}

// GenerateAs 同 Generate，记录来源
func (g *Generator) GenerateAs(ctx context.Context, t model.ReportType, asOf time.Time, source string) Result {
	return g.generate(ctx, t, asOf, source)
}

func (g *Generator) generate(ctx context.Context, t model.ReportType, asOf time.Time, source string) Result {
	period := PeriodFor(t, asOf, g.loc)
	res := Result{ReportType: t, PeriodStart: period.Start, PeriodEnd: period.End}

	if t != model.ReportDaily && t != model.ReportWeekly {
		res.Error = fmt.Sprintf("unknown report type %q", t)
		return res
	}

	// 定时任务可能重试，同一时间段只保存一份
	exists, err := g.exists(ctx, t, period)
	if err != nil {
		return g.fail(res, err)
	}
	if exists {
		logger.Info("%s report ending %s already exists, skipping", t, period.End.Format("2006-01-02"))
		g.metrics.IncReport(string(t), "skipped")
		res.Existing = true
		return res
	}

	snap, err := loadSnapshot(ctx, g.db, period)
	if err != nil {
		return g.fail(res, err)
	}
	res.TicketCount = len(snap.completed)

	var summary *Summary
	switch {
	case res.TicketCount == 0 && t == model.ReportDaily:
		logger.Info("No tickets completed for daily report ending %s, skipping", period.End.Format("2006-01-02"))
		g.metrics.IncReport(string(t), "skipped")
		return res
	case res.TicketCount == 0:
		summary = emptySummary()
	default:
		summary = g.summarize(ctx, t, period, snap)
	}
	res.Generated = true

	raw, err := json.Marshal(summary)
	if err != nil {
		return g.fail(res, err)
	}
	report := model.TicketReport{
		ReportType:  t,
		PeriodStart: period.Start.UTC(),
		PeriodEnd:   period.End.UTC(),
		TicketCount: res.TicketCount,
		Summary:     datatypes.JSON(raw),
		GeneratedBy: source,
	}
	if err := g.db.WithContext(ctx).Create(&report).Error; err != nil {
		return g.fail(res, fmt.Errorf("保存报告失败: %w", err))
	}

	res.Saved = true
	res.ReportID = &report.ID
	g.metrics.IncReport(string(t), "saved")
	logger.Info("Saved %s report %s with %d tickets", t, report.ID, res.TicketCount)
	return res
}

// summarize 调用文本生成服务，失败时退回只含数量的摘要
func (g *Generator) summarize(ctx context.Context, t model.ReportType, p Period, snap *snapshot) *Summary {
	count := len(snap.completed)
	if g.llm == nil {
		return fallbackSummary(t, count)
	}

	prompt, err := buildPrompt(t, p, snap, g.loc)
	if err != nil {
		logger.Error("Failed to build %s report prompt: %v", t, err)
		return fallbackSummary(t, count)
	}
	text, err := g.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		logger.Error("Text generation failed for %s report: %v", t, err)
		return fallbackSummary(t, count)
	}
	summary, err := parseSummary(text, count)
	if err != nil {
		logger.Warn("Could not parse %s report summary, using fallback: %v", t, err)
		return fallbackSummary(t, count)
	}
	return summary
}

func (g *Generator) fail(res Result, err error) Result {
	logger.Error("Failed to generate %s report: %v", res.ReportType, err)
	g.metrics.IncReport(string(res.ReportType), "error")
	res.Error = err.Error()
	return res
}

// exists 是否已有同类型报告的 period_end 落在该时间段内
func (g *Generator) exists(ctx context.Context, t model.ReportType, p Period) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.TicketReport{}).
		Where("report_type = ? AND period_end BETWEEN ? AND ?", t, p.Start.UTC(), p.End.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查报告是否存在失败: %w", err)
	}
	return count > 0, nil
}

// Latest 最近的报告
func (g *Generator) Latest(ctx context.Context, t model.ReportType, limit int) ([]model.TicketReport, error) {
	if limit <= 0 {
		limit = 10
	}
	var reports []model.TicketReport
	err := g.db.WithContext(ctx).
		Where("report_type = ?", t).
		Order("period_end DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("获取报告列表失败: %w", err)
	}
	return reports, nil
}
