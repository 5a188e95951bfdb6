package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"gorm.io/gorm"
)

// BackfillResult 补生成的汇总
type BackfillResult struct {
	DaysScanned int      `json:"days_scanned"`
	Results     []Result `json:"results"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
}

func (b *BackfillResult) add(r Result) {
	b.Results = append(b.Results, r)
	if r.Error != "" {
		b.Errors = append(b.Errors, fmt.Sprintf("%s %s: %s", r.ReportType, r.PeriodEnd.Format("2006-01-02"), r.Error))
	}
}

// Saved 新保存的报告数量
func (b *BackfillResult) Saved() int {
	n := 0
	for _, r := range b.Results {
		if r.Saved {
			n++
		}
	}
	return n
}

// Cron 定时任务入口：生成日报，asOf 为周日时同时生成周报
func (g *Generator) Cron(ctx context.Context, asOf time.Time) []Result {
	results := []Result{g.generate(ctx, model.ReportDaily, asOf, SourceCron)}
	if asOf.In(g.loc).Weekday() == time.Sunday {
		results = append(results, g.generate(ctx, model.ReportWeekly, asOf, SourceCron))
	}
	return results
}

// Backfill 从最早归档的工单开始逐日补齐缺失的日报和周报，直到 now
func (g *Generator) Backfill(ctx context.Context, now time.Time) (*BackfillResult, error) {
	var first model.Ticket
	err := g.db.WithContext(ctx).
		Where("status = ? AND archived_at IS NOT NULL", model.TicketArchived).
		Order("archived_at ASC").
		First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BackfillResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取最早归档工单失败: %w", err)
	}

	out := &BackfillResult{}
	today := startOfDay(now, g.loc)
	// asOf 覆盖前一天，所以从最早归档日的次日开始
	for asOf := startOfDay(*first.ArchivedAt, g.loc).AddDate(0, 0, 1); !asOf.After(today); asOf = asOf.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.DaysScanned++
		g.backfillDay(ctx, asOf, out)
	}

	logger.Info("Backfill scanned %d days, saved %d reports, skipped %d", out.DaysScanned, out.Saved(), out.Skipped)
	return out, nil
}

// BackfillDate 补齐覆盖 day 这一天的日报，day 的次日为周日时补齐周报
func (g *Generator) BackfillDate(ctx context.Context, day time.Time) *BackfillResult {
	out := &BackfillResult{DaysScanned: 1}
	g.backfillDay(ctx, startOfDay(day, g.loc).AddDate(0, 0, 1), out)
	return out
}

func (g *Generator) backfillDay(ctx context.Context, asOf time.Time, out *BackfillResult) {
	types := []model.ReportType{model.ReportDaily}
	if asOf.Weekday() == time.Sunday {
		types = append(types, model.ReportWeekly)
	}

	for _, t := range types {
		period := PeriodFor(t, asOf, g.loc)
		exists, err := g.exists(ctx, t, period)
		if err != nil {
			out.add(Result{ReportType: t, PeriodStart: period.Start, PeriodEnd: period.End, Error: err.Error()})
			continue
		}
		if exists {
			out.Skipped++
			continue
		}
		out.add(g.generate(ctx, t, asOf, SourceBackfill))
	}
}
