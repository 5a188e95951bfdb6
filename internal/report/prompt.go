package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/blues/fundcrm/internal/model"
	"gorm.io/gorm"
)

// systemPrompt 报告生成的固定系统提示
const systemPrompt = `You write concise internal activity reports for a venture fund's partners.
You receive JSON describing tickets completed during a period, open tickets that need attention,
and open tickets nobody owns. Respond with a single JSON object and nothing else:
{
  "summary": "2-4 sentence overview of what got done",
  "highlights": ["notable completions"],
  "by_partner": [{"name": "...", "completed": 0, "notes": "..."}],
  "by_company": [{"company": "...", "completed": 0, "notes": "..."}],
  "needs_attention": ["open high-priority, overdue or unassigned work worth flagging"]
}
Base every statement on the provided tickets. Do not invent names, companies or numbers.`

// promptTicket 提交给模型的工单
type promptTicket struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Priority     string   `json:"priority"`
	Assignee     string   `json:"assignee,omitempty"`
	Company      string   `json:"company,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DueDate      string   `json:"due_date,omitempty"`
	ClosedAt     string   `json:"closed_at,omitempty"`
	FinalComment string   `json:"final_comment,omitempty"`
}

type promptInput struct {
	ReportType     model.ReportType `json:"report_type"`
	PeriodStart    string           `json:"period_start"`
	PeriodEnd      string           `json:"period_end"`
	Completed      []promptTicket   `json:"completed"`
	NeedsAttention []promptTicket   `json:"needs_attention"`
	Unassigned     []promptTicket   `json:"unassigned"`
}

// snapshot 一个时间段内报告需要的工单
type snapshot struct {
	completed  []model.Ticket
	attention  []model.Ticket
	unassigned []model.Ticket
}

// loadSnapshot 读取时间段内归档的工单，以及截至 period 结束时仍未关闭的需关注工单
func loadSnapshot(ctx context.Context, db *gorm.DB, p Period) (*snapshot, error) {
	var s snapshot

	err := db.WithContext(ctx).
		Preload("Assignee").
		Preload("Application").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Where("status = ? AND archived_at BETWEEN ? AND ?", model.TicketArchived, p.Start.UTC(), p.End.UTC()).
		Order("archived_at ASC").
		Find(&s.completed).Error
	if err != nil {
		return nil, fmt.Errorf("获取已完成工单失败: %w", err)
	}
	if len(s.completed) == 0 {
		return &s, nil
	}

	err = db.WithContext(ctx).
		Preload("Assignee").
		Preload("Application").
		Where("status <> ? AND assigned_to IS NOT NULL", model.TicketArchived).
		Where("priority = ? OR due_date < ?", model.PriorityHigh, p.End.UTC()).
		Order("created_at ASC").
		Find(&s.attention).Error
	if err != nil {
		return nil, fmt.Errorf("获取待关注工单失败: %w", err)
	}

	err = db.WithContext(ctx).
		Preload("Application").
		Where("status <> ? AND assigned_to IS NULL", model.TicketArchived).
		Order("created_at ASC").
		Find(&s.unassigned).Error
	if err != nil {
		return nil, fmt.Errorf("获取未指派工单失败: %w", err)
	}
	return &s, nil
}

// closingComment 优先取结单说明，否则取最后一条评论
func closingComment(t *model.Ticket) string {
	comments := append([]model.TicketComment(nil), t.Comments...)
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	for i := len(comments) - 1; i >= 0; i-- {
		if comments[i].IsFinalComment {
			return comments[i].Content
		}
	}
	if len(comments) > 0 {
		return comments[len(comments)-1].Content
	}
	return ""
}

func toPromptTicket(t *model.Ticket, loc *time.Location) promptTicket {
	pt := promptTicket{
		Title:        t.Title,
		Description:  t.Description,
		Priority:     string(t.Priority),
		Tags:         []string(t.Tags),
		FinalComment: closingComment(t),
	}
	if t.Assignee != nil {
		pt.Assignee = t.Assignee.Name
	}
	if t.Application != nil {
		pt.Company = t.Application.CompanyName
	}
	if t.DueDate != nil {
		pt.DueDate = t.DueDate.Format("2006-01-02")
	}
	if t.ArchivedAt != nil {
		pt.ClosedAt = t.ArchivedAt.In(loc).Format(time.RFC3339)
	}
	return pt
}

func promptTickets(tickets []model.Ticket, loc *time.Location) []promptTicket {
	out := make([]promptTicket, 0, len(tickets))
	for i := range tickets {
		out = append(out, toPromptTicket(&tickets[i], loc))
	}
	return out
}

// buildPrompt 序列化为模型输入
func buildPrompt(t model.ReportType, p Period, s *snapshot, loc *time.Location) (string, error) {
	in := promptInput{
		ReportType:     t,
		PeriodStart:    p.Start.In(loc).Format(time.RFC3339),
		PeriodEnd:      p.End.In(loc).Format(time.RFC3339),
		Completed:      promptTickets(s.completed, loc),
		NeedsAttention: promptTickets(s.attention, loc),
		Unassigned:     promptTickets(s.unassigned, loc),
	}
	raw, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", err
	}
	return "Generate the " + string(t) + " ticket report for this data:\n\n" + string(raw), nil
}
