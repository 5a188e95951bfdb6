package report

import (
	"encoding/json"
	"fmt"

	"github.com/blues/fundcrm/internal/llm"
	"github.com/blues/fundcrm/internal/model"
)

// emptyWeeklySummary 无完成工单时周报的固定内容
const emptyWeeklySummary = "No tickets were completed in the last 7 days."

// Summary 报告正文，存入 ticket_reports.summary
type Summary struct {
	Summary        string             `json:"summary"`
	Highlights     []string           `json:"highlights"`
	ByPartner      []PartnerBreakdown `json:"by_partner"`
	ByCompany      []CompanyBreakdown `json:"by_company"`
	NeedsAttention []string           `json:"needs_attention"`
	TicketCount    int                `json:"ticket_count"`
	Fallback       bool               `json:"fallback,omitempty"`
}

// PartnerBreakdown 每位合伙人的完成情况
type PartnerBreakdown struct {
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// CompanyBreakdown 每家公司的相关工单
type CompanyBreakdown struct {
	Company   string `json:"company"`
	Completed int    `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// fallbackSummary 生成失败时只保留工单数量
func fallbackSummary(t model.ReportType, count int) *Summary {
	period := "yesterday"
	if t == model.ReportWeekly {
		period = "in the last 7 days"
	}
	return &Summary{
		Summary:        fmt.Sprintf("%d tickets were completed %s.", count, period),
		Highlights:     []string{},
		ByPartner:      []PartnerBreakdown{},
		ByCompany:      []CompanyBreakdown{},
		NeedsAttention: []string{},
		TicketCount:    count,
		Fallback:       true,
	}
}

func emptySummary() *Summary {
	s := fallbackSummary(model.ReportWeekly, 0)
	s.Summary = emptyWeeklySummary
	s.Fallback = false
	return s
}

// parseSummary 解析模型输出，允许外层包 ``` 代码块
func parseSummary(text string, count int) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &s); err != nil {
		return nil, fmt.Errorf("parse report summary: %w", err)
	}
	if s.Summary == "" {
		return nil, fmt.Errorf("parse report summary: missing summary field")
	}
	if s.Highlights == nil {
		s.Highlights = []string{}
	}
	if s.ByPartner == nil {
		s.ByPartner = []PartnerBreakdown{}
	}
	if s.ByCompany == nil {
		s.ByCompany = []CompanyBreakdown{}
	}
	if s.NeedsAttention == nil {
		s.NeedsAttention = []string{}
	}
	s.TicketCount = count
	return &s, nil
}
