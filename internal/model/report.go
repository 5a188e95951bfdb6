package model

import (
	"time"

	"gorm.io/datatypes"
)

// ReportType 报告类型
type ReportType string

const (
	ReportDaily  ReportType = "daily"
	ReportWeekly ReportType = "weekly"
)

// TicketReport 已完成工单的周期报告
type TicketReport struct {
	Base

	ReportType  ReportType     `json:"report_type" gorm:"not null;index"`
	PeriodStart time.Time      `json:"period_start" gorm:"not null"`
	PeriodEnd   time.Time      `json:"period_end" gorm:"not null;index"`
	TicketCount int            `json:"ticket_count"`
	Summary     datatypes.JSON `json:"summary"`
	GeneratedBy string         `json:"generated_by"` // cron, backfill, manual
}

// TableName 自定义表名
func (TicketReport) TableName() string {
	return "ticket_reports"
}
