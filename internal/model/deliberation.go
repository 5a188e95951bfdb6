package model

import (
	"time"

	"github.com/google/uuid"
)

// Decision 讨论结论
type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionMaybe   Decision = "maybe"
	DecisionYes     Decision = "yes"
	DecisionNo      Decision = "no"
)

// Valid 是否为合法取值
func (d Decision) Valid() bool {
	switch d {
	case DecisionPending, DecisionMaybe, DecisionYes, DecisionNo:
		return true
	}
	return false
}

// Final 是否已经做出投/不投的决定
func (d Decision) Final() bool {
	return d == DecisionYes || d == DecisionNo
}

// DeliberationStatus 讨论记录状态
type DeliberationStatus string

const (
	DeliberationScheduled DeliberationStatus = "scheduled"
	DeliberationDiscussed DeliberationStatus = "discussed"
	DeliberationInvested  DeliberationStatus = "invested"
	DeliberationRejected  DeliberationStatus = "rejected"
)

// Deliberation 与申请一一对应的讨论记录
type Deliberation struct {
	Base

	ApplicationID uuid.UUID          `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	IdeaSummary   string             `json:"idea_summary" gorm:"type:text"`
	Thoughts      string             `json:"thoughts" gorm:"type:text"`
	Decision      Decision           `json:"decision" gorm:"not null;default:'pending'"`
	Status        DeliberationStatus `json:"status"`
	MeetingDate   *time.Time         `json:"meeting_date,omitempty"`
}

// TableName 自定义表名
func (Deliberation) TableName() string {
	return "deliberations"
}
