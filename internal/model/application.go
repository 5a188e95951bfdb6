package model

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStage 申请所处阶段
type ApplicationStage string

const (
	StagePipeline     ApplicationStage = "pipeline"     // 初筛
	StageDeliberation ApplicationStage = "deliberation" // 合伙人讨论
	StageInvested     ApplicationStage = "invested"     // 已投资
	StageRejected     ApplicationStage = "rejected"     // 已拒绝
)

// Application 融资申请
type Application struct {
	Base

	CompanyName   string           `json:"company_name" gorm:"not null" binding:"required"`
	FounderNames  string           `json:"founder_names"`
	FounderEmail  string           `json:"founder_email"`
	Website       string           `json:"website"`
	Description   string           `json:"description" gorm:"type:text"`
	SubmittedAt   time.Time        `json:"submitted_at" gorm:"index"`
	Stage         ApplicationStage `json:"stage" gorm:"not null;default:'pipeline';index"`
	VotesRevealed bool             `json:"votes_revealed" gorm:"default:false"`

	SubmitterID *uuid.UUID `json:"submitter_id,omitempty" gorm:"type:uuid"`

	// 一对一，查询后统一为可选指针
	Deliberation *Deliberation `json:"deliberation,omitempty" gorm:"foreignKey:ApplicationID"`
	Votes        []Vote        `json:"votes,omitempty" gorm:"foreignKey:ApplicationID"`
}

// TableName 自定义表名
func (Application) TableName() string {
	return "applications"
}
