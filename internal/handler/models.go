package handler

import (
	"time"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
)

// SubmitApplicationRequest 提交申请
type SubmitApplicationRequest struct {
	CompanyName  string `json:"company_name" binding:"required"`
	FounderNames string `json:"founder_names"`
	FounderEmail string `json:"founder_email"`
	Website      string `json:"website"`
	Description  string `json:"description"`
}

// CastVoteRequest 初评投票
type CastVoteRequest struct {
	Vote  model.VoteValue `json:"vote" binding:"required"`
	Notes string          `json:"notes"`
}

// SaveDeliberationRequest 保存讨论记录
type SaveDeliberationRequest struct {
	IdeaSummary string                   `json:"idea_summary"`
	Thoughts    string                   `json:"thoughts"`
	Decision    model.Decision           `json:"decision"`
	Status      model.DeliberationStatus `json:"status"`
	MeetingDate *time.Time               `json:"meeting_date"`
	Investment  *logic.InvestmentInput   `json:"investment"`
}

// CreateTicketRequest 创建工单
type CreateTicketRequest struct {
	Title         string               `json:"title" binding:"required"`
	Description   string               `json:"description"`
	Priority      model.TicketPriority `json:"priority"`
	AssignedTo    *uuid.UUID           `json:"assigned_to"`
	DueDate       *time.Time           `json:"due_date"`
	Tags          []string             `json:"tags"`
	ApplicationID *uuid.UUID           `json:"application_id"`
}

// AssignTicketRequest 指派工单，assigned_to 为空表示取消指派
type AssignTicketRequest struct {
	AssignedTo *uuid.UUID `json:"assigned_to"`
}

// UpdateTicketStatusRequest 修改工单状态
type UpdateTicketStatusRequest struct {
	Status model.TicketStatus `json:"status" binding:"required"`
}

// AddCommentRequest 添加评论
type AddCommentRequest struct {
	Content        string `json:"content" binding:"required"`
	IsFinalComment bool   `json:"is_final_comment"`
}

// ForumNotifyRequest 社区通知
type ForumNotifyRequest struct {
	Type         logic.ForumEvent `json:"type"`
	PostID       string           `json:"postId"`
	ActorID      string           `json:"actorId"`
	MentionedIDs []string         `json:"mentionedIds"`
}

// ClaimProfileRequest 认领档案
type ClaimProfileRequest struct {
	AuthUserID uuid.UUID `json:"auth_user_id" binding:"required"`
}

// ReportRequest 定时报告触发，可选补生成
type ReportRequest struct {
	Backfill     bool   `json:"backfill"`
	BackfillDate string `json:"backfillDate"` // YYYY-MM-DD
}
