package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TicketStatus 工单状态
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketArchived   TicketStatus = "archived"
)

// Valid 是否为合法取值
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketArchived:
		return true
	}
	return false
}

// TicketPriority 工单优先级
type TicketPriority string

const (
	PriorityHigh   TicketPriority = "high"
	PriorityMedium TicketPriority = "medium"
	PriorityLow    TicketPriority = "low"
)

// Ticket 内部工单
type Ticket struct {
	Base

	Title       string                      `json:"title" gorm:"not null" binding:"required"`
	Description string                      `json:"description" gorm:"type:text"`
	Status      TicketStatus                `json:"status" gorm:"not null;default:'open';index"`
	Priority    TicketPriority              `json:"priority" gorm:"not null;default:'medium'"`
	AssignedTo  *uuid.UUID                  `json:"assigned_to,omitempty" gorm:"type:uuid;index"`
	CreatedBy   uuid.UUID                   `json:"created_by" gorm:"type:uuid;not null"`
	DueDate     *time.Time                  `json:"due_date,omitempty"`
	ArchivedAt  *time.Time                  `json:"archived_at,omitempty" gorm:"index"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	ApplicationID *uuid.UUID `json:"application_id,omitempty" gorm:"type:uuid"`

	Assignee    *Person         `json:"assignee,omitempty" gorm:"foreignKey:AssignedTo"`
	Application *Application    `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	Comments    []TicketComment `json:"comments,omitempty" gorm:"foreignKey:TicketID"`
}

// TableName 自定义表名
func (Ticket) TableName() string {
	return "tickets"
}

// TicketComment 工单评论
type TicketComment struct {
	Base

	TicketID       uuid.UUID `json:"ticket_id" gorm:"type:uuid;not null;index"`
	AuthorID       uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsFinalComment bool      `json:"is_final_comment" gorm:"default:false"`
}

// TableName 自定义表名
func (TicketComment) TableName() string {
	return "ticket_comments"
}
