package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType 通知类型（封闭集合）
type NotificationType string

const (
	NotifyNewApplication       NotificationType = "new_application"
	NotifyReadyForDeliberation NotificationType = "ready_for_deliberation"
	NotifyDeliberationNotes    NotificationType = "new_deliberation_notes"
	NotifyDecisionMade         NotificationType = "decision_made"
	NotifyTicketAssigned       NotificationType = "ticket_assigned"
	NotifyTicketArchived       NotificationType = "ticket_archived"
	NotifyTicketStatusChanged  NotificationType = "ticket_status_changed"
	NotifyProfileClaimed       NotificationType = "profile_claimed"
	NotifyForumMention         NotificationType = "forum_mention"
	NotifyForumReply           NotificationType = "forum_reply"
)

var notificationTypes = map[NotificationType]struct{}{
	NotifyNewApplication:       {},
	NotifyReadyForDeliberation: {},
	NotifyDeliberationNotes:    {},
	NotifyDecisionMade:         {},
	NotifyTicketAssigned:       {},
	NotifyTicketArchived:       {},
	NotifyTicketStatusChanged:  {},
	NotifyProfileClaimed:       {},
	NotifyForumMention:         {},
	NotifyForumReply:           {},
}

// Valid 是否属于已知通知类型
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// Notification 站内通知
type Notification struct {
	Base

	RecipientID   uuid.UUID        `json:"recipient_id" gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID       `json:"actor_id,omitempty" gorm:"type:uuid"`
	Type          NotificationType `json:"type" gorm:"not null"`
	Title         string           `json:"title" gorm:"not null"`
	Message       string           `json:"message"`
	Link          string           `json:"link"`
	ApplicationID *uuid.UUID       `json:"application_id,omitempty" gorm:"type:uuid;index"`
	TicketID      *uuid.UUID       `json:"ticket_id,omitempty" gorm:"type:uuid;index"`
	DismissedAt   *time.Time       `json:"dismissed_at,omitempty"`
}

// TableName 自定义表名
func (Notification) TableName() string {
	return "notifications"
}
