package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationInput 一条通知的内容，收件人另行给出
type NotificationInput struct {
	Type          model.NotificationType
	Title         string
	Message       string
	Link          string
	ActorID       *uuid.UUID
	ApplicationID *uuid.UUID
	TicketID      *uuid.UUID
}

func (in NotificationInput) validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", in.Type)
	}
	if in.Title == "" {
		return fmt.Errorf("notification title is required")
	}
	if in.ApplicationID != nil && in.TicketID != nil {
		return fmt.Errorf("notification may reference an application or a ticket, not both")
	}
	return nil
}

func (in NotificationInput) row(recipientID uuid.UUID) model.Notification {
	return model.Notification{
		RecipientID:   recipientID,
		ActorID:       in.ActorID,
		Type:          in.Type,
		Title:         in.Title,
		Message:       in.Message,
		Link:          in.Link,
		ApplicationID: in.ApplicationID,
		TicketID:      in.TicketID,
	}
}

// NotificationLogic 站内通知的存储与撤销
type NotificationLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationLogic 创建通知业务逻辑
func NewNotificationLogic(db *gorm.DB) *NotificationLogic {
	return &NotificationLogic{db: db, now: time.Now}
}

// Create 为单个收件人写入通知
func (l *NotificationLogic) Create(ctx context.Context, recipientID uuid.UUID, in NotificationInput) (*model.Notification, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if recipientID == uuid.Nil {
		return nil, fmt.Errorf("notification recipient is required")
	}

	row := in.row(recipientID)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("创建通知失败: %w", err)
	}
	return &row, nil
}

// CreateBatch 一次插入多条通知，任何失败都视为整体失败
func (l *NotificationLogic) CreateBatch(ctx context.Context, recipientIDs []uuid.UUID, in NotificationInput) ([]model.Notification, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(recipientIDs) == 0 {
		return nil, nil
	}

	rows := make([]model.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		rows = append(rows, in.row(id))
	}
	if err := l.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("批量创建通知失败: %w", err)
	}
	return rows, nil
}

// ListForRecipient 获取收件人的通知，最新的在前
func (l *NotificationLogic) ListForRecipient(ctx context.Context, recipientID uuid.UUID, includeDismissed bool, limit int) ([]model.Notification, error) {
	query := l.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if !includeDismissed {
		query = query.Where("dismissed_at IS NULL")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var notifications []model.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("获取通知列表失败: %w", err)
	}
	return notifications, nil
}

// Dismiss 收件人撤销自己的一条通知
func (l *NotificationLogic) Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	result := l.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ? AND dismissed_at IS NULL", notificationID, recipientID).
		Update("dismissed_at", l.now())
	if result.Error != nil {
		return fmt.Errorf("撤销通知失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DismissAll 撤销收件人的全部通知
func (l *NotificationLogic) DismissAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	result := l.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND dismissed_at IS NULL", recipientID).
		Update("dismissed_at", l.now())
	if result.Error != nil {
		return 0, fmt.Errorf("撤销通知失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DismissForApplication 批量撤销与申请相关的通知，types 为空时撤销全部类型
func (l *NotificationLogic) DismissForApplication(ctx context.Context, applicationID uuid.UUID, types ...model.NotificationType) (int64, error) {
	return l.dismissByRef(ctx, "application_id", applicationID, types)
}

// DismissForTicket 批量撤销与工单相关的通知
func (l *NotificationLogic) DismissForTicket(ctx context.Context, ticketID uuid.UUID, types ...model.NotificationType) (int64, error) {
	return l.dismissByRef(ctx, "ticket_id", ticketID, types)
}

func (l *NotificationLogic) dismissByRef(ctx context.Context, column string, id uuid.UUID, types []model.NotificationType) (int64, error) {
	query := l.db.WithContext(ctx).Model(&model.Notification{}).
		Where(column+" = ? AND dismissed_at IS NULL", id)
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}

	result := query.Update("dismissed_at", l.now())
	if result.Error != nil {
		return 0, fmt.Errorf("批量撤销通知失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
