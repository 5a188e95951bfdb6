package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundcrm/internal/gamification"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketLogic 工单业务逻辑
type TicketLogic struct {
	db       *gorm.DB
	notifier *Notifier
	now      func() time.Time
	loc      *time.Location
}

// NewTicketLogic 创建工单业务逻辑，loc 用于连续天数等按自然日的计算
func NewTicketLogic(db *gorm.DB, notifier *Notifier, loc *time.Location) *TicketLogic {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketLogic{db: db, notifier: notifier, now: time.Now, loc: loc}
}

// CreateTicket 创建工单，有指派人时通知
func (l *TicketLogic) CreateTicket(ctx context.Context, actor ActingUser, ticket *model.Ticket) error {
	if strings.TrimSpace(ticket.Title) == "" {
		return invalid("Ticket title is required")
	}
	if ticket.Priority == "" {
		ticket.Priority = model.PriorityMedium
	}
	ticket.Status = model.TicketOpen
	ticket.ArchivedAt = nil
	ticket.CreatedBy = actor.ID()

	if err := l.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("创建工单失败: %w", err)
	}

	if err := l.notifier.NotifyTicketAssigned(ctx, actor, ticket); err != nil {
		logger.Error("Failed to notify assignee of ticket %s: %v", ticket.ID, err)
	}
	return nil
}

// GetTicket 获取工单
func (l *TicketLogic) GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := l.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("获取工单失败: %w", err)
	}
	return &ticket, nil
}

// AssignTicket 修改指派人，assigneeID 为 nil 表示取消指派
func (l *TicketLogic) AssignTicket(ctx context.Context, actor ActingUser, ticketID uuid.UUID, assigneeID *uuid.UUID) (*model.Ticket, error) {
	ticket, err := l.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if sameAssignee(ticket.AssignedTo, assigneeID) {
		return ticket, nil
	}

	if err := l.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("assigned_to", assigneeID).Error; err != nil {
		return nil, fmt.Errorf("指派工单失败: %w", err)
	}
	ticket.AssignedTo = assigneeID

	if err := l.notifier.NotifyTicketAssigned(ctx, actor, ticket); err != nil {
		logger.Error("Failed to notify assignee of ticket %s: %v", ticket.ID, err)
	}
	return ticket, nil
}

func sameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdateStatus 修改工单状态；归档时记录归档时间并撤销该工单的指派通知
func (l *TicketLogic) UpdateStatus(ctx context.Context, actor ActingUser, ticketID uuid.UUID, status model.TicketStatus) (*model.Ticket, error) {
	if !status.Valid() {
		return nil, invalid("Status must be open, in_progress, or archived")
	}

	ticket, err := l.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	from := ticket.Status
	if from == status {
		return ticket, nil
	}

	var archivedAt *time.Time
	if status == model.TicketArchived {
		now := l.now().UTC()
		archivedAt = &now
	}
	updates := map[string]interface{}{
		"status":      status,
		"archived_at": archivedAt,
	}
	if err := l.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", ticket.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新工单状态失败: %w", err)
	}
	ticket.Status = status
	ticket.ArchivedAt = archivedAt

	if status == model.TicketArchived {
		if err := l.notifier.NotifyTicketArchived(ctx, actor, ticket); err != nil {
			logger.Error("Failed to notify archival of ticket %s: %v", ticket.ID, err)
		}
		if _, err := l.notifier.Store().DismissForTicket(ctx, ticket.ID, model.NotifyTicketAssigned); err != nil {
			logger.Error("Failed to dismiss notifications for ticket %s: %v", ticket.ID, err)
		}
		return ticket, nil
	}

	if err := l.notifier.NotifyTicketStatusChanged(ctx, actor, ticket, from); err != nil {
		logger.Error("Failed to notify status change of ticket %s: %v", ticket.ID, err)
	}
	return ticket, nil
}

// AddComment 添加评论，final 表示结单说明
func (l *TicketLogic) AddComment(ctx context.Context, actor ActingUser, ticketID uuid.UUID, content string, final bool) (*model.TicketComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("Comment cannot be empty")
	}
	if _, err := l.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	comment := &model.TicketComment{
		TicketID:       ticketID,
		AuthorID:       actor.ID(),
		Content:        content,
		IsFinalComment: final,
	}
	if err := l.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("添加评论失败: %w", err)
	}
	return comment, nil
}

// Leaderboard 按时间窗口计算合伙人排行榜
func (l *TicketLogic) Leaderboard(ctx context.Context, window gamification.Window) (*gamification.Leaderboard, error) {
	if !window.Valid() {
		return nil, invalid("Window must be week, month, or all")
	}

	var partners []model.Person
	if err := l.db.WithContext(ctx).Where("role = ?", model.RolePartner).Order("name ASC").Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("获取合伙人列表失败: %w", err)
	}

	var tickets []model.Ticket
	if err := l.db.WithContext(ctx).
		Where("status = ? AND archived_at IS NOT NULL", model.TicketArchived).
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("获取已归档工单失败: %w", err)
	}

	return gamification.Build(toCompletions(tickets), toPartners(partners), window, l.now(), l.loc), nil
}

func toCompletions(tickets []model.Ticket) []gamification.Completion {
	out := make([]gamification.Completion, 0, len(tickets))
	for _, t := range tickets {
		if t.AssignedTo == nil || t.ArchivedAt == nil {
			continue
		}
		out = append(out, gamification.Completion{
			TicketID:   t.ID,
			AssigneeID: *t.AssignedTo,
			Priority:   string(t.Priority),
			CreatedAt:  t.CreatedAt,
			ArchivedAt: *t.ArchivedAt,
			DueDate:    t.DueDate,
		})
	}
	return out
}

func toPartners(people []model.Person) []gamification.Partner {
	out := make([]gamification.Partner, 0, len(people))
	for _, p := range people {
		out = append(out, gamification.Partner{ID: p.ID, Name: p.Name})
	}
	return out
}
