package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/metrics"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/sms"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// voteThreshold 进入讨论所需的初评票数
const voteThreshold = 3

// SMSGate 短信门控
type SMSGate interface {
	MaybeSend(ctx context.Context, recipientID uuid.UUID, t model.NotificationType, title, message string) sms.Outcome
}

// Notifier 通知分发：计算收件人、排除操作者、写入通知并补发短信
type Notifier struct {
	db      *gorm.DB
	store   *NotificationLogic
	gate    SMSGate
	pool    *ants.Pool
	pending sync.WaitGroup
	metrics *metrics.Metrics
}

// NewNotifier 创建通知分发器，短信在大小为 poolSize 的协程池中发送
func NewNotifier(db *gorm.DB, gate SMSGate, poolSize int) (*Notifier, error) {
	if poolSize <= 0 {
		poolSize = 16
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sms pool: %w", err)
	}

	return &Notifier{
		db:      db,
		store:   NewNotificationLogic(db),
		gate:    gate,
		pool:    pool,
		metrics: metrics.Default(),
	}, nil
}

// Store 底层通知存储
func (n *Notifier) Store() *NotificationLogic {
	return n.store
}

// Drain 等待异步短信发送完成
func (n *Notifier) Drain() {
	n.pending.Wait()
}

// Close 等待在途短信后释放协程池
func (n *Notifier) Close() {
	n.Drain()
	if err := n.pool.ReleaseTimeout(5 * time.Second); err != nil {
		logger.Warn("SMS pool release timed out: %v", err)
	}
}

// CreateNotification 写入一条通知，成功后异步尝试短信
func (n *Notifier) CreateNotification(ctx context.Context, recipientID uuid.UUID, in NotificationInput) error {
	row, err := n.store.Create(ctx, recipientID, in)
	if err != nil {
		return err
	}
	n.metrics.AddNotifications(string(in.Type), 1)

	if n.gate == nil {
		return nil
	}

	n.pending.Add(1)
	sendCtx := context.WithoutCancel(ctx)
	err = n.pool.Submit(func() {
		defer n.pending.Done()
		n.gate.MaybeSend(sendCtx, row.RecipientID, in.Type, in.Title, in.Message)
	})
	if err != nil {
		n.pending.Done()
		logger.Error("Failed to schedule SMS for notification %s: %v", row.ID, err)
	}
	return nil
}

// CreateNotificationForMany 批量通知，排除操作者；收件人为空时直接成功
func (n *Notifier) CreateNotificationForMany(ctx context.Context, recipientIDs []uuid.UUID, excludeActorID *uuid.UUID, in NotificationInput) (int, error) {
	recipients := filterRecipients(recipientIDs, excludeActorID)
	if len(recipients) == 0 {
		return 0, nil
	}

	rows, err := n.store.CreateBatch(ctx, recipients, in)
	if err != nil {
		return 0, err
	}
	n.metrics.AddNotifications(string(in.Type), len(rows))

	if n.gate != nil {
		n.sendAll(ctx, recipients, in)
	}
	return len(rows), nil
}

// sendAll 并发补发短信并等待全部结束，单条失败互不影响
func (n *Notifier) sendAll(ctx context.Context, recipients []uuid.UUID, in NotificationInput) {
	var wg sync.WaitGroup
	sendCtx := context.WithoutCancel(ctx)

	for _, id := range recipients {
		recipientID := id
		wg.Add(1)
		if err := n.pool.Submit(func() {
			defer wg.Done()
			n.gate.MaybeSend(sendCtx, recipientID, in.Type, in.Title, in.Message)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to schedule SMS for %s: %v", recipientID, err)
		}
	}

	wg.Wait()
}

// filterRecipients 去重并去掉操作者，保持原有顺序
func filterRecipients(ids []uuid.UUID, exclude *uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if exclude != nil && id == *exclude {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// partnerIDs 所有合伙人
func (n *Notifier) partnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := n.db.WithContext(ctx).Model(&model.Person{}).
		Where("role = ?", model.RolePartner).
		Order("name ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("获取合伙人列表失败: %w", err)
	}
	return ids, nil
}

// voterIDs 对申请投过初评票的人
func (n *Notifier) voterIDs(ctx context.Context, applicationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := n.db.WithContext(ctx).Model(&model.Vote{}).
		Where("application_id = ? AND vote_type = ?", applicationID, model.VoteTypeInitial).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("获取投票人失败: %w", err)
	}
	return ids, nil
}

func applicationLink(app *model.Application) string {
	return "/deliberation/" + app.ID.String()
}

func ticketLink(ticket *model.Ticket) string {
	return "/tickets?id=" + ticket.ID.String()
}

// NotifyNewApplication 新申请通知所有合伙人
func (n *Notifier) NotifyNewApplication(ctx context.Context, app *model.Application) (int, error) {
	partners, err := n.partnerIDs(ctx)
	if err != nil {
		return 0, err
	}

	message := app.Description
	if app.FounderNames != "" {
		message = "Founders: " + app.FounderNames
	}
	return n.CreateNotificationForMany(ctx, partners, nil, NotificationInput{
		Type:          model.NotifyNewApplication,
		Title:         "New application: " + app.CompanyName,
		Message:       message,
		Link:          "/pipeline",
		ApplicationID: &app.ID,
	})
}

// NotifyReadyForDeliberation 初评票数达到阈值，通知除操作者外的合伙人
func (n *Notifier) NotifyReadyForDeliberation(ctx context.Context, actor ActingUser, app *model.Application) (int, error) {
	partners, err := n.partnerIDs(ctx)
	if err != nil {
		return 0, err
	}
	return n.CreateNotificationForMany(ctx, partners, actor.IDPtr(), NotificationInput{
		Type:          model.NotifyReadyForDeliberation,
		Title:         app.CompanyName + " is ready for deliberation",
		Message:       fmt.Sprintf("All %d initial votes are in", voteThreshold),
		Link:          "/pipeline",
		ActorID:       actor.IDPtr(),
		ApplicationID: &app.ID,
	})
}

// NotifyDeliberationNotes 新的讨论记录，通知投票人
func (n *Notifier) NotifyDeliberationNotes(ctx context.Context, actor ActingUser, app *model.Application) (int, error) {
	voters, err := n.voterIDs(ctx, app.ID)
	if err != nil {
		return 0, err
	}
	return n.CreateNotificationForMany(ctx, voters, actor.IDPtr(), NotificationInput{
		Type:          model.NotifyDeliberationNotes,
		Title:         "New deliberation notes: " + app.CompanyName,
		Link:          applicationLink(app),
		ActorID:       actor.IDPtr(),
		ApplicationID: &app.ID,
	})
}

// NotifyDecision 投/不投决定，通知投票人
func (n *Notifier) NotifyDecision(ctx context.Context, actor ActingUser, app *model.Application, decision model.Decision) (int, error) {
	voters, err := n.voterIDs(ctx, app.ID)
	if err != nil {
		return 0, err
	}

	message := "Passed on " + app.CompanyName
	if decision == model.DecisionYes {
		message = "Invested in " + app.CompanyName
	}
	return n.CreateNotificationForMany(ctx, voters, actor.IDPtr(), NotificationInput{
		Type:          model.NotifyDecisionMade,
		Title:         "Decision made: " + app.CompanyName,
		Message:       message,
		Link:          applicationLink(app),
		ActorID:       actor.IDPtr(),
		ApplicationID: &app.ID,
	})
}

// NotifyTicketAssigned 通知被指派人，自己指派给自己时不通知
func (n *Notifier) NotifyTicketAssigned(ctx context.Context, actor ActingUser, ticket *model.Ticket) error {
	if ticket.AssignedTo == nil || *ticket.AssignedTo == actor.ID() {
		return nil
	}

	message := "Priority: " + string(ticket.Priority)
	if ticket.DueDate != nil {
		message += ", due " + ticket.DueDate.Format("Jan 2")
	}
	return n.CreateNotification(ctx, *ticket.AssignedTo, NotificationInput{
		Type:     model.NotifyTicketAssigned,
		Title:    "Ticket assigned: " + ticket.Title,
		Message:  message,
		Link:     ticketLink(ticket),
		ActorID:  actor.IDPtr(),
		TicketID: &ticket.ID,
	})
}

// NotifyTicketArchived 通知工单创建人，本人归档时不通知
func (n *Notifier) NotifyTicketArchived(ctx context.Context, actor ActingUser, ticket *model.Ticket) error {
	if ticket.CreatedBy == actor.ID() {
		return nil
	}
	return n.CreateNotification(ctx, ticket.CreatedBy, NotificationInput{
		Type:     model.NotifyTicketArchived,
		Title:    "Ticket completed: " + ticket.Title,
		Link:     ticketLink(ticket),
		ActorID:  actor.IDPtr(),
		TicketID: &ticket.ID,
	})
}

// NotifyTicketStatusChanged 通知工单创建人，本人修改时不通知
func (n *Notifier) NotifyTicketStatusChanged(ctx context.Context, actor ActingUser, ticket *model.Ticket, from model.TicketStatus) error {
	if ticket.CreatedBy == actor.ID() {
		return nil
	}
	return n.CreateNotification(ctx, ticket.CreatedBy, NotificationInput{
		Type:     model.NotifyTicketStatusChanged,
		Title:    "Ticket updated: " + ticket.Title,
		Message:  fmt.Sprintf("Status changed from %s to %s", from, ticket.Status),
		Link:     ticketLink(ticket),
		ActorID:  actor.IDPtr(),
		TicketID: &ticket.ID,
	})
}

// NotifyProfileClaimed 有人认领了档案，通知所有合伙人，认领者本人是合伙人时也会收到
func (n *Notifier) NotifyProfileClaimed(ctx context.Context, person *model.Person) (int, error) {
	partners, err := n.partnerIDs(ctx)
	if err != nil {
		return 0, err
	}
	return n.CreateNotificationForMany(ctx, partners, nil, NotificationInput{
		Type:    model.NotifyProfileClaimed,
		Title:   person.Name + " claimed their profile",
		Message: "Role: " + string(person.Role),
		Link:    "/people/" + person.ID.String(),
		ActorID: &person.ID,
	})
}

// NotifyForumMention 通知被提及的人，排除操作者
func (n *Notifier) NotifyForumMention(ctx context.Context, actor ActingUser, post *model.ForumPost, mentionedIDs []uuid.UUID) (int, error) {
	return n.CreateNotificationForMany(ctx, mentionedIDs, actor.IDPtr(), NotificationInput{
		Type:    model.NotifyForumMention,
		Title:   "You were mentioned in a post",
		Message: post.Title,
		Link:    "/forum/" + post.ID.String(),
		ActorID: actor.IDPtr(),
	})
}

// NotifyForumReply 通知帖子作者，并通知回复中新提及的人
func (n *Notifier) NotifyForumReply(ctx context.Context, actor ActingUser, post *model.ForumPost, mentionedIDs []uuid.UUID) (int, error) {
	count := 0
	if post.AuthorID != actor.ID() {
		err := n.CreateNotification(ctx, post.AuthorID, NotificationInput{
			Type:    model.NotifyForumReply,
			Title:   "New reply to your post",
			Message: post.Title,
			Link:    "/forum/" + post.ID.String(),
			ActorID: actor.IDPtr(),
		})
		if err != nil {
			return 0, err
		}
		count++
	}

	// 作者已经收到回复通知，不再重复提及
	mentioned := filterRecipients(mentionedIDs, &post.AuthorID)
	sent, err := n.NotifyForumMention(ctx, actor, post, mentioned)
	return count + sent, err
}
