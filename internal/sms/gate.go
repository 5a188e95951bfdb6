package sms

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/metrics"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxLength 单条短信最大字符数（含组织前缀）
const MaxLength = 160

// Provider 短信服务商
type Provider interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Outcome 一次门控的结果
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeIneligible  Outcome = "ineligible"
	OutcomeDisabled    Outcome = "disabled"
	OutcomeNoRecipient Outcome = "no_recipient"
	OutcomeOptedOut    Outcome = "opted_out"
	OutcomeFailed      Outcome = "failed"
)

// 允许同时发送短信的通知类型
var eligibleTypes = map[model.NotificationType]struct{}{
	model.NotifyNewApplication:       {},
	model.NotifyReadyForDeliberation: {},
	model.NotifyDecisionMade:         {},
	model.NotifyTicketAssigned:       {},
	model.NotifyTicketArchived:       {},
	model.NotifyForumMention:         {},
}

// IsEligible 该通知类型是否允许短信
func IsEligible(t model.NotificationType) bool {
	_, ok := eligibleTypes[t]
	return ok
}

// Gate 按收件人偏好决定是否补发短信
type Gate struct {
	db       *gorm.DB
	provider Provider
	orgName  string
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewGate 创建短信门控，provider 为 nil 时所有发送都是空操作
func NewGate(db *gorm.DB, provider Provider, orgName string, timeout time.Duration) *Gate {
	return &Gate{
		db:       db,
		provider: provider,
		orgName:  orgName,
		timeout:  timeout,
		metrics:  metrics.Default(),
	}
}

// Enabled 是否配置了短信服务商
func (g *Gate) Enabled() bool {
	return g != nil && g.provider != nil
}

// MaybeSend 尝试发送短信，失败只记录日志，不向调用方返回错误
func (g *Gate) MaybeSend(ctx context.Context, recipientID uuid.UUID, t model.NotificationType, title, message string) Outcome {
	outcome := g.maybeSend(ctx, recipientID, t, title, message)
	g.metrics.IncSMS(string(t), string(outcome))
	return outcome
}

func (g *Gate) maybeSend(ctx context.Context, recipientID uuid.UUID, t model.NotificationType, title, message string) Outcome {
	if !IsEligible(t) {
		return OutcomeIneligible
	}
	if !g.Enabled() {
		return OutcomeDisabled
	}

	var recipient model.Person
	err := g.db.WithContext(ctx).
		Select("id", "mobile_phone", "sms_notifications_enabled", "sms_notification_types").
		First(&recipient, "id = ?", recipientID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to load SMS preferences for %s: %v", recipientID, err)
		}
		return OutcomeNoRecipient
	}

	if !recipient.WantsSMS(t) {
		return OutcomeOptedOut
	}

	sendCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	sid, err := g.provider.Send(sendCtx, recipient.MobilePhone, FormatMessage(g.orgName, title, message))
	if err != nil {
		logger.Error("Failed to send %s SMS to %s: %v", t, recipientID, err)
		return OutcomeFailed
	}

	logger.Debug("Sent %s SMS to %s, sid %s", t, recipientID, sid)
	return OutcomeSent
}

// FormatMessage 拼装 "<Org>: <title>[ - <message>]"，总长不超过 MaxLength
func FormatMessage(orgName, title, message string) string {
	prefix := orgName + ": "
	body := title
	if message != "" {
		body += " - " + message
	}

	// 组织名过长时前缀本身也会被截断
	full := prefix + body
	if utf8.RuneCountInString(full) > MaxLength {
		runes := []rune(full)
		full = string(runes[:MaxLength-3]) + "..."
	}
	return full
}
