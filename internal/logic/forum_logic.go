package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForumEvent 社区通知类型
type ForumEvent string

const (
	ForumMention ForumEvent = "mention"
	ForumReply   ForumEvent = "reply"
)

// ForumLogic 社区通知
type ForumLogic struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewForumLogic 创建社区通知逻辑
func NewForumLogic(db *gorm.DB, notifier *Notifier) *ForumLogic {
	return &ForumLogic{db: db, notifier: notifier}
}

// CreatePost 发帖并通知被提及的人
func (l *ForumLogic) CreatePost(ctx context.Context, actor ActingUser, post *model.ForumPost, mentionedIDs []uuid.UUID) (int, error) {
	if post.Title == "" {
		return 0, invalid("Post title is required")
	}
	post.AuthorID = actor.ID()
	if err := l.db.WithContext(ctx).Create(post).Error; err != nil {
		return 0, fmt.Errorf("创建帖子失败: %w", err)
	}
	return l.notifier.NotifyForumMention(ctx, actor, post, mentionedIDs)
}

// Notify 按事件类型为帖子发送提及或回复通知，返回通知条数
func (l *ForumLogic) Notify(ctx context.Context, actor ActingUser, event ForumEvent, postID uuid.UUID, mentionedIDs []uuid.UUID) (int, error) {
	if event != ForumMention && event != ForumReply {
		return 0, invalid("Invalid notification type")
	}
	if actor.ID() == uuid.Nil {
		return 0, invalid("actorId is required")
	}

	var post model.ForumPost
	if err := l.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("获取帖子失败: %w", err)
	}

	if event == ForumReply {
		return l.notifier.NotifyForumReply(ctx, actor, &post, mentionedIDs)
	}
	return l.notifier.NotifyForumMention(ctx, actor, &post, mentionedIDs)
}
