package model

import "github.com/google/uuid"

// ForumPost 社区帖子
type ForumPost struct {
	Base

	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Title    string    `json:"title"`
	Content  string    `json:"content" gorm:"type:text"`
}

// TableName 自定义表名
func (ForumPost) TableName() string {
	return "forum_posts"
}
