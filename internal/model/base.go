package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base 公共字段，主键与托管库一致使用 uuid
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate 生成主键
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All 需要自动迁移的模型
func All() []interface{} {
	return []interface{}{
		&Person{},
		&Application{},
		&Vote{},
		&Deliberation{},
		&Investment{},
		&Ticket{},
		&TicketComment{},
		&Notification{},
		&ForumPost{},
		&TicketReport{},
	}
}
