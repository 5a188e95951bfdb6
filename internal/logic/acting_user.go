package logic

import (
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
)

// ActingUser 当前请求的操作者，RealID 为登录用户，EffectiveID 为模拟身份
type ActingUser struct {
	RealID      uuid.UUID
	EffectiveID uuid.UUID
	Role        model.PersonRole
}

// ID 业务上使用的操作者
func (a ActingUser) ID() uuid.UUID {
	if a.EffectiveID != uuid.Nil {
		return a.EffectiveID
	}
	return a.RealID
}

// IDPtr 用于通知的 actor 字段
func (a ActingUser) IDPtr() *uuid.UUID {
	id := a.ID()
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// Impersonating 是否正在以他人身份操作
func (a ActingUser) Impersonating() bool {
	return a.EffectiveID != uuid.Nil && a.EffectiveID != a.RealID
}

// IsPartner 是否为合伙人
func (a ActingUser) IsPartner() bool {
	return a.Role == model.RolePartner
}
