package model

import "github.com/google/uuid"

// VoteType 投票类型，目前只有初评
type VoteType string

const VoteTypeInitial VoteType = "initial"

// VoteValue 投票取值
type VoteValue string

const (
	VoteYes   VoteValue = "yes"
	VoteMaybe VoteValue = "maybe"
	VoteNo    VoteValue = "no"
)

// Valid 是否为合法取值
func (v VoteValue) Valid() bool {
	switch v {
	case VoteYes, VoteMaybe, VoteNo:
		return true
	}
	return false
}

// Vote 合伙人对申请的投票
type Vote struct {
	Base

	ApplicationID uuid.UUID `json:"application_id" gorm:"type:uuid;not null;uniqueIndex:idx_vote_app_user_type"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_vote_app_user_type"`
	VoteType      VoteType  `json:"vote_type" gorm:"not null;default:'initial';uniqueIndex:idx_vote_app_user_type"`
	Vote          VoteValue `json:"vote" gorm:"not null"`
	Notes         string    `json:"notes" gorm:"type:text"`
}

// TableName 自定义表名
func (Vote) TableName() string {
	return "votes"
}
