package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/sms"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SMSPreferences 短信偏好
type SMSPreferences struct {
	Enabled     bool     `json:"enabled"`
	Types       []string `json:"types"`
	MobilePhone string   `json:"mobile_phone"`
}

// PersonLogic 人员档案逻辑
type PersonLogic struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewPersonLogic 创建人员档案逻辑
func NewPersonLogic(db *gorm.DB, notifier *Notifier) *PersonLogic {
	return &PersonLogic{db: db, notifier: notifier}
}

func (l *PersonLogic) get(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.Person, error) {
	var person model.Person
	if err := db.WithContext(ctx).First(&person, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("获取人员失败: %w", err)
	}
	return &person, nil
}

// GetPerson 获取档案
func (l *PersonLogic) GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	return l.get(ctx, l.db, id)
}

// ClaimProfile 将档案绑定到登录账号并通知合伙人
func (l *PersonLogic) ClaimProfile(ctx context.Context, personID, authUserID uuid.UUID) (*model.Person, error) {
	if authUserID == uuid.Nil {
		return nil, invalid("auth user id is required")
	}

	var (
		person  *model.Person
		claimed bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := l.get(ctx, tx, personID)
		if err != nil {
			return err
		}
		if p.AuthUserID != nil {
			if *p.AuthUserID == authUserID {
				person, claimed = p, true
				return nil
			}
			return invalid("This profile has already been claimed")
		}

		var taken int64
		if err := tx.Model(&model.Person{}).Where("auth_user_id = ?", authUserID).Count(&taken).Error; err != nil {
			return fmt.Errorf("检查账号绑定失败: %w", err)
		}
		if taken > 0 {
			return invalid("This account has already claimed a profile")
		}

		if err := tx.Model(&model.Person{}).Where("id = ?", p.ID).Update("auth_user_id", authUserID).Error; err != nil {
			return fmt.Errorf("认领档案失败: %w", err)
		}
		p.AuthUserID = &authUserID
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed {
		return person, nil
	}

	if _, err := l.notifier.NotifyProfileClaimed(ctx, person); err != nil {
		logger.Error("Failed to notify partners of claimed profile %s: %v", person.ID, err)
	}
	return person, nil
}

// UpdateSMSPreferences 更新短信偏好，只允许本人或合伙人修改
func (l *PersonLogic) UpdateSMSPreferences(ctx context.Context, actor ActingUser, personID uuid.UUID, prefs SMSPreferences) (*model.Person, error) {
	if actor.ID() != personID && !actor.IsPartner() {
		return nil, ErrForbidden
	}

	types := make([]string, 0, len(prefs.Types))
	for _, t := range prefs.Types {
		nt := model.NotificationType(t)
		if !sms.IsEligible(nt) {
			return nil, invalid(fmt.Sprintf("SMS is not available for %q notifications", t))
		}
		types = append(types, t)
	}
	phone := strings.TrimSpace(prefs.MobilePhone)
	if prefs.Enabled && phone == "" {
		return nil, invalid("A mobile phone number is required to enable SMS")
	}

	person, err := l.get(ctx, l.db, personID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"sms_notifications_enabled": prefs.Enabled,
		"sms_notification_types":    datatypes.JSONSlice[string](types),
		"mobile_phone":              phone,
	}
	if phone != person.MobilePhone {
		updates["phone_verified"] = false
	}
	if err := l.db.WithContext(ctx).Model(&model.Person{}).Where("id = ?", personID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新短信偏好失败: %w", err)
	}

	return l.get(ctx, l.db, personID)
}
