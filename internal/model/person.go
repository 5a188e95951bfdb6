package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PersonRole 人员角色
type PersonRole string

const (
	RolePartner     PersonRole = "partner"
	RoleFounder     PersonRole = "founder"
	RoleAdvisor     PersonRole = "advisor"
	RoleEmployee    PersonRole = "employee"
	RoleBoardMember PersonRole = "board_member"
	RoleInvestor    PersonRole = "investor"
	RoleContact     PersonRole = "contact"
)

// Person 人员档案，含短信偏好
type Person struct {
	Base

	Name       string     `json:"name" gorm:"not null"`
	Email      string     `json:"email" gorm:"index"`
	Role       PersonRole `json:"role" gorm:"not null;default:'contact';index"`
	AuthUserID *uuid.UUID `json:"auth_user_id,omitempty" gorm:"type:uuid;uniqueIndex"`

	SMSNotificationsEnabled bool                        `json:"sms_notifications_enabled" gorm:"column:sms_notifications_enabled;default:false"`
	SMSNotificationTypes    datatypes.JSONSlice[string] `json:"sms_notification_types" gorm:"column:sms_notification_types"`
	MobilePhone             string                      `json:"mobile_phone"`
	PhoneVerified           bool                        `json:"phone_verified" gorm:"default:false"`
}

// TableName 自定义表名
func (Person) TableName() string {
	return "people"
}

// WantsSMS 收件人是否开启了该类型的短信
func (p *Person) WantsSMS(t NotificationType) bool {
	if !p.SMSNotificationsEnabled || p.MobilePhone == "" {
		return false
	}
	for _, enabled := range p.SMSNotificationTypes {
		if enabled == string(t) {
			return true
		}
	}
	return false
}
