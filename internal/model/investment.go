package model

import (
	"time"

	"github.com/google/uuid"
)

// Investment 投资记录，创建后独立存在
type Investment struct {
	Base

	ApplicationID  *uuid.UUID `json:"application_id,omitempty" gorm:"type:uuid;index"`
	CompanyName    string     `json:"company_name" gorm:"not null"`
	Amount         int64      `json:"amount" gorm:"not null"`
	InvestmentDate time.Time  `json:"investment_date" gorm:"not null"`
	Terms          string     `json:"terms" gorm:"type:text"`
	OtherFunders   string     `json:"other_funders"`
	CreatedBy      uuid.UUID  `json:"created_by" gorm:"type:uuid"`
}

// TableName 自定义表名
func (Investment) TableName() string {
	return "investments"
}
