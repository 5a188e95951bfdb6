package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/metrics"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvestmentInput 决定投资时填写的投资信息
type InvestmentInput struct {
	Amount       int64  `json:"amount"`
	Date         string `json:"date"` // YYYY-MM-DD
	Terms        string `json:"terms"`
	OtherFunders string `json:"other_funders"`
}

// DeliberationInput 保存讨论记录的输入
type DeliberationInput struct {
	IdeaSummary string                   `json:"idea_summary"`
	Thoughts    string                   `json:"thoughts"`
	Decision    model.Decision           `json:"decision"`
	Status      model.DeliberationStatus `json:"status"`
	MeetingDate *time.Time               `json:"meeting_date"`
	Investment  *InvestmentInput         `json:"investment"`
}

// DeliberationResult 保存结果
type DeliberationResult struct {
	Deliberation *model.Deliberation    `json:"deliberation"`
	Investment   *model.Investment      `json:"investment,omitempty"`
	Stage        model.ApplicationStage `json:"stage"`
}

// validate 决定投资时在写库前校验投资信息
func (in *DeliberationInput) validate() (time.Time, error) {
	if in.Decision == "" {
		in.Decision = model.DecisionPending
	}
	if !in.Decision.Valid() {
		return time.Time{}, invalid("Decision must be pending, maybe, yes, or no")
	}
	if in.Decision != model.DecisionYes {
		return time.Time{}, nil
	}

	inv := in.Investment
	if inv == nil || inv.Amount <= 0 {
		return time.Time{}, invalid("Please enter a valid investment amount")
	}
	if strings.TrimSpace(inv.Terms) == "" {
		return time.Time{}, invalid("Please enter the investment terms")
	}
	if strings.TrimSpace(inv.Date) == "" {
		return time.Time{}, invalid("Please enter the investment date")
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(inv.Date))
	if err != nil {
		return time.Time{}, invalid("Investment date must be formatted YYYY-MM-DD")
	}
	return date, nil
}

// SaveDeliberation 保存讨论记录并执行决定带来的状态变化。
// yes: 讨论状态置为 invested，新增投资记录，申请进入 invested；
// no: 申请进入 rejected；pending/maybe: 只保存讨论记录。
// 三步写入在同一个事务中完成。
func (l *ApplicationLogic) SaveDeliberation(ctx context.Context, actor ActingUser, applicationID uuid.UUID, in DeliberationInput) (*DeliberationResult, error) {
	if !actor.IsPartner() {
		return nil, ErrForbidden
	}
	investmentDate, err := in.validate()
	if err != nil {
		return nil, err
	}

	var (
		app          model.Application
		previous     *model.Deliberation
		deliberation model.Deliberation
		investment   *model.Investment
	)
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing model.Deliberation
		err := tx.Where("application_id = ?", applicationID).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != uuid.Nil {
			previous = &existing
		}

		status := in.Status
		switch {
		case in.Decision == model.DecisionYes:
			status = model.DeliberationInvested
		case status == "" && in.Decision == model.DecisionNo:
			status = model.DeliberationRejected
		case status == "":
			status = model.DeliberationScheduled
		}
		upsert := model.Deliberation{
			ApplicationID: applicationID,
			IdeaSummary:   in.IdeaSummary,
			Thoughts:      in.Thoughts,
			Decision:      in.Decision,
			Status:        status,
			MeetingDate:   in.MeetingDate,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "application_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"idea_summary", "thoughts", "decision", "status", "meeting_date", "updated_at"}),
		}).Create(&upsert).Error
		if err != nil {
			return fmt.Errorf("保存讨论记录失败: %w", err)
		}
		if err := tx.First(&deliberation, "application_id = ?", applicationID).Error; err != nil {
			return err
		}

		switch in.Decision {
		case model.DecisionYes:
			investment, err = l.recordInvestment(tx, actor, &app, in.Investment, investmentDate)
			if err != nil {
				return err
			}
			return setStage(tx, &app, model.StageInvested)
		case model.DecisionNo:
			return setStage(tx, &app, model.StageRejected)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("保存讨论结论失败: %w", err)
	}
	metrics.Default().IncDecision(string(in.Decision))

	l.afterDeliberationSaved(ctx, actor, &app, previous, &deliberation)

	return &DeliberationResult{
		Deliberation: &deliberation,
		Investment:   investment,
		Stage:        app.Stage,
	}, nil
}

// recordInvestment 申请已有投资记录时不重复创建
func (l *ApplicationLogic) recordInvestment(tx *gorm.DB, actor ActingUser, app *model.Application, in *InvestmentInput, date time.Time) (*model.Investment, error) {
	var count int64
	if err := tx.Model(&model.Investment{}).Where("application_id = ?", app.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		logger.Info("Application %s already has an investment record, not creating another", app.ID)
		return nil, nil
	}

	investment := &model.Investment{
		ApplicationID:  &app.ID,
		CompanyName:    app.CompanyName,
		Amount:         in.Amount,
		InvestmentDate: date,
		Terms:          strings.TrimSpace(in.Terms),
		OtherFunders:   in.OtherFunders,
		CreatedBy:      actor.ID(),
	}
	if err := tx.Create(investment).Error; err != nil {
		return nil, fmt.Errorf("创建投资记录失败: %w", err)
	}
	return investment, nil
}

func setStage(tx *gorm.DB, app *model.Application, stage model.ApplicationStage) error {
	if err := tx.Model(&model.Application{}).Where("id = ?", app.ID).Update("stage", stage).Error; err != nil {
		return fmt.Errorf("更新申请阶段失败: %w", err)
	}
	app.Stage = stage
	return nil
}

// afterDeliberationSaved 提交后的通知，失败只记日志
func (l *ApplicationLogic) afterDeliberationSaved(ctx context.Context, actor ActingUser, app *model.Application, previous, current *model.Deliberation) {
	if current.Decision.Final() {
		if previous != nil && previous.Decision == current.Decision {
			return
		}
		if _, err := l.notifier.NotifyDecision(ctx, actor, app, current.Decision); err != nil {
			logger.Error("Failed to notify decision for %s: %v", app.ID, err)
		}
		if _, err := l.notifier.Store().DismissForApplication(ctx, app.ID, model.NotifyReadyForDeliberation); err != nil {
			logger.Error("Failed to dismiss deliberation notifications for %s: %v", app.ID, err)
		}
		return
	}

	if !notesChanged(previous, current) {
		return
	}
	if _, err := l.notifier.NotifyDeliberationNotes(ctx, actor, app); err != nil {
		logger.Error("Failed to notify deliberation notes for %s: %v", app.ID, err)
	}
}

func notesChanged(previous, current *model.Deliberation) bool {
	if strings.TrimSpace(current.IdeaSummary) == "" && strings.TrimSpace(current.Thoughts) == "" {
		return false
	}
	if previous == nil {
		return true
	}
	return previous.IdeaSummary != current.IdeaSummary || previous.Thoughts != current.Thoughts
}
