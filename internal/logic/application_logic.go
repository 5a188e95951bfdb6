package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationLogic 申请生命周期：提交、投票、进入讨论、做出决定
type ApplicationLogic struct {
	db       *gorm.DB
	notifier *Notifier
	now      func() time.Time
}

// NewApplicationLogic 创建申请业务逻辑
func NewApplicationLogic(db *gorm.DB, notifier *Notifier) *ApplicationLogic {
	return &ApplicationLogic{db: db, notifier: notifier, now: time.Now}
}

// VoteResult 投票结果
type VoteResult struct {
	Vote             *model.Vote `json:"vote"`
	InitialVotes     int64       `json:"initial_votes"`
	ReachedThreshold bool        `json:"reached_threshold"`
}

// SubmitApplication 提交新申请并通知合伙人
func (l *ApplicationLogic) SubmitApplication(ctx context.Context, app *model.Application) error {
	if strings.TrimSpace(app.CompanyName) == "" {
		return invalid("Company name is required")
	}

	app.Stage = model.StagePipeline
	app.VotesRevealed = false
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = l.now()
	}

	if err := l.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("创建申请失败: %w", err)
	}

	if _, err := l.notifier.NotifyNewApplication(ctx, app); err != nil {
		logger.Error("Failed to notify partners about application %s: %v", app.ID, err)
	}
	return nil
}

// GetApplication 获取申请详情
func (l *ApplicationLogic) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := l.db.WithContext(ctx).
		Preload("Deliberation").
		Preload("Votes").
		First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("获取申请详情失败: %w", err)
	}
	return &app, nil
}

// CastVote 记录合伙人的初评票，第三票到达时通知其他合伙人
func (l *ApplicationLogic) CastVote(ctx context.Context, actor ActingUser, applicationID uuid.UUID, value model.VoteValue, notes string) (*VoteResult, error) {
	if !actor.IsPartner() {
		return nil, ErrForbidden
	}
	if !value.Valid() {
		return nil, invalid("Vote must be yes, maybe, or no")
	}

	var (
		app    model.Application
		vote   model.Vote
		before int64
		after  int64
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := countInitialVotes(tx, applicationID, &before); err != nil {
			return err
		}

		upsert := model.Vote{
			ApplicationID: applicationID,
			UserID:        actor.ID(),
			VoteType:      model.VoteTypeInitial,
			Vote:          value,
			Notes:         notes,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "application_id"}, {Name: "user_id"}, {Name: "vote_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "notes", "updated_at"}),
		}).Create(&upsert).Error
		if err != nil {
			return err
		}
		// 冲突更新时主键仍是新生成的，按唯一键重新读取
		if err := tx.First(&vote, "application_id = ? AND user_id = ? AND vote_type = ?",
			applicationID, actor.ID(), model.VoteTypeInitial).Error; err != nil {
			return err
		}

		return countInitialVotes(tx, applicationID, &after)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("保存投票失败: %w", err)
	}

	result := &VoteResult{
		Vote:             &vote,
		InitialVotes:     after,
		ReachedThreshold: before < voteThreshold && after >= voteThreshold,
	}
	if result.ReachedThreshold {
		if _, err := l.notifier.NotifyReadyForDeliberation(ctx, actor, &app); err != nil {
			logger.Error("Failed to notify vote threshold for %s: %v", app.ID, err)
		}
	}
	return result, nil
}

func countInitialVotes(tx *gorm.DB, applicationID uuid.UUID, out *int64) error {
	return tx.Model(&model.Vote{}).
		Where("application_id = ? AND vote_type = ?", applicationID, model.VoteTypeInitial).
		Count(out).Error
}

// RevealVotes 公开投票并把申请推进到讨论阶段
func (l *ApplicationLogic) RevealVotes(ctx context.Context, actor ActingUser, applicationID uuid.UUID) (*model.Application, error) {
	if !actor.IsPartner() {
		return nil, ErrForbidden
	}

	app, err := l.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"votes_revealed": true}
	if app.Stage == model.StagePipeline {
		updates["stage"] = model.StageDeliberation
	}
	if err := l.db.WithContext(ctx).Model(&model.Application{}).Where("id = ?", app.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("公开投票失败: %w", err)
	}

	app.VotesRevealed = true
	if stage, ok := updates["stage"]; ok {
		app.Stage = stage.(model.ApplicationStage)
	}
	return app, nil
}

// DeliberationView 讨论列表视图
type DeliberationView string

const (
	ViewUndecided DeliberationView = "undecided"
	ViewDecided   DeliberationView = "decided"
)

// DeliberationSort 已决定列表的排序字段
type DeliberationSort string

const (
	SortByDate     DeliberationSort = "date"
	SortByName     DeliberationSort = "name"
	SortByDecision DeliberationSort = "decision"
)

// ListDeliberations 按视图列出进入讨论阶段的申请
func (l *ApplicationLogic) ListDeliberations(ctx context.Context, view DeliberationView, search string, sortBy DeliberationSort) ([]model.Application, error) {
	var apps []model.Application
	err := l.db.WithContext(ctx).
		Preload("Deliberation").
		Where("stage <> ?", model.StagePipeline).
		Order("submitted_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("获取讨论列表失败: %w", err)
	}

	if view == ViewUndecided {
		return filterApplications(apps, func(a *model.Application) bool { return !isDecided(a) }), nil
	}

	search = strings.ToLower(strings.TrimSpace(search))
	decided := filterApplications(apps, func(a *model.Application) bool {
		return isDecided(a) && (search == "" || strings.Contains(strings.ToLower(a.CompanyName), search))
	})
	sortDecided(decided, sortBy)
	return decided, nil
}

func isDecided(a *model.Application) bool {
	return a.Deliberation != nil && a.Deliberation.Decision.Final()
}

func filterApplications(apps []model.Application, keep func(*model.Application) bool) []model.Application {
	out := make([]model.Application, 0, len(apps))
	for i := range apps {
		if keep(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out
}

// decisionDate 有会议日期时取会议日期，否则取提交时间
func decisionDate(a *model.Application) time.Time {
	if a.Deliberation != nil && a.Deliberation.MeetingDate != nil {
		return *a.Deliberation.MeetingDate
	}
	return a.SubmittedAt
}

func sortDecided(apps []model.Application, sortBy DeliberationSort) {
	switch sortBy {
	case SortByName:
		sort.SliceStable(apps, func(i, j int) bool {
			return strings.ToLower(apps[i].CompanyName) < strings.ToLower(apps[j].CompanyName)
		})
	case SortByDecision:
		// yes 排在 no 前面
		sort.SliceStable(apps, func(i, j int) bool {
			return apps[i].Deliberation.Decision == model.DecisionYes &&
				apps[j].Deliberation.Decision != model.DecisionYes
		})
	default:
		sort.SliceStable(apps, func(i, j int) bool {
			return decisionDate(&apps[i]).After(decisionDate(&apps[j]))
		})
	}
}
