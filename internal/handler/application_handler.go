package handler

import (
	"net/http"
	"strings"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationLogic *logic.ApplicationLogic
	drafter          *rejection.Drafter
}

func NewApplicationHandler(applicationLogic *logic.ApplicationLogic, drafter *rejection.Drafter) *ApplicationHandler {
	return &ApplicationHandler{
		applicationLogic: applicationLogic,
		drafter:          drafter,
	}
}

// SubmitApplication 提交申请
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	actor := actingUser(c)
	app := &model.Application{
		CompanyName:  req.CompanyName,
		FounderNames: req.FounderNames,
		FounderEmail: req.FounderEmail,
		Website:      req.Website,
		Description:  req.Description,
		SubmitterID:  actor.IDPtr(),
	}
	if err := h.applicationLogic.SubmitApplication(c.Request.Context(), app); err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": app})
}

// GetApplication 获取申请详情
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationLogic.GetApplication(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

// CastVote 初评投票
func (h *ApplicationHandler) CastVote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.applicationLogic.CastVote(c.Request.Context(), actingUser(c), id, req.Vote, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RevealVotes 公开投票
func (h *ApplicationHandler) RevealVotes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationLogic.RevealVotes(c.Request.Context(), actingUser(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

// SaveDeliberation 保存讨论记录与决定
func (h *ApplicationHandler) SaveDeliberation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SaveDeliberationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.applicationLogic.SaveDeliberation(c.Request.Context(), actingUser(c), id, logic.DeliberationInput{
		IdeaSummary: req.IdeaSummary,
		Thoughts:    req.Thoughts,
		Decision:    req.Decision,
		Status:      req.Status,
		MeetingDate: req.MeetingDate,
		Investment:  req.Investment,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListDeliberations 讨论列表
func (h *ApplicationHandler) ListDeliberations(c *gin.Context) {
	view := logic.DeliberationView(c.DefaultQuery("view", string(logic.ViewUndecided)))
	if view != logic.ViewUndecided && view != logic.ViewDecided {
		ErrorResponse(c, http.StatusBadRequest, "view must be undecided or decided")
		return
	}
	sortBy := logic.DeliberationSort(c.DefaultQuery("sort", string(logic.SortByDate)))

	apps, err := h.applicationLogic.ListDeliberations(c.Request.Context(), view, c.Query("q"), sortBy)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        len(apps),
		"view":         view,
	})
}

// RejectionEmail 拒绝邮件草稿，reason 可重复，其余查询参数用于填充模板
func (h *ApplicationHandler) RejectionEmail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationLogic.GetApplication(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	fields := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if key != "reason" && len(values) > 0 {
			fields[key] = strings.TrimSpace(values[0])
		}
	}
	email, err := h.drafter.Draft(c.Request.Context(), app, c.QueryArray("reason"), fields)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email, "reasons": rejection.Reasons()})
}
