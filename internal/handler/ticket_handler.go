package handler

import (
	"net/http"

	"github.com/blues/fundcrm/internal/gamification"
	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type TicketHandler struct {
	ticketLogic *logic.TicketLogic
}

func NewTicketHandler(ticketLogic *logic.TicketLogic) *TicketHandler {
	return &TicketHandler{ticketLogic: ticketLogic}
}

// CreateTicket 创建工单
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket := &model.Ticket{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		DueDate:       req.DueDate,
		Tags:          datatypes.JSONSlice[string](req.Tags),
		ApplicationID: req.ApplicationID,
	}
	if err := h.ticketLogic.CreateTicket(c.Request.Context(), actingUser(c), ticket); err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// GetTicket 获取工单
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketLogic.GetTicket(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// AssignTicket 指派工单
func (h *TicketHandler) AssignTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.ticketLogic.AssignTicket(c.Request.Context(), actingUser(c), id, req.AssignedTo)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// UpdateStatus 修改工单状态
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.ticketLogic.UpdateStatus(c.Request.Context(), actingUser(c), id, req.Status)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// AddComment 添加评论
func (h *TicketHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.ticketLogic.AddComment(c.Request.Context(), actingUser(c), id, req.Content, req.IsFinalComment)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// Leaderboard 工单排行榜
func (h *TicketHandler) Leaderboard(c *gin.Context) {
	window := gamification.Window(c.DefaultQuery("window", string(gamification.WindowWeek)))
	board, err := h.ticketLogic.Leaderboard(c.Request.Context(), window)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
