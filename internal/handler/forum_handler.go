package handler

import (
	"net/http"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ForumHandler struct {
	forumLogic *logic.ForumLogic
}

func NewForumHandler(forumLogic *logic.ForumLogic) *ForumHandler {
	return &ForumHandler{forumLogic: forumLogic}
}

// Notify 发帖或回复后的提及/回复通知，actorId 可省略，提供时必须是当前操作者
func (h *ForumHandler) Notify(c *gin.Context) {
	var req ForumNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Type != logic.ForumMention && req.Type != logic.ForumReply {
		ErrorResponse(c, http.StatusBadRequest, "Invalid notification type")
		return
	}

	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "postId is required")
		return
	}
	actor := actingUser(c)
	if req.ActorID != "" {
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid actorId")
			return
		}
		if actorID != actor.ID() {
			ErrorResponse(c, http.StatusForbidden, "actorId does not match the acting user")
			return
		}
	}
	mentioned := make([]uuid.UUID, 0, len(req.MentionedIDs))
	for _, raw := range req.MentionedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid mentionedIds entry: "+raw)
			return
		}
		mentioned = append(mentioned, id)
	}

	count, err := h.forumLogic.Notify(c.Request.Context(), actor, req.Type, postID, mentioned)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notified": count > 0,
		"type":     req.Type,
		"count":    count,
	})
}

// CreatePost 发帖
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req struct {
		Title        string      `json:"title" binding:"required"`
		Content      string      `json:"content"`
		MentionedIDs []uuid.UUID `json:"mentionedIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	post := &model.ForumPost{Title: req.Title, Content: req.Content}
	count, err := h.forumLogic.CreatePost(c.Request.Context(), actingUser(c), post, req.MentionedIDs)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "notified": count})
}
