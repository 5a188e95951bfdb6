package handler

import (
	"net/http"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/gin-gonic/gin"
)

type PersonHandler struct {
	personLogic *logic.PersonLogic
}

func NewPersonHandler(personLogic *logic.PersonLogic) *PersonHandler {
	return &PersonHandler{personLogic: personLogic}
}

// ClaimProfile 认领档案
func (h *PersonHandler) ClaimProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ClaimProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	person, err := h.personLogic.ClaimProfile(c.Request.Context(), id, req.AuthUserID)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"person": person})
}

// UpdateSMSPreferences 更新短信偏好
func (h *PersonHandler) UpdateSMSPreferences(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req logic.SMSPreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	person, err := h.personLogic.UpdateSMSPreferences(c.Request.Context(), actingUser(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"person": person})
}
