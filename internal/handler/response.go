package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// HandleError 把业务错误映射为 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	switch {
	case logic.IsValidation(err):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "not found")
	case errors.Is(err, logic.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	default:
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// paramID 解析路径中的 uuid
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
