package handler

import (
	"net/http"
	"time"

	"github.com/blues/fundcrm/internal/report"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	generator *report.Generator
	now       func() time.Time
}

func NewReportHandler(generator *report.Generator) *ReportHandler {
	return &ReportHandler{generator: generator, now: time.Now}
}

// Trigger 定时触发：默认生成日报（周日加周报），backfill 为 true 时补齐历史，带 backfillDate 时只补那一天
func (h *ReportHandler) Trigger(c *gin.Context) {
	var req ReportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	switch {
	case req.BackfillDate != "":
		day, err := time.ParseInLocation("2006-01-02", req.BackfillDate, h.generator.Location())
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "backfillDate must be formatted YYYY-MM-DD")
			return
		}
		c.JSON(http.StatusOK, gin.H{"mode": "backfill_date", "result": h.generator.BackfillDate(ctx, day)})
	case req.Backfill:
		h.backfill(c)
	default:
		c.JSON(http.StatusOK, gin.H{"mode": "scheduled", "results": h.generator.Cron(ctx, h.now())})
	}
}

// BackfillAll 补齐全部历史报告
func (h *ReportHandler) BackfillAll(c *gin.Context) {
	h.backfill(c)
}

func (h *ReportHandler) backfill(c *gin.Context) {
	result, err := h.generator.Backfill(c.Request.Context(), h.now())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":   "backfill",
		"saved":  result.Saved(),
		"result": result,
	})
}
