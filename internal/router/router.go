package router

import (
	"net/http"
	"time"

	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/handler"
	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/blues/fundcrm/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services 路由依赖的业务组件
type Services struct {
	Notifier *logic.Notifier
	Reports  *report.Generator
	Drafter  *rejection.Drafter
	Location *time.Location
	Gatherer prometheus.Gatherer
}

func Setup(db *gorm.DB, cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "fundcrm",
		})
	})
	if svc.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	// 前端据此决定是否启用短信设置与协同编辑
	api.GET("/features", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sms":           cfg.SMS.Enabled(),
			"llm":           cfg.LLM.APIKey != "",
			"collaboration": cfg.Collab.SecretKey != "",
		})
	})

	// 定时任务与服务端调用，先校验密钥再做任何事
	reportHandler := handler.NewReportHandler(svc.Reports)
	api.POST("/reports", handler.BearerAuth(cfg.Auth.CronSecret), reportHandler.Trigger)
	api.GET("/reports", handler.BearerAuth(cfg.Auth.ServiceRoleKey), reportHandler.BackfillAll)

	authed := api.Group("", handler.ActingUserMiddleware(db))
	{
		applicationHandler := handler.NewApplicationHandler(logic.NewApplicationLogic(db, svc.Notifier), svc.Drafter)
		applications := authed.Group("/applications")
		{
			applications.POST("", applicationHandler.SubmitApplication)
			applications.GET("/deliberations", applicationHandler.ListDeliberations)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.POST("/:id/votes", applicationHandler.CastVote)
			applications.POST("/:id/reveal", applicationHandler.RevealVotes)
			applications.PUT("/:id/deliberation", applicationHandler.SaveDeliberation)
			applications.GET("/:id/rejection-email", applicationHandler.RejectionEmail)
		}

		ticketHandler := handler.NewTicketHandler(logic.NewTicketLogic(db, svc.Notifier, svc.Location))
		tickets := authed.Group("/tickets")
		{
			tickets.POST("", ticketHandler.CreateTicket)
			tickets.GET("/leaderboard", ticketHandler.Leaderboard)
			tickets.GET("/:id", ticketHandler.GetTicket)
			tickets.PUT("/:id/assign", ticketHandler.AssignTicket)
			tickets.PUT("/:id/status", ticketHandler.UpdateStatus)
			tickets.POST("/:id/comments", ticketHandler.AddComment)
		}

		forumHandler := handler.NewForumHandler(logic.NewForumLogic(db, svc.Notifier))
		forum := authed.Group("/forum")
		{
			forum.POST("/posts", forumHandler.CreatePost)
			forum.POST("/notify", forumHandler.Notify)
		}

		personHandler := handler.NewPersonHandler(logic.NewPersonLogic(db, svc.Notifier))
		people := authed.Group("/people")
		{
			people.POST("/:id/claim", personHandler.ClaimProfile)
			people.PUT("/:id/sms-preferences", personHandler.UpdateSMSPreferences)
		}

		notificationHandler := handler.NewNotificationHandler(svc.Notifier.Store())
		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/dismiss-all", notificationHandler.DismissAll)
			notifications.POST("/:id/dismiss", notificationHandler.Dismiss)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-User-Id, X-Impersonate-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
