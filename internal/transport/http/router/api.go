package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bizmatch/internal/core/auth"
	"bizmatch/internal/domain"
	"bizmatch/internal/service"
	"bizmatch/internal/suggest"
	mdw "bizmatch/internal/transport/http/middleware"
)

// Deps API 引擎依赖
type Deps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Users   *service.UserService
	Conns   *service.ConnectionService
	Notifs  *service.NotificationService
	Views   *service.ViewService
	Suggest *suggest.Engine

	// 管理端直连目录仓库
	UserRepo domain.UserRepository
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			MaxAge:           12 * time.Hour,
			AllowCredentials: false,
		}),
	)

	// 健康检查 & 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 鉴权分组
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, ""))

	// 建议/追踪等功能要求资料完整
	completed := authed.Group("")
	completed.Use(mdw.RequireCompletedProfile())

	mountAuthActions(api, d)
	mountProfileActions(authed, d)
	mountConnectionActions(authed, d)
	mountNotificationActions(authed, d)
	mountDashboardActions(authed, d)
	mountSuggestionActions(completed, d)

	return r
}
