package router

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"bizmatch/internal/service"
	httpez "bizmatch/internal/transport/http/ez"
	mdw "bizmatch/internal/transport/http/middleware"
)

// NewAdminEngine 管理端引擎。admin 角色 token 由运维侧签发，
// 与业务角色枚举无交集
func NewAdminEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(50, 100),
		mdw.ConcurrencyLimit(100),
		mdw.MaxBodyBytes(4<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		ginzap.Ginzap(d.Log, time.RFC3339, true),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, "admin"))

	mountAdminActions(admin, d)

	return r
}

func mountAdminActions(admin *gin.RouterGroup, d Deps) {
	ez := httpez.New(admin)

	ez.GET("/users", func(c *gin.Context) (any, error) {
		page := atoiDefault(c.Query("page"), 1)
		limit := atoiDefault(c.Query("limit"), 20)
		withDeleted := c.Query("withDeleted") == "true"
		items, total, err := d.UserRepo.List(c.Request.Context(), (page-1)*limit, limit, c.Query("search"), withDeleted)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items, "total": total, "page": page, "limit": limit}, nil
	})

	httpez.RegisterAction[struct{}, any](ez, httpez.Action[struct{}, any]{
		Method: http.MethodPost,
		Path:   "/users/:id/deactivate",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			if err := d.UserRepo.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"deactivated": true}, nil
		},
	})

	// 运维侧定向投递（公告、审核结果等）
	httpez.RegisterAction[service.CreateNotificationInput, *service.CreateNotificationResult](ez,
		httpez.Action[service.CreateNotificationInput, *service.CreateNotificationResult]{
			Method: http.MethodPost,
			Path:   "/notifications",
			Binder: httpez.BindJSON,
			Auth:   true,
			Handler: func(c *gin.Context, in *service.CreateNotificationInput) (*service.CreateNotificationResult, error) {
				return d.Notifs.Create(c.Request.Context(), *in)
			},
		})
}
