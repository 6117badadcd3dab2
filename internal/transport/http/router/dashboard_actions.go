package router

import (
	"github.com/gin-gonic/gin"

	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 仪表盘动作 ----------

func mountDashboardActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	ez.GET("/dashboard/stats", func(c *gin.Context) (any, error) {
		return d.Views.Dashboard(c.Request.Context(), c.GetString("userId"))
	})

	ez.GET("/dashboard/visitors", func(c *gin.Context) (any, error) {
		limit := atoiDefault(c.Query("limit"), 10)
		items, err := d.Views.RecentVisitors(c.Request.Context(), c.GetString("userId"), limit)
		if err != nil {
			return nil, err
		}
		return gin.H{"visitors": items}, nil
	})
}
