package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 通知动作 ----------

func mountNotificationActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	ez.GET("/notifications", func(c *gin.Context) (any, error) {
		page := atoiDefault(c.Query("page"), 1)
		limit := atoiDefault(c.Query("limit"), 20)
		unreadOnly := c.Query("unread") == "true"
		items, total, err := d.Notifs.List(c.Request.Context(), c.GetString("userId"), page, limit, unreadOnly)
		if err != nil {
			return nil, err
		}
		unread, err := d.Notifs.UnreadCount(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items, "total": total, "unread": unread, "page": page, "limit": limit}, nil
	})

	ez.GET("/notifications/unread-count", func(c *gin.Context) (any, error) {
		n, err := d.Notifs.UnreadCount(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			return nil, err
		}
		return gin.H{"unread": n}, nil
	})

	httpez.RegisterAction[struct{}, any](ez, httpez.Action[struct{}, any]{
		Method: http.MethodPut,
		Path:   "/notifications/:id/read",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			if err := d.Notifs.MarkRead(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
				return nil, err
			}
			return gin.H{"read": true}, nil
		},
	})

	type markAllIn struct {
		OlderThan *time.Time `json:"olderThan"`
		Types     []string   `json:"types"`
	}
	httpez.RegisterAction[markAllIn, any](ez, httpez.Action[markAllIn, any]{
		Method: http.MethodPut,
		Path:   "/notifications/read-all",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *markAllIn) (any, error) {
			n, err := d.Notifs.MarkAllRead(c.Request.Context(), c.GetString("userId"), in.OlderThan, in.Types)
			if err != nil {
				return nil, err
			}
			return gin.H{"updated": n}, nil
		},
	})

	httpez.RegisterAction[struct{}, any](ez, httpez.Action[struct{}, any]{
		Method: http.MethodDelete,
		Path:   "/notifications/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			if err := d.Notifs.Delete(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
				return nil, err
			}
			return gin.H{"deleted": true}, nil
		},
	})

	type bulkDeleteIn struct {
		IDs       []string   `json:"ids"`
		OlderThan *time.Time `json:"olderThan"`
	}
	httpez.RegisterAction[bulkDeleteIn, any](ez, httpez.Action[bulkDeleteIn, any]{
		Method: http.MethodPost,
		Path:   "/notifications/bulk-delete",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *bulkDeleteIn) (any, error) {
			n, err := d.Notifs.BulkDelete(c.Request.Context(), c.GetString("userId"), in.IDs, in.OlderThan)
			if err != nil {
				return nil, err
			}
			return gin.H{"deleted": n}, nil
		},
	})
}
