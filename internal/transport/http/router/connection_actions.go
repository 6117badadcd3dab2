package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 连接台账动作 ----------

func mountConnectionActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	type sendIn struct {
		ToUserID string `json:"toUserId" binding:"required"`
		Message  string `json:"message" binding:"omitempty,max=500"`
	}
	httpez.RegisterAction[sendIn, any](ez, httpez.Action[sendIn, any]{
		Method: http.MethodPost,
		Path:   "/connections/request",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *sendIn) (any, error) {
			return d.Conns.Send(c.Request.Context(), c.GetString("userId"), in.ToUserID, in.Message)
		},
	})

	type respondIn struct {
		Action string `json:"action" binding:"required"` // accept | decline
	}
	httpez.RegisterAction[respondIn, any](ez, httpez.Action[respondIn, any]{
		Method: http.MethodPut,
		Path:   "/connections/requests/:id/respond",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *respondIn) (any, error) {
			return d.Conns.Respond(c.Request.Context(), c.Param("id"), c.GetString("userId"), in.Action)
		},
	})

	httpez.RegisterAction[struct{}, any](ez, httpez.Action[struct{}, any]{
		Method: http.MethodDelete,
		Path:   "/connections/requests/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			return d.Conns.Withdraw(c.Request.Context(), c.Param("id"), c.GetString("userId"))
		},
	})

	ez.GET("/connections/sent", func(c *gin.Context) (any, error) {
		page := atoiDefault(c.Query("page"), 1)
		limit := atoiDefault(c.Query("limit"), 20)
		items, total, err := d.Conns.ListSent(c.Request.Context(), c.GetString("userId"), page, limit)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items, "total": total, "page": page, "limit": limit}, nil
	})

	ez.GET("/connections/pending", func(c *gin.Context) (any, error) {
		limit := atoiDefault(c.Query("limit"), 6)
		items, err := d.Conns.ListPending(c.Request.Context(), c.GetString("userId"), limit)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items}, nil
	})

	ez.GET("/connections", func(c *gin.Context) (any, error) {
		page := atoiDefault(c.Query("page"), 1)
		limit := atoiDefault(c.Query("limit"), 20)
		items, total, err := d.Conns.ListAccepted(c.Request.Context(), c.GetString("userId"), page, limit, c.Query("search"))
		if err != nil {
			return nil, err
		}
		return gin.H{"items": items, "total": total, "page": page, "limit": limit}, nil
	})
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
