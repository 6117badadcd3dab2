package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizmatch/internal/domain"
	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 建议动作（要求资料完整的分组） ----------

func mountSuggestionActions(completed *gin.RouterGroup, d Deps) {
	ez := httpez.New(completed)

	ez.GET("/suggestions", func(c *gin.Context) (any, error) {
		limit := atoiDefault(c.Query("limit"), 0)
		typeFilter := domain.Role(c.Query("type"))
		items, err := d.Suggest.GetSuggestions(c.Request.Context(), c.GetString("userId"), limit, typeFilter)
		if err != nil {
			return nil, err
		}
		return gin.H{"suggestions": items, "count": len(items)}, nil
	})

	type feedbackIn struct {
		SuggestionID string `json:"suggestionId" binding:"required"`
		Feedback     string `json:"feedback" binding:"required"` // interested | not_interested
		Action       string `json:"action" binding:"omitempty"`  // viewed | contacted | dismissed
	}
	type feedbackOut struct {
		Recorded bool `json:"recorded"`
	}
	httpez.RegisterAction[feedbackIn, feedbackOut](ez, httpez.Action[feedbackIn, feedbackOut]{
		Method: http.MethodPost,
		Path:   "/suggestions/feedback",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *feedbackIn) (feedbackOut, error) {
			err := d.Suggest.RecordFeedback(c.Request.Context(), c.GetString("userId"), in.SuggestionID, in.Feedback, in.Action)
			if err != nil {
				return feedbackOut{}, err
			}
			return feedbackOut{Recorded: true}, nil
		},
	})

	// 浏览追踪挂在同一分组：资料不完整看不到别人，也不该产生浏览记录
	type trackIn struct {
		ViewedUserID string `json:"viewedUserId" binding:"required"`
		Source       string `json:"source"`
	}
	type trackOut struct {
		Tracked bool `json:"tracked"`
	}
	httpez.RegisterAction[trackIn, trackOut](ez, httpez.Action[trackIn, trackOut]{
		Method: http.MethodPost,
		Path:   "/track-view",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *trackIn) (trackOut, error) {
			err := d.Views.RecordView(c.Request.Context(), c.GetString("userId"), in.ViewedUserID, domain.ViewSource(in.Source))
			if err != nil {
				return trackOut{}, err
			}
			return trackOut{Tracked: true}, nil
		},
	})
}
