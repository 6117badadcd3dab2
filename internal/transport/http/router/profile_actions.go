package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizmatch/internal/domain"
	"bizmatch/internal/service"
	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 资料动作：分步注册 + 资料视图 ----------

func mountProfileActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	ez.GET("/me", func(c *gin.Context) (any, error) {
		return d.Users.MyProfile(c.Request.Context(), c.GetString("userId"))
	})

	ez.GET("/users/:id", func(c *gin.Context) (any, error) {
		return d.Users.ViewProfile(c.Request.Context(), c.Param("id"))
	})

	type selectTypeIn struct {
		BusinessType string `json:"businessType" binding:"required"`
	}
	httpez.RegisterAction[selectTypeIn, *domain.User](ez, httpez.Action[selectTypeIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/profile/business-type",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *selectTypeIn) (*domain.User, error) {
			return d.Users.SelectBusinessType(c.Request.Context(), c.GetString("userId"), domain.Role(in.BusinessType))
		},
	})

	httpez.RegisterAction[service.Step1Input, *domain.User](ez, httpez.Action[service.Step1Input, *domain.User]{
		Method: http.MethodPost,
		Path:   "/profile/business-details",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.Step1Input) (*domain.User, error) {
			return d.Users.SaveStep1(c.Request.Context(), c.GetString("userId"), *in)
		},
	})

	type step2In struct {
		BusinessDescription string `json:"businessDescription" binding:"required"`
	}
	httpez.RegisterAction[step2In, *domain.User](ez, httpez.Action[step2In, *domain.User]{
		Method: http.MethodPost,
		Path:   "/profile/business-description",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *step2In) (*domain.User, error) {
			return d.Users.SaveStep2(c.Request.Context(), c.GetString("userId"), in.BusinessDescription)
		},
	})

	httpez.RegisterAction[service.RoleDetails, *domain.User](ez, httpez.Action[service.RoleDetails, *domain.User]{
		Method: http.MethodPost,
		Path:   "/profile/role-details",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.RoleDetails) (*domain.User, error) {
			return d.Users.SaveRoleDetails(c.Request.Context(), c.GetString("userId"), *in)
		},
	})
}
