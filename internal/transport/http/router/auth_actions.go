package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizmatch/internal/service"
	httpez "bizmatch/internal/transport/http/ez"
)

// ---------- 认证动作：注册/登录/刷新/找回密码 ----------

func mountAuthActions(api *gin.RouterGroup, d Deps) {
	ez := httpez.New(api)

	type registerOut struct {
		User any `json:"user"`
	}
	httpez.RegisterAction[service.RegisterInput, registerOut](ez, httpez.Action[service.RegisterInput, registerOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (registerOut, error) {
			u, err := d.Users.Register(c.Request.Context(), *in)
			if err != nil {
				return registerOut{}, err
			}
			return registerOut{User: u}, nil
		},
	})

	type loginIn struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		User   any                `json:"user"`
		Tokens *service.TokenPair `json:"tokens"`
	}
	httpez.RegisterAction[loginIn, loginOut](ez, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, pair, err := d.Users.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{User: u, Tokens: pair}, nil
		},
	})

	// 无状态 JWT：登出只是客户端丢弃 token，这里提供对称端点
	type logoutOut struct {
		Message string `json:"message"`
	}
	httpez.RegisterAction[struct{}, logoutOut](ez, httpez.Action[struct{}, logoutOut]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (logoutOut, error) {
			return logoutOut{Message: "Logged out"}, nil
		},
	})

	type refreshIn struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	httpez.RegisterAction[refreshIn, *service.TokenPair](ez, httpez.Action[refreshIn, *service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *refreshIn) (*service.TokenPair, error) {
			return d.Users.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	// 找回密码：邮箱不存在也返回成功文案（防枚举）。
	// 邮件投递是外部通道，这里只负责签发 token
	type forgotIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	type forgotOut struct {
		Message string `json:"message"`
	}
	httpez.RegisterAction[forgotIn, forgotOut](ez, httpez.Action[forgotIn, forgotOut]{
		Method: http.MethodPost,
		Path:   "/auth/forgot-password",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *forgotIn) (forgotOut, error) {
			if _, err := d.Users.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
				return forgotOut{}, err
			}
			return forgotOut{Message: "If the email exists, a reset link has been sent"}, nil
		},
	})

	type verifyIn struct {
		Token string `json:"token" binding:"required"`
	}
	type verifyOut struct {
		Valid bool `json:"valid"`
	}
	httpez.RegisterAction[verifyIn, verifyOut](ez, httpez.Action[verifyIn, verifyOut]{
		Method: http.MethodPost,
		Path:   "/auth/verify-reset-token",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *verifyIn) (verifyOut, error) {
			if _, err := d.Users.VerifyResetToken(c.Request.Context(), in.Token); err != nil {
				return verifyOut{}, err
			}
			return verifyOut{Valid: true}, nil
		},
	})

	type setPwIn struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	type setPwOut struct {
		Message string `json:"message"`
	}
	httpez.RegisterAction[setPwIn, setPwOut](ez, httpez.Action[setPwIn, setPwOut]{
		Method: http.MethodPost,
		Path:   "/auth/set-password",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *setPwIn) (setPwOut, error) {
			if err := d.Users.SetPassword(c.Request.Context(), in.Token, in.Password); err != nil {
				return setPwOut{}, err
			}
			return setPwOut{Message: "Password updated"}, nil
		},
	})
}
