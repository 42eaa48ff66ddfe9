package router

import (
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/screenvault/internal/db"
	"github.com/screenvault/internal/handler"
)

const defaultTemplateGlob = "web/template/admin/*.html"

// SetupRouter 配置 Gin 引擎和路由。
// templateGlob 为空时加载默认的后台模板目录。
func SetupRouter(sessionSecret, templateGlob string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("screenvault_session", store))

	if templateGlob == "" {
		templateGlob = defaultTemplateGlob
	}
	if matches, err := filepath.Glob(templateGlob); err == nil && len(matches) > 0 {
		r.LoadHTMLGlob(templateGlob)
	}

	// 静态文件服务
	r.Static("/static", "./web/static")

	api := handler.NewAPI(db.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", api.HealthCheck)

	// 展示端拉取当前大屏内容
	r.GET("/view/:name", api.ViewScreen)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", handler.ShowLoginPage)
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/screens", api.ShowScreenManagement)
			auth.GET("/screens/:name/history", api.ShowScreenHistory)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/screens", api.ListScreens)
				apiGroup.POST("/screens", api.UploadScreen)
				apiGroup.GET("/screens/:id", api.GetScreen)
				apiGroup.GET("/screens/:id/versions", api.GetScreenVersions)
			}
		}
	}

	return r
}
