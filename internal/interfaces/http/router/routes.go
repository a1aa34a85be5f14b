package router

import (
	"github.com/gin-gonic/gin"

	"shortscript-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册需要用户身份的 v1 路由
func RegisterV1Routes(v1 *gin.RouterGroup, scriptHandler *handler.ScriptHandler, userHandler *handler.UserHandler) {
	scripts := v1.Group("/scripts")
	{
		scripts.GET("", scriptHandler.ListScripts)
		scripts.POST("/generate", scriptHandler.GenerateScript)
		scripts.POST("/variations", scriptHandler.GenerateVariations)
	}

	me := v1.Group("/users/me")
	{
		me.GET("/context", userHandler.GetContext)
		me.PUT("/profile", userHandler.UpdateProfile)
		me.DELETE("/context/cache", userHandler.ClearContextCache)
	}
}
