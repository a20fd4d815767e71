package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/talkbase/convstore/internal/api/handlers"
	"github.com/talkbase/convstore/internal/api/middleware"
)

type Deps struct {
	Conversation *handlers.ConversationHandler
	JWTSecret    string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	auth := r.Group("/v1")
	auth.Use(middleware.JWTAuth(d.JWTSecret))

	auth.POST("/conversations/messages", d.Conversation.AppendMessage)
	auth.GET("/conversations/messages", d.Conversation.Window)

	auth.PUT("/conversations/model", d.Conversation.SetModel)
	auth.GET("/conversations/model", d.Conversation.GetModel)

	auth.PATCH("/conversations/metadata", d.Conversation.UpsertMetadata)
	auth.GET("/conversations/metadata", d.Conversation.GetMetadata)

	auth.DELETE("/conversations", d.Conversation.Clear)
}
